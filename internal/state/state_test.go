package state

import (
	"sync"
	"testing"

	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
)

func loaded(name string, rows int) *LoadedTable {
	t := &models.Table{Name: name, Header: []string{"id", "name"}, Rows: make([][]string, rows)}
	return &LoadedTable{Table: t, Filename: name + ".csv", Source: "upload"}
}

func TestSession_Tables(t *testing.T) {
	s := NewSession()
	if s.Table(1) != nil || s.Table(3) != nil {
		t.Fatal("empty session returned a table")
	}

	s.SetTable(2, loaded("b", 4))
	s.SetTable(3, loaded("ignored", 1))

	st := s.Status()
	if st.File1Loaded || !st.File2Loaded {
		t.Fatalf("status = %+v", st)
	}
	if st.File2.Rows != 4 || st.File2.Columns != 2 || st.File2.Filename != "b.csv" {
		t.Errorf("file2 = %+v", st.File2)
	}
}

func TestSession_SetTableDropsResults(t *testing.T) {
	s := NewSession()
	s.SetGeneratedPair(loaded("a", 1), loaded("b", 1), []models.Pair{{Left: 0, Right: 0}})
	s.SetMerged(&service.MergeResult{})
	s.SetDuplicates(&service.DetectResult{})

	st := s.Status()
	if !st.HasMerged || !st.HasDuplicates || s.MergeTruth() == nil {
		t.Fatalf("results not stored: %+v", st)
	}

	s.SetTable(1, loaded("c", 2))
	if s.Merged() != nil || s.Duplicates() != nil || s.MergeTruth() != nil {
		t.Error("replacing a table must drop derived results")
	}
}

func TestSession_Concurrent(t *testing.T) {
	s := NewSession()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s.SetTable(i%2+1, loaded("t", i))
			_ = s.Status()
			_ = s.Table(1)
		}(i)
	}
	wg.Wait()
	if !s.Status().File1Loaded || !s.Status().File2Loaded {
		t.Error("both slots should be loaded")
	}
}
