// Package state keeps the tables and results of the interactive session
// shared by the HTTP handlers.
package state

import (
	"sync"

	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
)

// LoadedTable is a table loaded into one of the two session slots.
type LoadedTable struct {
	Table    *models.Table
	Filename string
	// Source is "upload", "database" or "generated".
	Source string
	// Truth holds the expected matching of generated tables.
	Truth []models.Pair
}

// Session holds the loaded tables and the last results.
type Session struct {
	mu sync.RWMutex

	tables [2]*LoadedTable

	merged     *service.MergeResult
	duplicates *service.DetectResult
	// truth of the last generated pair of tables
	mergeTruth []models.Pair
}

func NewSession() *Session {
	return &Session{}
}

func validIndex(fileIndex int) bool {
	return fileIndex == 1 || fileIndex == 2
}

// SetTable stores t in slot fileIndex (1 or 2) and drops results derived
// from the previous table.
func (s *Session) SetTable(fileIndex int, t *LoadedTable) {
	if !validIndex(fileIndex) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[fileIndex-1] = t
	s.merged = nil
	s.mergeTruth = nil
	s.duplicates = nil
}

// Table returns the table in slot fileIndex, or nil.
func (s *Session) Table(fileIndex int) *LoadedTable {
	if !validIndex(fileIndex) {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tables[fileIndex-1]
}

// SetGeneratedPair loads two generated tables and the truth of their merge.
func (s *Session) SetGeneratedPair(left, right *LoadedTable, truth []models.Pair) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[0], s.tables[1] = left, right
	s.merged = nil
	s.duplicates = nil
	s.mergeTruth = truth
}

func (s *Session) MergeTruth() []models.Pair {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.mergeTruth
}

func (s *Session) SetMerged(m *service.MergeResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.merged = m
}

func (s *Session) Merged() *service.MergeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.merged
}

func (s *Session) SetDuplicates(d *service.DetectResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.duplicates = d
}

func (s *Session) Duplicates() *service.DetectResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.duplicates
}

// Status summarizes the session.
func (s *Session) Status() models.StatusResponse {
	s.mu.RLock()
	defer s.mu.RUnlock()

	resp := models.StatusResponse{
		HasMerged:     s.merged != nil,
		HasDuplicates: s.duplicates != nil,
	}
	status := func(t *LoadedTable) models.FileStatus {
		if t == nil {
			return models.FileStatus{}
		}
		return models.FileStatus{
			Loaded:   true,
			Rows:     t.Table.NumRows(),
			Columns:  len(t.Table.Header),
			Filename: t.Filename,
			Source:   t.Source,
		}
	}
	resp.File1 = status(s.tables[0])
	resp.File2 = status(s.tables[1])
	resp.File1Loaded = resp.File1.Loaded
	resp.File2Loaded = resp.File2.Loaded
	return resp
}
