package generate

import (
	"bytes"
	"context"
	"reflect"
	"strconv"
	"strings"
	"testing"

	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
)

func TestWordListsLoaded(t *testing.T) {
	w := loadWords()
	lists := map[string]int{
		"names":    len(w.names),
		"surnames": len(w.surnames),
		"people":   len(w.people),
		"latin":    len(w.latin),
		"streets":  len(w.streets),
	}
	for name, n := range lists {
		if n == 0 {
			t.Errorf("word list %s is empty", name)
		}
	}
	for _, variants := range w.streets {
		if len(variants) < 2 {
			t.Errorf("street type %v has no abbreviation", variants)
		}
	}
	if loadWords() != w {
		t.Error("word lists must be loaded once")
	}
}

func TestFieldGenerators(t *testing.T) {
	g := New(7)
	fields := map[string]func() (string, string){
		"first name": g.FirstName,
		"surname":    g.Surname,
		"company":    g.Company,
		"address":    g.Address,
		"telephone":  g.Telephone,
		"date":       g.Date,
	}
	for name, field := range fields {
		t.Run(name, func(t *testing.T) {
			for i := 0; i < 500; i++ {
				original, mangled := field()
				if original == "" {
					t.Fatalf("empty original value")
				}
				if name != "first name" && mangled == "" {
					t.Fatalf("empty mangled value for %q", original)
				}
			}
		})
	}
}

func TestTelephoneKeepsDigits(t *testing.T) {
	g := New(3)
	digits := func(s string) string {
		var b strings.Builder
		for _, c := range s {
			if c >= '0' && c <= '9' {
				b.WriteRune(c)
			}
		}
		return b.String()
	}
	for i := 0; i < 200; i++ {
		a, b := g.Telephone()
		if digits(a) != digits(b) {
			t.Fatalf("telephone digits differ: %q vs %q", a, b)
		}
	}
}

func TestNew_Deterministic(t *testing.T) {
	a, truthA := New(42).Spreadsheet(30)
	b, truthB := New(42).Spreadsheet(30)
	if !reflect.DeepEqual(a, b) || !reflect.DeepEqual(truthA, truthB) {
		t.Fatal("same seed produced different output")
	}
	c, _ := New(43).Spreadsheet(30)
	if reflect.DeepEqual(a.Rows, c.Rows) {
		t.Fatal("different seeds produced identical rows")
	}
}

func TestSpreadsheet(t *testing.T) {
	const n = 40
	table, truth := New(1).Spreadsheet(n)

	if table.NumRows() < n {
		t.Fatalf("rows = %d, want at least %d", table.NumRows(), n)
	}
	if got := table.Header[len(table.Header)-1]; got != DummyColumnName {
		t.Errorf("last header = %q, want %q", got, DummyColumnName)
	}
	for i, row := range table.Rows {
		if len(row) != len(Header)+1 {
			t.Fatalf("row %d has %d fields", i, len(row))
		}
	}

	seen := make([]int, table.NumRows())
	for _, p := range truth {
		if !p.HasLeft() {
			t.Fatalf("singleton %v must be (row, None)", p)
		}
		seen[p.Left]++
		if p.HasRight() {
			if p.Left >= p.Right {
				t.Errorf("duplicate pair %v is not ordered", p)
			}
			seen[p.Right]++
			idL, _ := strconv.Atoi(table.Rows[p.Left][0])
			idR, _ := strconv.Atoi(table.Rows[p.Right][0])
			if idR-100 != idL {
				t.Errorf("pair %v has ids %d and %d", p, idL, idR)
			}
		}
	}
	for i, count := range seen {
		if count != 1 {
			t.Errorf("row %d appears %d times in the truth log", i, count)
		}
	}
}

func TestSpreadsheets(t *testing.T) {
	const n = 25
	left, right, truth := New(5).Spreadsheets(n)

	if len(truth) != n {
		t.Fatalf("truth has %d pairs, want %d", len(truth), n)
	}
	if len(left.Header) != len(Header) || len(right.Header) != len(Header)+1 {
		t.Fatalf("headers: left %v, right %v", left.Header, right.Header)
	}

	seenL := make([]int, left.NumRows())
	seenR := make([]int, right.NumRows())
	for _, p := range truth {
		if p.HasLeft() {
			seenL[p.Left]++
		}
		if p.HasRight() {
			seenR[p.Right]++
		}
		if p.Complete() {
			idL, _ := strconv.Atoi(left.Rows[p.Left][0])
			idR, _ := strconv.Atoi(right.Rows[p.Right][0])
			if idR-100 != idL {
				t.Errorf("pair %v has ids %d and %d", p, idL, idR)
			}
		}
	}
	for i, c := range seenL {
		if c != 1 {
			t.Errorf("left row %d appears %d times", i, c)
		}
	}
	for j, c := range seenR {
		if c != 1 {
			t.Errorf("right row %d appears %d times", j, c)
		}
	}
}

func TestEvaluate(t *testing.T) {
	p := func(l, r int) models.Pair { return models.Pair{Left: l, Right: r} }
	const none = models.None

	tests := []struct {
		name  string
		found []models.Pair
		truth []models.Pair
		want  models.EvaluationReport
	}{
		{
			name:  "perfect",
			found: []models.Pair{p(0, 1), p(2, none)},
			truth: []models.Pair{p(0, 1), p(2, none)},
			want:  models.EvaluationReport{Total: 2, Correct: 2},
		},
		{
			name:  "wrong and failed",
			found: []models.Pair{p(0, 2), p(1, none), p(3, none)},
			truth: []models.Pair{p(0, 1), p(2, none), p(3, none)},
			want:  models.EvaluationReport{Total: 3, Correct: 1, Wrong: 1, Failed: 1},
		},
		{
			name:  "nothing found",
			truth: []models.Pair{p(0, 1)},
			want:  models.EvaluationReport{Total: 1},
		},
		{
			name:  "repeated pairs are counted once each",
			found: []models.Pair{p(0, 1), p(0, 1)},
			truth: []models.Pair{p(0, 1)},
			want:  models.EvaluationReport{Total: 1, Correct: 1, Wrong: 1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Evaluate(tt.found, tt.truth); got != tt.want {
				t.Errorf("Evaluate() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCanonicalDuplicates(t *testing.T) {
	in := []models.Pair{{Left: 4, Right: 1}, {Left: 2, Right: 3}, {Left: models.None, Right: 5}, {Left: 6, Right: models.None}}
	want := []models.Pair{{Left: 1, Right: 4}, {Left: 2, Right: 3}, {Left: 5, Right: models.None}, {Left: 6, Right: models.None}}
	if got := CanonicalDuplicates(in); !reflect.DeepEqual(got, want) {
		t.Errorf("CanonicalDuplicates() = %v, want %v", got, want)
	}
}

func TestTruthLog(t *testing.T) {
	pairs := []models.Pair{{Left: 0, Right: 3}, {Left: 1, Right: models.None}, {Left: models.None, Right: 2}}
	var buf bytes.Buffer
	if err := WriteTruth(&buf, pairs); err != nil {
		t.Fatal(err)
	}
	if buf.String() != "0,3\n1,\n,2\n" {
		t.Errorf("log = %q", buf.String())
	}
	got, err := ReadTruth(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(got, pairs) {
		t.Errorf("ReadTruth() = %v, want %v", got, pairs)
	}

	if _, err := ReadTruth(strings.NewReader("x,1\n")); err == nil {
		t.Error("expected error for a malformed index")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteReport(&buf, "merge", models.EvaluationReport{Total: 4, Correct: 3, Failed: 1}); err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"REPORT (merge)", "total:             4", "correct matchings: 3", "failed matchings:  1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("report misses %q:\n%s", want, buf.String())
		}
	}
}

// The generated data is the accuracy benchmark of the matcher; these
// bounds only catch gross regressions.
func TestAccuracy_DetectDuplicates(t *testing.T) {
	table, truth := New(1).Spreadsheet(60)
	engine, err := service.NewEngine(service.DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := engine.DetectDuplicates(context.Background(), table)
	if err != nil {
		t.Fatal(err)
	}
	report := Evaluate(CanonicalDuplicates(res.Pairs), truth)
	if report.Total != len(truth) {
		t.Fatalf("Total = %d, want %d", report.Total, len(truth))
	}
	if report.Correct*2 < report.Total {
		t.Errorf("too few correct matchings: %+v", report)
	}
}

func TestAccuracy_Merge(t *testing.T) {
	left, right, truth := New(2).Spreadsheets(40)
	engine, err := service.NewEngine(service.DefaultOptions(), nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := engine.Merge(context.Background(), left, right)
	if err != nil {
		t.Fatal(err)
	}
	report := Evaluate(res.InputPairs(), truth)
	if report.Correct*2 < report.Total {
		t.Errorf("too few correct matchings: %+v", report)
	}
}
