package service

import (
	"bytes"
	"context"
	"database/sql"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"testing"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/models"
)

func peopleTable() *models.Table {
	return &models.Table{
		Name:   "people.csv",
		Header: []string{"id", "name", "city"},
		Rows: [][]string{
			{"1", "John Smith", "London"},
			{"2", "Maria Garcia", "Madrid"},
			{"3", "Jon Smith", "London"},
		},
	}
}

func TestDetectDuplicates_NearIdenticalRows(t *testing.T) {
	table := prepare(t, peopleTable())

	got, err := DetectDuplicates(context.Background(), table, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectDuplicates() error = %v", err)
	}
	want := []models.Pair{{Left: 0, Right: 2}, {Left: 1, Right: models.None}}
	if !reflect.DeepEqual(got.Pairs, want) {
		t.Fatalf("pairs = %v, want %v", got.Pairs, want)
	}
	if got.Duplicates() != 1 {
		t.Errorf("Duplicates() = %d, want 1", got.Duplicates())
	}
	for i := range got.Matrix {
		if got.Matrix[i][i] != 0 {
			t.Errorf("diagonal cell %d = %v, want 0", i, got.Matrix[i][i])
		}
		for j := range got.Matrix[i] {
			if got.Matrix[i][j] != got.Matrix[j][i] {
				t.Errorf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestDetectDuplicates_Degenerate(t *testing.T) {
	tests := []struct {
		name  string
		table *models.Table
		want  []models.Pair
	}{
		{"no rows", &models.Table{Header: []string{"name"}, Rows: [][]string{}}, []models.Pair{}},
		{"single row", &models.Table{Header: []string{"name"}, Rows: [][]string{{"a"}}}, []models.Pair{{Left: 0, Right: models.None}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DetectDuplicates(context.Background(), prepare(t, tt.table), DefaultOptions())
			if err != nil {
				t.Fatalf("DetectDuplicates() error = %v", err)
			}
			if !reflect.DeepEqual(got.Pairs, tt.want) {
				t.Errorf("pairs = %v, want %v", got.Pairs, tt.want)
			}
		})
	}
}

// A claimant is not marked claimed, so a later row can still claim it and
// the same row shows up in two pairs. Symmetric removal of both rows would
// leave row 2 unmatched instead.
func TestClaimDuplicates_ClaimantStaysClaimable(t *testing.T) {
	mx := models.SimilarityMatrix{
		{0, 0.9, 0.8, 0.1},
		{0.9, 0, 0.2, 0.1},
		{0.8, 0.2, 0, 0.1},
		{0.1, 0.1, 0.1, 0},
	}
	got := duplicatePartition(claimDuplicates(rankRows(mx), 4, 0.45), 4)
	want := []models.Pair{{Left: 0, Right: 1}, {Left: 2, Right: 0}, {Left: 3, Right: models.None}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("pairs = %v, want %v", got, want)
	}

	table := &models.Table{
		Header: []string{"_id_", "v"},
		Rows:   [][]string{{"0", "a"}, {"1", "b"}, {"2", "c"}, {"3", "d"}},
	}
	sorted := SortDuplicates(table, got)
	var groups, ids []string
	for _, row := range sorted.Rows {
		groups = append(groups, row[0])
		ids = append(ids, row[1])
	}
	if !reflect.DeepEqual(ids, []string{"0", "1", "2", "3"}) || !reflect.DeepEqual(groups, []string{"1", "1", "1", "2"}) {
		t.Errorf("sorted ids = %v groups = %v", ids, groups)
	}
}

func TestDetectDuplicates_IdenticalRowsChain(t *testing.T) {
	table := prepare(t, &models.Table{
		Header: []string{"name", "city"},
		Rows:   [][]string{{"Ann Lee", "Paris"}, {"Ann Lee", "Paris"}, {"Ann Lee", "Paris"}},
	})

	got, err := DetectDuplicates(context.Background(), table, DefaultOptions())
	if err != nil {
		t.Fatalf("DetectDuplicates() error = %v", err)
	}
	// row 0 claims row 1; row 1 is then skipped, and row 2 claims row 0,
	// which appears in two pairs and links all three rows into one chain
	want := []models.Pair{{Left: 0, Right: 1}, {Left: 2, Right: 0}}
	if !reflect.DeepEqual(got.Pairs, want) {
		t.Fatalf("pairs = %v, want %v", got.Pairs, want)
	}

	sorted := SortDuplicates(table, got.Pairs)
	if len(sorted.Rows) != 3 {
		t.Fatalf("sorted rows = %d, want each row once", len(sorted.Rows))
	}
	for i, row := range sorted.Rows {
		if row[0] != "1" || row[1] != strconv.Itoa(i) {
			t.Errorf("sorted row %d = %v, want group 1 id %d", i, row, i)
		}
	}
}

func TestSortDuplicates(t *testing.T) {
	table := prepare(t, peopleTable())
	pairs := []models.Pair{{Left: 0, Right: 2}, {Left: 1, Right: models.None}}

	got := SortDuplicates(table, pairs)
	if got.Header[0] != GroupColumnName || got.Header[1] != "id" {
		t.Fatalf("header = %v", got.Header)
	}
	want := [][]string{
		{"1", "1", "John Smith", "London"},
		{"1", "3", "Jon Smith", "London"},
		{"2", "2", "Maria Garcia", "Madrid"},
	}
	if !reflect.DeepEqual(got.Rows, want) {
		t.Errorf("rows = %v, want %v", got.Rows, want)
	}
}

func TestMergeTables(t *testing.T) {
	left := &models.Table{
		Header: []string{"id", "name", "city", "age"},
		Rows:   [][]string{{"1", "Ann", "Oslo", "31"}, {"2", "Bob", "Rome", "40"}},
	}
	right := &models.Table{
		Header: []string{"key", "city", "name", "zip"},
		Rows:   [][]string{{"10", "Oslo", "Anne", "0150"}},
	}
	columns := []models.Pair{{Left: models.None, Right: 2}, {Left: 2, Right: models.None}, {Left: 1, Right: 0}, {Left: 0, Right: 1}}
	rows := []models.Pair{{Left: 0, Right: 0}, {Left: 1, Right: models.None}}

	got := MergeTables(left, right, columns, rows)

	wantHeader := []string{
		"id (left)", "key (right)",
		"name (left)", "name (right)",
		"city (left)", "city (right)",
		"age (left)", "zip (right)",
	}
	if !reflect.DeepEqual(got.Header, wantHeader) {
		t.Fatalf("header = %v, want %v", got.Header, wantHeader)
	}

	render := func(row []*string) []string {
		out := make([]string, len(row))
		for i, c := range row {
			if c == nil {
				out[i] = "<nil>"
			} else {
				out[i] = *c
			}
		}
		return out
	}
	wantRows := [][]string{
		{"1", "10", "Ann", "Anne", "Oslo", "Oslo", "31", "0150"},
		{"2", "<nil>", "Bob", "<nil>", "Rome", "<nil>", "40", "<nil>"},
	}
	for i, row := range got.Rows {
		if r := render(row); !reflect.DeepEqual(r, wantRows[i]) {
			t.Errorf("row %d = %v, want %v", i, r, wantRows[i])
		}
	}

	if flat := got.ToTable(); flat.Rows[1][1] != "" {
		t.Errorf("ToTable() rendered nil as %q", flat.Rows[1][1])
	}
}

func TestNewEngine_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.DuplicateThreshold = -1
	if _, err := NewEngine(opts, nil); !errs.Is(err, errs.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestEngine_Merge(t *testing.T) {
	opts := DefaultOptions()
	opts.MatchThreshold = 0.3
	engine, err := NewEngine(opts, logging.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	left := &models.Table{
		Name:   "left",
		Header: []string{"id", "name", "address"},
		Rows:   [][]string{{"1", "John Smith", "123 Main St"}},
	}
	right := &models.Table{
		Name:   "right",
		Header: []string{"id", "name", "address"},
		Rows:   [][]string{{"101", "Jon Smith", "123 Main Street"}},
	}

	result, err := engine.Merge(context.Background(), left, right)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	if !reflect.DeepEqual(result.Rows.Pairs, []models.Pair{{Left: 0, Right: 0}}) {
		t.Fatalf("row pairs = %v", result.Rows.Pairs)
	}
	if score := result.Rows.Rankings[0].Score; score <= 0.3 {
		t.Errorf("score = %v, want > 0.3", score)
	}
	if len(result.Table.Rows) != 1 || result.Table.Header[0] != "id (left)" {
		t.Errorf("merged table = %+v", result.Table)
	}
	if *result.Table.Rows[0][1] != "101" {
		t.Errorf("right id = %q, want 101", *result.Table.Rows[0][1])
	}
}

func TestEngine_HeaderOnlyTable(t *testing.T) {
	engine, err := NewEngine(DefaultOptions(), logging.NewNop())
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	filled := &models.Table{Name: "filled", Header: []string{"name", "city"}, Rows: [][]string{{"Ann", "Paris"}}}
	empty := &models.Table{Name: "empty", Header: []string{"name", "city"}, Rows: [][]string{}}

	rows, err := engine.MatchRows(context.Background(), filled, empty,
		[]models.Pair{{Left: 0, Right: 0}, {Left: 1, Right: 1}}, []models.ColumnType{models.Word, models.Word})
	if err != nil {
		t.Fatalf("MatchRows() error = %v", err)
	}
	if want := []models.Pair{{Left: 0, Right: models.None}}; !reflect.DeepEqual(rows.Pairs, want) {
		t.Errorf("row pairs = %v, want %v", rows.Pairs, want)
	}

	result, err := engine.Merge(context.Background(), filled, empty)
	if err != nil {
		t.Fatalf("Merge() error = %v", err)
	}
	wantHeader := []string{"_id_ (left)", "_id_ (right)", "name (left)", "name (right)", "city (left)", "city (right)"}
	if !reflect.DeepEqual(result.Table.Header, wantHeader) {
		t.Errorf("merged header = %v, want %v", result.Table.Header, wantHeader)
	}
	if want := []models.Pair{{Left: 0, Right: models.None}}; !reflect.DeepEqual(result.InputPairs(), want) {
		t.Errorf("input pairs = %v, want %v", result.InputPairs(), want)
	}
	if len(result.Table.Rows) != 1 {
		t.Fatalf("merged rows = %d, want 1", len(result.Table.Rows))
	}
	got := result.Table.ToTable().Rows[0]
	if want := []string{"", "0", "", "Ann", "", "Paris"}; !reflect.DeepEqual(got, want) {
		t.Errorf("merged row = %q, want %q", got, want)
	}
}

func TestEngine_DetectDuplicatesLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWriterLogger(&buf, logging.LogConfig{Level: logging.LevelDebug, Format: "text"})
	engine, err := NewEngine(DefaultOptions(), logger)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}

	table := peopleTable()
	table.Header[0] = "name0"
	table.Rows[0][0] = "x"
	table.ID = models.FlagYes

	result, err := engine.DetectDuplicates(context.Background(), table)
	if err != nil {
		t.Fatalf("DetectDuplicates() error = %v", err)
	}
	if result.Table.Header[0] != models.IDColumnName {
		t.Errorf("expected synthesized id column, header = %v", result.Table.Header)
	}
	if len(result.Sorted.Rows) != 3 {
		t.Errorf("sorted rows = %d, want 3", len(result.Sorted.Rows))
	}

	out := buf.String()
	for _, want := range []string{"declared id column", "ranking", "duplicates detected"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

func TestEngine_RejectsRaggedTable(t *testing.T) {
	engine, err := NewEngine(DefaultOptions(), nil)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	ragged := &models.Table{Header: []string{"a", "b"}, Rows: [][]string{{"1"}}}
	if _, err := engine.DetectDuplicates(context.Background(), ragged); !errs.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected input shape error, got %v", err)
	}
	if _, err := engine.Merge(context.Background(), ragged, ragged); !errs.Is(err, errs.ErrInputShape) {
		t.Fatalf("expected input shape error from Merge, got %v", err)
	}
}

func TestSQLDataSource_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "people.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	stmts := []string{
		`CREATE TABLE people (id INTEGER PRIMARY KEY, name TEXT, city TEXT)`,
		`INSERT INTO people (id, name, city) VALUES (1, 'John Smith', 'London'), (2, 'Maria Garcia', NULL)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	ctx := context.Background()
	src, err := Connect(ctx, DataSourceConfig{Type: "sqlite", Path: path})
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer src.Close()

	tables, err := src.ListTables(ctx)
	if err != nil {
		t.Fatalf("ListTables() error = %v", err)
	}
	if !reflect.DeepEqual(tables, []string{"people"}) {
		t.Errorf("tables = %v, want [people]", tables)
	}

	table, err := src.LoadTable(ctx, "people", 0)
	if err != nil {
		t.Fatalf("LoadTable() error = %v", err)
	}
	if !reflect.DeepEqual(table.Header, []string{"id", "name", "city"}) {
		t.Errorf("header = %v", table.Header)
	}
	want := [][]string{{"1", "John Smith", "London"}, {"2", "Maria Garcia", ""}}
	if !reflect.DeepEqual(table.Rows, want) {
		t.Errorf("rows = %v, want %v", table.Rows, want)
	}

	limited, err := src.LoadTable(ctx, "people", 1)
	if err != nil {
		t.Fatalf("LoadTable(limit 1) error = %v", err)
	}
	if limited.NumRows() != 1 {
		t.Errorf("limited rows = %d, want 1", limited.NumRows())
	}

	if _, err := src.LoadTable(ctx, "people; DROP TABLE people", 0); !errs.Is(err, errs.ErrValidation) {
		t.Errorf("expected validation error for unknown table, got %v", err)
	}
}

func TestConnect_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		config DataSourceConfig
	}{
		{"unsupported type", DataSourceConfig{Type: "oracle"}},
		{"sqlite without path", DataSourceConfig{Type: "sqlite"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Connect(context.Background(), tt.config); !errs.Is(err, errs.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDataSourceName_MySQL(t *testing.T) {
	driver, dsn, err := dataSourceName(DataSourceConfig{Type: "mysql", Host: "db", Port: 3306, User: "u", Password: "p", DBName: "crm"})
	if err != nil {
		t.Fatalf("dataSourceName() error = %v", err)
	}
	if driver != "mysql" || !strings.HasPrefix(dsn, "u:p@tcp(db:3306)/crm") {
		t.Errorf("driver = %q dsn = %q", driver, dsn)
	}
}
