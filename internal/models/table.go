package models

import (
	"fmt"
	"strings"
)

// Flag is a tri-state switch used for "does the input have X" questions
// where the answer may be left to auto-detection.
type Flag int

const (
	FlagAuto Flag = iota
	FlagYes
	FlagNo
)

func (f Flag) String() string {
	switch f {
	case FlagYes:
		return "true"
	case FlagNo:
		return "false"
	default:
		return "auto"
	}
}

// ParseFlag accepts auto/true/false and the usual boolean spellings.
func ParseFlag(s string) (Flag, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto", "unknown":
		return FlagAuto, nil
	case "true", "yes", "1", "y":
		return FlagYes, nil
	case "false", "no", "0", "n":
		return FlagNo, nil
	}
	return FlagAuto, fmt.Errorf("invalid flag %q (want auto, true or false)", s)
}

// IDColumnName is the header given to a synthesized id column.
const IDColumnName = "_id_"

// Table is an ordered set of rows of string fields with a positional header.
type Table struct {
	Name   string     `json:"name,omitempty"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
	// ID tells whether the first column is an integer id column.
	ID Flag `json:"-"`
}

// NumColumns returns the number of columns excluding the id column.
// Only meaningful once the table has been prepared.
func (t *Table) NumColumns() int {
	if len(t.Header) == 0 {
		return 0
	}
	return len(t.Header) - 1
}

// NumRows returns the row count.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// Column returns the values of column idx (absolute index, id column included).
func (t *Table) Column(idx int) []string {
	values := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if idx < len(row) {
			values = append(values, row[idx])
		}
	}
	return values
}

// Clone returns a deep copy.
func (t *Table) Clone() *Table {
	out := &Table{
		Name:   t.Name,
		Header: append([]string(nil), t.Header...),
		Rows:   make([][]string, len(t.Rows)),
		ID:     t.ID,
	}
	for i, row := range t.Rows {
		out.Rows[i] = append([]string(nil), row...)
	}
	return out
}
