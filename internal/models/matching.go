package models

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// ColumnType selects the similarity metric and weight applied to a column.
type ColumnType int

const (
	Word ColumnType = iota
	Set
	AlphaNumeric

	NumColumnTypes = 3
)

// ColumnTypes lists every type in enumeration order.
var ColumnTypes = []ColumnType{Word, Set, AlphaNumeric}

func (t ColumnType) String() string {
	switch t {
	case Word:
		return "word"
	case Set:
		return "set"
	case AlphaNumeric:
		return "alphanumeric"
	}
	return "unknown"
}

// Weight is the relative weight of the column type in row scoring.
func (t ColumnType) Weight() float64 {
	if t == Word {
		return 2
	}
	return 1
}

func (t ColumnType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *ColumnType) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for _, ct := range ColumnTypes {
		if ct.String() == s {
			*t = ct
			return nil
		}
	}
	return fmt.Errorf("unknown column type %q", s)
}

// None marks the absent side of a Pair.
const None = -1

// Pair matches a left index with a right index; either side may be None.
// A []Pair is used both for column matchings and for row matchings.
type Pair struct {
	Left  int
	Right int
}

func (p Pair) HasLeft() bool  { return p.Left != None }
func (p Pair) HasRight() bool { return p.Right != None }

// Complete reports whether both sides are present.
func (p Pair) Complete() bool { return p.HasLeft() && p.HasRight() }

// Swap returns the pair with sides exchanged.
func (p Pair) Swap() Pair { return Pair{Left: p.Right, Right: p.Left} }

func (p Pair) String() string {
	return fmt.Sprintf("(%s, %s)", indexString(p.Left), indexString(p.Right))
}

func indexString(i int) string {
	if i == None {
		return "None"
	}
	return strconv.Itoa(i)
}

// MarshalJSON renders the pair as [left, right] with null for None.
func (p Pair) MarshalJSON() ([]byte, error) {
	var out [2]*int
	if p.HasLeft() {
		l := p.Left
		out[0] = &l
	}
	if p.HasRight() {
		r := p.Right
		out[1] = &r
	}
	return json.Marshal(out)
}

func (p *Pair) UnmarshalJSON(b []byte) error {
	var in [2]*int
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	p.Left, p.Right = None, None
	if in[0] != nil {
		p.Left = *in[0]
	}
	if in[1] != nil {
		p.Right = *in[1]
	}
	return nil
}

// SimilarityMatrix holds pairwise scores in [0,1], rows by columns.
type SimilarityMatrix [][]float64

// NewSimilarityMatrix allocates an m x n zero matrix.
func NewSimilarityMatrix(m, n int) SimilarityMatrix {
	mx := make(SimilarityMatrix, m)
	for i := range mx {
		mx[i] = make([]float64, n)
	}
	return mx
}

// Ranking is the best partner found for one matrix row.
type Ranking struct {
	Row     int     `json:"row"`
	Partner int     `json:"partner"`
	Score   float64 `json:"score"`
	Offset  float64 `json:"offset_ratio"`
}

// MergedTable is the unified output of a merge; nil cells mark the side
// that is absent from a row pair.
type MergedTable struct {
	Header []string    `json:"header"`
	Rows   [][]*string `json:"rows"`
}

// ToTable renders nil cells as empty strings.
func (m *MergedTable) ToTable() *Table {
	out := &Table{Header: append([]string(nil), m.Header...), Rows: make([][]string, len(m.Rows))}
	for i, row := range m.Rows {
		rendered := make([]string, len(row))
		for j, cell := range row {
			if cell != nil {
				rendered[j] = *cell
			}
		}
		out.Rows[i] = rendered
	}
	return out
}
