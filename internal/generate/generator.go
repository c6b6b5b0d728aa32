// Package generate produces synthetic spreadsheets with known fuzzy
// duplicates, together with the matching that a perfect matcher would find.
package generate

import (
	"math"
	"math/rand"
	"strconv"
	"strings"

	"fuzzysheets/internal/models"
)

// skipProbability is both the chance that one side of an example is left
// out and the chance that the copy is kept identical.
const skipProbability = 0.2

// Header is the header of every generated table, dummy column excluded.
var Header = []string{"id", "first name", "last name", "company", "address", "telephone", "date"}

// DummyColumnName is the header of the filler column with random values.
const DummyColumnName = "dummy"

type Generator struct {
	rnd   *rand.Rand
	words *wordLists
}

// New returns a generator whose output is fully determined by seed.
func New(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed)), words: loadWords()}
}

// example returns one generated record and its mangled twin, without ids.
func (g *Generator) example() (original, mangled []string) {
	fields := []func() (string, string){g.FirstName, g.Surname, g.Company, g.Address, g.Telephone, g.Date}
	original = make([]string, len(fields))
	mangled = make([]string, len(fields))
	for i, field := range fields {
		original[i], mangled[i] = field()
	}
	return original, mangled
}

// examples draws records until done reports true. Each record lands on
// the left, the right or both sides; left rows get id k, right rows id
// pre+k. The returned pairs index into left and right.
func (g *Generator) examples(n int, done func(k, rows int) bool) (left, right [][]string, truth []models.Pair) {
	pre := pow10(len(strconv.Itoa(n)))
	seen := make(map[string]bool)
	k := 0
	for !done(k, len(left)+len(right)) {
		l, r := g.example()
		key := strings.Join(l, "\x1f") + "\x1e" + strings.Join(r, "\x1f")
		if seen[key] {
			continue
		}
		seen[key] = true

		inLeft := g.rnd.Float64() > skipProbability
		inRight := g.rnd.Float64() > skipProbability
		if !inLeft && !inRight {
			continue
		}
		k++
		p := models.Pair{Left: models.None, Right: models.None}
		if inLeft {
			p.Left = len(left)
			left = append(left, append([]string{strconv.Itoa(k)}, l...))
		}
		if inRight {
			p.Right = len(right)
			copied := r
			if g.rnd.Float64() <= skipProbability {
				copied = l
			}
			right = append(right, append([]string{strconv.Itoa(pre + k)}, copied...))
		}
		truth = append(truth, p)
	}
	return left, right, truth
}

// Spreadsheet returns a table of at least n rows in which most records
// appear twice, once as generated and once mangled, plus a dummy column.
// The truth pairs index table rows: (i, j) for a duplicate with i < j,
// (i, None) for a record that appears once.
func (g *Generator) Spreadsheet(n int) (*models.Table, []models.Pair) {
	left, right, truth := g.examples(n, func(_, rows int) bool { return rows >= n })

	for i, p := range truth {
		if p.HasRight() {
			p.Right += len(left)
		}
		if !p.HasLeft() {
			p = p.Swap()
		}
		truth[i] = p
	}

	rows := append(left, right...)
	dummy := g.dummyColumn(len(rows))
	for i := range rows {
		rows[i] = append(rows[i], dummy[i])
	}
	return &models.Table{
		Name:   "duplicates",
		Header: append(append([]string(nil), Header...), DummyColumnName),
		Rows:   nonNil(rows),
		ID:     models.FlagYes,
	}, truth
}

// Spreadsheets returns two tables built from n records; each record lands
// in the left table, the right table or both, mangled on the right. Only
// the right table gets the dummy column. truth has one pair per record.
func (g *Generator) Spreadsheets(n int) (left, right *models.Table, truth []models.Pair) {
	l, r, truth := g.examples(n, func(k, _ int) bool { return k >= n })

	dummy := g.dummyColumn(len(r))
	for i := range r {
		r[i] = append(r[i], dummy[i])
	}
	left = &models.Table{
		Name:   "spreadsheet1",
		Header: append([]string(nil), Header...),
		Rows:   nonNil(l),
		ID:     models.FlagYes,
	}
	right = &models.Table{
		Name:   "spreadsheet2",
		Header: append(append([]string(nil), Header...), DummyColumnName),
		Rows:   nonNil(r),
		ID:     models.FlagYes,
	}
	return left, right, truth
}

// dummyColumn fills a column with one randomly chosen kind of noise:
// fractions, small or signed integers, letters or prices.
func (g *Generator) dummyColumn(n int) []string {
	out := make([]string, n)
	kind := g.randInt(1, 5)
	for i := range out {
		switch kind {
		case 1:
			out[i] = strconv.FormatFloat(round(g.rnd.Float64(), 5), 'f', -1, 64)
		case 2:
			out[i] = strconv.Itoa(g.randInt(0, 999))
		case 3:
			out[i] = strconv.Itoa(g.randInt(-9999, 9999))
		case 4:
			b := make([]byte, 7)
			for j := range b {
				b[j] = byte('a' + g.rnd.Intn(26))
			}
			out[i] = string(b)
		default:
			out[i] = "$" + strconv.FormatFloat(round(g.rnd.Float64()*100, 2), 'f', -1, 64)
		}
	}
	return out
}

func round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

func nonNil(rows [][]string) [][]string {
	if rows == nil {
		return [][]string{}
	}
	return rows
}
