package analysis

import (
	"fmt"
	"strconv"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/models"
)

// ValidateShape checks that the table has a header and that every row has
// exactly one field per header column.
func ValidateShape(t *models.Table) error {
	if t == nil || len(t.Header) == 0 {
		return errs.NewInputShape("analysis.ValidateShape", "table has no header", 0, nil)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			return errs.NewInputShape("analysis.ValidateShape",
				fmt.Sprintf("row has %d fields, header has %d", len(row), len(t.Header)), i+1, nil)
		}
	}
	return nil
}

// PrepareTable returns a copy of t whose first column is a valid id column
// (digits only, unique). Unless t.ID is FlagNo the existing first column is
// kept when it qualifies; otherwise a 0-based id column named _id_ is
// prepended. The result always has ID == FlagYes, so preparing twice is a
// no-op.
func PrepareTable(t *models.Table) (*models.Table, bool, error) {
	if err := ValidateShape(t); err != nil {
		return nil, false, err
	}

	out := t.Clone()
	if hasIDColumn(t) {
		out.ID = models.FlagYes
		return out, false, nil
	}

	out.Header = append([]string{models.IDColumnName}, t.Header...)
	for i, row := range t.Rows {
		out.Rows[i] = append([]string{strconv.Itoa(i)}, row...)
	}
	out.ID = models.FlagYes
	return out, true, nil
}

// hasIDColumn reports whether the first column of t can serve as its id
// column. A header-only table has no values to check, so only a table that
// was already prepared keeps its first column.
func hasIDColumn(t *models.Table) bool {
	switch {
	case t.ID == models.FlagNo:
		return false
	case len(t.Rows) == 0:
		return t.ID == models.FlagYes && t.Header[0] == models.IDColumnName
	default:
		return ProfileColumn(t, 0).IsIDColumn
	}
}
