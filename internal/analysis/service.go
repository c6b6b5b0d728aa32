package analysis

import (
	"fuzzysheets/internal/models"
)

// Analyze prepares t and reports its id column, inferred column types and
// per-column profiles.
func (s *CSVService) Analyze(t *models.Table) (models.TableAnalysis, error) {
	prepared, synthesized, err := PrepareTable(t)
	if err != nil {
		return models.TableAnalysis{}, err
	}

	result := models.TableAnalysis{
		Name:          prepared.Name,
		NumRows:       prepared.NumRows(),
		NumColumns:    prepared.NumColumns(),
		IDColumn:      prepared.Header[0],
		IDSynthesized: synthesized,
		Columns:       make([]models.ColumnInfo, prepared.NumColumns()),
		IDProfile:     ProfileColumn(prepared, 0),
	}

	types := ClassifyColumns(prepared)
	for i := range result.Columns {
		result.Columns[i] = models.ColumnInfo{
			Index:   i,
			Name:    prepared.Header[i+1],
			Type:    types[i],
			Profile: ProfileColumn(prepared, i+1),
		}
	}
	return result, nil
}
