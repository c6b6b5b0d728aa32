package generate

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"fuzzysheets/internal/models"
)

// Evaluate compares found row pairs with the expected ones. An expected
// pair present in found is correct; each leftover found pair is wrong
// when it matches two rows and failed when it leaves a row unmatched.
func Evaluate(found, truth []models.Pair) models.EvaluationReport {
	remaining := make(map[models.Pair]int, len(found))
	for _, p := range found {
		remaining[p]++
	}

	report := models.EvaluationReport{Total: len(truth)}
	for _, p := range truth {
		if remaining[p] > 0 {
			remaining[p]--
			report.Correct++
		}
	}
	for p, count := range remaining {
		if p.Complete() {
			report.Wrong += count
		} else {
			report.Failed += count
		}
	}
	return report
}

// CanonicalDuplicates orders duplicate pairs within one table so they
// compare equal regardless of which row claimed the other: complete pairs
// become (low, high) and singletons (row, None).
func CanonicalDuplicates(pairs []models.Pair) []models.Pair {
	out := make([]models.Pair, len(pairs))
	for i, p := range pairs {
		if (p.Complete() && p.Left > p.Right) || !p.HasLeft() {
			p = p.Swap()
		}
		out[i] = p
	}
	return out
}

// WriteTruth writes pairs as two-column CSV, empty fields for None.
func WriteTruth(w io.Writer, pairs []models.Pair) error {
	cw := csv.NewWriter(w)
	for _, p := range pairs {
		if err := cw.Write([]string{indexField(p.Left), indexField(p.Right)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadTruth parses a log written by WriteTruth.
func ReadTruth(r io.Reader) ([]models.Pair, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 2
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read truth log: %w", err)
	}
	pairs := make([]models.Pair, 0, len(records))
	for n, rec := range records {
		var p models.Pair
		if p.Left, err = parseIndex(rec[0]); err != nil {
			return nil, fmt.Errorf("truth log line %d: %w", n+1, err)
		}
		if p.Right, err = parseIndex(rec[1]); err != nil {
			return nil, fmt.Errorf("truth log line %d: %w", n+1, err)
		}
		pairs = append(pairs, p)
	}
	return pairs, nil
}

func WriteTruthFile(path string, pairs []models.Pair) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create truth log: %w", err)
	}
	if err := WriteTruth(f, pairs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func ReadTruthFile(path string) ([]models.Pair, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open truth log: %w", err)
	}
	defer f.Close()
	return ReadTruth(f)
}

// WriteReport prints an accuracy report in a fixed layout.
func WriteReport(w io.Writer, title string, r models.EvaluationReport) error {
	_, err := fmt.Fprintf(w, "REPORT (%s)\ntotal:             %d\ncorrect matchings: %d\nwrong matchings:   %d\nfailed matchings:  %d\n",
		title, r.Total, r.Correct, r.Wrong, r.Failed)
	return err
}

func indexField(i int) string {
	if i == models.None {
		return ""
	}
	return strconv.Itoa(i)
}

func parseIndex(s string) (int, error) {
	if s == "" {
		return models.None, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid row index %q", s)
	}
	if i < 0 {
		return 0, fmt.Errorf("negative row index %d", i)
	}
	return i, nil
}
