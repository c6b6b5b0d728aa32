package analysis

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/models"
)

// LoadOptions controls header and id column detection for CSV input.
type LoadOptions struct {
	Header models.Flag
	ID     models.Flag
}

// CSVService reads and writes tables as CSV.
type CSVService struct{}

func NewCSVService() *CSVService {
	return &CSVService{}
}

// ParseFile reads a CSV file into a table named after the file.
func (s *CSVService) ParseFile(filePath string, opts LoadOptions) (*models.Table, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	t, err := s.Parse(file, opts)
	if err != nil {
		return nil, err
	}
	t.Name = filepath.Base(filePath)
	return t, nil
}

// Parse reads CSV from r. Comma and semicolon delimited input are both
// accepted; the delimiter is chosen from the first line. Rows with a field
// count different from the first record are an InputShapeError.
func (s *CSVService) Parse(r io.Reader, opts LoadOptions) (*models.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errs.NewInputShape("analysis.Parse", "read input", 0, err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = sniffDelimiter(data)
	reader.LazyQuotes = true // Allow bare quotes in non-quoted fields
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		var perr *csv.ParseError
		if errors.As(err, &perr) {
			return nil, errs.NewInputShape("analysis.Parse", "malformed csv", perr.Line, perr.Err)
		}
		return nil, errs.NewInputShape("analysis.Parse", "malformed csv", 0, err)
	}
	if len(records) == 0 {
		return nil, errs.NewInputShape("analysis.Parse", "input is empty", 0, nil)
	}

	header := opts.Header
	if header == models.FlagAuto {
		header = models.FlagYes
		if containsDigit(records[0]) {
			header = models.FlagNo
		}
	}

	t := &models.Table{ID: opts.ID}
	if header == models.FlagYes {
		t.Header = records[0]
		t.Rows = records[1:]
	} else {
		t.Header = make([]string, len(records[0]))
		for i := range t.Header {
			t.Header[i] = fmt.Sprintf("Column %d", i+1)
		}
		t.Rows = records
	}

	// Clean headers
	for i, h := range t.Header {
		t.Header[i] = strings.TrimSpace(h)
	}
	if t.Rows == nil {
		t.Rows = [][]string{}
	}
	return t, ValidateShape(t)
}

// Write encodes the table as comma separated CSV, header first.
func (s *CSVService) Write(w io.Writer, t *models.Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

// WriteFile writes the table to filePath, creating parent directories.
func (s *CSVService) WriteFile(filePath string, t *models.Table) error {
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	file, err := os.Create(filePath)
	if err != nil {
		return err
	}
	if err := s.Write(file, t); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// sniffDelimiter picks ';' when the first line has more semicolons than commas.
func sniffDelimiter(data []byte) rune {
	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !sc.Scan() {
		return ','
	}
	line := sc.Text()
	if strings.Count(line, ";") > strings.Count(line, ",") {
		return ';'
	}
	return ','
}

// containsDigit reports whether any field has a numeric character, which
// marks the first record as data rather than a header.
func containsDigit(record []string) bool {
	for _, field := range record {
		for _, r := range field {
			if unicode.IsDigit(r) {
				return true
			}
		}
	}
	return false
}
