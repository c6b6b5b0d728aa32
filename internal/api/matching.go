package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/generate"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
	"fuzzysheets/internal/state"
)

const (
	mergePreviewRows = 20
	defaultGenerated = 50
	maxGenerated     = 10000
)

// ============================================================================
// Matching
// ============================================================================

func (h *Handler) GetColumnMatching(w http.ResponseWriter, r *http.Request) {
	t1, t2 := h.Session.Table(1), h.Session.Table(2)
	if t1 == nil || t2 == nil {
		http.Error(w, "Both files must be loaded", http.StatusBadRequest)
		return
	}
	engine, err := h.requestEngine(r, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}

	alignment, err := engine.MatchColumns(t1.Table, t2.Table)
	if err != nil {
		h.writeError(w, err)
		return
	}

	resp := models.ColumnMatchingResponse{
		LeftFile:  1,
		RightFile: 2,
		Swapped:   alignment.Swapped,
		Matches:   make([]models.ColumnMatch, len(alignment.Pairs)),
		Types:     alignment.Types,
	}
	if alignment.Swapped {
		resp.LeftFile, resp.RightFile = 2, 1
	}
	for k, p := range alignment.Pairs {
		m := models.ColumnMatch{Pair: p, Score: alignment.Scores[k]}
		if p.HasLeft() {
			m.LeftColumn = alignment.Left.Header[p.Left+1]
		}
		if p.HasRight() {
			m.RightColumn = alignment.Right.Header[p.Right+1]
		}
		resp.Matches[k] = m
	}
	writeJSON(w, resp)
}

func (h *Handler) Detect(w http.ResponseWriter, r *http.Request) {
	fileIndex, ok := parseFileIndex(w, r.URL.Query().Get("file_index"))
	if !ok {
		return
	}
	loaded := h.Session.Table(fileIndex)
	if loaded == nil {
		http.Error(w, fmt.Sprintf("File %d not loaded", fileIndex), http.StatusBadRequest)
		return
	}
	engine, err := h.requestEngine(r, func(o *service.Options, v float64) { o.DuplicateThreshold = v })
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := h.matchContext(r)
	defer cancel()
	res, err := engine.DetectDuplicates(ctx, loaded.Table)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Session.SetDuplicates(res)

	resp := models.DetectResponse{
		FileIndex:  fileIndex,
		Threshold:  engine.Options().DuplicateThreshold,
		Pairs:      res.Pairs,
		Duplicates: res.Duplicates(),
		Rankings:   res.Rankings,
	}
	if loaded.Truth != nil {
		report := generate.Evaluate(generate.CanonicalDuplicates(res.Pairs), loaded.Truth)
		resp.Evaluation = &report
	}
	writeJSON(w, resp)
}

func (h *Handler) Merge(w http.ResponseWriter, r *http.Request) {
	t1, t2 := h.Session.Table(1), h.Session.Table(2)
	if t1 == nil || t2 == nil {
		http.Error(w, "Both files must be loaded", http.StatusBadRequest)
		return
	}
	engine, err := h.requestEngine(r, func(o *service.Options, v float64) { o.MatchThreshold = v })
	if err != nil {
		h.writeError(w, err)
		return
	}

	ctx, cancel := h.matchContext(r)
	defer cancel()
	res, err := engine.Merge(ctx, t1.Table, t2.Table)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.Session.SetMerged(res)

	pairs := res.InputPairs()
	resp := models.MergeResponse{
		Threshold: engine.Options().MatchThreshold,
		Header:    res.Table.Header,
		Rows:      len(res.Table.Rows),
		Pairs:     pairs,
		Preview:   res.Table.Rows,
	}
	if len(resp.Preview) > mergePreviewRows {
		resp.Preview = resp.Preview[:mergePreviewRows]
	}
	for _, p := range pairs {
		switch {
		case p.Complete():
			resp.Matched++
		case p.HasLeft():
			resp.LeftOnly++
		default:
			resp.RightOnly++
		}
	}
	if truth := h.Session.MergeTruth(); truth != nil {
		report := generate.Evaluate(pairs, truth)
		resp.Evaluation = &report
	}
	writeJSON(w, resp)
}

// Download streams the last merged table or the last duplicate-sorted
// table as CSV.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	var (
		t        *models.Table
		filename string
	)
	switch kind := chi.URLParam(r, "kind"); kind {
	case "merged":
		m := h.Session.Merged()
		if m == nil {
			http.Error(w, "No merged table, run /merge first", http.StatusBadRequest)
			return
		}
		t, filename = m.Table.ToTable(), "merged.csv"
	case "duplicates":
		d := h.Session.Duplicates()
		if d == nil {
			http.Error(w, "No duplicate detection result, run /detect first", http.StatusBadRequest)
			return
		}
		t, filename = d.Sorted, "duplicates_sorted.csv"
	default:
		http.Error(w, fmt.Sprintf("unknown download %q (want merged or duplicates)", kind), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := h.CSVService.Write(w, t); err != nil {
		h.Logger.Error("download failed", err)
	}
}

// Generate loads synthetic tables with a known matching into the session:
// one table with duplicates in slot 1 for mode "detect", two tables for
// mode "merge".
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req models.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.Rows == 0 {
		req.Rows = defaultGenerated
	}
	if req.Mode == "" {
		req.Mode = "detect"
	}
	if req.Rows < 0 || req.Rows > maxGenerated {
		h.writeError(w, errs.NewValidation("api.Generate", fmt.Sprintf("rows must be in 1..%d, got %d", maxGenerated, req.Rows), nil))
		return
	}

	g := generate.New(req.Seed)
	resp := models.GenerateResponse{Mode: req.Mode, Seed: req.Seed}
	switch req.Mode {
	case "detect":
		t, truth := g.Spreadsheet(req.Rows)
		h.Session.SetTable(1, &state.LoadedTable{Table: t, Filename: "duplicates.csv", Source: "generated", Truth: truth})
		resp.Truth = truth
	case "merge":
		left, right, truth := g.Spreadsheets(req.Rows)
		h.Session.SetGeneratedPair(
			&state.LoadedTable{Table: left, Filename: "spreadsheet1.csv", Source: "generated"},
			&state.LoadedTable{Table: right, Filename: "spreadsheet2.csv", Source: "generated"},
			truth)
		resp.Truth = truth
	default:
		h.writeError(w, errs.NewValidation("api.Generate", fmt.Sprintf("mode must be detect or merge, got %q", req.Mode), nil))
		return
	}

	status := h.Session.Status()
	resp.Tables = []models.FileStatus{status.File1}
	if req.Mode == "merge" {
		resp.Tables = append(resp.Tables, status.File2)
	}
	writeJSON(w, resp)
}

// requestEngine applies the threshold and column_name_weight query
// parameters on top of the configured options. setThreshold decides which
// threshold the request overrides; nil ignores it.
func (h *Handler) requestEngine(r *http.Request, setThreshold func(*service.Options, float64)) (*service.Engine, error) {
	threshold, err := getFloatParam(r, "threshold")
	if err != nil {
		return nil, err
	}
	weight, err := getFloatParam(r, "column_name_weight")
	if err != nil {
		return nil, err
	}
	if (threshold == nil || setThreshold == nil) && weight == nil {
		return h.Engine, nil
	}

	opts := h.Engine.Options()
	if threshold != nil && setThreshold != nil {
		setThreshold(&opts, *threshold)
	}
	if weight != nil {
		opts.ColumnNameWeight = *weight
	}
	return h.Engine.WithOptions(opts)
}
