package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/config"
	errs "fuzzysheets/internal/errors"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
	"fuzzysheets/internal/state"
)

const defaultPreviewRows = 10

type Handler struct {
	Engine     *service.Engine
	CSVService *analysis.CSVService
	Session    *state.Session
	Logger     *logging.ComponentLogger

	UploadDir      string
	MaxUploadBytes int64
	MatchTimeout   time.Duration

	dbMu      sync.Mutex
	currentDB service.DataSource // active DB connection
}

func NewHandler(cfg *config.Config, engine *service.Engine, session *state.Session, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{
		Engine:         engine,
		CSVService:     analysis.NewCSVService(),
		Session:        session,
		Logger:         logger.WithComponent("api"),
		UploadDir:      cfg.UploadDir,
		MaxUploadBytes: cfg.MaxUploadBytes(),
		MatchTimeout:   cfg.MatchTimeout,
	}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.HealthCheck)

	// Tables
	r.Post("/upload", h.Upload)
	r.Get("/status", h.GetStatus)
	r.Get("/preview", h.GetPreview)
	r.Get("/column-types", h.GetColumnTypes)
	r.Post("/generate", h.Generate)

	// Matching
	r.Get("/column-matching", h.GetColumnMatching)
	r.Post("/detect", h.Detect)
	r.Post("/merge", h.Merge)
	r.Get("/download/{kind}", h.Download)

	// DB Routes
	r.Post("/api/db/connect", h.ConnectDB)
	r.Get("/api/db/tables", h.ListTables)
	r.Post("/api/db/load", h.LoadDBTable)
}

// Close releases the active database connection.
func (h *Handler) Close() error {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	if h.currentDB == nil {
		return nil
	}
	err := h.currentDB.Close()
	h.currentDB = nil
	return err
}

// ============================================================================
// Health
// ============================================================================

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("OK"))
}

// ============================================================================
// Tables
// ============================================================================

func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.MaxUploadBytes); err != nil {
		http.Error(w, "File too large or malformed form", http.StatusBadRequest)
		return
	}

	fileIndex, ok := parseFileIndex(w, r.FormValue("file_index"))
	if !ok {
		return
	}
	opts, err := loadOptions(r.FormValue("has_header"), r.FormValue("has_id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".csv") {
		http.Error(w, "Only CSV files are allowed", http.StatusBadRequest)
		return
	}

	if err := os.MkdirAll(h.UploadDir, 0755); err != nil {
		h.writeError(w, fmt.Errorf("create upload dir: %w", err))
		return
	}
	filePath := filepath.Join(h.UploadDir, fmt.Sprintf("file%d_%s", fileIndex, filepath.Base(header.Filename)))
	if err := saveUpload(filePath, file); err != nil {
		h.writeError(w, err)
		return
	}

	t, err := h.CSVService.ParseFile(filePath, opts)
	if err != nil {
		os.Remove(filePath)
		h.writeError(w, err)
		return
	}
	t.Name = header.Filename

	_, synthesized, err := analysis.PrepareTable(t)
	if err != nil {
		os.Remove(filePath)
		h.writeError(w, err)
		return
	}

	h.Session.SetTable(fileIndex, &state.LoadedTable{Table: t, Filename: header.Filename, Source: "upload"})
	h.Logger.Info("table uploaded",
		logging.Int("file_index", fileIndex),
		logging.String("filename", header.Filename),
		logging.Int("rows", t.NumRows()))

	writeJSON(w, models.UploadResponse{
		Message:       fmt.Sprintf("File '%s' uploaded successfully", header.Filename),
		FileIndex:     fileIndex,
		Rows:          t.NumRows(),
		Columns:       len(t.Header),
		ColumnNames:   t.Header,
		IDSynthesized: synthesized,
	})
}

func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Session.Status())
}

func (h *Handler) GetPreview(w http.ResponseWriter, r *http.Request) {
	fileIndex, ok := parseFileIndex(w, r.URL.Query().Get("file_index"))
	if !ok {
		return
	}
	limit := getIntParam(r, "limit", getIntParam(r, "rows", defaultPreviewRows))

	loaded := h.Session.Table(fileIndex)
	if loaded == nil {
		http.Error(w, fmt.Sprintf("File %d not loaded", fileIndex), http.StatusBadRequest)
		return
	}

	t := loaded.Table
	if limit < 0 || limit > t.NumRows() {
		limit = t.NumRows()
	}
	writeJSON(w, models.PreviewResponse{
		FileIndex: fileIndex,
		Header:    t.Header,
		Rows:      t.Rows[:limit],
		TotalRows: t.NumRows(),
	})
}

func (h *Handler) GetColumnTypes(w http.ResponseWriter, r *http.Request) {
	fileIndex, ok := parseFileIndex(w, r.URL.Query().Get("file_index"))
	if !ok {
		return
	}
	loaded := h.Session.Table(fileIndex)
	if loaded == nil {
		http.Error(w, fmt.Sprintf("File %d not loaded", fileIndex), http.StatusBadRequest)
		return
	}

	result, err := h.CSVService.Analyze(loaded.Table)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, models.ColumnTypesResponse{FileIndex: fileIndex, Analysis: result})
}

// ============================================================================
// Helpers
// ============================================================================

// writeError maps error kinds to status codes: bad input 400, database
// failures 502, everything else 500.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.Is(err, errs.ErrInputShape), errs.Is(err, errs.ErrValidation):
		status = http.StatusBadRequest
	case errs.Is(err, errs.ErrDB):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		h.Logger.Error("request failed", err)
	} else {
		h.Logger.Warn("request rejected", logging.Int("status", status), logging.String("error", err.Error()))
	}
	http.Error(w, err.Error(), status)
}

// matchContext bounds a matching request by the configured timeout.
func (h *Handler) matchContext(r *http.Request) (context.Context, context.CancelFunc) {
	if h.MatchTimeout > 0 {
		return context.WithTimeout(r.Context(), h.MatchTimeout)
	}
	return context.WithCancel(r.Context())
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func saveUpload(path string, src io.Reader) error {
	dst, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return fmt.Errorf("save upload: %w", err)
	}
	return dst.Close()
}

// parseFileIndex accepts "1", "2" or empty (1) and writes a 400 otherwise.
func parseFileIndex(w http.ResponseWriter, s string) (int, bool) {
	if s == "" {
		return 1, true
	}
	i, err := strconv.Atoi(s)
	if err != nil || (i != 1 && i != 2) {
		http.Error(w, "file_index must be 1 or 2", http.StatusBadRequest)
		return 0, false
	}
	return i, true
}

func loadOptions(hasHeader, hasID string) (analysis.LoadOptions, error) {
	header, err := models.ParseFlag(hasHeader)
	if err != nil {
		return analysis.LoadOptions{}, errs.NewValidation("api.has_header", err.Error(), nil)
	}
	id, err := models.ParseFlag(hasID)
	if err != nil {
		return analysis.LoadOptions{}, errs.NewValidation("api.has_id", err.Error(), nil)
	}
	return analysis.LoadOptions{Header: header, ID: id}, nil
}

func getIntParam(r *http.Request, name string, defaultVal int) int {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(valStr)
	if err != nil {
		return defaultVal
	}
	return val
}

// getFloatParam returns nil when the parameter is absent.
func getFloatParam(r *http.Request, name string) (*float64, error) {
	valStr := r.URL.Query().Get(name)
	if valStr == "" {
		return nil, nil
	}
	val, err := strconv.ParseFloat(valStr, 64)
	if err != nil {
		return nil, errs.NewValidation("api."+name, fmt.Sprintf("invalid number %q", valStr), err)
	}
	return &val, nil
}
