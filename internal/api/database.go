package api

import (
	"encoding/json"
	"net/http"

	"fuzzysheets/internal/analysis"
	"fuzzysheets/internal/logging"
	"fuzzysheets/internal/models"
	"fuzzysheets/internal/service"
	"fuzzysheets/internal/state"
)

// ConnectDB establishes a database connection and replaces the active one.
func (h *Handler) ConnectDB(w http.ResponseWriter, r *http.Request) {
	var config service.DataSourceConfig
	if err := json.NewDecoder(r.Body).Decode(&config); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	ds, err := service.Connect(r.Context(), config)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.dbMu.Lock()
	if h.currentDB != nil {
		h.currentDB.Close()
	}
	h.currentDB = ds
	h.dbMu.Unlock()

	h.Logger.Info("database connected", logging.String("type", config.Type), logging.String("database", ds.Name()))
	writeJSON(w, map[string]string{"status": "connected", "database": ds.Name()})
}

// ListTables returns tables from connected DB
func (h *Handler) ListTables(w http.ResponseWriter, r *http.Request) {
	db := h.database()
	if db == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	tables, err := db.ListTables(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, map[string][]string{"tables": tables})
}

// LoadDBTable loads a database table into a session slot.
func (h *Handler) LoadDBTable(w http.ResponseWriter, r *http.Request) {
	db := h.database()
	if db == nil {
		http.Error(w, "No database connection", http.StatusBadRequest)
		return
	}

	var req models.DBLoadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid JSON", http.StatusBadRequest)
		return
	}
	if req.FileIndex == 0 {
		req.FileIndex = 1
	}
	if req.FileIndex != 1 && req.FileIndex != 2 {
		http.Error(w, "file_index must be 1 or 2", http.StatusBadRequest)
		return
	}
	opts, err := loadOptions("", req.HasID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	t, err := db.LoadTable(r.Context(), req.Table, req.Limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	t.ID = opts.ID
	_, synthesized, err := analysis.PrepareTable(t)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.Session.SetTable(req.FileIndex, &state.LoadedTable{Table: t, Filename: req.Table, Source: "database"})
	writeJSON(w, models.UploadResponse{
		Message:       "Table '" + req.Table + "' loaded",
		FileIndex:     req.FileIndex,
		Rows:          t.NumRows(),
		Columns:       len(t.Header),
		ColumnNames:   t.Header,
		IDSynthesized: synthesized,
	})
}

func (h *Handler) database() service.DataSource {
	h.dbMu.Lock()
	defer h.dbMu.Unlock()
	return h.currentDB
}
