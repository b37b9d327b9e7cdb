package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mcpdepot/mcpdepot/pkg/mcp"
	"github.com/mcpdepot/mcpdepot/pkg/storage"
	"github.com/mcpdepot/mcpdepot/pkg/store"
)

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// respondStoreError maps store sentinels onto HTTP status codes
func respondStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound),
		errors.Is(err, store.ErrProfileNotFound),
		errors.Is(err, storage.ErrBackupNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, mcp.ErrInvalid):
		respondError(w, err.Error(), http.StatusBadRequest)
	default:
		respondError(w, err.Error(), http.StatusInternalServerError)
	}
}

func (s *Server) handleListMCPs(w http.ResponseWriter, r *http.Request) {
	filter := store.Filter{
		Search:   r.URL.Query().Get("search"),
		Category: r.URL.Query().Get("category"),
	}

	records := s.store.QueryMCPs(filter)
	if records == nil {
		records = []*mcp.Record{}
	}
	respondJSON(w, map[string]any{"mcps": records}, http.StatusOK)
}

func (s *Server) handleAddMCP(w http.ResponseWriter, r *http.Request) {
	var data mcp.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.store.AddMCP(&data)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, rec, http.StatusCreated)
}

func (s *Server) handleReplaceMCPs(w http.ResponseWriter, r *http.Request) {
	var records []*mcp.Record
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.ReplaceMCPs(records); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleGetMCP(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.GetMCP(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, rec, http.StatusOK)
}

func (s *Server) handleUpdateMCP(w http.ResponseWriter, r *http.Request) {
	var upd store.RecordUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	rec, err := s.store.UpdateMCP(chi.URLParam(r, "id"), upd)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, rec, http.StatusOK)
}

func (s *Server) handleDeleteMCP(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteMCP(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleToggleMCP(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.ToggleMCP(id); err != nil {
		respondStoreError(w, err)
		return
	}

	rec, err := s.store.GetMCP(id)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, rec, http.StatusOK)
}

func (s *Server) handleDuplicateMCP(w http.ResponseWriter, r *http.Request) {
	rec, err := s.store.DuplicateMCP(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, rec, http.StatusCreated)
}

func (s *Server) handleImportMCPs(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	added, err := s.store.ImportMCPs(data)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, map[string]any{"imported": len(added), "mcps": added}, http.StatusCreated)
}

func (s *Server) handleExportMCPs(w http.ResponseWriter, r *http.Request) {
	var ids []string
	if raw := r.URL.Query().Get("ids"); raw != "" {
		ids = strings.Split(raw, ",")
	}
	format := mcp.ExportFormat(r.URL.Query().Get("format"))

	data, err := s.store.ExportMCPs(ids, format)
	if err != nil {
		respondStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleListProfiles(w http.ResponseWriter, r *http.Request) {
	profiles := s.store.Profiles()
	if profiles == nil {
		profiles = []*mcp.Profile{}
	}

	var activeID string
	if active := s.store.ActiveProfile(); active != nil {
		activeID = active.ID
	}
	respondJSON(w, map[string]any{"profiles": profiles, "activeId": activeID}, http.StatusOK)
}

func (s *Server) handleCreateProfile(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name        string   `json:"name"`
		Description string   `json:"description"`
		MCPIDs      []string `json:"mcpIds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Name == "" {
		respondError(w, "profile name is required", http.StatusBadRequest)
		return
	}

	p, err := s.store.CreateProfile(req.Name, req.Description, req.MCPIDs)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, p, http.StatusCreated)
}

func (s *Server) handleReplaceProfiles(w http.ResponseWriter, r *http.Request) {
	var profiles []*mcp.Profile
	if err := json.NewDecoder(r.Body).Decode(&profiles); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.ReplaceProfiles(profiles); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	p, err := s.store.GetProfile(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var upd store.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	p, err := s.store.UpdateProfile(chi.URLParam(r, "id"), upd)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, p, http.StatusOK)
}

func (s *Server) handleDeleteProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteProfile(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleLoadProfile(w http.ResponseWriter, r *http.Request) {
	if err := s.store.LoadProfile(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleExportProfile(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportProfile(chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

func (s *Server) handleImportProfile(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, "failed to read request body", http.StatusBadRequest)
		return
	}

	p, err := s.store.ImportProfile(data)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	respondJSON(w, p, http.StatusCreated)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, s.store.Settings(), http.StatusOK)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	// Start from current settings so a partial body leaves the rest
	// untouched.
	settings := s.store.Settings()
	if err := json.NewDecoder(r.Body).Decode(settings); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if err := s.store.UpdateSettings(settings); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, settings, http.StatusOK)
}

func (s *Server) handleListBackups(w http.ResponseWriter, r *http.Request) {
	backups, err := s.store.Backups()
	if err != nil {
		respondStoreError(w, err)
		return
	}

	// Strip snapshot payloads from the listing
	type entry struct {
		ID          string `json:"id"`
		Timestamp   int64  `json:"timestamp"`
		Description string `json:"description,omitempty"`
	}
	entries := make([]entry, 0, len(backups))
	for _, b := range backups {
		entries = append(entries, entry{
			ID:          b.ID,
			Timestamp:   b.Timestamp.UnixMilli(),
			Description: b.Description,
		})
	}
	respondJSON(w, map[string]any{"backups": entries}, http.StatusOK)
}

func (s *Server) handleCreateBackup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Description string `json:"description"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, "invalid request body", http.StatusBadRequest)
			return
		}
	}

	b, err := s.store.CreateBackup(req.Description)
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]any{"id": b.ID, "timestamp": b.Timestamp.UnixMilli()}, http.StatusCreated)
}

func (s *Server) handleRestoreBackup(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RestoreBackup(chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}

func (s *Server) handleStorageInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.store.StorageInfo()
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, info, http.StatusOK)
}

func (s *Server) handleClearStorage(w http.ResponseWriter, r *http.Request) {
	if err := s.store.ClearAllData(); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, map[string]bool{"success": true}, http.StatusOK)
}
