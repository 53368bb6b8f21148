// Package admin serves read-only usage endpoints over the access-log store.
// Routes are only registered when a store is configured.
package admin

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/tableflow/llm-backend/internal/db"
)

type AdminHandler struct {
	store *db.Store
}

func NewAdminHandler(store *db.Store) *AdminHandler {
	return &AdminHandler{store: store}
}

func (h *AdminHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/admin/logs", h.GetLogs).Methods("GET")
	router.HandleFunc("/admin/stats", h.GetStats).Methods("GET")
}

func (h *AdminHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			http.Error(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}
	if limit > 500 {
		limit = 500
	}

	logs, err := h.store.RecentLogs(r.Context(), limit)
	if err != nil {
		log.Printf("admin: list logs failed: %v", err)
		http.Error(w, "Failed to list logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}

func (h *AdminHandler) GetStats(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from") // e.g. "2024-01-01"
	to := r.URL.Query().Get("to")

	stats, err := h.store.UsageStats(r.Context(), from, to)
	if err != nil {
		log.Printf("admin: usage stats failed: %v", err)
		http.Error(w, "Failed to get stats", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
