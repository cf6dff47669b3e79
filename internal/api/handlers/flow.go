package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/services"
)

// FlowHandler serves institutional-flow API requests
type FlowHandler struct {
	flowSync *services.FlowSyncService
	logger   *logrus.Entry
}

// NewFlowHandler creates a new flow handler
func NewFlowHandler(flowSync *services.FlowSyncService, logger *logrus.Logger) *FlowHandler {
	return &FlowHandler{
		flowSync: flowSync,
		logger:   logger.WithField("component", "flow-api"),
	}
}

// RegisterRoutes registers flow API routes
func (h *FlowHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/flow", h.GetRecent).Methods("GET")
	api.HandleFunc("/flow/rolling", h.GetRollingAverage).Methods("GET")
	api.HandleFunc("/flow/monthly", h.GetMonthToDate).Methods("GET")
	api.HandleFunc("/flow/sentiment", h.GetSentiment).Methods("GET")
	api.HandleFunc("/flow/sync", h.TriggerSync).Methods("POST")
}

// GetRecent returns the most recent daily flow records, oldest first
func (h *FlowHandler) GetRecent(w http.ResponseWriter, r *http.Request) {
	limit := 30
	if param := r.URL.Query().Get("limit"); param != "" {
		v, err := strconv.Atoi(param)
		if err != nil || v <= 0 {
			h.sendError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = v
	}

	records, err := h.flowSync.Recent(r.Context(), limit)
	if err != nil {
		h.sendError(w, "Failed to get flow records", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"records": records,
		"count":   len(records),
	})
}

// GetRollingAverage returns trailing-window flow averages
func (h *FlowHandler) GetRollingAverage(w http.ResponseWriter, r *http.Request) {
	avg, err := h.flowSync.RollingAverage(r.Context())
	if err != nil {
		h.sendError(w, "Failed to compute rolling average", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]interface{}{"rolling": avg})
}

// GetMonthToDate returns cumulative flow totals for the current month
func (h *FlowHandler) GetMonthToDate(w http.ResponseWriter, r *http.Request) {
	totals, err := h.flowSync.MonthToDate(r.Context(), time.Now())
	if err != nil {
		h.sendError(w, "Failed to compute monthly totals", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]interface{}{"monthly": totals})
}

// GetSentiment returns the latest flow record with its sentiment label
func (h *FlowHandler) GetSentiment(w http.ResponseWriter, r *http.Request) {
	latest, sentiment, err := h.flowSync.Latest(r.Context())
	if err != nil {
		h.sendError(w, "Failed to get latest flow record", http.StatusInternalServerError)
		return
	}
	if latest == nil {
		h.sendJSON(w, map[string]interface{}{"latest": nil, "sentiment": nil})
		return
	}

	h.sendJSON(w, map[string]interface{}{
		"latest":    latest,
		"sentiment": sentiment,
	})
}

// TriggerSync forces an immediate pull of the vendor's flow table
func (h *FlowHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	if err := h.flowSync.SyncOnce(r.Context()); err != nil {
		h.logger.WithError(err).Error("Manual flow sync failed")
		h.sendError(w, "Flow sync failed", http.StatusBadGateway)
		return
	}

	h.sendJSON(w, map[string]string{"status": "synced"})
}

func (h *FlowHandler) sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *FlowHandler) sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
