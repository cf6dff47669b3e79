package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/derivs-back/internal/analytics/gann"
	"github.com/derivs-back/internal/analytics/series"
	"github.com/derivs-back/internal/cache"
	"github.com/derivs-back/internal/database"
	"github.com/derivs-back/pkg/config"
	"github.com/derivs-back/pkg/models"
)

// AnalyticsHandler serves derived-analytics API requests
type AnalyticsHandler struct {
	redis  *cache.RedisClient
	influx *database.InfluxClient
	cfg    *config.AnalyticsConfig
	logger *logrus.Entry
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	redis *cache.RedisClient,
	influx *database.InfluxClient,
	cfg *config.AnalyticsConfig,
	logger *logrus.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		redis:  redis,
		influx: influx,
		cfg:    cfg,
		logger: logger.WithField("component", "analytics-api"),
	}
}

// RegisterRoutes registers analytics API routes
func (h *AnalyticsHandler) RegisterRoutes(router *mux.Router) {
	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/gann/{symbol}", h.GetGannLevels).Methods("GET")
	api.HandleFunc("/gann", h.ComputeGannLevels).Methods("GET")
	api.HandleFunc("/signal/{symbol}", h.GetSignal).Methods("GET")
	api.HandleFunc("/signal/{symbol}/history", h.GetSignalHistory).Methods("GET")
	api.HandleFunc("/maxpain/{symbol}", h.GetMaxPain).Methods("GET")
	api.HandleFunc("/maxpain/{symbol}/history", h.GetMaxPainHistory).Methods("GET")
	api.HandleFunc("/oi/{symbol}", h.GetOISnapshot).Methods("GET")
	api.HandleFunc("/series/{symbol}", h.GetSeries).Methods("GET")
}

// GetGannLevels returns the cached Gann grid for a symbol
func (h *AnalyticsHandler) GetGannLevels(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	set, err := h.redis.GetGannLevels(r.Context(), symbol)
	if err != nil {
		h.sendError(w, "Failed to get gann levels", http.StatusInternalServerError)
		return
	}
	if set == nil {
		h.sendJSON(w, map[string]interface{}{"symbol": symbol, "levels": nil})
		return
	}

	h.sendJSON(w, set)
}

// ComputeGannLevels computes a grid on demand from an explicit base
// price. An invalid base is the one analytics error surfaced to the
// user as a validation message.
func (h *AnalyticsHandler) ComputeGannLevels(w http.ResponseWriter, r *http.Request) {
	baseParam := r.URL.Query().Get("base")
	base, err := strconv.ParseFloat(baseParam, 64)
	if err != nil {
		h.sendError(w, "base must be a number", http.StatusBadRequest)
		return
	}

	set, err := gann.Compute(base, gann.Options{
		Step:     h.cfg.GannStep,
		Levels:   h.cfg.GannLevels,
		Decimals: h.cfg.GannDecimals,
	})
	if err != nil {
		if errors.Is(err, gann.ErrInvalidBasePrice) {
			h.sendError(w, "base price must be finite and positive", http.StatusBadRequest)
			return
		}
		h.sendError(w, "Failed to compute gann levels", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, set)
}

// GetSignal returns the cached signal state for a symbol
func (h *AnalyticsHandler) GetSignal(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	state, err := h.redis.GetSignal(r.Context(), symbol)
	if err != nil {
		h.sendError(w, "Failed to get signal", http.StatusInternalServerError)
		return
	}
	if state == nil {
		// No data yet: the UI renders its no-data state, not an error
		h.sendJSON(w, map[string]interface{}{"symbol": symbol, "signal": nil})
		return
	}

	h.sendJSON(w, state)
}

// GetSignalHistory returns recorded signal history for a symbol
func (h *AnalyticsHandler) GetSignalHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	since := 24 * time.Hour
	if param := r.URL.Query().Get("since"); param != "" {
		parsed, err := time.ParseDuration(param)
		if err != nil {
			h.sendError(w, "since must be a duration like 6h", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	entries, err := h.influx.GetSignalHistory(r.Context(), symbol, since)
	if err != nil {
		h.sendError(w, "Failed to get signal history", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]interface{}{"symbol": symbol, "history": entries})
}

// GetMaxPain returns the cached max-pain insights for a symbol
func (h *AnalyticsHandler) GetMaxPain(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	insights, err := h.redis.GetMaxPainInsights(r.Context(), symbol)
	if err != nil {
		h.sendError(w, "Failed to get max pain insights", http.StatusInternalServerError)
		return
	}
	if insights == nil {
		h.sendJSON(w, map[string]interface{}{"symbol": symbol, "insights": nil})
		return
	}

	h.sendJSON(w, insights)
}

// GetMaxPainHistory returns recorded spot-to-max-pain distances
func (h *AnalyticsHandler) GetMaxPainHistory(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	since := 24 * time.Hour
	if param := r.URL.Query().Get("since"); param != "" {
		parsed, err := time.ParseDuration(param)
		if err != nil {
			h.sendError(w, "since must be a duration like 6h", http.StatusBadRequest)
			return
		}
		since = parsed
	}

	distances, err := h.influx.GetMaxPainDistanceHistory(r.Context(), symbol, since)
	if err != nil {
		h.sendError(w, "Failed to get max pain history", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, map[string]interface{}{"symbol": symbol, "distances": distances})
}

// GetOISnapshot returns the cached per-strike OI snapshot with totals
func (h *AnalyticsHandler) GetOISnapshot(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	records, err := h.redis.GetOISnapshot(r.Context(), symbol)
	if err != nil {
		h.sendError(w, "Failed to get OI snapshot", http.StatusInternalServerError)
		return
	}

	totals := models.OITotals{}
	for _, rec := range records {
		totals.TotalCallChangeOI += rec.CallChangeOI
		totals.TotalPutChangeOI += rec.PutChangeOI
	}

	h.sendJSON(w, map[string]interface{}{
		"symbol":  symbol,
		"records": records,
		"totals":  totals,
	})
}

// GetSeries returns the cached aligned intraday series, optionally
// sliced by a percentage window (?from=0&to=50)
func (h *AnalyticsHandler) GetSeries(w http.ResponseWriter, r *http.Request) {
	symbol := strings.ToUpper(mux.Vars(r)["symbol"])

	points, err := h.redis.GetIntradaySeries(r.Context(), symbol)
	if err != nil {
		h.sendError(w, "Failed to get series", http.StatusInternalServerError)
		return
	}

	lo, hi := 0.0, 100.0
	if param := r.URL.Query().Get("from"); param != "" {
		if v, err := strconv.ParseFloat(param, 64); err == nil {
			lo = v
		}
	}
	if param := r.URL.Query().Get("to"); param != "" {
		if v, err := strconv.ParseFloat(param, 64); err == nil {
			hi = v
		}
	}

	h.sendJSON(w, map[string]interface{}{
		"symbol": symbol,
		"points": series.SliceByPercent(points, lo, hi),
	})
}

func (h *AnalyticsHandler) sendJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.WithError(err).Error("Failed to encode response")
	}
}

func (h *AnalyticsHandler) sendError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
