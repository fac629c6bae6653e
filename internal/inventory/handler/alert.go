package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/httputil"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// AlertHandler handles low-stock and expiry alert endpoints
type AlertHandler struct {
	alerts        *service.AlertService
	lookaheadDays int
	logger        *logger.Logger
}

// NewAlertHandler creates a new alert handler. lookaheadDays is the default
// expiry window when the request does not carry one.
func NewAlertHandler(alerts *service.AlertService, lookaheadDays int, log *logger.Logger) *AlertHandler {
	return &AlertHandler{
		alerts:        alerts,
		lookaheadDays: lookaheadDays,
		logger:        log,
	}
}

// LowStock lists active items whose balance is below their minimum
func (h *AlertHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.alerts.LowStock(r.Context())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}

// Expiry lists expired and soon-to-expire lots
func (h *AlertHandler) Expiry(w http.ResponseWriter, r *http.Request) {
	days := h.lookaheadDays
	if raw := r.URL.Query().Get("days"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.Error(w, errors.BadRequest("days must be an integer"))
			return
		}
		days = parsed
	}

	alerts, err := h.alerts.Expiry(r.Context(), days, time.Now().UTC())
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, alerts)
}
