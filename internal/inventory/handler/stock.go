package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/httputil"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// StockHandler handles movement admission and ledger queries
type StockHandler struct {
	stock  *service.StockService
	logger *logger.Logger
}

// NewStockHandler creates a new stock handler
func NewStockHandler(stock *service.StockService, log *logger.Logger) *StockHandler {
	return &StockHandler{
		stock:  stock,
		logger: log,
	}
}

// Movement type and quantity are checked by the service so that a missing
// item is reported before a malformed movement, matching ledger semantics.
type moveRequest struct {
	ItemID         string  `json:"item_id" validate:"required,uuid"`
	Type           string  `json:"type"`
	Quantity       int     `json:"quantity"`
	Reason         *string `json:"reason" validate:"omitempty,max=500"`
	Lot            *string `json:"lot" validate:"omitempty,max=100"`
	ExpirationDate *string `json:"expiration_date"`
}

// Move admits a stock movement into the ledger
func (h *StockHandler) Move(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	var expiration *time.Time
	if req.ExpirationDate != nil && *req.ExpirationDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ExpirationDate)
		if err != nil {
			httputil.Error(w, errors.BadRequest("expiration_date must be in YYYY-MM-DD format"))
			return
		}
		expiration = &parsed
	}

	movement, err := h.stock.Admit(r.Context(), service.AdmitParams{
		ItemID:         req.ItemID,
		Type:           req.Type,
		Quantity:       req.Quantity,
		Reason:         req.Reason,
		Lot:            req.Lot,
		ExpirationDate: expiration,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, movement)
}

// ListMovements lists ledger entries, newest first
func (h *StockHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit < 1 || limit > 500 {
		limit = 50
	}

	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	itemFilter := r.URL.Query().Get("item_id")
	if itemFilter != "" {
		if _, err := uuid.Parse(itemFilter); err != nil {
			httputil.Error(w, errors.BadRequest("item_id must be a UUID"))
			return
		}
	}

	params := repository.ListMovementsParams{
		ItemID: itemFilter,
		Type:   r.URL.Query().Get("type"),
		Limit:  limit,
		Offset: offset,
	}

	movements, total, err := h.stock.ListMovements(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSONWithMeta(w, http.StatusOK, movements, &httputil.Meta{
		Total: total,
	})
}
