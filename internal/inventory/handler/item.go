package handler

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/repository"
	"github.com/vidaplus/vidaplus-backend/internal/inventory/service"
	"github.com/vidaplus/vidaplus-backend/pkg/errors"
	"github.com/vidaplus/vidaplus-backend/pkg/httputil"
	"github.com/vidaplus/vidaplus-backend/pkg/logger"
)

// ItemHandler handles item catalog endpoints
type ItemHandler struct {
	catalog *service.CatalogService
	logger  *logger.Logger
}

// NewItemHandler creates a new item handler
func NewItemHandler(catalog *service.CatalogService, log *logger.Logger) *ItemHandler {
	return &ItemHandler{
		catalog: catalog,
		logger:  log,
	}
}

type createItemRequest struct {
	Name     string  `json:"name" validate:"required,min=1,max=200"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Unit     string  `json:"unit" validate:"required,oneof=un ml cx pct g kg l"`
	MinStock int     `json:"min_stock" validate:"gte=0"`
}

type updateItemRequest struct {
	Name     *string `json:"name" validate:"omitempty,min=1,max=200"`
	Category *string `json:"category" validate:"omitempty,max=100"`
	Unit     *string `json:"unit" validate:"omitempty,oneof=un ml cx pct g kg l"`
	MinStock *int    `json:"min_stock" validate:"omitempty,gte=0"`
	IsActive *bool   `json:"is_active"`
}

// Create registers a new item
func (h *ItemHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if req.Unit == "" {
		req.Unit = "un"
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.catalog.CreateItem(r.Context(), service.CreateItemParams{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinStock: req.MinStock,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.Created(w, item)
}

// List lists catalog items
func (h *ItemHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}

	params := repository.ListItemsParams{
		Query:   r.URL.Query().Get("query"),
		Page:    page,
		PerPage: perPage,
		OrderBy: r.URL.Query().Get("order_by"),
		Order:   r.URL.Query().Get("order"),
	}

	items, total, err := h.catalog.ListItems(r.Context(), params)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	totalPages := int(total) / perPage
	if int(total)%perPage > 0 {
		totalPages++
	}

	httputil.JSONWithMeta(w, http.StatusOK, items, &httputil.Meta{
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	})
}

// itemID extracts and validates the {id} path parameter. A value that is not
// a UUID can never name an item, so it reports not found without touching
// the database.
func itemID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", errors.NotFound("item")
	}
	return id, nil
}

// Get gets an item by ID
func (h *ItemHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.catalog.GetItem(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Update applies a partial update to an item
func (h *ItemHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	var req updateItemRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.Error(w, err)
		return
	}

	if err := httputil.Validate(req); err != nil {
		httputil.Error(w, err)
		return
	}

	item, err := h.catalog.UpdateItem(r.Context(), id, service.UpdateItemParams{
		Name:     req.Name,
		Category: req.Category,
		Unit:     req.Unit,
		MinStock: req.MinStock,
		IsActive: req.IsActive,
	})
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, item)
}

// Delete removes an item without ledger history
func (h *ItemHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	if err := h.catalog.DeleteItem(r.Context(), id); err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.NoContent(w)
}

// Balance returns the item's current balance and threshold view
func (h *ItemHandler) Balance(w http.ResponseWriter, r *http.Request) {
	id, err := itemID(r)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	balance, err := h.catalog.Balance(r.Context(), id)
	if err != nil {
		httputil.Error(w, err)
		return
	}

	httputil.JSON(w, http.StatusOK, balance)
}
