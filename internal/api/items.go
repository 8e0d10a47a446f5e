package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/erazemk/zaloga/internal/model"
	"github.com/erazemk/zaloga/internal/store"
)

// ItemsHandler handles item CRUD endpoints.
type ItemsHandler struct {
	Store *store.Store
}

type itemRequest struct {
	Name        string  `json:"name"`
	Quantity    int64   `json:"quantity"`
	Price       float64 `json:"price"`
	Warehouse   string  `json:"warehouse"`
	Description string  `json:"description"`
}

func (req itemRequest) item() model.Item {
	warehouse := req.Warehouse
	if warehouse == "" {
		warehouse = model.DefaultWarehouse
	}
	return model.Item{
		Name:        req.Name,
		Quantity:    req.Quantity,
		Price:       req.Price,
		Warehouse:   warehouse,
		Description: req.Description,
	}
}

// decodeItem reads and validates an item body. It writes the error response
// and returns false when the body is unusable.
func decodeItem(w http.ResponseWriter, r *http.Request) (model.Item, bool) {
	var req itemRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return model.Item{}, false
	}

	item := req.item()
	if err := item.Validate(); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return model.Item{}, false
	}
	return item, true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid item id")
		return 0, false
	}
	return id, true
}

// List handles GET /api/items.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	sort, err := store.ParseSort(q.Get("sort"))
	if err != nil {
		jsonError(w, http.StatusBadRequest, "invalid sort field")
		return
	}

	items, err := h.Store.List(r.Context(), store.Query{
		Search:     q.Get("q"),
		Warehouse:  q.Get("warehouse"),
		Sort:       sort,
		Descending: q.Get("order") == "desc",
	})
	if err != nil {
		slog.Error("failed to list items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list items")
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Create handles POST /api/items.
func (h *ItemsHandler) Create(w http.ResponseWriter, r *http.Request) {
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}

	id, err := h.Store.Create(r.Context(), item)
	if err != nil {
		slog.Error("failed to create item", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	created, err := h.Store.GetByID(r.Context(), id)
	if err != nil || created == nil {
		slog.Error("failed to read created item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to create item")
		return
	}

	slog.Info("item created", "id", id, "name", created.Name)
	jsonResponse(w, http.StatusCreated, created)
}

// Get handles GET /api/items/{id}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to get item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to get item")
		return
	}
	if item == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Update handles PUT /api/items/{id}.
func (h *ItemsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	item, ok := decodeItem(w, r)
	if !ok {
		return
	}

	n, err := h.Store.Update(r.Context(), item.WithID(id))
	if errors.Is(err, store.ErrInvalidArgument) {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		slog.Error("failed to update item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if n == 0 {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	updated, err := h.Store.GetByID(r.Context(), id)
	if err != nil {
		slog.Error("failed to read updated item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to update item")
		return
	}
	if updated == nil {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	slog.Info("item updated", "id", id, "name", updated.Name)
	jsonResponse(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/items/{id}.
func (h *ItemsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	n, err := h.Store.Delete(r.Context(), id)
	if err != nil {
		slog.Error("failed to delete item", "id", id, "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete item")
		return
	}
	if n == 0 {
		jsonError(w, http.StatusNotFound, "item not found")
		return
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "item deleted"})
}

// DeleteAll handles DELETE /api/items.
func (h *ItemsHandler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.Store.DeleteAll(r.Context())
	if err != nil {
		slog.Error("failed to delete items", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to delete items")
		return
	}

	slog.Info("all items deleted", "count", n)
	jsonResponse(w, http.StatusOK, map[string]int64{"deleted": n})
}

// Warehouses handles GET /api/warehouses.
func (h *ItemsHandler) Warehouses(w http.ResponseWriter, r *http.Request) {
	inUse, err := h.Store.Warehouses(r.Context())
	if err != nil {
		slog.Error("failed to list warehouses", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to list warehouses")
		return
	}
	if inUse == nil {
		inUse = []string{}
	}

	jsonResponse(w, http.StatusOK, map[string][]string{
		"suggestions": model.WarehouseSuggestions,
		"in_use":      inUse,
	})
}
