package api

import (
	"net/http"

	"github.com/erazemk/zaloga/internal/cloud"
	"github.com/erazemk/zaloga/internal/store"
)

// NewRouter creates the API router with all endpoints registered. mirror may
// be nil when no cloud project is configured.
func NewRouter(items *store.Store, mirror *cloud.Mirror, authSecret string) http.Handler {
	mux := http.NewServeMux()

	itemsHandler := &ItemsHandler{Store: items}
	syncHandler := &SyncHandler{Store: items, Mirror: mirror}

	authMW := AuthMiddleware(authSecret)

	// Items: local store, no session needed.
	mux.HandleFunc("GET /api/items", itemsHandler.List)
	mux.HandleFunc("POST /api/items", itemsHandler.Create)
	mux.HandleFunc("DELETE /api/items", itemsHandler.DeleteAll)
	mux.HandleFunc("GET /api/items/{id}", itemsHandler.Get)
	mux.HandleFunc("PUT /api/items/{id}", itemsHandler.Update)
	mux.HandleFunc("DELETE /api/items/{id}", itemsHandler.Delete)
	mux.HandleFunc("GET /api/warehouses", itemsHandler.Warehouses)

	// Cloud push: signed-in users only.
	mux.Handle("POST /api/sync/push", authMW(http.HandlerFunc(syncHandler.Push)))

	return mux
}
