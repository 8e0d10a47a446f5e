package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/zaloga/internal/auth"
	"github.com/erazemk/zaloga/internal/cloud"
	"github.com/erazemk/zaloga/internal/store"
)

// SyncHandler handles the cloud push endpoint.
type SyncHandler struct {
	Store  *store.Store
	Mirror *cloud.Mirror
}

// Push handles POST /api/sync/push.
func (h *SyncHandler) Push(w http.ResponseWriter, r *http.Request) {
	if h.Mirror == nil {
		jsonError(w, http.StatusServiceUnavailable, "cloud mirror not configured")
		return
	}

	userID := auth.UserFromContext(r.Context())

	items, err := h.Store.GetAll(r.Context())
	if err != nil {
		slog.Error("failed to read items for push", "error", err)
		jsonError(w, http.StatusInternalServerError, "failed to read items")
		return
	}

	// A started push is not cancelled when the client goes away.
	res, err := h.Mirror.Push(context.WithoutCancel(r.Context()), userID, items)
	switch {
	case errors.Is(err, cloud.ErrPushInProgress):
		jsonError(w, http.StatusConflict, "push already in progress")
		return
	case errors.Is(err, cloud.ErrBatchTooLarge):
		jsonError(w, http.StatusUnprocessableEntity, err.Error())
		return
	case errors.Is(err, cloud.ErrNotAuthenticated):
		jsonError(w, http.StatusUnauthorized, "sign in to push to the cloud")
		return
	case err != nil:
		slog.Error("cloud push failed", "user", userID, "error", err)
		jsonError(w, http.StatusBadGateway, "cloud push failed")
		return
	}

	slog.Info("cloud push done", "user", userID, "pushed", res.Pushed, "skipped", res.Skipped)
	jsonResponse(w, http.StatusOK, res)
}
