// internal/app/features/users/handler.go
package users

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/system/jsonio"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// Handler serves user documents.
type Handler struct {
	Docs docstore.Store
	Log  *zap.Logger
}

// NewHandler constructs a users Handler.
func NewHandler(docs docstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Docs: docs,
		Log:  logger,
	}
}

// ServeGet handles GET /user/{id}: 200 with the stored document, 404 when
// absent.
func (h *Handler) ServeGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	doc, err := h.Docs.Get(ctx, docstore.CollectionUser, id)
	switch {
	case errors.Is(err, docstore.ErrNotFound):
		jsonio.Error(w, http.StatusNotFound, "user not found")
		return
	case err != nil:
		h.Log.Error("get user failed", zap.String("user_id", id), zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to load user")
		return
	}
	jsonio.Write(w, http.StatusOK, withID(doc, id))
}

// ServeSave handles POST /user: merges the body into the user document
// named by its "id" field and returns the stored result.
func (h *Handler) ServeSave(w http.ResponseWriter, r *http.Request) {
	doc, err := jsonio.ReadDocument(w, r)
	if err != nil {
		jsonio.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	id := doc.String("id")
	if id == "" {
		jsonio.Error(w, http.StatusBadRequest, "id is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Docs.UpsertMerge(ctx, docstore.CollectionUser, id, doc); err != nil {
		h.Log.Error("save user failed", zap.String("user_id", id), zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to save user")
		return
	}
	stored, err := h.Docs.Get(ctx, docstore.CollectionUser, id)
	if err != nil {
		h.Log.Error("reload user failed", zap.String("user_id", id), zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to load saved user")
		return
	}
	h.Log.Info("user saved", zap.String("user_id", id))
	jsonio.Write(w, http.StatusOK, withID(stored, id))
}

func withID(doc docstore.Document, id string) docstore.Document {
	if doc.Has("id") {
		return doc
	}
	out := make(docstore.Document, len(doc)+1)
	for k, v := range doc {
		out[k] = v
	}
	out["id"] = id
	return out
}
