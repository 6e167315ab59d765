// internal/app/features/inquiries/handler.go
package inquiries

import (
	"context"
	"net/http"

	"github.com/dalemusser/dispatchhub/internal/app/store/docstore"
	"github.com/dalemusser/dispatchhub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/dispatchhub/internal/app/system/jsonio"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// freeTextFields are stripped of markup before they are stored.
var freeTextFields = []string{"description", "notes"}

// Handler serves inquiry documents.
type Handler struct {
	Docs docstore.Store
	Log  *zap.Logger
}

// NewHandler constructs an inquiries Handler.
func NewHandler(docs docstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Docs: docs,
		Log:  logger,
	}
}

// ServeSave handles POST /inquiry: merges the body into the inquiry document
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
	for _, f := range freeTextFields {
		if s, ok := doc[f].(string); ok {
			doc[f] = htmlsanitize.PlainText(s)
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Docs.UpsertMerge(ctx, docstore.CollectionInquiry, id, doc); err != nil {
		h.Log.Error("save inquiry failed", zap.String("inquiry_id", id), zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to save inquiry")
		return
	}
	stored, err := h.Docs.Get(ctx, docstore.CollectionInquiry, id)
	if err != nil {
		h.Log.Error("reload inquiry failed", zap.String("inquiry_id", id), zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to load saved inquiry")
		return
	}
	h.Log.Info("inquiry saved", zap.String("inquiry_id", id))
	jsonio.Write(w, http.StatusOK, stored)
}
