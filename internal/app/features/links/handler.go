// internal/app/features/links/handler.go
package links

import (
	"context"
	"errors"
	"net/http"

	linkstore "github.com/dalemusser/dispatchhub/internal/app/store/links"
	"github.com/dalemusser/dispatchhub/internal/app/system/jsonio"
	"github.com/dalemusser/dispatchhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// Handler creates userToInquiry links.
type Handler struct {
	Links *linkstore.Store
	Log   *zap.Logger
}

// NewHandler constructs a links Handler.
func NewHandler(links *linkstore.Store, logger *zap.Logger) *Handler {
	return &Handler{
		Links: links,
		Log:   logger,
	}
}

// ServeCreate handles POST /link with a body of {"userID", "inquiryID"}.
// Linking the same pair twice is harmless.
func (h *Handler) ServeCreate(w http.ResponseWriter, r *http.Request) {
	doc, err := jsonio.ReadDocument(w, r)
	if err != nil {
		jsonio.Error(w, http.StatusBadRequest, err.Error())
		return
	}
	userID, inquiryID := doc.String("userID"), doc.String("inquiryID")

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	link, err := h.Links.Create(ctx, userID, inquiryID)
	switch {
	case errors.Is(err, linkstore.ErrMissingIDs):
		jsonio.Error(w, http.StatusBadRequest, "userID and inquiryID are required")
		return
	case err != nil:
		h.Log.Error("create link failed",
			zap.String("user_id", userID),
			zap.String("inquiry_id", inquiryID),
			zap.Error(err))
		jsonio.Error(w, http.StatusInternalServerError, "failed to create link")
		return
	}
	h.Log.Info("link created", zap.String("link_id", link.ID))
	jsonio.Write(w, http.StatusOK, link)
}
