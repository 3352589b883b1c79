package draft

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/service/draft"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// Defaults is satisfied by *reference.Service.
type Defaults interface {
	Defaults(ctx context.Context, sess *model.Session) (model.OccurrenceDraft, error)
}

type Handler struct {
	defaults Defaults
}

func NewHandler(defaults Defaults) *Handler {
	return &Handler{defaults: defaults}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	drafts := r.Group("/drafts")
	{
		drafts.GET("/defaults", h.Defaults)
		drafts.POST("/edits", h.ApplyEdits)
	}
}

// Defaults returns the backend's pre-filled create form as a draft.
func (h *Handler) Defaults(c *gin.Context) {
	d, err := h.defaults.Defaults(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, d)
}

type editRequest struct {
	Draft model.OccurrenceDraft `json:"draft"`
	Edits []model.DraftEdit     `json:"edits" binding:"required,dive"`
}

// ApplyEdits folds the edits over the submitted draft and returns the
// result. Nothing is stored.
func (h *Handler) ApplyEdits(c *gin.Context) {
	var req editRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(middleware.BindingError(err))
		return
	}

	next, err := draft.ApplyEdits(req.Draft, req.Edits)
	if err != nil {
		_ = c.Error(editError(err))
		return
	}
	httputil.RespondWithSuccess(c, next)
}

func editError(err error) error {
	var (
		pathErr  *draft.PathError
		valueErr *draft.ValueError
	)
	if errors.As(err, &pathErr) || errors.As(err, &valueErr) {
		return apperrors.NewBadRequest(err.Error(), err)
	}
	return err
}
