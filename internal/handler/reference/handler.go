package reference

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// Service is satisfied by *reference.Service.
type Service interface {
	Dropdowns(ctx context.Context, sess *model.Session) (model.Dropdowns, error)
}

type Handler struct {
	svc Service
}

func NewHandler(svc Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	reference := r.Group("/reference")
	reference.Use(middleware.Cache(middleware.DefaultCacheConfig()))
	{
		reference.GET("/dropdowns", h.Dropdowns)
	}
}

func (h *Handler) Dropdowns(c *gin.Context) {
	dropdowns, err := h.svc.Dropdowns(c.Request.Context(), middleware.SessionFrom(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithSuccess(c, dropdowns)
}
