package occurrence

import (
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/jwalitptl/specimen-gateway/internal/handler"
	"github.com/jwalitptl/specimen-gateway/internal/middleware"
	"github.com/jwalitptl/specimen-gateway/internal/model"
	"github.com/jwalitptl/specimen-gateway/internal/repository"
	"github.com/jwalitptl/specimen-gateway/internal/service/presentation"
	apperrors "github.com/jwalitptl/specimen-gateway/pkg/errors"
	"github.com/jwalitptl/specimen-gateway/pkg/httputil"
)

// Service is satisfied by *occurrence.Service.
type Service interface {
	Search(ctx context.Context, sess *model.Session, raw map[string]string, page, perPage int) (model.ResultPage[model.OccurrenceSummary], error)
	Get(ctx context.Context, sess *model.Session, id int64) (*model.OccurrenceAggregate, error)
	Create(ctx context.Context, sess *model.Session, d model.OccurrenceDraft) (int64, error)
	Attach(ctx context.Context, sess *model.Session, id int64, files []repository.Upload) ([]model.AttachmentDetail, error)
}

// ReferenceCache is satisfied by *reference.Service.
type ReferenceCache interface {
	Invalidate(sess *model.Session)
}

type Handler struct {
	svc       Service
	reference ReferenceCache
	renderer  *presentation.Renderer
}

func NewHandler(svc Service, reference ReferenceCache, renderer *presentation.Renderer) *Handler {
	return &Handler{
		svc:       svc,
		reference: reference,
		renderer:  renderer,
	}
}

// RegisterRoutes mounts search and occurrence routes. None of their
// answers may be cached.
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	noStore := middleware.Cache(middleware.NoStoreConfig())

	r.GET("/search", noStore, h.Search)

	occurrences := r.Group("/occurrences", noStore)
	{
		occurrences.POST("", h.Create)
		occurrences.GET("/:id", h.Get)
		occurrences.GET("/:id/view", h.View)
		occurrences.POST("/:id/attachments", h.Attach)
	}
}

// Search passes the query string through as raw criteria. The first value
// of a repeated key wins.
func (h *Handler) Search(c *gin.Context) {
	raw := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if len(values) > 0 {
			raw[key] = values[0]
		}
	}

	page, err := h.svc.Search(c.Request.Context(), middleware.SessionFrom(c), raw, 0, 0)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, model.NewSearchResponse(page))
}

func (h *Handler) Get(c *gin.Context) {
	agg, ok := h.fetch(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, agg)
}

// View returns the occurrence as display sections with empty fields
// suppressed.
func (h *Handler) View(c *gin.Context) {
	agg, ok := h.fetch(c)
	if !ok {
		return
	}
	httputil.RespondWithSuccess(c, h.renderer.Render(agg))
}

func (h *Handler) fetch(c *gin.Context) (*model.OccurrenceAggregate, bool) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}

	agg, err := h.svc.Get(c.Request.Context(), middleware.SessionFrom(c), id)
	if err != nil {
		_ = c.Error(err)
		return nil, false
	}
	return agg, true
}

type createResponse struct {
	OccurrenceID int64 `json:"occurrence_id"`
}

func (h *Handler) Create(c *gin.Context) {
	var d model.OccurrenceDraft
	if err := c.ShouldBindJSON(&d); err != nil {
		_ = c.Error(middleware.BindingError(err))
		return
	}

	sess := middleware.SessionFrom(c)
	id, err := h.svc.Create(c.Request.Context(), sess, d)
	if err != nil {
		_ = c.Error(err)
		return
	}
	h.reference.Invalidate(sess)

	c.Header("Location", fmt.Sprintf("%s/%d", c.FullPath(), id))
	httputil.RespondWithStatus(c, http.StatusCreated, createResponse{OccurrenceID: id})
}

// Attach relays the "files" parts of a multipart form to the backend.
func (h *Handler) Attach(c *gin.Context) {
	id, err := handler.ParseID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		_ = c.Error(apperrors.NewBadRequest("expected a multipart form", err))
		return
	}

	headers := form.File["files"]
	uploads := make([]repository.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			_ = c.Error(apperrors.NewBadRequest("unreadable upload "+strconv.Quote(fh.Filename), err))
			return
		}
		defer closeQuietly(c.Request.Context(), f)
		uploads = append(uploads, repository.Upload{FileName: fh.Filename, Content: f})
	}

	attachments, err := h.svc.Attach(c.Request.Context(), middleware.SessionFrom(c), id, uploads)
	if err != nil {
		_ = c.Error(err)
		return
	}
	httputil.RespondWithStatus(c, http.StatusCreated, attachments)
}

func closeQuietly(ctx context.Context, f multipart.File) {
	if err := f.Close(); err != nil {
		zerolog.Ctx(ctx).Debug().Err(err).Msg("failed to close upload")
	}
}
