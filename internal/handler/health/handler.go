package health

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"
)

// Checker reports whether a dependency can take traffic.
type Checker interface {
	Ready() bool
}

type Handler struct {
	deps map[string]Checker
	now  func() time.Time
}

// NewHandler reports on deps by name, e.g. "backend" for the breaker in
// front of the specimen backend.
func NewHandler(deps map[string]Checker) *Handler {
	return &Handler{deps: deps, now: time.Now}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/health/live", h.Live)
	r.GET("/health/ready", h.Ready)
}

// Live only proves the process is serving.
func (h *Handler) Live(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": statusUp, "time": h.now().UTC()})
}

// Ready answers 503 while any dependency is down.
func (h *Handler) Ready(c *gin.Context) {
	status, code := statusUp, http.StatusOK
	deps := make(map[string]string, len(h.deps))
	for name, dep := range h.deps {
		deps[name] = statusUp
		if !dep.Ready() {
			deps[name] = statusDown
			status, code = statusDown, http.StatusServiceUnavailable
		}
	}
	c.JSON(code, gin.H{"status": status, "dependencies": deps})
}
