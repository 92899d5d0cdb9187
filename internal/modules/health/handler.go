package health

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

const pingTimeout = 2 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type Handler struct {
	db      Pinger
	version string
	started time.Time
	now     func() time.Time
}

// NewHandler reports the process health. db may be nil when bookings are kept
// in a file and no database is configured.
func NewHandler(db Pinger, version string) *Handler {
	return &Handler{
		db:      db,
		version: version,
		started: time.Now(),
		now:     time.Now,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRoutes) {
	r.GET("/health", h.Health)
}

func (h *Handler) Health(c *gin.Context) {
	now := h.now()

	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), pingTimeout)
		defer cancel()

		if err := h.db.PingContext(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "ERROR",
				"timestamp": now.UTC().Format(time.RFC3339),
				"message":   "database unavailable",
			})
			return
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.JSON(http.StatusOK, gin.H{
		"status":         "UP",
		"timestamp":      now.UTC().Format(time.RFC3339),
		"version":        h.version,
		"uptime_seconds": int64(now.Sub(h.started).Seconds()),
		"memory_mb":      float64(mem.HeapAlloc) / (1 << 20),
	})
}
