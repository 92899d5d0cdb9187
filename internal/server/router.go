package server

import (
	"spacerental/internal/middleware"
	"spacerental/internal/modules/booking"
	"spacerental/internal/modules/catalog"
	"spacerental/internal/modules/health"
	"spacerental/internal/modules/live"
	jwtsvc "spacerental/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Deps struct {
	Logger         *zap.Logger
	Tokens         *jwtsvc.Service
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string

	Health  *health.Handler
	Catalog *catalog.Handler
	Booking *booking.Handler
	Live    *live.Handler
}

// NewRouter wires the HTTP surface:
//
//	GET  /health
//	     /api/v1/rooms...            public, rate limited
//	     /api/v1/bookings...         JWT, rate limited
//	GET  /api/v1/ws/bookings         JWT
//	GET  /api/v1/admin/bookings      JWT, role=admin
func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestLogger(d.Logger), middleware.CORS(d.AllowedOrigins))

	d.Health.RegisterRoutes(r)

	v1 := r.Group("/api/v1")
	{
		public := v1.Group("", d.RateLimiter.Middleware())
		d.Catalog.RegisterRoutes(public)

		protected := v1.Group("")
		protected.Use(middleware.JWTAuth(d.Tokens), d.RateLimiter.Middleware())
		{
			d.Booking.RegisterRoutes(protected)
			d.Live.RegisterRoutes(protected)

			admin := protected.Group("/admin", middleware.AdminOnly())
			d.Booking.RegisterAdminRoutes(admin)
		}
	}

	return r
}
