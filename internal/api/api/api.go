package api

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/wb-go/wbf/ginext"

	"tedxcmr/cmd/middleware"
	"tedxcmr/internal/metrics"
	"tedxcmr/internal/service"
	"tedxcmr/internal/session"
)

type Routers struct {
	Service     service.Service
	Guard       *session.Guard
	Metrics     *metrics.Metrics
	Log         *zerolog.Logger
	Mode        string
	CORSOrigins []string
	StaticDir   string

	// MaxBodyBytes caps request bodies; zero or less disables the cap.
	MaxBodyBytes int64
}

func NewRouters(r *Routers) *ginext.Engine {
	app := ginext.New(r.Mode)

	app.Use(middleware.LoggingMiddleware(r.Log))
	app.Use(r.Metrics.Middleware())
	app.Use(middleware.Recovery(r.Log))
	if r.MaxBodyBytes > 0 {
		app.Use(middleware.BodyLimit(r.MaxBodyBytes))
	}
	app.Use(corsMiddleware(r.CORSOrigins, r.Log))
	app.Use(r.Guard.Middleware())

	app.GET("/healthz", r.Service.Health)
	app.GET("/metrics", gin.WrapH(r.Metrics.Handler()))

	admin := r.Guard.RequireAdmin()
	apiGroup := app.Group("/v1")

	apiGroup.GET("/sessions/admin", r.Service.AdminSession)
	apiGroup.POST("/sessions/admin", r.Service.AdminLogin)
	apiGroup.POST("/sessions/admin/logout", r.Service.AdminLogout)

	apiGroup.GET("/registrations", admin, r.Service.ListRegistrations)
	apiGroup.POST("/registrations", r.Service.CreateRegistration)

	apiGroup.GET("/sponsors", r.Service.ListSponsors)
	apiGroup.POST("/sponsors", admin, r.Service.CreateSponsor)
	apiGroup.DELETE("/sponsors/:id", admin, r.Service.DeleteSponsor)

	apiGroup.GET("/support-tickets", admin, r.Service.ListSupportTickets)
	apiGroup.POST("/support-tickets", r.Service.CreateSupportTicket)
	apiGroup.POST("/support-tickets/:id/reply", admin, r.Service.ReplySupportTicket)

	apiGroup.GET("/speakers", r.Service.ListSpeakers)
	apiGroup.POST("/speakers", admin, r.Service.CreateSpeaker)
	apiGroup.DELETE("/speakers/:id", admin, r.Service.DeleteSpeaker)

	if r.StaticDir != "" {
		index := filepath.Join(r.StaticDir, "index.html")
		app.GET("/", func(c *ginext.Context) {
			c.File(index)
		})
		app.Static("/assets", r.StaticDir)
	}

	return app
}

// corsMiddleware allows credentials for the configured origins so the admin
// panel can send its session cookie. With no origins it falls back to gin's
// permissive default, which does not carry cookies.
func corsMiddleware(origins []string, log *zerolog.Logger) ginext.HandlerFunc {
	if len(origins) == 0 {
		return cors.Default()
	}

	cfg := cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if err := cfg.Validate(); err != nil {
		log.Warn().Err(err).Strs("origins", origins).Msg("invalid CORS origins, using default policy")
		return cors.Default()
	}
	return cors.New(cfg)
}
