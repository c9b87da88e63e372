// Package web serves the gallery page, its fragments and the event stream
// that pushes re-renders to the page.
package web

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/auth"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/session"
)

const (
	sessionCookie = "gallery_session"
	sessionHeader = "X-Gallery-Session"
	sessionQuery  = "session"
)

type Services struct {
	Auth     *auth.Service
	Sessions *session.Store
	Projects project.Source
	Logger   *zap.Logger

	// GalleryOptions are applied to the controller of every new page.
	GalleryOptions []gallery.Option
	AllowedOrigins []string
	SecureCookies  bool
}

// NewRouter wires every route of the gallery.
func NewRouter(svc Services) *gin.Engine {
	h := &handler{
		svc:       svc,
		logger:    svc.Logger,
		templates: mustParseTemplates(),
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(svc.Logger))
	router.Use(cors.New(corsConfig(svc.AllowedOrigins)))
	router.Use(securityMiddleware())
	router.SetHTMLTemplate(h.templates)

	router.GET("/", h.index)
	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	g := router.Group("/gallery")
	g.POST("/select", h.selectYear)
	g.POST("/wheel", h.wheel)
	g.GET("/events", h.events)

	api := router.Group("/api")
	api.GET("/projects", h.projects)
	api.GET("/years", h.years)

	return router
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", sessionHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(origins) == 0 || (len(origins) == 1 && origins[0] == "*") {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	cfg.AllowCredentials = true
	return cfg
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		logger.Debug("🌐 Request", fields...)
	}
}

func securityMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "no-referrer")
		c.Header("Permissions-Policy", "geolocation=(), microphone=(), camera=()")

		// The page is rebuilt from a fresh load on every visit.
		c.Header("Cache-Control", "no-store, no-cache, must-revalidate, private")

		c.Next()
	}
}
