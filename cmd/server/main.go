// Labracadabra - project gallery browsable by year
// ================================================
//
// Serves a page listing the projects of allprojects.json grouped by the year
// they started, with a year selector driven by clicks and the mouse wheel.
//
// Configuration comes from the environment and optional .env / .env.local
// files, see internal/config.

package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/auth"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/config"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/gallery"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/project"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/session"
	"github.com/mitmedialab/labracadabra-media-lab-browser/internal/web"
)

func main() {
	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		log.Fatal("Error loading configuration: ", err)
	}

	logger := initLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("🚀 Starting project gallery",
		zap.String("projects", cfg.Projects.Source),
		zap.String("feed", cfg.Projects.FeedURL),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewStore(cfg.Session.TTL, logger)
	go sessions.Janitor(ctx, time.Hour)

	gin.SetMode(gin.ReleaseMode)
	router := web.NewRouter(web.Services{
		Auth:     auth.NewService(cfg.Session.Secret, cfg.Session.TTL),
		Sessions: sessions,
		Projects: newProjectSource(cfg.Projects),
		Logger:   logger,
		GalleryOptions: []gallery.Option{
			gallery.WithItemHeight(cfg.Gallery.ItemHeight),
			gallery.WithWheelWait(cfg.Gallery.WheelDebounce),
			gallery.WithLogger(logger),
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// WriteTimeout stays unset so the event stream is not cut off.
	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           router,
		ReadHeaderTimeout: 15 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("🌐 Server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("❌ Error starting server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("🛑 Shutting down server...")

	if err := shutdown(srv, sessions, 30*time.Second); err != nil {
		logger.Error("❌ Error shutting down server", zap.Error(err))
		return
	}

	logger.Info("✅ Server stopped")
}

// shutdown closes the sessions first: that ends open event streams, which
// Shutdown would otherwise wait on until the timeout.
func shutdown(srv *http.Server, sessions *session.Store, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	sessions.Close()
	return srv.Shutdown(ctx)
}

func newProjectSource(cfg config.ProjectsConfig) project.Source {
	var src project.Source = project.NewSource(cfg.Source)
	if cfg.FeedURL != "" {
		src = project.MultiSource{src, &project.FeedSource{
			URL:    cfg.FeedURL,
			Client: project.NewHTTPClient(15 * time.Second),
		}}
	}
	return project.NewCachedSource(src, cfg.CacheTTL)
}

func initLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.StacktraceKey = ""

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := cfg.Build()
	if err != nil {
		log.Fatal("Error initializing logger: ", err)
	}

	return logger
}
