package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/emdat-etl/internal/domain"
	"github.com/couchcryptid/emdat-etl/internal/pipeline"
	"github.com/couchcryptid/emdat-etl/internal/store"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// Uploader ingests one uploaded file and installs it as the current batch.
type Uploader interface {
	Ingest(ctx context.Context, u pipeline.Upload) (domain.Batch, error)
}

// EventReader serves the current batch to renderers.
type EventReader interface {
	Current() (domain.Batch, bool)
	Events(f store.Filter) ([]domain.DisasterEvent, int)
	Event(id string) (domain.DisasterEvent, bool)
	Stats(f store.Filter) store.Stats
}

// Options configures the HTTP surface.
type Options struct {
	Addr           string
	MaxUploadBytes int64
	RateLimit      float64
	AllowOrigins   []string
}

// Server exposes the upload and query API plus health, readiness, and metrics
// endpoints.
type Server struct {
	httpServer *http.Server
	uploader   Uploader
	events     EventReader
	maxUpload  int64
	logger     *slog.Logger
}

// NewServer creates the gin engine and registers every route.
func NewServer(opts Options, uploader Uploader, events EventReader, ready ReadinessChecker, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
	}))

	maxUpload := opts.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = 32 << 20
	}
	router.MaxMultipartMemory = maxUpload

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      router,
			ReadTimeout:  60 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		uploader:  uploader,
		events:    events,
		maxUpload: maxUpload,
		logger:    logger,
	}

	router.GET("/healthz", s.handleHealth)
	router.GET("/readyz", handleReady(ready))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api", RateLimitMiddleware(opts.RateLimit))
	api.POST("/uploads", s.handleUpload)
	api.GET("/batch", s.handleBatch)
	api.GET("/events", s.handleEvents)
	api.GET("/events/geojson", s.handleGeoJSON)
	api.GET("/events/:id", s.handleEvent)
	api.GET("/stats", s.handleStats)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	}
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
