// internal/api/server.go
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"program-matcher/internal/catalog"
	"program-matcher/internal/common/config"
	"program-matcher/internal/common/logger"
	"program-matcher/internal/leads"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ReadinessCheck is probed by /ready. A failing check marks the service
// not ready.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// EventPublisher correlates a message into a running process.
type EventPublisher interface {
	PublishMessage(ctx context.Context, name, correlationKey string, vars interface{}) error
}

type Dependencies struct {
	Catalog   *catalog.Service
	Leads     *leads.Service
	Readiness []ReadinessCheck
	// Events receives a lead-submitted message per saved lead. Optional.
	Events EventPublisher
	Logger logger.Logger
	// SubmitTimeout bounds POST /api/leads. Zero leaves the request context alone.
	SubmitTimeout time.Duration
}

type Server struct {
	http   *http.Server
	logger logger.Logger
}

func NewServer(cfg config.HTTPConfig, deps Dependencies) *Server {
	return &Server{
		http: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           NewRouter(cfg, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: deps.Logger,
	}
}

// NewRouter builds the gin engine with every route mounted.
func NewRouter(cfg config.HTTPConfig, deps Dependencies) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Logger))

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", "Content-Length", "Accept-Encoding", "Authorization", "accept", "origin", "Cache-Control", "X-Requested-With"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	h := &handlers{
		catalog:       deps.Catalog,
		leads:         deps.Leads,
		readiness:     deps.Readiness,
		events:        deps.Events,
		logger:        deps.Logger,
		submitTimeout: deps.SubmitTimeout,
	}

	r.GET("/health", h.health)
	r.GET("/ready", h.ready)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/match", h.match)
		apiGroup.GET("/countries", h.countries)
		apiGroup.POST("/leads", h.submitLead)
	}
	return r
}

// Start blocks until the server stops. A graceful Shutdown is not an error.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{"addr": s.http.Addr})
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
