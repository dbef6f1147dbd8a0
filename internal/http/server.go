package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"amlinks/internal/core"
	"amlinks/internal/flood"
)

const (
	// serviceName is reported by the health endpoints.
	serviceName = "amlinks"
	// shutdownTimeout bounds graceful shutdown.
	shutdownTimeout = 10 * time.Second
	// maxRequestBodyBytes limits the size of a task request body.
	maxRequestBodyBytes = 1 << 20
	// tasksRoute is the link extraction endpoint.
	tasksRoute = "/api/tasks"
)

type Server struct {
	config    *core.Config
	logger    *zap.Logger
	server    *http.Server
	metrics   *Metrics
	registry  *prometheus.Registry
	tasks     *core.TaskService
	floodgate *flood.Floodgate
	limiter   *rate.Limiter
	validate  *validator.Validate
}

type Metrics struct {
	TasksTotal        *prometheus.CounterVec
	LinksTotal        *prometheus.CounterVec
	CacheLookupsTotal *prometheus.CounterVec
	RejectionsTotal   *prometheus.CounterVec
	ProcessingTime    *prometheus.HistogramVec
}

// NewServer creates the HTTP API server. floodgate may be nil to disable flood protection.
func NewServer(config *core.Config, tasks *core.TaskService, floodgate *flood.Floodgate, logger *zap.Logger) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	s := &Server{
		config:    config,
		logger:    logger,
		metrics:   newMetrics(registry),
		registry:  registry,
		tasks:     tasks,
		floodgate: floodgate,
		limiter:   newRateLimiter(config.App),
		validate:  validator.New(),
	}
	s.server = createHTTPServer(&config.Server, setupRoutes(s))

	return s
}

func newMetrics(registerer prometheus.Registerer) *Metrics {
	metrics := &Metrics{
		TasksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amlinks_tasks_total",
				Help: "Total number of task requests by outcome",
			},
			[]string{"outcome"},
		),
		LinksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amlinks_links_total",
				Help: "Total number of extracted links by resource type",
			},
			[]string{"type"},
		),
		CacheLookupsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amlinks_cache_lookups_total",
				Help: "Total number of result cache lookups",
			},
			[]string{"result"},
		),
		RejectionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "amlinks_rejections_total",
				Help: "Total number of task requests rejected by rate limiting",
			},
			[]string{"reason"},
		),
		ProcessingTime: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "amlinks_processing_duration_seconds",
				Help:    "Time spent processing task requests",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
	}

	registerer.MustRegister(
		metrics.TasksTotal,
		metrics.LinksTotal,
		metrics.CacheLookupsTotal,
		metrics.RejectionsTotal,
		metrics.ProcessingTime,
	)

	return metrics
}

func setupRoutes(s *Server) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// Forwarding headers are client controlled unless a proxy rewrites them.
	if s.config.Server.TrustProxyHeaders {
		r.Use(chimw.RealIP)
	}
	r.Use(requestLogger(s.logger))
	r.Use(chimw.Recoverer)
	if s.config.Server.RequestTimeout > 0 {
		r.Use(chimw.Timeout(s.config.Server.RequestTimeout))
	}
	r.Use(corsMiddleware(s.config.CORS))

	r.Get("/", s.homeHandler)
	r.Get("/health", healthHandler)
	r.Get("/healthz", healthzHandler)
	r.Get("/readyz", readyzHandler)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		if s.limiter != nil {
			r.Use(rateLimitMiddleware(s.limiter, s.metrics, s.tasks.Language()))
		}
		if s.floodgate != nil {
			r.Use(floodMiddleware(s.floodgate, s.metrics, s.tasks.Language()))
		}
		r.Post(tasksRoute, s.tasksHandler)
	})

	return r
}

// newRateLimiter returns the server-wide limiter, or nil when it is disabled.
func newRateLimiter(config core.AppConfig) *rate.Limiter {
	if config.GlobalRateLimit <= 0 {
		return nil
	}

	burst := config.GlobalRateBurst
	if burst < 1 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(config.GlobalRateLimit), burst)
}

func createHTTPServer(config *core.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         config.Addr(),
		Handler:      handler,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	}
}

func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("Starting HTTP server",
		zap.String("addr", s.server.Addr))

	go func() {
		<-ctx.Done()
		s.logger.Info("Shutting down HTTP server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) RecordTask(outcome string, duration time.Duration) {
	s.metrics.TasksTotal.WithLabelValues(outcome).Inc()
	s.metrics.ProcessingTime.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (s *Server) RecordLinks(types []string) {
	for _, t := range types {
		s.metrics.LinksTotal.WithLabelValues(t).Inc()
	}
}

func (s *Server) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	s.metrics.CacheLookupsTotal.WithLabelValues(result).Inc()
}
