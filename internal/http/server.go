package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"tunelink/internal/core"
)

type Server struct {
	config  *core.ServerConfig
	logger  *zap.Logger
	server  *http.Server
	metrics *Metrics
}

type Metrics struct {
	ConversionsTotal     *prometheus.CounterVec
	SearchesTotal        *prometheus.CounterVec
	PlaylistFetchesTotal *prometheus.CounterVec
	CommunityAddsTotal   prometheus.Counter
	DuplicatesTotal      prometheus.Counter
	TokenRefreshesTotal  *prometheus.CounterVec
	UpstreamErrorsTotal  *prometheus.CounterVec
	ResolveDuration      *prometheus.HistogramVec
}

func NewServer(config *core.ServerConfig, logger *zap.Logger) *Server {
	metrics := &Metrics{
		ConversionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_conversions_total",
				Help: "Total number of track conversions",
			},
			[]string{"target", "status"},
		),
		SearchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_searches_total",
				Help: "Total number of track searches",
			},
			[]string{"platform"},
		),
		PlaylistFetchesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_playlist_fetches_total",
				Help: "Total number of playlist fetches",
			},
			[]string{"platform"},
		),
		CommunityAddsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunelink_community_adds_total",
				Help: "Total number of tracks added to the community playlist",
			},
		),
		DuplicatesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "tunelink_duplicates_total",
				Help: "Total number of duplicate community playlist proposals",
			},
		),
		TokenRefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_token_refreshes_total",
				Help: "Total number of access token refresh attempts",
			},
			[]string{"platform", "status"},
		),
		UpstreamErrorsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tunelink_upstream_errors_total",
				Help: "Total number of upstream platform API errors",
			},
			[]string{"platform"},
		),
		ResolveDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tunelink_resolve_duration_seconds",
				Help:    "Time spent resolving and converting tracks",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}

	prometheus.MustRegister(
		metrics.ConversionsTotal,
		metrics.SearchesTotal,
		metrics.PlaylistFetchesTotal,
		metrics.CommunityAddsTotal,
		metrics.DuplicatesTotal,
		metrics.TokenRefreshesTotal,
		metrics.UpstreamErrorsTotal,
		metrics.ResolveDuration,
	)

	return &Server{
		config:  config,
		logger:  logger,
		server:  createHTTPServer(config, setupRoutes()),
		metrics: metrics,
	}
}

func setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok","service":"tunelink"}`))
	})

	mux.HandleFunc("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ready","service":"tunelink"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	return mux
}

func createHTTPServer(config *core.ServerConfig, mux *http.ServeMux) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      mux,
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

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("Failed to shutdown HTTP server gracefully", zap.Error(err))
		}
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

func (s *Server) GetMetrics() *Metrics {
	return s.metrics
}

func (m *Metrics) RecordConversion(target, status string) {
	if m == nil {
		return
	}
	m.ConversionsTotal.WithLabelValues(target, status).Inc()
}

func (m *Metrics) RecordSearch(platform string) {
	if m == nil {
		return
	}
	m.SearchesTotal.WithLabelValues(platform).Inc()
}

func (m *Metrics) RecordPlaylistFetch(platform string) {
	if m == nil {
		return
	}
	m.PlaylistFetchesTotal.WithLabelValues(platform).Inc()
}

func (m *Metrics) RecordCommunityAdd() {
	if m == nil {
		return
	}
	m.CommunityAddsTotal.Inc()
}

func (m *Metrics) RecordDuplicate() {
	if m == nil {
		return
	}
	m.DuplicatesTotal.Inc()
}

func (m *Metrics) RecordTokenRefresh(platform, status string) {
	if m == nil {
		return
	}
	m.TokenRefreshesTotal.WithLabelValues(platform, status).Inc()
}

func (m *Metrics) RecordUpstreamError(platform string) {
	if m == nil {
		return
	}
	m.UpstreamErrorsTotal.WithLabelValues(platform).Inc()
}

func (m *Metrics) RecordResolveDuration(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ResolveDuration.WithLabelValues(operation).Observe(duration.Seconds())
}
