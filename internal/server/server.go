package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/cache"
	"github.com/raaihank/lang-sentinel/internal/config"
	"github.com/raaihank/lang-sentinel/internal/language"
	"github.com/raaihank/lang-sentinel/internal/logger"
	"github.com/raaihank/lang-sentinel/internal/metrics"
	"github.com/raaihank/lang-sentinel/internal/websocket"
)

// Server hosts the detection API
type Server struct {
	config   *config.Config
	logger   *logger.Logger
	detector *language.Detector
	shared   *cache.SharedCache
	metrics  *metrics.Metrics
	router   *mux.Router
	server   *http.Server
	wsHub    *websocket.Hub
	started  time.Time
	done     chan struct{}
}

// New creates a new server instance
func New(cfg *config.Config, log *logger.Logger) (*Server, error) {
	detector, err := language.New(cfg.Detection, log.WithComponent("language"))
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	m := metrics.New(prometheus.NewRegistry())

	var shared *cache.SharedCache
	if cfg.Shared.Enabled {
		shared, err = cache.NewSharedCache(&cache.RedisConfig{
			Enabled:        cfg.Shared.Enabled,
			RedisURL:       cfg.Shared.RedisURL,
			MaxConnections: cfg.Shared.MaxConnections,
			MinIdleConns:   cfg.Shared.MinIdleConns,
			DefaultTTL:     cfg.Shared.DefaultTTL,
			KeyPrefix:      cfg.Shared.KeyPrefix,
		}, log.WithComponent("shared-cache").Logger)
		if err != nil {
			// The shared cache is an accelerator; the engine works without it.
			log.Warn("Shared cache unavailable, continuing without it", zap.Error(err))
			shared = nil
		}
	}

	hubCfg := &websocket.HubConfig{
		BroadcastDetections:  cfg.WebSocket.Events.BroadcastDetections,
		BroadcastRequests:    cfg.WebSocket.Events.BroadcastRequests,
		BroadcastSystem:      cfg.WebSocket.Events.BroadcastSystem,
		BroadcastConnections: cfg.WebSocket.Events.BroadcastConnections,
		Username:             cfg.WebSocket.Username,
		Password:             cfg.WebSocket.Password,
	}
	wsHub := websocket.NewHub(hubCfg, log.WithComponent("websocket").Logger)

	router := mux.NewRouter()

	server := &Server{
		config:   cfg,
		logger:   log.WithComponent("server"),
		detector: detector,
		shared:   shared,
		metrics:  m,
		router:   router,
		wsHub:    wsHub,
		started:  time.Now(),
		done:     make(chan struct{}),
	}

	server.setupRoutes()

	server.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      server.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return server, nil
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")

	// Info endpoint
	s.router.HandleFunc("/info", s.handleInfo).Methods("GET")

	// Prometheus scrape endpoint
	s.router.Handle("/metrics", s.metrics.Handler()).Methods("GET")

	// WebSocket endpoint for the live event feed
	if s.config.WebSocket.Enabled {
		s.router.HandleFunc(s.config.WebSocket.Path, s.handleWebSocket).Methods("GET")
	}

	// Detection API
	api := s.router.PathPrefix("/v1").Subrouter()
	api.Use(s.loggingMiddleware)
	if s.config.Server.RateLimit.Enabled {
		api.Use(s.rateLimitMiddleware)
	}
	api.HandleFunc("/detect", s.handleDetect).Methods("POST")
	api.HandleFunc("/stats", s.handleStats).Methods("GET")
	api.HandleFunc("/languages", s.handleLanguages).Methods("GET")
	api.HandleFunc("/cache", s.handleCacheClear).Methods("DELETE")
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.logger.Info("Starting language detection server",
		zap.Int("port", s.config.Server.Port),
		zap.String("default_language", s.config.Detection.DefaultLanguage),
		zap.String("classifier", s.config.Detection.Classifier.Type),
		zap.Bool("shared_cache", s.shared != nil),
	)

	// Start WebSocket hub in a separate goroutine
	go s.wsHub.Run()

	// Periodic status frames for the live feed
	go s.broadcastSystemStatus()

	return s.server.ListenAndServe()
}

// broadcastSystemStatus publishes engine counters to the event feed until
// the server stops.
func (s *Server) broadcastSystemStatus() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			stats := s.detector.Stats()
			hub := s.wsHub.GetStats()
			s.wsHub.BroadcastEvent(websocket.Event{
				Type:      websocket.EventTypeSystemStatus,
				Timestamp: time.Now(),
				Data: websocket.SystemStatusEvent{
					Status:           "healthy",
					Uptime:           time.Since(s.started).Round(time.Second).String(),
					TotalRequests:    stats.Requests,
					EntityHits:       stats.EntityHits,
					Statistical:      stats.Statistical,
					Fallbacks:        stats.Fallbacks,
					ConnectedClients: int(hub.ActiveConnections),
				},
			})
		}
	}
}

// Stop gracefully stops the HTTP server
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping language detection server")
	close(s.done)
	if s.shared != nil {
		if err := s.shared.Close(); err != nil {
			s.logger.Warn("Failed to close shared cache", zap.Error(err))
		}
	}
	return s.server.Shutdown(ctx)
}

// handleWebSocket handles WebSocket connections for the live event feed
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	s.wsHub.HandleWebSocket(w, r)
}

// GetWebSocketHub returns the WebSocket hub for broadcasting events
func (s *Server) GetWebSocketHub() *websocket.Hub {
	return s.wsHub
}
