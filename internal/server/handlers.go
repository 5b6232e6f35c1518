package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/raaihank/lang-sentinel/internal/cache"
	"github.com/raaihank/lang-sentinel/internal/language"
	"github.com/raaihank/lang-sentinel/internal/websocket"
)

// Version is set at build time via -ldflags
var Version = "0.1.0"

type errorResponse struct {
	Error string `json:"error"`
}

// handleDetect handles a single detection request
func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	requestID := getRequestID(r.Context())
	log := s.logger.WithRequestID(requestID)

	r.Body = http.MaxBytesReader(w, r.Body, s.config.Server.MaxTextBytes)

	var req language.Request
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		log.Debug("Rejected malformed detection request", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return
	}

	// The shared cache keys on the same normalized text as the engine's LRU.
	text := strings.TrimSpace(req.Text)
	textLen := utf8.RuneCountInString(text)

	// Shared-cache fast path. Detailed requests always run the engine so
	// diagnostics stay complete.
	if s.shared != nil && !req.Detailed {
		if stored, ok := s.shared.Lookup(r.Context(), text); ok {
			result := language.Result{
				Language:   stored.Language,
				Confidence: stored.Confidence,
				Method:     language.Method(stored.Method),
			}
			log.LogDetection(result.Language, result.Confidence, string(result.Method), textLen, 0, true)
			s.broadcastDetection(requestID, r, result, textLen, true, 0)
			writeJSON(w, http.StatusOK, result)
			return
		}
	}

	start := time.Now()
	result := s.detector.Detect(r.Context(), req)
	duration := time.Since(start)

	if s.shared != nil {
		stored := &cache.StoredResult{
			Language:   result.Language,
			Confidence: result.Confidence,
			Method:     string(result.Method),
			CachedAt:   time.Now(),
		}
		// Off the request path; a slow Redis must not slow detection.
		go func(text string) {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.shared.Store(ctx, text, stored); err != nil {
				log.Debug("Shared cache store failed", zap.Error(err))
			}
		}(text)
	}

	log.LogDetection(result.Language, result.Confidence, string(result.Method), textLen, duration, false)
	s.broadcastDetection(requestID, r, result, textLen, false, duration)
	writeJSON(w, http.StatusOK, result)
}

// handleStats reports engine, cache and hub counters
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats := struct {
		Detector  language.Stats     `json:"detector"`
		WebSocket websocket.HubStats `json:"websocket"`
		Shared    *cache.Stats       `json:"shared_cache,omitempty"`
		Uptime    string             `json:"uptime"`
	}{
		Detector:  s.detector.Stats(),
		WebSocket: s.wsHub.GetStats(),
		Uptime:    time.Since(s.started).Round(time.Second).String(),
	}

	if s.shared != nil {
		if shared, err := s.shared.GetStats(r.Context()); err == nil {
			stats.Shared = shared
		}
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleLanguages lists the classifier's inventory and the fallback
func (s *Server) handleLanguages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Languages []string `json:"languages"`
		Default   string   `json:"default"`
	}{
		Languages: s.detector.Languages(),
		Default:   s.config.Detection.DefaultLanguage,
	})
}

// handleCacheClear empties the shared result cache. The engine's in-process
// LRU is untouched: it is bounded and self-evicting.
func (s *Server) handleCacheClear(w http.ResponseWriter, r *http.Request) {
	if s.shared == nil {
		writeJSON(w, http.StatusOK, map[string]bool{"shared_cache_cleared": false})
		return
	}
	if err := s.shared.Clear(r.Context()); err != nil {
		s.logger.Error("Failed to clear shared cache", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "failed to clear shared cache"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"shared_cache_cleared": true})
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// handleInfo handles info requests
func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, struct {
		Name         string `json:"name"`
		Version      string `json:"version"`
		Classifier   string `json:"classifier"`
		Default      string `json:"default_language"`
		Languages    int    `json:"languages"`
		SharedCache  bool   `json:"shared_cache"`
		WebSocketOn  bool   `json:"websocket"`
		RateLimiting bool   `json:"rate_limiting"`
	}{
		Name:         "lang-sentinel",
		Version:      Version,
		Classifier:   s.config.Detection.Classifier.Type,
		Default:      s.config.Detection.DefaultLanguage,
		Languages:    len(s.detector.Languages()),
		SharedCache:  s.shared != nil,
		WebSocketOn:  s.config.WebSocket.Enabled,
		RateLimiting: s.config.Server.RateLimit.Enabled,
	})
}

// broadcastDetection publishes a detection event to the live feed
func (s *Server) broadcastDetection(requestID string, r *http.Request, result language.Result, textLen int, cacheHit bool, duration time.Duration) {
	s.wsHub.BroadcastEvent(websocket.Event{
		Type:      websocket.EventTypeDetection,
		Timestamp: time.Now(),
		RequestID: requestID,
		Data: websocket.DetectionEvent{
			RequestID:  requestID,
			Language:   result.Language,
			Confidence: result.Confidence,
			Method:     string(result.Method),
			TextLength: textLen,
			CacheHit:   cacheHit,
			DurationMS: float64(duration.Nanoseconds()) / 1e6,
			ClientIP:   getClientIP(r),
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
