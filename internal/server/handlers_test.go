package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/raaihank/lang-sentinel/internal/config"
	"github.com/raaihank/lang-sentinel/internal/language"
	"github.com/raaihank/lang-sentinel/internal/logger"
)

func testServerConfig() *config.Config {
	cfg := config.GetDefaults()
	cfg.Detection.Languages = []string{"en", "pl", "de"}
	cfg.Shared.Enabled = false
	return cfg
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	s, err := New(cfg, &logger.Logger{Logger: zap.NewNop()})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}
	return s
}

func postDetect(t *testing.T, s *Server, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/detect", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func TestHandleDetect(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	t.Run("EntityHint", func(t *testing.T) {
		body, _ := json.Marshal(language.Request{Text: "mój pesel to 92032100157"})
		rec := postDetect(t, s, string(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result language.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Language != "pl" {
			t.Errorf("Language = %q, want pl", result.Language)
		}
		if result.Method != language.MethodEntityHint {
			t.Errorf("Method = %q, want %q", result.Method, language.MethodEntityHint)
		}
		if result.Diagnostics != nil {
			t.Error("Diagnostics should be omitted without the detailed flag")
		}
	})

	t.Run("DetailedResponse", func(t *testing.T) {
		body, _ := json.Marshal(language.Request{Text: "mój pesel to 92032100157", Detailed: true})
		rec := postDetect(t, s, string(body))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result language.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Diagnostics == nil {
			t.Fatal("Diagnostics missing with the detailed flag set")
		}
		if len(result.Diagnostics.Hints) == 0 {
			t.Error("Diagnostics.Hints is empty, want the matched entity hint")
		}
	})

	t.Run("EmptyTextFallsBack", func(t *testing.T) {
		rec := postDetect(t, s, `{"text":""}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}

		var result language.Result
		if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if result.Language != "en" || result.Method != language.MethodFallback {
			t.Errorf("result = %s/%s, want en/%s", result.Language, result.Method, language.MethodFallback)
		}
		if result.Confidence != 0 {
			t.Errorf("Confidence = %f, want 0", result.Confidence)
		}
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec := postDetect(t, s, `{"text": `)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("UnknownFieldRejected", func(t *testing.T) {
		rec := postDetect(t, s, `{"text":"hello","verbose":true}`)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("OversizedBodyRejected", func(t *testing.T) {
		cfg := testServerConfig()
		cfg.Server.MaxTextBytes = 64
		small := newTestServer(t, cfg)

		payload := `{"text":"` + strings.Repeat("a", 256) + `"}`
		rec := postDetect(t, small, payload)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("WhitespaceVariantsShareCacheEntry", func(t *testing.T) {
		fresh := newTestServer(t, testServerConfig())

		postDetect(t, fresh, `{"text":"  mój pesel to 92032100157  "}`)
		postDetect(t, fresh, `{"text":"mój pesel to 92032100157"}`)

		req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
		rec := httptest.NewRecorder()
		fresh.router.ServeHTTP(rec, req)

		var body struct {
			Detector language.Stats `json:"detector"`
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if body.Detector.ScannerCalls != 1 {
			t.Errorf("ScannerCalls = %d, want 1 (second request should hit the cache)", body.Detector.ScannerCalls)
		}
		if body.Detector.CacheHits != 1 {
			t.Errorf("CacheHits = %d, want 1", body.Detector.CacheHits)
		}
	})

	t.Run("MethodNotAllowed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/v1/detect", nil)
		rec := httptest.NewRecorder()
		s.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("status = %d, want 405", rec.Code)
		}
	})
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["status"] != "healthy" {
		t.Errorf("status field = %q, want healthy", body["status"])
	}
}

func TestHandleInfo(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Name       string `json:"name"`
		Classifier string `json:"classifier"`
		Languages  int    `json:"languages"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Name != "lang-sentinel" {
		t.Errorf("name = %q, want lang-sentinel", body.Name)
	}
	if body.Classifier != config.ClassifierNgram {
		t.Errorf("classifier = %q, want %q", body.Classifier, config.ClassifierNgram)
	}
	if body.Languages != 3 {
		t.Errorf("languages = %d, want 3", body.Languages)
	}
}

func TestHandleLanguages(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/languages", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Languages []string `json:"languages"`
		Default   string   `json:"default"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(body.Languages) != 3 {
		t.Errorf("languages = %v, want 3 entries", body.Languages)
	}
	if body.Default != "en" {
		t.Errorf("default = %q, want en", body.Default)
	}
}

func TestHandleStats(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	postDetect(t, s, `{"text":"mój pesel to 92032100157"}`)

	req := httptest.NewRequest(http.MethodGet, "/v1/stats", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body struct {
		Detector language.Stats `json:"detector"`
		Uptime   string         `json:"uptime"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Detector.Requests != 1 {
		t.Errorf("Detector.Requests = %d, want 1", body.Detector.Requests)
	}
	if body.Detector.EntityHits != 1 {
		t.Errorf("Detector.EntityHits = %d, want 1", body.Detector.EntityHits)
	}
	if body.Uptime == "" {
		t.Error("uptime is empty")
	}
}

func TestDetectLogsOutcome(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	s, err := New(testServerConfig(), &logger.Logger{Logger: zap.New(core)})
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	text := "mój pesel to 92032100157"
	postDetect(t, s, `{"text":"`+text+`"}`)

	var entry *observer.LoggedEntry
	for _, e := range logs.All() {
		if e.Message == "Language detected" {
			entry = &e
			break
		}
	}
	if entry == nil {
		t.Fatal("no detection log entry recorded")
	}

	fields := entry.ContextMap()
	if fields["language"] != "pl" {
		t.Errorf("logged language = %v, want pl", fields["language"])
	}
	for _, v := range fields {
		if sv, ok := v.(string); ok && strings.Contains(sv, text) {
			t.Errorf("log entry leaks the submitted text in field value %q", sv)
		}
	}
}

func TestHandleCacheClear(t *testing.T) {
	s := newTestServer(t, testServerConfig())

	req := httptest.NewRequest(http.MethodDelete, "/v1/cache", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	// The shared cache is disabled in the test configuration.
	if cleared, ok := body["shared_cache_cleared"]; !ok || cleared {
		t.Errorf("shared_cache_cleared = %v, want present and false", body["shared_cache_cleared"])
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	cfg := testServerConfig()
	cfg.Server.RateLimit.Enabled = true
	cfg.Server.RateLimit.RequestsPerSec = 1
	cfg.Server.RateLimit.Burst = 1
	s := newTestServer(t, cfg)

	body, _ := json.Marshal(language.Request{Text: "please review this invoice for me"})

	first := postDetect(t, s, string(body))
	if first.Code != http.StatusOK {
		t.Fatalf("first request status = %d, want 200", first.Code)
	}

	second := postDetect(t, s, string(body))
	if second.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", second.Code)
	}

	var resp errorResponse
	if err := json.Unmarshal(second.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !strings.Contains(resp.Error, "rate limit") {
		t.Errorf("error = %q, want rate limit message", resp.Error)
	}
}
