package config

import (
	"strings"
	"testing"
	"time"
)

func TestGetDefaults(t *testing.T) {
	cfg := GetDefaults()

	if err := validateConfig(cfg); err != nil {
		t.Fatalf("default configuration failed validation: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Detection.DefaultLanguage != "en" {
		t.Errorf("Detection.DefaultLanguage = %q, want en", cfg.Detection.DefaultLanguage)
	}
	if cfg.Detection.MinConfidence != 0.65 {
		t.Errorf("Detection.MinConfidence = %f, want 0.65", cfg.Detection.MinConfidence)
	}
	if cfg.Detection.Timeout != 10*time.Millisecond {
		t.Errorf("Detection.Timeout = %s, want 10ms", cfg.Detection.Timeout)
	}
	if cfg.Detection.Classifier.Type != ClassifierNgram {
		t.Errorf("Detection.Classifier.Type = %q, want %q", cfg.Detection.Classifier.Type, ClassifierNgram)
	}
	if !cfg.WebSocket.Events.BroadcastDetections {
		t.Error("BroadcastDetections should default to true")
	}
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "Valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "PortZero",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "invalid server port",
		},
		{
			name:    "PortTooHigh",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "invalid server port",
		},
		{
			name:    "MinConfidenceZero",
			mutate:  func(c *Config) { c.Detection.MinConfidence = 0 },
			wantErr: "invalid min_confidence",
		},
		{
			name:    "MinConfidenceAboveOne",
			mutate:  func(c *Config) { c.Detection.MinConfidence = 1.5 },
			wantErr: "invalid min_confidence",
		},
		{
			name:    "NegativeMinTextLength",
			mutate:  func(c *Config) { c.Detection.MinTextLength = -1 },
			wantErr: "invalid min_text_length",
		},
		{
			name:    "ZeroCacheCapacity",
			mutate:  func(c *Config) { c.Detection.CacheCapacity = 0 },
			wantErr: "invalid cache_capacity",
		},
		{
			name:    "ZeroTimeout",
			mutate:  func(c *Config) { c.Detection.Timeout = 0 },
			wantErr: "invalid detection timeout",
		},
		{
			name:    "EmptyDefaultLanguage",
			mutate:  func(c *Config) { c.Detection.DefaultLanguage = "" },
			wantErr: "default_language",
		},
		{
			name:    "UnknownClassifierType",
			mutate:  func(c *Config) { c.Detection.Classifier.Type = "markov" },
			wantErr: "invalid classifier type",
		},
		{
			name: "PatternMissingLanguage",
			mutate: func(c *Config) {
				c.Detection.Patterns = []PatternConfig{{Name: "custom", Pattern: `\d+`}}
			},
			wantErr: "need a name and a language",
		},
		{
			name: "PatternBadRegexp",
			mutate: func(c *Config) {
				c.Detection.Patterns = []PatternConfig{{Name: "custom", Language: "en", Pattern: "("}}
			},
			wantErr: "invalid pattern",
		},
		{
			name: "PatternUnknownChecksum",
			mutate: func(c *Config) {
				c.Detection.Patterns = []PatternConfig{{Name: "custom", Language: "en", Pattern: `\d+`, Checksum: "luhn"}}
			},
			wantErr: "unknown checksum validator",
		},
		{
			name: "KeywordMissingKeyword",
			mutate: func(c *Config) {
				c.Detection.Keywords = []KeywordConfig{{Language: "pl"}}
			},
			wantErr: "need a keyword and a language",
		},
		{
			name:    "BadLogLevel",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "invalid log level",
		},
		{
			name:    "BadLogFormat",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := GetDefaults()
			tt.mutate(cfg)
			err := validateConfig(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateConfig() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("validateConfig() = nil, want error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("validateConfig() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateConfigAcceptsCustomRules(t *testing.T) {
	cfg := GetDefaults()
	cfg.Detection.Patterns = []PatternConfig{
		{Name: "steuer_id", Category: "national_id", Language: "de", Pattern: `\b\d{11}\b`, Priority: 35},
		{Name: "pesel_strict", Category: "national_id", Language: "pl", Pattern: `\b\d{11}\b`, Priority: 5, Checksum: "pesel"},
	}
	cfg.Detection.Keywords = []KeywordConfig{
		{Keyword: "rechnung", Language: "de", Priority: 60},
	}
	if err := validateConfig(cfg); err != nil {
		t.Fatalf("validateConfig() = %v, want nil", err)
	}
}
