package config

import "time"

// Config represents the main configuration structure
type Config struct {
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Detection DetectionConfig `yaml:"detection" mapstructure:"detection"`
	Shared    SharedConfig    `yaml:"shared_cache" mapstructure:"shared_cache"`
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Logging   LoggingConfig   `yaml:"logging" mapstructure:"logging"`
	WebSocket WebSocketConfig `yaml:"websocket" mapstructure:"websocket"`
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port" mapstructure:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout" mapstructure:"idle_timeout"`
	// MaxTextBytes bounds the request payload accepted at the boundary.
	MaxTextBytes int64           `yaml:"max_text_bytes" mapstructure:"max_text_bytes"`
	RateLimit    RateLimitConfig `yaml:"rate_limit" mapstructure:"rate_limit"`
}

// RateLimitConfig contains per-client rate limiting configuration
type RateLimitConfig struct {
	Enabled        bool    `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	Burst          int     `yaml:"burst" mapstructure:"burst"`
}

// DetectionConfig contains the detection engine configuration
type DetectionConfig struct {
	// DefaultLanguage is the fallback language code when neither signal
	// source yields sufficient certainty.
	DefaultLanguage string `yaml:"default_language" mapstructure:"default_language"`
	// MinConfidence is the minimum top-candidate probability for a
	// statistical result, in (0,1].
	MinConfidence float64 `yaml:"min_confidence" mapstructure:"min_confidence"`
	// MinTextLength is the character count below which the statistical
	// stage is skipped entirely.
	MinTextLength int `yaml:"min_text_length" mapstructure:"min_text_length"`
	// CacheCapacity bounds the in-process result cache.
	CacheCapacity int `yaml:"cache_capacity" mapstructure:"cache_capacity"`
	// Timeout is the wall-clock budget for the statistical stage.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`
	// Languages restricts the classifier to these ISO 639-1 codes.
	// Empty means every supported language.
	Languages []string `yaml:"languages" mapstructure:"languages"`

	Classifier ClassifierConfig `yaml:"classifier" mapstructure:"classifier"`

	// Patterns and Keywords extend the built-in entity rules. Set
	// DisableBuiltinRules to replace them instead.
	Patterns            []PatternConfig `yaml:"patterns" mapstructure:"patterns"`
	Keywords            []KeywordConfig `yaml:"keywords" mapstructure:"keywords"`
	DisableBuiltinRules bool            `yaml:"disable_builtin_rules" mapstructure:"disable_builtin_rules"`
}

// Statistical classifier backends
const (
	ClassifierNgram = "ngram"
	ClassifierOnnx  = "onnx"
)

// ClassifierConfig selects and configures the statistical backend
type ClassifierConfig struct {
	Type      string `yaml:"type" mapstructure:"type"` // ngram or onnx
	ModelPath string `yaml:"model_path" mapstructure:"model_path"`
	MaxLength int    `yaml:"max_length" mapstructure:"max_length"`
}

// PatternConfig declares a structured identifier rule
type PatternConfig struct {
	Name     string `yaml:"name" mapstructure:"name"`
	Category string `yaml:"category" mapstructure:"category"`
	Language string `yaml:"language" mapstructure:"language"`
	Pattern  string `yaml:"pattern" mapstructure:"pattern"`
	Priority int    `yaml:"priority" mapstructure:"priority"`
	// Checksum names a built-in validator: pesel, nip, regon or empty.
	Checksum string `yaml:"checksum" mapstructure:"checksum"`
}

// KeywordConfig declares a lexical cue
type KeywordConfig struct {
	Keyword  string `yaml:"keyword" mapstructure:"keyword"`
	Language string `yaml:"language" mapstructure:"language"`
	Priority int    `yaml:"priority" mapstructure:"priority"`
}

// SharedConfig contains the optional Redis result cache configuration
type SharedConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}

// StoreConfig contains evaluation store configuration
type StoreConfig struct {
	DatabaseURL     string        `yaml:"database_url" mapstructure:"database_url"`
	MaxOpenConns    int           `yaml:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json or console
	File   struct {
		Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
		Path     string `yaml:"path" mapstructure:"path"`
		MaxSize  int    `yaml:"max_size" mapstructure:"max_size"`
		MaxAge   int    `yaml:"max_age" mapstructure:"max_age"`
		Compress bool   `yaml:"compress" mapstructure:"compress"`
	} `yaml:"file" mapstructure:"file"`
}

// WebSocketConfig contains the live event feed configuration
type WebSocketConfig struct {
	Enabled         bool          `yaml:"enabled" mapstructure:"enabled"`
	Path            string        `yaml:"path" mapstructure:"path"`
	ReadBufferSize  int           `yaml:"read_buffer_size" mapstructure:"read_buffer_size"`
	WriteBufferSize int           `yaml:"write_buffer_size" mapstructure:"write_buffer_size"`
	PingInterval    time.Duration `yaml:"ping_interval" mapstructure:"ping_interval"`
	PongTimeout     time.Duration `yaml:"pong_timeout" mapstructure:"pong_timeout"`
	Username        string        `yaml:"username" mapstructure:"username"`
	Password        string        `yaml:"password" mapstructure:"password"`
	Events          struct {
		BroadcastDetections  bool `yaml:"broadcast_detections" mapstructure:"broadcast_detections"`
		BroadcastRequests    bool `yaml:"broadcast_requests" mapstructure:"broadcast_requests"`
		BroadcastSystem      bool `yaml:"broadcast_system" mapstructure:"broadcast_system"`
		BroadcastConnections bool `yaml:"broadcast_connections" mapstructure:"broadcast_connections"`
	} `yaml:"events" mapstructure:"events"`
}

// GetDefaults returns a configuration with sensible defaults
func GetDefaults() *Config {
	cfg := &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
			MaxTextBytes: 16 * 1024,
			RateLimit: RateLimitConfig{
				Enabled:        false,
				RequestsPerSec: 100,
				Burst:          200,
			},
		},
		Detection: DetectionConfig{
			DefaultLanguage: "en",
			MinConfidence:   0.65,
			MinTextLength:   10,
			CacheCapacity:   4096,
			Timeout:         10 * time.Millisecond,
			Languages:       nil,
			Classifier: ClassifierConfig{
				Type:      "ngram",
				MaxLength: 512,
			},
		},
		Shared: SharedConfig{
			Enabled:        false,
			RedisURL:       "redis://localhost:6379/0",
			MaxConnections: 10,
			MinIdleConns:   2,
			DefaultTTL:     time.Hour,
			KeyPrefix:      "langsentinel",
		},
		Store: StoreConfig{
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			PingInterval:    54 * time.Second,
			PongTimeout:     60 * time.Second,
		},
	}
	cfg.WebSocket.Events.BroadcastDetections = true
	cfg.WebSocket.Events.BroadcastSystem = true
	cfg.WebSocket.Events.BroadcastConnections = true
	return cfg
}
