package cache

import "time"

// Stats represents cache performance counters
type Stats struct {
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	Size      int     `json:"size"`
	Capacity  int     `json:"capacity"`
	HitRate   float64 `json:"hit_rate"`
}

// StoredResult is the wire form of a detection result held in the shared
// Redis cache. It deliberately mirrors the engine's result type without
// importing it: the shared cache sits at the transport boundary, never
// inside the engine's decision path.
type StoredResult struct {
	Language   string    `json:"language"`
	Confidence float64   `json:"confidence"`
	Method     string    `json:"method"`
	CachedAt   time.Time `json:"cached_at"`
}

// RedisConfig contains shared-cache configuration
type RedisConfig struct {
	Enabled        bool          `yaml:"enabled" mapstructure:"enabled"`
	RedisURL       string        `yaml:"redis_url" mapstructure:"redis_url"`
	MaxConnections int           `yaml:"max_connections" mapstructure:"max_connections"`
	MinIdleConns   int           `yaml:"min_idle_conns" mapstructure:"min_idle_conns"`
	DefaultTTL     time.Duration `yaml:"default_ttl" mapstructure:"default_ttl"`
	KeyPrefix      string        `yaml:"key_prefix" mapstructure:"key_prefix"`
}
