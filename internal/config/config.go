package config

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Set defaults
	config := GetDefaults()

	// Configure viper
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("/etc/lang-sentinel/")
	viper.AddConfigPath("$HOME/.lang-sentinel/")

	// Environment variable overrides
	viper.SetEnvPrefix("SENTINEL")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Use specific config file if provided
	if configPath != "" {
		viper.SetConfigFile(configPath)
	}

	// Read configuration
	if err := viper.ReadInConfig(); err != nil {
		// Config file not found is not an error - we'll use defaults
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal into config struct
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// validateConfig validates the loaded configuration
func validateConfig(config *Config) error {
	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", config.Server.Port)
	}

	d := config.Detection
	if d.MinConfidence <= 0 || d.MinConfidence > 1 {
		return fmt.Errorf("invalid min_confidence: %f (must be in (0,1])", d.MinConfidence)
	}
	if d.MinTextLength < 0 {
		return fmt.Errorf("invalid min_text_length: %d", d.MinTextLength)
	}
	if d.CacheCapacity <= 0 {
		return fmt.Errorf("invalid cache_capacity: %d (must be positive)", d.CacheCapacity)
	}
	if d.Timeout <= 0 {
		return fmt.Errorf("invalid detection timeout: %s", d.Timeout)
	}
	if d.DefaultLanguage == "" {
		return fmt.Errorf("default_language must not be empty")
	}
	if d.Classifier.Type != ClassifierNgram && d.Classifier.Type != ClassifierOnnx {
		return fmt.Errorf("invalid classifier type: %s (must be ngram or onnx)", d.Classifier.Type)
	}
	for _, p := range d.Patterns {
		if p.Name == "" || p.Language == "" {
			return fmt.Errorf("pattern rules need a name and a language: %+v", p)
		}
		if _, err := regexp.Compile(p.Pattern); err != nil {
			return fmt.Errorf("invalid pattern %q: %w", p.Name, err)
		}
		switch p.Checksum {
		case "", "pesel", "nip", "regon":
		default:
			return fmt.Errorf("unknown checksum validator %q for pattern %q", p.Checksum, p.Name)
		}
	}
	for _, k := range d.Keywords {
		if k.Keyword == "" || k.Language == "" {
			return fmt.Errorf("keyword rules need a keyword and a language: %+v", k)
		}
	}

	if config.Logging.Level != "debug" && config.Logging.Level != "info" && config.Logging.Level != "warn" && config.Logging.Level != "error" {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.Logging.Level)
	}

	if config.Logging.Format != "json" && config.Logging.Format != "console" {
		return fmt.Errorf("invalid log format: %s (must be json or console)", config.Logging.Format)
	}

	return nil
}

// Watch starts watching the configuration file for changes
func Watch(config *Config, callback func(*Config)) error {
	viper.WatchConfig()
	viper.OnConfigChange(func(e fsnotify.Event) {
		newConfig := GetDefaults()
		if err := viper.Unmarshal(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		if err := validateConfig(newConfig); err != nil {
			// Log error but don't crash
			return
		}

		callback(newConfig)
	})

	return nil
}
