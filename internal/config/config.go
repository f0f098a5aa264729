package config

import (
	"os"
	"strconv"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	Engine   EngineConfig   `json:"engine"`
	Auth     AuthConfig     `json:"auth"`
	LogLevel string         `json:"log_level"`
}

type ServerConfig struct {
	Host        string `json:"host"`
	Port        int    `json:"port"`
	CORSOrigins string `json:"cors_origins"`
	RateLimit   int    `json:"rate_limit"` // requests per minute, 0 disables
}

type DatabaseConfig struct {
	Driver   string `json:"driver"` // "postgres" or "memory"
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
}

type EngineConfig struct {
	APIKey        string  `json:"api_key"`
	BaseURL       string  `json:"base_url,omitempty"`
	Model         string  `json:"model"`
	SystemPrompt  string  `json:"system_prompt,omitempty"`
	Temperature   float32 `json:"temperature"`
	MaxTokens     int     `json:"max_tokens"`
	MaxConcurrent int     `json:"max_concurrent"` // engine invocations in flight
}

type AuthConfig struct {
	Enabled      bool     `json:"enabled"`
	JWTSecret    string   `json:"jwt_secret"`
	Issuer       string   `json:"issuer"`
	APIKeyHashes []string `json:"api_key_hashes"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Set defaults
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8000)
	viper.SetDefault("server.cors_origins", "*")
	viper.SetDefault("server.rate_limit", 0)
	viper.SetDefault("database.driver", "postgres")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "scholaris")
	viper.SetDefault("database.database", "scholaris")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("engine.model", "gpt-4o-mini")
	viper.SetDefault("engine.temperature", 0.1)
	viper.SetDefault("engine.max_tokens", 2000)
	viper.SetDefault("engine.max_concurrent", 1)
	viper.SetDefault("auth.enabled", false)
	viper.SetDefault("auth.issuer", "scholaris-backend")
	viper.SetDefault("log_level", "info")

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		// No config file; defaults plus env overrides apply.
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
	}); err != nil {
		return nil, err
	}

	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func loadEnvOverrides(cfg *Config) {
	if host := os.Getenv("SCHOLARIS_HOST"); host != "" {
		cfg.Server.Host = host
	}
	if port := os.Getenv("SCHOLARIS_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}

	if driver := os.Getenv("SCHOLARIS_DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if p, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = p
		}
	}
	if dbUser := os.Getenv("POSTGRES_USER"); dbUser != "" {
		cfg.Database.User = dbUser
	}
	if dbPass := os.Getenv("POSTGRES_PASSWORD"); dbPass != "" {
		cfg.Database.Password = dbPass
	}
	if dbName := os.Getenv("POSTGRES_DB"); dbName != "" {
		cfg.Database.Database = dbName
	}

	if apiKey := os.Getenv("SCHOLARIS_ENGINE_API_KEY"); apiKey != "" {
		cfg.Engine.APIKey = apiKey
	}
	if baseURL := os.Getenv("SCHOLARIS_ENGINE_BASE_URL"); baseURL != "" {
		cfg.Engine.BaseURL = baseURL
	}
	if model := os.Getenv("SCHOLARIS_ENGINE_MODEL"); model != "" {
		cfg.Engine.Model = model
	}

	if secret := os.Getenv("SCHOLARIS_JWT_SECRET"); secret != "" {
		cfg.Auth.JWTSecret = secret
	}
}
