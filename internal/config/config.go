package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `json:"server"`
	Database DatabaseConfig `json:"database"`
	LLM      LLMConfig      `json:"llm"`
	Search   SearchConfig   `json:"search"`
	Quota    QuotaConfig    `json:"quota"`
}

type ServerConfig struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type DatabaseConfig struct {
	Host                   string `json:"host"`
	Port                   int    `json:"port"`
	User                   string `json:"user"`
	Password               string `json:"password"`
	Database               string `json:"database"`
	SSLMode                string `json:"sslmode"`
	MaxOpenConns           int    `json:"max_open_conns"`
	MaxIdleConns           int    `json:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `json:"conn_max_lifetime_minutes"`
}

type LLMConfig struct {
	APIKey    string `json:"api_key,omitempty"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

type SearchConfig struct {
	BaseURL         string  `json:"base_url"`
	APIKey          string  `json:"api_key,omitempty"`
	MaxResults      int     `json:"max_results"`
	MinRelevance    float64 `json:"min_relevance"`
	CacheTTLMinutes int     `json:"cache_ttl_minutes"`
}

type QuotaConfig struct {
	FreeMonthlyTokens    int64 `json:"free_monthly_tokens"`
	PremiumMonthlyTokens int64 `json:"premium_monthly_tokens"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("json")

	// Add config paths
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	// Check for user config directory
	homeDir, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(filepath.Join(homeDir, ".campushub"))
	}

	// Set defaults
	viper.SetDefault("server.port", 3000)
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.user", "campushub")
	viper.SetDefault("database.database", "campushub")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.max_open_conns", 25)
	viper.SetDefault("database.max_idle_conns", 5)
	viper.SetDefault("database.conn_max_lifetime_minutes", 5)
	viper.SetDefault("llm.model", "gpt-4o-mini")
	viper.SetDefault("llm.max_tokens", 1024)
	viper.SetDefault("search.max_results", 3)
	viper.SetDefault("search.min_relevance", 0.6)
	viper.SetDefault("search.cache_ttl_minutes", 15)
	viper.SetDefault("quota.free_monthly_tokens", 100000)
	viper.SetDefault("quota.premium_monthly_tokens", 1000000)

	// Read config
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			cfg := createDefaultConfig()
			loadEnvOverrides(cfg)
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Load environment variables
	loadEnvOverrides(&cfg)

	return &cfg, nil
}

func createDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host: "localhost",
			Port: 3000,
		},
		Database: DatabaseConfig{
			Host:                   "localhost",
			Port:                   5432,
			User:                   "campushub",
			Password:               "",
			Database:               "campushub",
			SSLMode:                "disable",
			MaxOpenConns:           25,
			MaxIdleConns:           5,
			ConnMaxLifetimeMinutes: 5,
		},
		LLM: LLMConfig{
			Model:     "gpt-4o-mini",
			MaxTokens: 1024,
		},
		Search: SearchConfig{
			MaxResults:      3,
			MinRelevance:    0.6,
			CacheTTLMinutes: 15,
		},
		Quota: QuotaConfig{
			FreeMonthlyTokens:    100000,
			PremiumMonthlyTokens: 1000000,
		},
	}
}

func loadEnvOverrides(cfg *Config) {
	if port := os.Getenv("CAMPUSHUB_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			cfg.Server.Port = p
		}
	}
	if host := os.Getenv("CAMPUSHUB_HOST"); host != "" {
		cfg.Server.Host = host
	}

	// Database overrides
	if dbHost := os.Getenv("POSTGRES_HOST"); dbHost != "" {
		cfg.Database.Host = dbHost
	}
	if dbPort := os.Getenv("POSTGRES_PORT"); dbPort != "" {
		if port, err := strconv.Atoi(dbPort); err == nil {
			cfg.Database.Port = port
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

	// Provider credentials come from the environment, not the config file
	if apiKey := os.Getenv("OPENAI_API_KEY"); apiKey != "" {
		cfg.LLM.APIKey = apiKey
	}
	if searchURL := os.Getenv("SEARCH_API_URL"); searchURL != "" {
		cfg.Search.BaseURL = searchURL
	}
	if searchKey := os.Getenv("SEARCH_API_KEY"); searchKey != "" {
		cfg.Search.APIKey = searchKey
	}
}
