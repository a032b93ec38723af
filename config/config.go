package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the research report system
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Fetch     FetchConfig     `mapstructure:"fetch"`
	Research  ResearchConfig  `mapstructure:"research"`
	Report    ReportConfig    `mapstructure:"report"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug          bool          `mapstructure:"debug"`
	LogLevel       string        `mapstructure:"log_level"`
	DefaultTimeout time.Duration `mapstructure:"default_timeout"`
}

// ServerConfig contains HTTP server and auth settings
type ServerConfig struct {
	Address   string `mapstructure:"address"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// LLMConfig contains the LLM provider configuration
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"` // openai-compatible endpoints
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	Temperature float64       `mapstructure:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
}

// SearchConfig contains web search backend settings
type SearchConfig struct {
	Provider    string `mapstructure:"provider"` // serper, brave
	APIKey      string `mapstructure:"api_key"`
	ResultLimit int    `mapstructure:"result_limit"`
}

// FetchConfig controls full-page scraping of thin search results
type FetchConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Timeout  time.Duration `mapstructure:"timeout"`
	MaxChars int           `mapstructure:"max_chars"`
}

// RateLimitConfig is a fixed-window request limit for one operation kind
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// PriorityWeights weight the components of query priority scoring
type PriorityWeights struct {
	Reliability float64 `mapstructure:"reliability"`
	Specificity float64 `mapstructure:"specificity"`
	Novelty     float64 `mapstructure:"novelty"`
	Clarity     float64 `mapstructure:"clarity"`
}

// QualityWeights weight the components of per-query result quality scoring
type QualityWeights struct {
	Learnings   float64 `mapstructure:"learnings"`
	Reliability float64 `mapstructure:"reliability"`
	Content     float64 `mapstructure:"content"`
	Diversity   float64 `mapstructure:"diversity"`
}

// ResearchConfig contains the breadth/depth scheduler and budget settings
type ResearchConfig struct {
	Breadth              int                        `mapstructure:"breadth"`
	Depth                int                        `mapstructure:"depth"`
	MaxBreadth           int                        `mapstructure:"max_breadth"`
	MaxDepth             int                        `mapstructure:"max_depth"`
	MaxCredits           int                        `mapstructure:"max_credits"`
	MaxSearchRequests    int                        `mapstructure:"max_search_requests"`
	MaxScrapeRequests    int                        `mapstructure:"max_scrape_requests"`
	ReliabilityThreshold float64                    `mapstructure:"reliability_threshold"`
	Priority             PriorityWeights            `mapstructure:"priority"`
	Quality              QualityWeights             `mapstructure:"quality"`
	RateLimits           map[string]RateLimitConfig `mapstructure:"rate_limits"`
}

func (r ResearchConfig) Validate() error {
	if r.Breadth <= 0 {
		return fmt.Errorf("research.breadth must be > 0")
	}
	if r.Depth < 0 {
		return fmt.Errorf("research.depth must be >= 0")
	}
	if r.MaxCredits <= 0 {
		return fmt.Errorf("research.max_credits must be > 0")
	}
	return nil
}

// ReportConfig contains blueprint planning settings
type ReportConfig struct {
	Type            string `mapstructure:"type"`
	PageCount       int    `mapstructure:"page_count"`
	MinSections     int    `mapstructure:"min_sections"`
	MinSectionChars int    `mapstructure:"min_section_chars"`
}

// StorageConfig groups persistent storage backends
type StorageConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

// PostgresConfig contains Postgres connection settings
type PostgresConfig struct {
	URL      string        `mapstructure:"url"`
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	User     string        `mapstructure:"user"`
	Password string        `mapstructure:"password"`
	DBName   string        `mapstructure:"dbname"`
	SSLMode  string        `mapstructure:"sslmode"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (p PostgresConfig) Validate() error {
	if strings.TrimSpace(p.URL) != "" {
		return nil
	}
	if strings.TrimSpace(p.Host) == "" {
		return fmt.Errorf("storage.postgres.host required when url is not provided")
	}
	if strings.TrimSpace(p.Port) == "" {
		return fmt.Errorf("storage.postgres.port required when url is not provided")
	}
	if strings.TrimSpace(p.DBName) == "" {
		return fmt.Errorf("storage.postgres.dbname required when url is not provided")
	}
	return nil
}

// DSN builds a lib/pq connection string from the configured fields.
func (p PostgresConfig) DSN() string {
	if strings.TrimSpace(p.URL) != "" {
		return p.URL
	}
	sslmode := p.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, sslmode)
}

// RedisConfig contains Redis connection settings
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// TelemetryConfig contains metrics and cost tracking settings
type TelemetryConfig struct {
	Enabled      bool `mapstructure:"enabled"`
	MetricsPort  int  `mapstructure:"metrics_port"`
	CostTracking bool `mapstructure:"cost_tracking"`
}

func (t TelemetryConfig) Validate() error {
	if t.Enabled && t.MetricsPort <= 0 {
		return fmt.Errorf("telemetry.metrics_port must be > 0 when telemetry is enabled")
	}
	return nil
}

// LoadConfig reads configuration from file and environment, applies
// defaults, and panics on anything unusable. Pass an empty path to
// search the usual locations.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")   // REQUIRED if the config file does not have the extension in the name

	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("general.default_timeout", "10m")
	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("llm.provider", "openai")
	viper.SetDefault("llm.model", "gpt-4o")
	viper.SetDefault("llm.temperature", 0.7)
	viper.SetDefault("llm.max_tokens", 4096)
	viper.SetDefault("llm.timeout", "120s")
	viper.SetDefault("llm.max_retries", 3)
	viper.SetDefault("search.provider", "serper")
	viper.SetDefault("search.result_limit", 5)
	viper.SetDefault("fetch.enabled", false)
	viper.SetDefault("fetch.timeout", "30s")
	viper.SetDefault("fetch.max_chars", 8000)
	viper.SetDefault("research.breadth", 4)
	viper.SetDefault("research.depth", 2)
	viper.SetDefault("research.max_breadth", 10)
	viper.SetDefault("research.max_depth", 5)
	viper.SetDefault("research.max_credits", 100)
	viper.SetDefault("research.max_search_requests", 50)
	viper.SetDefault("research.max_scrape_requests", 20)
	viper.SetDefault("research.reliability_threshold", 0.6)
	viper.SetDefault("research.priority.reliability", 0.3)
	viper.SetDefault("research.priority.specificity", 0.2)
	viper.SetDefault("research.priority.novelty", 0.3)
	viper.SetDefault("research.priority.clarity", 0.2)
	viper.SetDefault("research.quality.learnings", 0.3)
	viper.SetDefault("research.quality.reliability", 0.4)
	viper.SetDefault("research.quality.content", 0.2)
	viper.SetDefault("research.quality.diversity", 0.1)
	viper.SetDefault("research.rate_limits.search.limit", 10)
	viper.SetDefault("research.rate_limits.search.window", "60s")
	viper.SetDefault("research.rate_limits.scrape.limit", 5)
	viper.SetDefault("research.rate_limits.scrape.window", "60s")
	viper.SetDefault("report.type", "market_research")
	viper.SetDefault("report.page_count", 15)
	viper.SetDefault("report.min_sections", 3)
	viper.SetDefault("report.min_section_chars", 2000)
	viper.SetDefault("telemetry.enabled", false)
	viper.SetDefault("telemetry.metrics_port", 9090)
	viper.SetDefault("telemetry.cost_tracking", false)
	viper.SetDefault("storage.postgres.host", "localhost")
	viper.SetDefault("storage.postgres.port", "5432")
	viper.SetDefault("storage.postgres.user", "postgres")
	viper.SetDefault("storage.postgres.dbname", "reportd")
	viper.SetDefault("storage.postgres.sslmode", "disable")
	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.db", 0)
	viper.SetDefault("storage.redis.timeout", "5s")

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
		exe, _ := os.Executable()
		exeDir := filepath.Dir(exe)
		viper.AddConfigPath(exeDir)                                // bin/
		viper.AddConfigPath(filepath.Join(exeDir, ".."))           // repo root
		viper.AddConfigPath(filepath.Join(exeDir, "..", "config")) // repo root/config
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("REPORTD")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (REPORTD_*)

	err := viper.ReadInConfig() // Find and read the config file
	if err != nil {             // Handle errors reading the config file
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	// unmarshal config
	var config Config

	if err = viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Research.Validate(); err != nil {
		panic(err)
	}
	if err := config.Telemetry.Validate(); err != nil {
		panic(err)
	}
	return &config
}
