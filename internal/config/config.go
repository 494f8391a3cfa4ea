// Package config provides configuration management for the collector.
// It handles loading, validation, and access to configuration values from
// environment variables and an optional YAML config file via Viper.
// Environment variables take precedence over file values.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Retry bounds.
const (
	MinRetries = 0
	MaxRetries = 10
)

// Job concurrency bounds.
const (
	MinJobConcurrency = 1
	MaxJobConcurrency = 20
)

// Config represents the application configuration.
type Config struct {
	Parser   ParserConfig
	Proxy    ProxyConfig
	Usersbox UsersboxConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
}

// ParserConfig holds fetch/parse tuning for all sources.
type ParserConfig struct {
	// Per-stage concurrency limits
	CatalogConcurrency  int
	SupplierConcurrency int
	ShipmentConcurrency int
	SearchConcurrency   int
	CardConcurrency     int

	// Transport settings shared by every source
	Timeout      time.Duration
	Retries      int
	Backoff      time.Duration
	ConnLimit    int
	PerHostLimit int

	// Per-seller legal-registry resolution timeout, distinct from Timeout
	CompanyTimeout time.Duration

	// Result cache TTL for identical collection queries
	CacheTTL time.Duration

	// Category taxonomy file
	CategoriesFile string

	// HTML parser strategy: "goquery" or "nethtml"
	HTMLParser string

	// Concurrent subcategories per background job
	JobConcurrency int
}

// ProxyConfig holds proxy pool settings.
type ProxyConfig struct {
	Enabled   bool
	FixedURL  string
	APIKey    string
	CacheFile string
	CacheTTL  time.Duration
	BanTTL    time.Duration
}

// UsersboxConfig holds contact-lookup API settings.
type UsersboxConfig struct {
	APIKey string
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// RedisConfig holds the job-state store settings.
type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level       string
	Encoding    string
	Development bool
}

// Load initializes Viper and loads the full configuration.
func Load() (*Config, error) {
	// .env is optional; absence is not an error.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	cfg := &Config{
		Parser:   loadParser(v),
		Proxy:    loadProxy(v),
		Usersbox: loadUsersbox(v),
		Database: loadDatabase(v),
		Redis:    loadRedis(v),
		Log:      loadLog(v),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Parser.Retries < MinRetries || c.Parser.Retries > MaxRetries {
		return fmt.Errorf("parser retries must be between %d and %d, got %d",
			MinRetries, MaxRetries, c.Parser.Retries)
	}
	if c.Parser.JobConcurrency < MinJobConcurrency || c.Parser.JobConcurrency > MaxJobConcurrency {
		return fmt.Errorf("job concurrency must be between %d and %d, got %d",
			MinJobConcurrency, MaxJobConcurrency, c.Parser.JobConcurrency)
	}
	for name, n := range map[string]int{
		"catalog":  c.Parser.CatalogConcurrency,
		"supplier": c.Parser.SupplierConcurrency,
		"shipment": c.Parser.ShipmentConcurrency,
		"search":   c.Parser.SearchConcurrency,
		"card":     c.Parser.CardConcurrency,
	} {
		if n < 1 {
			return fmt.Errorf("%s concurrency must be at least 1, got %d", name, n)
		}
	}
	if p := c.Parser.HTMLParser; p != "goquery" && p != "nethtml" {
		return fmt.Errorf("html parser must be %q or %q, got %q", "goquery", "nethtml", p)
	}
	return nil
}

func loadParser(v *viper.Viper) ParserConfig {
	return ParserConfig{
		CatalogConcurrency:  getInt("CATALOG_CONCURRENCY", "parser.catalog_concurrency", 10, v),
		SupplierConcurrency: getInt("SUPPLIER_CONCURRENCY", "parser.supplier_concurrency", 50, v),
		ShipmentConcurrency: getInt("SHIPMENT_CONCURRENCY", "parser.shipment_concurrency", 50, v),
		SearchConcurrency:   getInt("SEARCH_CONCURRENCY", "parser.search_concurrency", 25, v),
		CardConcurrency:     getInt("CARD_CONCURRENCY", "parser.card_concurrency", 50, v),
		Timeout:             getDuration("TIMEOUT", "parser.timeout", 5*time.Second, v),
		Retries:             getInt("RETRIES", "parser.retries", 5, v),
		Backoff:             getDuration("BACKOFF", "parser.backoff", 2*time.Second, v),
		ConnLimit:           getInt("CONN_LIMIT", "parser.conn_limit", 200, v),
		PerHostLimit:        getInt("PER_HOST_LIMIT", "parser.per_host_limit", 50, v),
		CompanyTimeout:      getDuration("COMPANY_TIMEOUT", "parser.company_timeout", 5*time.Second, v),
		CacheTTL:            getDuration("CACHE_TTL", "parser.cache_ttl", 10*time.Minute, v),
		CategoriesFile:      getString("CATEGORIES_FILE", "parser.categories_file", "categories.json", v),
		HTMLParser:          getString("HTML_PARSER", "parser.html_parser", "goquery", v),
		JobConcurrency:      getInt("JOB_CONCURRENCY", "parser.job_concurrency", 3, v),
	}
}

func loadProxy(v *viper.Viper) ProxyConfig {
	return ProxyConfig{
		Enabled:   getBool("USE_PROXY", "proxy.enabled", true, v),
		FixedURL:  getString("PROXY_URL", "proxy.url", "", v),
		APIKey:    getString("PROXY_KEY", "proxy.api_key", "", v),
		CacheFile: getString("PROXY_CACHE_FILE", "proxy.cache_file", "proxies.cache.json", v),
		CacheTTL:  getDuration("PROXY_CACHE_TTL", "proxy.cache_ttl", 24*time.Hour, v),
		BanTTL:    getDuration("PROXY_BAN_TTL", "proxy.ban_ttl", 60*time.Second, v),
	}
}

func loadUsersbox(v *viper.Viper) UsersboxConfig {
	return UsersboxConfig{
		APIKey: getString("USERBOX_KEY", "usersbox.api_key", "", v),
	}
}

func loadDatabase(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:     getString("DB_HOST", "database.host", "localhost", v),
		Port:     getString("DB_PORT", "database.port", "5432", v),
		User:     getString("DB_USER", "database.user", "postgres", v),
		Password: getString("DB_PASS", "database.password", "", v),
		DBName:   getString("DB_NAME", "database.dbname", "sellerscout", v),
		SSLMode:  getString("DB_SSLMODE", "database.sslmode", "disable", v),
	}
}

func loadRedis(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Address:  getString("REDIS_ADDR", "redis.address", "localhost:6379", v),
		Password: getString("REDIS_PASSWORD", "redis.password", "", v),
		DB:       getInt("REDIS_DB", "redis.db", 0, v),
	}
}

func loadLog(v *viper.Viper) LogConfig {
	return LogConfig{
		Level:       getString("LOG_LEVEL", "log.level", "info", v),
		Encoding:    getString("LOG_ENCODING", "log.encoding", "console", v),
		Development: getBool("LOG_DEVELOPMENT", "log.development", false, v),
	}
}

// getString retrieves a value from environment or Viper, with a default fallback.
func getString(envKey, viperKey, defaultValue string, v *viper.Viper) string {
	if val := os.Getenv(envKey); val != "" {
		return val
	}
	if val := v.GetString(viperKey); val != "" {
		return val
	}
	return defaultValue
}

func getInt(envKey, viperKey string, defaultValue int, v *viper.Viper) int {
	if val := os.Getenv(envKey); val != "" {
		var n int
		if _, err := fmt.Sscanf(val, "%d", &n); err == nil {
			return n
		}
	}
	if v.IsSet(viperKey) {
		return v.GetInt(viperKey)
	}
	return defaultValue
}

func getBool(envKey, viperKey string, defaultValue bool, v *viper.Viper) bool {
	if val := os.Getenv(envKey); val != "" {
		return strings.EqualFold(val, "true") || val == "1"
	}
	if v.IsSet(viperKey) {
		return v.GetBool(viperKey)
	}
	return defaultValue
}

func getDuration(envKey, viperKey string, defaultValue time.Duration, v *viper.Viper) time.Duration {
	if val := os.Getenv(envKey); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	if v.IsSet(viperKey) {
		return v.GetDuration(viperKey)
	}
	return defaultValue
}
