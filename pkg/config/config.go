package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
)

// Store drivers
const (
	StoreDriverPostgres = "postgres"
	StoreDriverSQLite   = "sqlite"
)

// Config holds the configuration for a wellbeing service
type Config struct {
	// MQTT configuration
	MQTTBroker   string
	MQTTPort     int
	MQTTUser     string
	MQTTPassword string
	MQTTClientID string

	// Redis configuration
	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	// Postgres configuration
	PostgresHost               string
	PostgresPort               int
	PostgresUser               string
	PostgresPassword           string
	PostgresDB                 string
	PostgresSSLMode            string
	PostgresMaxConnections     int
	PostgresMaxIdleConnections int
	PostgresConnMaxLifetime    time.Duration

	// Storage selection
	StoreDriver string
	SQLitePath  string

	// Service configuration
	ServiceName string
	HealthPort  int
	APIPort     int
	LogLevel    string

	// Location used for astronomy enrichment (Helsinki by default)
	Latitude  float64
	Longitude float64

	// Engine configuration
	UserID                 string
	RecommendationLimit    int
	ForecastHorizonHours   int
	SimilarDays            int
	TrackerMaxRetries      int
	LockTTL                time.Duration
	RecommendationCacheTTL time.Duration
	AchievementCatalogPath string

	// Prediction model
	LLMEndpoint string
	LLMModel    string
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		MQTTBroker:    "localhost",
		MQTTPort:      1883,
		MQTTUser:      "",
		MQTTPassword:  "",
		MQTTClientID:  "",
		RedisHost:     "localhost",
		RedisPort:     6379,
		RedisPassword: "",
		RedisDB:       0,
		// Postgres defaults
		PostgresHost:               "localhost",
		PostgresPort:               5432,
		PostgresUser:               "wellbeing",
		PostgresPassword:           "",
		PostgresDB:                 "wellbeing",
		PostgresSSLMode:            "disable",
		PostgresMaxConnections:     10,
		PostgresMaxIdleConnections: 2,
		PostgresConnMaxLifetime:    30 * time.Minute,
		StoreDriver:                StoreDriverPostgres,
		SQLitePath:                 "wellbeing.db",
		ServiceName:                "wellbeing-agent",
		HealthPort:                 8080,
		APIPort:                    3010,
		LogLevel:                   "info",
		Latitude:                   60.1695,
		Longitude:                  24.9354,
		// Engine defaults
		UserID:                 "default",
		RecommendationLimit:    5,
		ForecastHorizonHours:   12,
		SimilarDays:            7,
		TrackerMaxRetries:      3,
		LockTTL:                5 * time.Second,
		RecommendationCacheTTL: 24 * time.Hour,
		AchievementCatalogPath: "",
		LLMEndpoint:            "http://localhost:11434",
		LLMModel:               "llama3.2:3b",
	}
}

// LoadFromEnv loads configuration from environment variables with WELLBEING_ prefix
func (c *Config) LoadFromEnv() {
	// MQTT configuration
	if v := os.Getenv("WELLBEING_MQTT_BROKER"); v != "" {
		c.MQTTBroker = v
	}
	if v := os.Getenv("WELLBEING_MQTT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.MQTTPort = port
		}
	}
	if v := os.Getenv("WELLBEING_MQTT_USER"); v != "" {
		c.MQTTUser = v
	}
	if v := os.Getenv("WELLBEING_MQTT_PASSWORD"); v != "" {
		c.MQTTPassword = v
	}
	if v := os.Getenv("WELLBEING_MQTT_CLIENT_ID"); v != "" {
		c.MQTTClientID = v
	}

	// Redis configuration
	if v := os.Getenv("WELLBEING_REDIS_HOST"); v != "" {
		c.RedisHost = v
	}
	if v := os.Getenv("WELLBEING_REDIS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.RedisPort = port
		}
	}
	if v := os.Getenv("WELLBEING_REDIS_PASSWORD"); v != "" {
		c.RedisPassword = v
	}
	if v := os.Getenv("WELLBEING_REDIS_DB"); v != "" {
		if db, err := strconv.Atoi(v); err == nil {
			c.RedisDB = db
		}
	}

	// Postgres configuration
	if v := os.Getenv("WELLBEING_POSTGRES_HOST"); v != "" {
		c.PostgresHost = v
	}
	if v := os.Getenv("WELLBEING_POSTGRES_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.PostgresPort = port
		}
	}
	if v := os.Getenv("WELLBEING_POSTGRES_USER"); v != "" {
		c.PostgresUser = v
	}
	if v := os.Getenv("WELLBEING_POSTGRES_PASSWORD"); v != "" {
		c.PostgresPassword = v
	}
	if v := os.Getenv("WELLBEING_POSTGRES_DB"); v != "" {
		c.PostgresDB = v
	}
	if v := os.Getenv("WELLBEING_POSTGRES_SSLMODE"); v != "" {
		c.PostgresSSLMode = v
	}
	if v := os.Getenv("WELLBEING_POSTGRES_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxConnections = n
		}
	}
	if v := os.Getenv("WELLBEING_POSTGRES_MAX_IDLE_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.PostgresMaxIdleConnections = n
		}
	}
	if v := os.Getenv("WELLBEING_POSTGRES_CONN_MAX_LIFETIME"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.PostgresConnMaxLifetime = d
		}
	}

	// Storage selection
	if v := os.Getenv("WELLBEING_STORE_DRIVER"); v != "" {
		c.StoreDriver = v
	}
	if v := os.Getenv("WELLBEING_SQLITE_PATH"); v != "" {
		c.SQLitePath = v
	}

	// Service configuration
	if v := os.Getenv("WELLBEING_SERVICE_NAME"); v != "" {
		c.ServiceName = v
	}
	if v := os.Getenv("WELLBEING_HEALTH_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.HealthPort = port
		}
	}
	if v := os.Getenv("WELLBEING_API_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.APIPort = port
		}
	}
	if v := os.Getenv("WELLBEING_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	// Location
	if v := os.Getenv("WELLBEING_LATITUDE"); v != "" {
		if lat, err := strconv.ParseFloat(v, 64); err == nil {
			c.Latitude = lat
		}
	}
	if v := os.Getenv("WELLBEING_LONGITUDE"); v != "" {
		if lon, err := strconv.ParseFloat(v, 64); err == nil {
			c.Longitude = lon
		}
	}

	// Engine configuration
	if v := os.Getenv("WELLBEING_USER_ID"); v != "" {
		c.UserID = v
	}
	if v := os.Getenv("WELLBEING_RECOMMENDATION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.RecommendationLimit = n
		}
	}
	if v := os.Getenv("WELLBEING_FORECAST_HORIZON_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.ForecastHorizonHours = n
		}
	}
	if v := os.Getenv("WELLBEING_SIMILAR_DAYS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SimilarDays = n
		}
	}
	if v := os.Getenv("WELLBEING_TRACKER_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.TrackerMaxRetries = n
		}
	}
	if v := os.Getenv("WELLBEING_LOCK_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.LockTTL = d
		}
	}
	if v := os.Getenv("WELLBEING_RECOMMENDATION_CACHE_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.RecommendationCacheTTL = d
		}
	}
	if v := os.Getenv("WELLBEING_ACHIEVEMENT_CATALOG"); v != "" {
		c.AchievementCatalogPath = v
	}

	// Prediction model
	if v := os.Getenv("WELLBEING_LLM_ENDPOINT"); v != "" {
		c.LLMEndpoint = v
	}
	if v := os.Getenv("WELLBEING_LLM_MODEL"); v != "" {
		c.LLMModel = v
	}
}

// LoadFromFlags parses command-line flags and overrides config values
func (c *Config) LoadFromFlags() {
	c.RegisterFlags(pflag.CommandLine)
	pflag.Parse()
}

// RegisterFlags binds every option to fs with the current values as defaults
func (c *Config) RegisterFlags(fs *pflag.FlagSet) {
	// MQTT flags
	fs.StringVar(&c.MQTTBroker, "mqtt-broker", c.MQTTBroker, "MQTT broker hostname")
	fs.IntVar(&c.MQTTPort, "mqtt-port", c.MQTTPort, "MQTT broker port")
	fs.StringVar(&c.MQTTUser, "mqtt-user", c.MQTTUser, "MQTT username")
	fs.StringVar(&c.MQTTPassword, "mqtt-password", c.MQTTPassword, "MQTT password")
	fs.StringVar(&c.MQTTClientID, "mqtt-client-id", c.MQTTClientID, "MQTT client ID")

	// Redis flags
	fs.StringVar(&c.RedisHost, "redis-host", c.RedisHost, "Redis hostname")
	fs.IntVar(&c.RedisPort, "redis-port", c.RedisPort, "Redis port")
	fs.StringVar(&c.RedisPassword, "redis-password", c.RedisPassword, "Redis password")
	fs.IntVar(&c.RedisDB, "redis-db", c.RedisDB, "Redis database number")

	// Postgres flags
	fs.StringVar(&c.PostgresHost, "postgres-host", c.PostgresHost, "Postgres hostname")
	fs.IntVar(&c.PostgresPort, "postgres-port", c.PostgresPort, "Postgres port")
	fs.StringVar(&c.PostgresUser, "postgres-user", c.PostgresUser, "Postgres user")
	fs.StringVar(&c.PostgresPassword, "postgres-password", c.PostgresPassword, "Postgres password")
	fs.StringVar(&c.PostgresDB, "postgres-db", c.PostgresDB, "Postgres database name")
	fs.StringVar(&c.PostgresSSLMode, "postgres-sslmode", c.PostgresSSLMode, "Postgres SSL mode")
	fs.IntVar(&c.PostgresMaxConnections, "postgres-max-connections", c.PostgresMaxConnections, "Maximum open Postgres connections")
	fs.IntVar(&c.PostgresMaxIdleConnections, "postgres-max-idle-connections", c.PostgresMaxIdleConnections, "Maximum idle Postgres connections")
	fs.DurationVar(&c.PostgresConnMaxLifetime, "postgres-conn-max-lifetime", c.PostgresConnMaxLifetime, "Maximum Postgres connection lifetime")

	// Storage flags
	fs.StringVar(&c.StoreDriver, "store-driver", c.StoreDriver, "Storage backend (postgres, sqlite)")
	fs.StringVar(&c.SQLitePath, "sqlite-path", c.SQLitePath, "SQLite database file")

	// Service flags
	fs.StringVar(&c.ServiceName, "service-name", c.ServiceName, "Service name")
	fs.IntVar(&c.HealthPort, "health-port", c.HealthPort, "Health check HTTP port")
	fs.IntVar(&c.APIPort, "api-port", c.APIPort, "HTTP API port")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "Log level (debug, info, warn, error)")

	// Location flags
	fs.Float64Var(&c.Latitude, "latitude", c.Latitude, "Geographic latitude for astronomy enrichment")
	fs.Float64Var(&c.Longitude, "longitude", c.Longitude, "Geographic longitude for astronomy enrichment")

	// Engine flags
	fs.StringVar(&c.UserID, "user-id", c.UserID, "User whose level and goals are tracked")
	fs.IntVar(&c.RecommendationLimit, "recommendation-limit", c.RecommendationLimit, "Maximum recommendations per day (0 = all)")
	fs.IntVar(&c.ForecastHorizonHours, "forecast-horizon-hours", c.ForecastHorizonHours, "Forecast hours considered for recommendations")
	fs.IntVar(&c.SimilarDays, "similar-days", c.SimilarDays, "Number of similar past days used for personalization")
	fs.IntVar(&c.TrackerMaxRetries, "tracker-max-retries", c.TrackerMaxRetries, "Retries on concurrent tracker updates")
	fs.DurationVar(&c.LockTTL, "lock-ttl", c.LockTTL, "Expiry of per-entity tracker locks")
	fs.DurationVar(&c.RecommendationCacheTTL, "recommendation-cache-ttl", c.RecommendationCacheTTL, "Lifetime of cached recommendation lists")
	fs.StringVar(&c.AchievementCatalogPath, "achievement-catalog", c.AchievementCatalogPath, "YAML achievement catalog (empty = built-in)")

	// Prediction flags
	fs.StringVar(&c.LLMEndpoint, "llm-endpoint", c.LLMEndpoint, "LLM API base URL")
	fs.StringVar(&c.LLMModel, "llm-model", c.LLMModel, "LLM model name")
}

// Validate checks that required configuration values are set
func (c *Config) Validate() error {
	if c.MQTTBroker == "" {
		return fmt.Errorf("MQTT broker is required")
	}
	if c.MQTTPort <= 0 || c.MQTTPort > 65535 {
		return fmt.Errorf("MQTT port must be between 1 and 65535")
	}
	if c.RedisHost == "" {
		return fmt.Errorf("Redis host is required")
	}
	if c.RedisPort <= 0 || c.RedisPort > 65535 {
		return fmt.Errorf("Redis port must be between 1 and 65535")
	}
	if c.HealthPort <= 0 || c.HealthPort > 65535 {
		return fmt.Errorf("Health port must be between 1 and 65535")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("API port must be between 1 and 65535")
	}
	if c.ServiceName == "" {
		return fmt.Errorf("Service name is required")
	}
	if c.UserID == "" {
		return fmt.Errorf("User ID is required")
	}

	switch c.StoreDriver {
	case StoreDriverPostgres:
		if c.PostgresHost == "" || c.PostgresDB == "" {
			return fmt.Errorf("Postgres host and database are required")
		}
	case StoreDriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("SQLite path is required")
		}
	default:
		return fmt.Errorf("invalid store driver: %s (must be postgres or sqlite)", c.StoreDriver)
	}

	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90")
	}
	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180")
	}
	if c.RecommendationLimit < 0 {
		return fmt.Errorf("recommendation limit must not be negative")
	}
	if c.ForecastHorizonHours <= 0 {
		return fmt.Errorf("forecast horizon must be positive")
	}
	if c.TrackerMaxRetries < 0 {
		return fmt.Errorf("tracker retries must not be negative")
	}

	// Validate log level
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.LogLevel)
	}

	return nil
}

// MQTTAddress returns the full MQTT broker address
func (c *Config) MQTTAddress() string {
	return fmt.Sprintf("tcp://%s:%d", c.MQTTBroker, c.MQTTPort)
}

// RedisAddress returns the full Redis address
func (c *Config) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// PostgresConnectionString returns a lib/pq connection string
func (c *Config) PostgresConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password='%s' dbname=%s sslmode=%s",
		c.PostgresHost, c.PostgresPort, c.PostgresUser, c.PostgresPassword, c.PostgresDB, c.PostgresSSLMode)
}
