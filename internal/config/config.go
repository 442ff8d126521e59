package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

// Config holds all configuration
type Config struct {
	MySQL          MySQLConfig
	Redis          RedisConfig
	JWT            JWTConfig
	Search         SearchConfig
	Peering        PeeringConfig
	Migrate        bool
	HTTPAddr       string
	DefaultTenant  string
	MetricsEnabled bool
}

// MySQLConfig holds MySQL configuration
type MySQLConfig struct {
	DSN string
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret        string
	ExpireMinutes int
	Issuer        string
}

// SearchConfig holds search index configuration
type SearchConfig struct {
	IndexPath string
}

// PeeringConfig holds peer synchronization configuration
type PeeringConfig struct {
	FetchTimeoutSec        int
	WorkerEnabled          bool
	WorkerIntervalSec      int
	DefaultIntervalMinutes int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getEnv("MYSQL_DSN", ""),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASS", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:        os.Getenv("JWT_SECRET"),
			ExpireMinutes: getEnvInt("JWT_EXPIRE_MINUTES", 1440),
			Issuer:        getEnv("JWT_ISSUER", "a2a_registry"),
		},
		Search: SearchConfig{
			IndexPath: getEnv("SEARCH_INDEX_PATH", "data/agents.bleve"),
		},
		Peering: PeeringConfig{
			FetchTimeoutSec:        getEnvInt("PEER_FETCH_TIMEOUT_SEC", 30),
			WorkerEnabled:          getEnv("PEER_SYNC_WORKER_ENABLED", "0") == "1",
			WorkerIntervalSec:      getEnvInt("PEER_SYNC_WORKER_INTERVAL_SEC", 300),
			DefaultIntervalMinutes: getEnvInt("PEER_SYNC_DEFAULT_INTERVAL_MINUTES", 60),
		},
		Migrate:        getEnv("MIGRATE", "0") == "1",
		HTTPAddr:       getEnv("HTTP_ADDR", ":8080"),
		DefaultTenant:  getEnv("DEFAULT_TENANT", "default"),
		MetricsEnabled: getEnv("METRICS_ENABLED", "1") == "1",
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// LoadFromINI loads configuration from INI file with environment variable override
func LoadFromINI(iniPath string) (*Config, error) {
	cfgFile, err := ini.Load(iniPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load INI file: %w", err)
	}

	// Helper function: get value with priority: ENV > INI > default
	getValue := func(envKey, iniSection, iniKey, defaultValue string) string {
		if value := os.Getenv(envKey); value != "" {
			return value
		}
		if value := cfgFile.Section(iniSection).Key(iniKey).String(); value != "" {
			return value
		}
		return defaultValue
	}

	getValueInt := func(envKey, iniSection, iniKey string, defaultValue int) int {
		if value := os.Getenv(envKey); value != "" {
			if intValue, err := strconv.Atoi(value); err == nil {
				return intValue
			}
		}
		if cfgFile.Section(iniSection).HasKey(iniKey) {
			if value, err := cfgFile.Section(iniSection).Key(iniKey).Int(); err == nil {
				return value
			}
		}
		return defaultValue
	}

	getValueBool := func(envKey, iniSection, iniKey string, defaultValue bool) bool {
		if value := os.Getenv(envKey); value != "" {
			return value == "1" || value == "true"
		}
		if value, err := cfgFile.Section(iniSection).Key(iniKey).Bool(); err == nil {
			return value
		}
		return defaultValue
	}

	cfg := &Config{
		MySQL: MySQLConfig{
			DSN: getValue("MYSQL_DSN", "mysql", "dsn", ""),
		},
		Redis: RedisConfig{
			Addr:     getValue("REDIS_ADDR", "redis", "addr", "localhost:6379"),
			Password: getValue("REDIS_PASS", "redis", "pass", ""),
			DB:       getValueInt("REDIS_DB", "redis", "db", 0),
		},
		JWT: JWTConfig{
			Secret:        getValue("JWT_SECRET", "jwt", "secret", ""),
			ExpireMinutes: getValueInt("JWT_EXPIRE_MINUTES", "jwt", "expire_minutes", 1440),
			Issuer:        getValue("JWT_ISSUER", "jwt", "issuer", "a2a_registry"),
		},
		Search: SearchConfig{
			IndexPath: getValue("SEARCH_INDEX_PATH", "search", "index_path", "data/agents.bleve"),
		},
		Peering: PeeringConfig{
			FetchTimeoutSec:        getValueInt("PEER_FETCH_TIMEOUT_SEC", "peering", "fetch_timeout_sec", 30),
			WorkerEnabled:          getValueBool("PEER_SYNC_WORKER_ENABLED", "peering", "worker_enabled", false),
			WorkerIntervalSec:      getValueInt("PEER_SYNC_WORKER_INTERVAL_SEC", "peering", "worker_interval_sec", 300),
			DefaultIntervalMinutes: getValueInt("PEER_SYNC_DEFAULT_INTERVAL_MINUTES", "peering", "default_interval_minutes", 60),
		},
		Migrate:        getValueBool("MIGRATE", "app", "migrate", false),
		HTTPAddr:       getValue("HTTP_ADDR", "http", "addr", ":8080"),
		DefaultTenant:  getValue("DEFAULT_TENANT", "app", "default_tenant", "default"),
		MetricsEnabled: getValueBool("METRICS_ENABLED", "metrics", "enabled", true),
	}

	// Validate required fields
	if cfg.MySQL.DSN == "" {
		return nil, fmt.Errorf("MYSQL_DSN is required")
	}
	if cfg.JWT.Secret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}
