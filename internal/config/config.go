package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ArchiveNone  = "none"
	ArchiveLocal = "local"
	ArchiveAzure = "azure"

	ProviderGemini = "gemini"
	ProviderFake   = "fake"
)

type Config struct {
	// Environment
	Environment string
	LogLevel    string

	// Server
	Host            string
	Port            string
	RequestTimeout  time.Duration
	AnalysisTimeout time.Duration
	MaxUploadSize   int64
	ReportIDPrefix  string

	// Database
	DBType         string
	DBPath         string
	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	DBSSLMode      string
	MigrationsPath string

	// Classification capability
	CapabilityProvider string
	GeminiAPIKey       string
	GeminiModel        string
	GeminiBaseURL      string

	// Document cache
	RedisAddr        string
	RedisPassword    string
	RedisDB          int
	DocumentCacheTTL time.Duration

	// Evidence archive
	ArchiveBackend        string
	ArchiveDir            string
	AzureStorageAccount   string
	AzureStorageKey       string
	AzureStorageContainer string
}

// Load reads configuration from the environment, after merging an optional
// .env file from the working directory.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return LoadFrom(viper.New())
}

// LoadFrom reads configuration from an already populated viper instance.
func LoadFrom(v *viper.Viper) (*Config, error) {
	setDefaults(v)
	v.AutomaticEnv()

	cfg := &Config{
		Environment:     v.GetString("ENV"),
		LogLevel:        v.GetString("LOG_LEVEL"),
		Host:            v.GetString("HOST"),
		Port:            v.GetString("PORT"),
		RequestTimeout:  v.GetDuration("REQUEST_TIMEOUT"),
		AnalysisTimeout: v.GetDuration("ANALYSIS_TIMEOUT"),
		MaxUploadSize:   v.GetInt64("MAX_UPLOAD_SIZE"),
		ReportIDPrefix:  strings.ToUpper(v.GetString("REPORT_ID_PREFIX")),

		DBType:         strings.ToLower(v.GetString("DB_TYPE")),
		DBPath:         v.GetString("DB_PATH"),
		DBHost:         v.GetString("DB_HOST"),
		DBPort:         v.GetInt("DB_PORT"),
		DBUser:         v.GetString("DB_USER"),
		DBPassword:     v.GetString("DB_PASSWORD"),
		DBName:         v.GetString("DB_NAME"),
		DBSSLMode:      v.GetString("DB_SSLMODE"),
		MigrationsPath: v.GetString("MIGRATIONS_PATH"),

		CapabilityProvider: strings.ToLower(v.GetString("CAPABILITY_PROVIDER")),
		GeminiAPIKey:       v.GetString("GEMINI_API_KEY"),
		GeminiModel:        v.GetString("GEMINI_MODEL"),
		GeminiBaseURL:      v.GetString("GEMINI_BASE_URL"),

		RedisAddr:        v.GetString("REDIS_ADDR"),
		RedisPassword:    v.GetString("REDIS_PASSWORD"),
		RedisDB:          v.GetInt("REDIS_DB"),
		DocumentCacheTTL: v.GetDuration("DOCUMENT_CACHE_TTL"),

		ArchiveBackend:        strings.ToLower(v.GetString("ARCHIVE_BACKEND")),
		ArchiveDir:            v.GetString("ARCHIVE_DIR"),
		AzureStorageAccount:   v.GetString("AZURE_STORAGE_ACCOUNT"),
		AzureStorageKey:       v.GetString("AZURE_STORAGE_KEY"),
		AzureStorageContainer: v.GetString("AZURE_STORAGE_CONTAINER"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("HOST", "0.0.0.0")
	v.SetDefault("PORT", "8080")
	v.SetDefault("REQUEST_TIMEOUT", "60s")
	v.SetDefault("ANALYSIS_TIMEOUT", "120s")
	v.SetDefault("MAX_UPLOAD_SIZE", int64(52428800))
	v.SetDefault("REPORT_ID_PREFIX", "DFVD")

	v.SetDefault("DB_TYPE", "sqlite")
	v.SetDefault("DB_PATH", "./deepcheck.db")
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "deepcheck")
	v.SetDefault("DB_NAME", "deepcheck")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("MIGRATIONS_PATH", "./migrations")

	v.SetDefault("CAPABILITY_PROVIDER", ProviderGemini)
	v.SetDefault("GEMINI_MODEL", "gemini-2.5-pro")
	v.SetDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com")

	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("DOCUMENT_CACHE_TTL", "24h")

	v.SetDefault("ARCHIVE_BACKEND", ArchiveNone)
	v.SetDefault("ARCHIVE_DIR", "./evidence")
}

func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid PORT %q", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive")
	}
	if c.AnalysisTimeout <= 0 {
		return fmt.Errorf("ANALYSIS_TIMEOUT must be positive")
	}
	if c.MaxUploadSize <= 0 {
		return fmt.Errorf("MAX_UPLOAD_SIZE must be positive")
	}
	if c.ReportIDPrefix == "" {
		return fmt.Errorf("REPORT_ID_PREFIX is required")
	}

	switch c.DBType {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("DB_PATH is required for sqlite")
		}
	case "postgres":
		if c.DBHost == "" || c.DBName == "" {
			return fmt.Errorf("DB_HOST and DB_NAME are required for postgres")
		}
	default:
		return fmt.Errorf("unsupported DB_TYPE %q", c.DBType)
	}

	switch c.CapabilityProvider {
	case ProviderGemini, ProviderFake:
	default:
		return fmt.Errorf("unsupported CAPABILITY_PROVIDER %q", c.CapabilityProvider)
	}
	if c.IsProduction() && c.CapabilityProvider == ProviderFake {
		return fmt.Errorf("CAPABILITY_PROVIDER %q is not allowed in production", ProviderFake)
	}

	switch c.ArchiveBackend {
	case ArchiveNone, "":
		c.ArchiveBackend = ArchiveNone
	case ArchiveLocal:
		if c.ArchiveDir == "" {
			return fmt.Errorf("ARCHIVE_DIR is required for the local archive")
		}
	case ArchiveAzure:
		if c.AzureStorageAccount == "" || c.AzureStorageKey == "" || c.AzureStorageContainer == "" {
			return fmt.Errorf("AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY and AZURE_STORAGE_CONTAINER are required for the azure archive")
		}
	default:
		return fmt.Errorf("unsupported ARCHIVE_BACKEND %q", c.ArchiveBackend)
	}
	return nil
}

func (c *Config) Addr() string {
	return c.Host + ":" + c.Port
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
