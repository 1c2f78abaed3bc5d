package config

import (
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	Debug       bool
	LogFile     string // Rotated log file; empty disables file logging

	DataSource   string // mongo or postgres
	PostgresDSN  string
	CacheBackend string // memory or mongo

	Report ReportConfig
	Export ExportConfig
}

type ReportConfig struct {
	CacheTTL      time.Duration
	MaxPerPage    int
	MaxExportRows int64
	ExportChunk   int
	QueryTimeout  time.Duration
	FormatLenient bool
}

type ExportConfig struct {
	Path            string // Physical directory for generated report files
	TTL             time.Duration
	Workers         int
	CleanupSchedule string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-itam"),
		SkipAuth:    getBool("SKIP_AUTH", false),
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-itam"),
		Debug:       getBool("DEBUG", false),
		LogFile:     getEnv("LOG_FILE", ""),

		DataSource:   getEnv("DATA_SOURCE", "mongo"),
		PostgresDSN:  getEnv("POSTGRES_DSN", "postgres://localhost:5432/itam?sslmode=disable"),
		CacheBackend: getEnv("CACHE_BACKEND", "memory"),

		Report: ReportConfig{
			CacheTTL:      getDuration("REPORT_CACHE_TTL", time.Hour),
			MaxPerPage:    getInt("REPORT_MAX_PER_PAGE", 100),
			MaxExportRows: int64(getInt("REPORT_MAX_EXPORT_ROWS", 50000)),
			ExportChunk:   getInt("REPORT_EXPORT_CHUNK", 1000),
			QueryTimeout:  getDuration("REPORT_QUERY_TIMEOUT", 30*time.Second),
			FormatLenient: getBool("REPORT_FORMAT_LENIENT", false),
		},
		Export: ExportConfig{
			Path:            getEnv("EXPORT_PATH", "./exports"),
			TTL:             getDuration("EXPORT_TTL", 24*time.Hour),
			Workers:         getInt("EXPORT_WORKERS", 2),
			CleanupSchedule: getEnv("EXPORT_CLEANUP_SCHEDULE", "@hourly"),
		},
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getBool(key string, fallback bool) bool {
	v, err := cast.ToBoolE(getEnv(key, ""))
	if err != nil {
		return fallback
	}
	return v
}

func getInt(key string, fallback int) int {
	v, err := cast.ToIntE(getEnv(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s", "2h") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := getEnv(key, "")
	if raw == "" {
		return fallback
	}
	if n, err := cast.ToIntE(raw); err == nil {
		if n <= 0 {
			return fallback
		}
		return time.Duration(n) * time.Second
	}
	d, err := cast.ToDurationE(raw)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
