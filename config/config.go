package config

import (
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config stores the application configuration.
type Config struct {
	ListenAddr string

	// Local cache store (embedded sqlite database).
	CachePath string

	// Download storage.
	DownloadDir string
	// Legacy flat preference file mirroring download state. Read by the
	// startup healer, written on every download-state change.
	DownloadBackupFile string

	// Settings store (Redis).
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// Remote sync backend (per-user document store on MinIO).
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioRegion    string
	MinioUseSSL    bool

	// Remote catalog API.
	CatalogBaseURL string

	// Session tokens.
	JWTSecret string

	// Logging.
	LogLevel   string
	LogPath    string
	LogMaxSize int
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvInt gets an environment variable as int or returns a default value.
func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

// getEnvBool gets an environment variable as bool or returns a default value.
func getEnvBool(key string, fallback bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return fallback
}

// Load loads configuration from environment variables (via .env file) or defaults.
func Load() *Config {
	// godotenv.Load() will not override existing env vars.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env, relying on existing environment variables and defaults.")
	}

	dataDir := getEnv("NOVA_DATA_DIR", "data")

	return &Config{
		ListenAddr:         getEnv("NOVA_LISTEN_ADDR", ":8080"),
		CachePath:          getEnv("NOVA_CACHE_PATH", filepath.Join(dataDir, "nova.db")),
		DownloadDir:        getEnv("NOVA_DOWNLOAD_DIR", filepath.Join(dataDir, "downloads")),
		DownloadBackupFile: getEnv("NOVA_DOWNLOAD_BACKUP", filepath.Join(dataDir, "downloads.json")),
		RedisHost:          getEnv("REDIS_HOST", "127.0.0.1"),
		RedisPort:          getEnv("REDIS_PORT", "6379"),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisDB:            getEnvInt("REDIS_DB", 0),
		MinioEndpoint:      getEnv("MINIO_ENDPOINT", "127.0.0.1:9000"),
		MinioAccessKey:     getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey:     getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:        getEnv("MINIO_BUCKET", "novafm-sync"),
		MinioRegion:        getEnv("MINIO_REGION", "us-east-1"),
		MinioUseSSL:        getEnvBool("MINIO_USE_SSL", false),
		CatalogBaseURL:     getEnv("NOVA_CATALOG_URL", "http://127.0.0.1:8000"),
		JWTSecret:          os.Getenv("NOVA_JWT_SECRET"), // no hardcoded default for secrets
		LogLevel:           getEnv("NOVA_LOG_LEVEL", "info"),
		LogPath:            getEnv("NOVA_LOG_PATH", filepath.Join("logs", "novafm.log")),
		LogMaxSize:         getEnvInt("NOVA_LOG_MAX_SIZE", 100),
	}
}
