package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	LogLevel  string
	LogFormat string

	DB struct {
		Host     string
		Port     string
		User     string
		Password string
		Name     string
		SSLMode  string

		MaxOpenConns   int
		MaxIdleConns   int
		ConnectRetries int
	}

	Server struct {
		Port        string
		GinMode     string
		Environment string
	}

	Storage struct {
		// Type selects the repository backend: postgres or memory
		Type string
		// ObjectStore selects the attachment blob backend: filesystem or minio
		ObjectStore string
		UploadDir   string
		MaxFileSize int64

		MinioEndpoint  string
		MinioAccessKey string
		MinioSecretKey string
		MinioBucket    string
		MinioUseSSL    bool
	}

	Cache struct {
		RedisURL string
		TTL      time.Duration
	}

	Bus struct {
		URL            string
		ConnectRetries int
		ConnectTimeout time.Duration
		RequestTimeout time.Duration
	}

	Auth struct {
		JWTSecret string
		JWTTTL    time.Duration
	}

	CORS struct {
		AllowOrigins string
		AllowMethods string
		AllowHeaders string
	}
}

// Load loads configuration from environment variables
func Load() *Config {
	_ = godotenv.Load()

	config := &Config{}

	config.LogLevel = getEnv("LOG_LEVEL", "info")
	config.LogFormat = getEnv("LOG_FORMAT", "text")

	config.DB.Host = getEnv("DB_HOST", "localhost")
	config.DB.Port = getEnv("DB_PORT", "5432")
	config.DB.User = getEnv("DB_USER", "residencia")
	config.DB.Password = getEnv("DB_PASSWORD", "residencia_password")
	config.DB.Name = getEnv("DB_NAME", "residencia_db")
	config.DB.SSLMode = getEnv("DB_SSLMODE", "disable")
	config.DB.MaxOpenConns = int(getEnvAsInt64("DB_MAX_OPEN_CONNS", 50))
	config.DB.MaxIdleConns = int(getEnvAsInt64("DB_MAX_IDLE_CONNS", 10))
	config.DB.ConnectRetries = int(getEnvAsInt64("DB_CONNECT_RETRIES", 3))

	config.Server.Port = getEnv("PORT", "3001")
	config.Server.GinMode = getEnv("GIN_MODE", "debug")
	config.Server.Environment = getEnv("ENVIRONMENT", "development")

	config.Storage.Type = getEnv("STORAGE_TYPE", "postgres")
	config.Storage.ObjectStore = getEnv("OBJECT_STORE", "filesystem")
	config.Storage.UploadDir = getEnv("UPLOAD_DIR", "./uploads")
	config.Storage.MaxFileSize = getEnvAsInt64("MAX_FILE_SIZE", 10485760)
	config.Storage.MinioEndpoint = getEnv("MINIO_ENDPOINT", "localhost:9000")
	config.Storage.MinioAccessKey = getEnv("MINIO_ACCESS_KEY", "")
	config.Storage.MinioSecretKey = getEnv("MINIO_SECRET_KEY", "")
	config.Storage.MinioBucket = getEnv("MINIO_BUCKET", "complaint-attachments")
	config.Storage.MinioUseSSL = getEnvAsBool("MINIO_USE_SSL", false)

	// An empty URL disables caching and the bus entirely.
	config.Cache.RedisURL = os.Getenv("REDIS_URL")
	config.Cache.TTL = getEnvAsDuration("CACHE_TTL", 15*time.Minute)

	config.Bus.URL = os.Getenv("BUS_URL")
	config.Bus.ConnectRetries = int(getEnvAsInt64("BUS_CONNECT_RETRIES", 3))
	config.Bus.ConnectTimeout = getEnvAsDuration("BUS_CONNECT_TIMEOUT", 2*time.Second)
	config.Bus.RequestTimeout = getEnvAsDuration("BUS_REQUEST_TIMEOUT", 5*time.Second)

	config.Auth.JWTSecret = getEnv("JWT_SECRET", "change-me-in-production")
	config.Auth.JWTTTL = getEnvAsDuration("JWT_EXPIRES_IN", 24*time.Hour)

	config.CORS.AllowOrigins = getEnv("CORS_ALLOW_ORIGINS", "http://localhost:3000")
	config.CORS.AllowMethods = getEnv("CORS_ALLOW_METHODS", "GET,POST,PUT,PATCH,DELETE,HEAD,OPTIONS")
	config.CORS.AllowHeaders = getEnv("CORS_ALLOW_HEADERS", "Origin,Content-Length,Content-Type,Authorization")

	return config
}

// GetDatabaseURL returns the database connection URL
func (c *Config) GetDatabaseURL() string {
	return "postgres://" + c.DB.User + ":" + c.DB.Password + "@" + c.DB.Host + ":" + c.DB.Port + "/" + c.DB.Name + "?sslmode=" + c.DB.SSLMode
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// SplitList splits a comma separated configuration value, dropping blanks
func SplitList(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt64 gets an environment variable as int64 or returns a default value
func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBool gets an environment variable as bool or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration accepts Go duration strings ("15m") or plain seconds ("900")
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseInt(value, 10, 64); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
