package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Store backends for the score server.
const (
	StoreMongo  = "mongo"
	StoreSQLite = "sqlite"
)

// ServerConfig holds score server settings read from the environment.
type ServerConfig struct {
	Port           string
	Prefix         string
	Store          string
	MongoURI       string
	MongoDB        string
	SQLitePath     string
	RedisURI       string
	JWTSecret      string
	AllowedOrigins string
}

// LoadDotEnv loads path into the environment without overriding variables
// that are already set. A missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadServerConfig reads server settings from the environment.
func LoadServerConfig() (ServerConfig, error) {
	cfg := ServerConfig{
		Port:           getEnv("PORT", "3000"),
		Prefix:         getEnv("API_PREFIX", "/api"),
		Store:          strings.ToLower(getEnv("STORE", StoreSQLite)),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:        getEnv("MONGO_DB", "speedtype"),
		SQLitePath:     getEnv("SQLITE_PATH", DefaultServerDBPath()),
		RedisURI:       os.Getenv("REDIS_URI"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
	}
	if cfg.Store != StoreMongo && cfg.Store != StoreSQLite {
		return ServerConfig{}, fmt.Errorf("STORE must be %q or %q, got %q", StoreMongo, StoreSQLite, cfg.Store)
	}
	return cfg, nil
}

// RedisAddr strips an optional redis:// scheme from RedisURI.
func (c ServerConfig) RedisAddr() string {
	return strings.TrimPrefix(c.RedisURI, "redis://")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
