package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	StoreDriver       string // mongo, postgres or memory
	PostgresUrl       string
	MongoURI          string
	MongoDatabase     string
	MongoTransactions bool

	AssetDriver string // disk or firebase
	AssetDir    string

	FirebaseCredentialsPath string
	FirebaseBucket          string

	AuthProvider string // jwt or firebase
	JWTSecret    string
	TokenTTL     time.Duration

	PostsPerPage int64
}

func Load() *Config {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, assuming environment variables are set.")
	}

	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
		StoreDriver:             getEnv("STORE_DRIVER", "mongo"),
		PostgresUrl:             getEnv("POSTGRES_URL", ""),
		MongoURI:                getEnv("MONGO_URI", ""),
		MongoDatabase:           getEnv("MONGO_DATABASE", "messages"),
		MongoTransactions:       getEnvBool("MONGO_TRANSACTIONS", true),
		AssetDriver:             getEnv("ASSET_DRIVER", "disk"),
		AssetDir:                getEnv("ASSET_DIR", "images"),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		FirebaseBucket:          getEnv("FIREBASE_BUCKET", ""),
		AuthProvider:            getEnv("AUTH_PROVIDER", "jwt"),
		JWTSecret:               getEnv("JWT_SECRET", "supersecretjwtkey"),
		TokenTTL:                getEnvDuration("TOKEN_TTL", time.Hour),
		PostsPerPage:            getEnvInt("POSTS_PER_PAGE", 2),
	}
}

// FirebaseEnabled reports whether any component needs the firebase app.
func (c *Config) FirebaseEnabled() bool {
	return c.FirebaseCredentialsPath != "" || c.AssetDriver == "firebase" || c.AuthProvider == "firebase"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int64) int64 {
	n, err := strconv.ParseInt(os.Getenv(key), 10, 64)
	if err != nil || n < 1 {
		return defaultValue
	}
	return n
}

func getEnvBool(key string, defaultValue bool) bool {
	b, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return b
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
