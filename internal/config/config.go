package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const defaultAPIToken = "dev-token"

// Config holds the runtime settings for the server, read from the
// environment (optionally seeded from a .env file).
type Config struct {
	DBConnStr    string
	HTTPAddr     string
	APIToken     string
	KafkaBrokers []string
	LogLevel     string
}

// Load reads configuration from the environment. A missing .env file
// is not an error; explicit environment variables always win.
func Load() Config {
	godotenv.Load()

	cfg := Config{
		DBConnStr:    os.Getenv("DB_CONN_STR"),
		HTTPAddr:     getenv("HTTP_ADDR", ":8080"),
		APIToken:     getenv("API_TOKEN", defaultAPIToken),
		LogLevel:     getenv("LOG_LEVEL", "info"),
		KafkaBrokers: splitBrokers(os.Getenv("KAFKA_BROKERS")),
	}

	if cfg.DBConnStr == "" {
		// Build the connection string from individual vars (Docker friendly)
		host := getenv("DB_HOST", "localhost")
		port := getenv("DB_PORT", "5432")
		user := getenv("DB_USER", "postgres")
		password := getenv("DB_PASSWORD", "postgres")
		dbname := getenv("DB_NAME", "projectledger")

		cfg.DBConnStr = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			host, port, user, password, dbname)
	}

	return cfg
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitBrokers(raw string) []string {
	if raw == "" {
		return nil
	}
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
