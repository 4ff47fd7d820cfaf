package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration values.
type Config struct {
	Secret       string
	DatabasePath string
	HTTPPort     string
	ExpirySweep  string // cron spec for the expiry-warning sweep
	ExpiryDays   int    // window checked by the sweep
}

// Load reads configuration from environment variables with reasonable defaults.
func Load() Config {
	_ = godotenv.Load()

	secret := os.Getenv("SECRET")
	if secret == "" {
		secret = "dev_secret"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}
	if _, err := strconv.Atoi(port); err != nil {
		log.Printf("invalid HTTP_PORT value %q, defaulting to 8080", port)
		port = "8080"
	}

	path := os.Getenv("DATABASE_PATH")
	if path == "" {
		path = "pharmatrack.db"
	}

	sweep := os.Getenv("EXPIRY_SWEEP")
	if sweep == "" {
		sweep = "@hourly"
	}

	days := 30
	if raw := os.Getenv("EXPIRY_DAYS"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			log.Printf("invalid EXPIRY_DAYS value %q, defaulting to 30", raw)
		} else {
			days = parsed
		}
	}

	return Config{
		Secret:       secret,
		DatabasePath: path,
		HTTPPort:     port,
		ExpirySweep:  sweep,
		ExpiryDays:   days,
	}
}
