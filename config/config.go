package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	JWTSecret  string
	Port       string
	Env        string

	// DefaultCommissionRate is the platform-wide commission percentage
	// applied when a teacher has no rate of their own.
	DefaultCommissionRate float64
	Currency              string

	RazorpayKey    string
	RazorpaySecret string
}

// Load reads configuration from the environment. A missing .env file is
// not an error; explicit environment variables always win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DBHost:                getEnv("DB_HOST", "localhost"),
		DBPort:                getEnv("DB_PORT", "5432"),
		DBUser:                getEnv("DB_USER", "postgres"),
		DBPassword:            os.Getenv("DB_PASSWORD"),
		DBName:                getEnv("DB_NAME", "edutech"),
		JWTSecret:             os.Getenv("JWT_SECRET"),
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("ENV", "development"),
		DefaultCommissionRate: 20,
		Currency:              getEnv("CURRENCY", "USD"),
		RazorpayKey:           os.Getenv("RAZORPAY_KEY"),
		RazorpaySecret:        os.Getenv("RAZORPAY_SECRET"),
	}

	if v := os.Getenv("PLATFORM_COMMISSION_RATE"); v != "" {
		rate, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		cfg.DefaultCommissionRate = rate
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
