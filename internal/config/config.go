// Package config
package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

type Config struct {
	Address        string
	AllowedOrigins []string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret  string
	JWTExpiry  time.Duration
	BcryptCost int

	OpenLibraryURL     string
	OpenLibraryTimeout time.Duration

	RateLimitRPS   float64
	RateLimitBurst int

	LogLevel  string
	LogFormat string
}

const (
	DriverMemory   = "memory"
	DriverSqlite   = "sqlite3"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

func Load() *Config {
	godotenv.Load()

	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":3000"
	}

	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = DriverSqlite
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "catalog.db"
	}

	jwtExpiry := 24 * time.Hour
	if raw := os.Getenv("JWT_EXPIRY"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			jwtExpiry = parsed
		}
	}

	bcryptCost := bcrypt.DefaultCost
	if raw := os.Getenv("BCRYPT_COST"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= bcrypt.MinCost && parsed <= bcrypt.MaxCost {
			bcryptCost = parsed
		}
	}

	openLibraryURL := os.Getenv("OPEN_LIBRARY_URL")
	if openLibraryURL == "" {
		openLibraryURL = "https://openlibrary.org/api"
	}

	openLibraryTimeout := 5 * time.Second
	if raw := os.Getenv("OPEN_LIBRARY_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil && parsed > 0 {
			openLibraryTimeout = parsed
		}
	}

	rps := 20.0
	if raw := os.Getenv("RATE_LIMIT_RPS"); raw != "" {
		if parsed, err := strconv.ParseFloat(raw, 64); err == nil && parsed > 0 {
			rps = parsed
		}
	}

	burst := 40
	if raw := os.Getenv("RATE_LIMIT_BURST"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			burst = parsed
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "text"
	}

	return &Config{
		Address:        addr,
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),

		DBDriver:    driver,
		DBPath:      dbPath,
		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:  os.Getenv("JWT_SECRET"),
		JWTExpiry:  jwtExpiry,
		BcryptCost: bcryptCost,

		OpenLibraryURL:     strings.TrimRight(openLibraryURL, "/"),
		OpenLibraryTimeout: openLibraryTimeout,

		RateLimitRPS:   rps,
		RateLimitBurst: burst,

		LogLevel:  logLevel,
		LogFormat: logFormat,
	}
}

func splitList(raw string) []string {
	out := []string{}
	for s := range strings.SplitSeq(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
