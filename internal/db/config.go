package db

import (
	"fmt"
	"os"
	"strconv"
)

// Config holds PostgreSQL connection parameters for the audit trail.
type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // disable, require, verify-ca, verify-full
	// If provided, DSN takes precedence over other fields.
	DSN string
}

// FromEnv loads configuration from environment variables.
// DB_DSN overrides individual fields if set.
func FromEnv() Config {
	return Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		DBName:   getEnv("DB_NAME", "rips_import"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
		DSN:      os.Getenv("DB_DSN"),
	}
}

// WithDSN returns a copy of c using dsn when it is non-empty.
func (c Config) WithDSN(dsn string) Config {
	if dsn != "" {
		c.DSN = dsn
	}
	return c
}

func (c Config) ConnString() string {
	if c.DSN != "" {
		return c.DSN
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, urlEncode(c.Password), c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(key)); err == nil && n != 0 {
		return n
	}
	return def
}

// urlEncode percent-encodes the characters that break a DSN userinfo part.
// Pass DB_DSN directly for anything more exotic.
func urlEncode(s string) string {
	replacer := map[rune]string{
		'%': "%25",
		'@': "%40",
		':': "%3A",
		'/': "%2F",
	}
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if enc, ok := replacer[r]; ok {
			out = append(out, []rune(enc)...)
			continue
		}
		out = append(out, r)
	}
	return string(out)
}
