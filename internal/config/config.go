package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	AppPort string

	MySQLHost string
	MySQLPort string
	MySQLDB   string
	MySQLUser string
	MySQLPass string

	RedisAddr string
	RedisDB   int

	IdempTTLSecs int

	JWTSecret string

	// empty: notifications go to the log
	NATSURL string

	// non-empty: actors come from this YAML file instead of the users table
	DirectoryFile         string
	DirectoryCacheTTLSecs int

	NotifyQueueSize int

	LogLevel  string
	LogPretty bool
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func getenvInt(k string, d int) int {
	if v := os.Getenv(k); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return d
}

func Load() *Config {
	c := &Config{
		AppPort:   getenv("APP_PORT", "8080"),
		MySQLHost: getenv("MYSQL_HOST", "mysql"),
		MySQLPort: getenv("MYSQL_PORT", "3306"),
		MySQLDB:   getenv("MYSQL_DB", "intranet"),
		MySQLUser: getenv("MYSQL_USER", "intranet"),
		MySQLPass: getenv("MYSQL_PASS", "intranet"),

		RedisAddr:    getenv("REDIS_ADDR", "redis:6379"),
		RedisDB:      getenvInt("REDIS_DB", 0),
		IdempTTLSecs: getenvInt("IDEMPOTENCY_TTL_SECONDS", 300),

		JWTSecret: os.Getenv("JWT_SECRET"),
		NATSURL:   os.Getenv("NATS_URL"),

		DirectoryFile:         os.Getenv("DIRECTORY_FILE"),
		DirectoryCacheTTLSecs: getenvInt("DIRECTORY_CACHE_TTL_SECONDS", 60),

		NotifyQueueSize: getenvInt("NOTIFY_QUEUE_SIZE", 256),

		LogLevel: getenv("LOG_LEVEL", "info"),
	}
	if v := os.Getenv("LOG_PRETTY"); v != "" {
		c.LogPretty, _ = strconv.ParseBool(v)
	}
	return c
}

func (c *Config) Validate() error {
	if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
		return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
	}
	// ensure port is valid
	if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
		return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
	}
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	if len(strings.TrimSpace(c.JWTSecret)) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	if c.IdempTTLSecs <= 0 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_SECONDS %d", c.IdempTTLSecs)
	}
	if c.DirectoryCacheTTLSecs < 0 {
		return fmt.Errorf("invalid DIRECTORY_CACHE_TTL_SECONDS %d", c.DirectoryCacheTTLSecs)
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("invalid NOTIFY_QUEUE_SIZE %d", c.NotifyQueueSize)
	}
	return nil
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

// DirectoryCacheTTL is zero when caching is disabled.
func (c *Config) DirectoryCacheTTL() time.Duration {
	return time.Duration(c.DirectoryCacheTTLSecs) * time.Second
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// multiStatements=true is handy for migrations; parseTime needed for DATETIME
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}
