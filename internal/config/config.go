// Package config loads server settings from the environment, with an
// optional .env file for local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is the process configuration. Redis and Postgres are optional:
// leaving their URLs empty disables the audit queue and persistence.
type Config struct {
	ListenAddr  string
	RedisURL    string
	DatabaseURL string
	LogLevel    string

	StartingChips int
	Ante          int
	ContinueCost  int
	RoundEndDelay time.Duration
}

// Load reads the environment. A missing .env file is not an error.
func Load() Config {
	if err := godotenv.Load(); err == nil {
		logrus.Debug("loaded .env file")
	}
	return Config{
		ListenAddr:    getenv("SABACC_LISTEN_ADDR", ":8080"),
		RedisURL:      os.Getenv("SABACC_REDIS_URL"),
		DatabaseURL:   os.Getenv("SABACC_DATABASE_URL"),
		LogLevel:      getenv("SABACC_LOG_LEVEL", "info"),
		StartingChips: getint("SABACC_STARTING_CHIPS", 100),
		Ante:          getint("SABACC_ANTE", 5),
		ContinueCost:  getint("SABACC_CONTINUE_COST", 5),
		RoundEndDelay: getduration("SABACC_ROUND_END_DELAY", 5*time.Second),
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid integer %q, using %d", v, def)
		return def
	}
	return n
}

func getduration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		logrus.WithField("key", key).Warnf("invalid duration %q, using %s", v, def)
		return def
	}
	return d
}
