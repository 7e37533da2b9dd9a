package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Env               string
	ListenAddr        string
	DatabaseURL       string
	AnalysisURL       string
	AnalysisTimeout   time.Duration
	CompareWorkers    int
	ScoreProfile      string
	ScoreProfilesFile string
	LogLevel          slog.Level
	AutoMigrate       bool
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func Load() (Config, error) {
	cfg := Config{
		Env:               getenv("APP_ENV", "development"),
		ListenAddr:        getenv("LISTEN_ADDR", ":8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		AnalysisURL:       getenv("ANALYSIS_URL", "http://localhost:8000"),
		AnalysisTimeout:   getenvDuration("ANALYSIS_TIMEOUT", 60*time.Second),
		CompareWorkers:    getenvInt("COMPARE_WORKERS", 0),
		ScoreProfile:      getenv("SCORE_PROFILE", "standard"),
		ScoreProfilesFile: os.Getenv("SCORE_PROFILES_FILE"),
		LogLevel:          parseLevel(getenv("LOG_LEVEL", "info")),
		AutoMigrate:       getenvBool("AUTO_MIGRATE", false),
	}
	if cfg.DatabaseURL == "" {
		// Not fatal for commands that never touch the database; callers decide.
		return cfg, fmt.Errorf("DATABASE_URL not set")
	}
	return cfg, nil
}

func getenvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		var out int
		_, err := fmt.Sscanf(v, "%d", &out)
		if err == nil {
			return out
		}
	}
	return def
}

func getenvDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	}
	return def
}

func parseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return l
}
