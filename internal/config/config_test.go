package config

import (
	"log/slog"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"APP_ENV", "LISTEN_ADDR", "ANALYSIS_URL", "ANALYSIS_TIMEOUT", "COMPARE_WORKERS", "SCORE_PROFILE", "SCORE_PROFILES_FILE", "LOG_LEVEL", "AUTO_MIGRATE"} {
		t.Setenv(k, "")
	}
	t.Setenv("DATABASE_URL", "postgres://localhost/review")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ListenAddr != ":8080" || cfg.Env != "development" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.AnalysisTimeout != 60*time.Second || cfg.CompareWorkers != 0 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.ScoreProfile != "standard" || cfg.LogLevel != slog.LevelInfo || cfg.AutoMigrate {
		t.Errorf("unexpected defaults %+v", cfg)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/review")
	t.Setenv("ANALYSIS_TIMEOUT", "15s")
	t.Setenv("COMPARE_WORKERS", "4")
	t.Setenv("SCORE_PROFILE", "strict")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("AUTO_MIGRATE", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.AnalysisTimeout != 15*time.Second || cfg.CompareWorkers != 4 || cfg.ScoreProfile != "strict" {
		t.Errorf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug || !cfg.AutoMigrate {
		t.Errorf("overrides not applied: %+v", cfg)
	}
}

func TestLoad_BadValuesFallBack(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/review")
	t.Setenv("ANALYSIS_TIMEOUT", "soon")
	t.Setenv("COMPARE_WORKERS", "many")
	t.Setenv("LOG_LEVEL", "loud")

	cfg, _ := Load()
	if cfg.AnalysisTimeout != 60*time.Second || cfg.CompareWorkers != 0 || cfg.LogLevel != slog.LevelInfo {
		t.Errorf("bad values should fall back to defaults: %+v", cfg)
	}
}

func TestLoad_MissingDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	if _, err := Load(); err == nil {
		t.Error("expected an error without DATABASE_URL")
	}
}
