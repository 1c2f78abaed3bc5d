package config

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Report.MaxPerPage != 100 {
		t.Errorf("MaxPerPage = %d, want 100", cfg.Report.MaxPerPage)
	}
	if cfg.Report.MaxExportRows != 50000 {
		t.Errorf("MaxExportRows = %d, want 50000", cfg.Report.MaxExportRows)
	}
	if cfg.Export.CleanupSchedule != "@hourly" {
		t.Errorf("CleanupSchedule = %q", cfg.Export.CleanupSchedule)
	}
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv("REPORT_CACHE_TTL", "600")
	t.Setenv("REPORT_QUERY_TIMEOUT", "5s")
	t.Setenv("REPORT_FORMAT_LENIENT", "true")
	t.Setenv("REPORT_MAX_PER_PAGE", "not-a-number")
	t.Setenv("SKIP_AUTH", "1")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}
	if cfg.Report.CacheTTL != 10*time.Minute {
		t.Errorf("CacheTTL = %v, want 10m", cfg.Report.CacheTTL)
	}
	if cfg.Report.QueryTimeout != 5*time.Second {
		t.Errorf("QueryTimeout = %v, want 5s", cfg.Report.QueryTimeout)
	}
	if !cfg.Report.FormatLenient || !cfg.SkipAuth {
		t.Errorf("bool parsing failed: lenient=%v skipAuth=%v", cfg.Report.FormatLenient, cfg.SkipAuth)
	}
	if cfg.Report.MaxPerPage != 100 {
		t.Errorf("invalid MaxPerPage should fall back, got %d", cfg.Report.MaxPerPage)
	}
}
