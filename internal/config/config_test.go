package config

import (
	"testing"
	"time"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/mentorlog")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")
	t.Setenv("JWT_SECRET", "secret")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Port != "8080" {
		t.Errorf("Expected port 8080, got %q", cfg.Port)
	}
	if cfg.ReportFocusAverage != 75 {
		t.Errorf("Expected focus average 75, got %d", cfg.ReportFocusAverage)
	}
	if cfg.SummarizerTimeout != 30*time.Second {
		t.Errorf("Expected summarizer timeout 30s, got %s", cfg.SummarizerTimeout)
	}
	if cfg.VisionEnabled {
		t.Errorf("Expected vision analyzer disabled by default")
	}
	if cfg.BoardEntryRetryEnabled {
		t.Errorf("Expected board entry retry disabled by default")
	}
	if !cfg.SchedulerEnabled {
		t.Errorf("Expected scheduler enabled by default")
	}
	if cfg.SchedulerCron != "0 10 * * MON" {
		t.Errorf("Unexpected cron expression %q", cfg.SchedulerCron)
	}
}

func TestLoad_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("VISION_ENABLED", "true")
	t.Setenv("VISION_BASE_URL", "http://vision:8000")
	t.Setenv("REPORT_FOCUS_AVERAGE", "80")
	t.Setenv("WEEKLY_SUMMARIZER_TIMEOUT", "5s")
	t.Setenv("BOARD_ENTRY_RETRY_ENABLED", "true")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !cfg.VisionEnabled || cfg.VisionBaseURL != "http://vision:8000" {
		t.Errorf("Expected vision overrides, got enabled=%v url=%q", cfg.VisionEnabled, cfg.VisionBaseURL)
	}
	if cfg.ReportFocusAverage != 80 {
		t.Errorf("Expected focus average 80, got %d", cfg.ReportFocusAverage)
	}
	if !cfg.BoardEntryRetryEnabled {
		t.Errorf("Expected board entry retry enabled")
	}
	if cfg.WeeklySummarizerTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.WeeklySummarizerTimeout)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")
	t.Setenv("JWT_SECRET", "")

	if _, err := Load(); err == nil {
		t.Error("Expected error for missing required env vars")
	}
}

func TestReportLocation(t *testing.T) {
	tests := []struct {
		name     string
		zone     string
		expected string
	}{
		{"known zone", "Asia/Seoul", "Asia/Seoul"},
		{"empty falls back to UTC", "", "UTC"},
		{"unknown falls back to UTC", "Mars/Olympus", "UTC"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{ReportTimezone: tc.zone}
			if got := cfg.ReportLocation().String(); got != tc.expected {
				t.Errorf("Expected %q, got %q", tc.expected, got)
			}
		})
	}
}
