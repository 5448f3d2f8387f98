package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "DRIVE_FOLDER_ID", "GEMINI_API_KEY", "GEMINI_MODEL", "LEDGER_BACKEND",
		"SPREADSHEET_ID", "SHEET_TAB", "LEDGER_XLSX_PATH", "CONVERSION_SETTLE", "FALLBACK_SETTLE",
		"MIN_TEXT_LENGTH", "READY_POLL_ATTEMPTS", "LEASE_TTL", "AI_BREAKER_ENABLED", "TRANSIENT_PREFIX",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TransientPrefix != "TEMP_OCR_" {
		t.Fatalf("expected default prefix, got %q", cfg.TransientPrefix)
	}
	if cfg.MinTextLength != 50 {
		t.Fatalf("expected default min text length 50, got %d", cfg.MinTextLength)
	}
	if cfg.ConversionSettle != 8*time.Second || cfg.FallbackSettle != 5*time.Second {
		t.Fatalf("unexpected settle defaults: %v %v", cfg.ConversionSettle, cfg.FallbackSettle)
	}
	if cfg.LedgerBackend != "sheets" || cfg.OCRLanguage != "en" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadParsesEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONVERSION_SETTLE", "12s")
	t.Setenv("FALLBACK_SETTLE", "3")
	t.Setenv("MIN_TEXT_LENGTH", "80")
	t.Setenv("AI_BREAKER_ENABLED", "true")
	t.Setenv("LEDGER_BACKEND", "XLSX")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ConversionSettle != 12*time.Second {
		t.Fatalf("expected 12s, got %v", cfg.ConversionSettle)
	}
	if cfg.FallbackSettle != 3*time.Second {
		t.Fatalf("expected bare seconds to parse, got %v", cfg.FallbackSettle)
	}
	if cfg.MinTextLength != 80 || !cfg.AIBreakerEnabled || cfg.LedgerBackend != "xlsx" {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
}

func TestLoadLayersFileUnderEnv(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("drive_folder_id: from-file\nspreadsheet_id: sheet-from-file\nconversion_settle: 20s\nsheet_tab: Log\n")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SHEET_TAB", "Env Tab")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DriveFolderID != "from-file" || cfg.SpreadsheetID != "sheet-from-file" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.ConversionSettle != 20*time.Second {
		t.Fatalf("expected file duration, got %v", cfg.ConversionSettle)
	}
	if cfg.SheetTab != "Env Tab" {
		t.Fatalf("env must override file, got %q", cfg.SheetTab)
	}
}

func TestLoadRejectsUnreadableFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	if _, err := Load(); err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidateRequiresPipelineSettings(t *testing.T) {
	cfg := Defaults()
	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, field := range []string{"DriveFolderID", "SpreadsheetID", "GeminiAPIKey"} {
		if !strings.Contains(err.Error(), field) {
			t.Fatalf("expected %s in error, got %v", field, err)
		}
	}

	cfg.DriveFolderID = "folder"
	cfg.SpreadsheetID = "sheet"
	cfg.GeminiAPIKey = "key"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestValidateXLSXBackendNeedsPath(t *testing.T) {
	cfg := Defaults()
	cfg.DriveFolderID = "folder"
	cfg.GeminiAPIKey = "key"
	cfg.LedgerBackend = "xlsx"

	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "LedgerXLSXPath") {
		t.Fatalf("expected LedgerXLSXPath error, got %v", err)
	}
	cfg.LedgerXLSXPath = "ledger.xlsx"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}
