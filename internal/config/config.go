package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	APIPort           string `yaml:"api_port"`
	WorkerMetricsPort string `yaml:"worker_metrics_port"`
	LogLevel          string `yaml:"log_level"`

	DriveFolderID         string `yaml:"drive_folder_id" validate:"required"`
	ArtifactFolderID      string `yaml:"artifact_folder_id"`
	GoogleCredentialsFile string `yaml:"google_credentials_file"`
	DriveExportBaseURL    string `yaml:"drive_export_base_url" validate:"omitempty,url"`

	LedgerBackend  string `yaml:"ledger_backend" validate:"oneof=sheets xlsx"`
	SpreadsheetID  string `yaml:"spreadsheet_id" validate:"required_if=LedgerBackend sheets"`
	SheetTab       string `yaml:"sheet_tab" validate:"required"`
	LedgerXLSXPath string `yaml:"ledger_xlsx_path" validate:"required_if=LedgerBackend xlsx"`

	GeminiAPIKey     string `yaml:"gemini_api_key" validate:"required"`
	GeminiModel      string `yaml:"gemini_model" validate:"required"`
	GeminiBaseURL    string `yaml:"gemini_base_url" validate:"omitempty,url"`
	AIBreakerEnabled bool   `yaml:"ai_breaker_enabled"`

	TransientPrefix     string        `yaml:"transient_prefix" validate:"required"`
	OCRLanguage         string        `yaml:"ocr_language"`
	MinTextLength       int           `yaml:"min_text_length" validate:"gte=1"`
	ConversionSettle    time.Duration `yaml:"conversion_settle" validate:"gte=0"`
	FallbackSettle      time.Duration `yaml:"fallback_settle" validate:"gte=0"`
	ReadyPollAttempts   int           `yaml:"ready_poll_attempts" validate:"gte=1"`
	ReadyPollBackoff    time.Duration `yaml:"ready_poll_backoff" validate:"gt=0"`
	ReadyPollMaxBackoff time.Duration `yaml:"ready_poll_max_backoff" validate:"gtefield=ReadyPollBackoff"`

	DatabaseDSN string        `yaml:"database_dsn"`
	LeaseTTL    time.Duration `yaml:"lease_ttl" validate:"gt=0"`

	// NATSURL empty disables the queue; the API then runs inline.
	NATSURL     string `yaml:"nats_url" validate:"omitempty,url"`
	NATSSubject string `yaml:"nats_subject"`

	RunSchedule string        `yaml:"run_schedule"`
	RunTimeout  time.Duration `yaml:"run_timeout" validate:"gt=0"`
}

func Defaults() Config {
	return Config{
		APIPort:           "8080",
		WorkerMetricsPort: "9090",
		LogLevel:          "info",

		LedgerBackend: "sheets",
		SheetTab:      "Sermons",

		GeminiModel: "gemini-2.0-flash",

		TransientPrefix:     "TEMP_OCR_",
		OCRLanguage:         "en",
		MinTextLength:       50,
		ConversionSettle:    8 * time.Second,
		FallbackSettle:      5 * time.Second,
		ReadyPollAttempts:   5,
		ReadyPollBackoff:    2 * time.Second,
		ReadyPollMaxBackoff: 15 * time.Second,

		LeaseTTL: 30 * time.Minute,

		NATSSubject: "ledger.runs",

		RunTimeout: 30 * time.Minute,
	}
}

// Load layers defaults, the optional YAML file named by CONFIG_FILE, then environment variables.
func Load() (Config, error) {
	cfg := Defaults()

	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.APIPort = mustEnv("API_PORT", cfg.APIPort)
	cfg.WorkerMetricsPort = mustEnv("WORKER_METRICS_PORT", cfg.WorkerMetricsPort)
	cfg.LogLevel = mustEnv("LOG_LEVEL", cfg.LogLevel)

	cfg.DriveFolderID = mustEnv("DRIVE_FOLDER_ID", cfg.DriveFolderID)
	cfg.ArtifactFolderID = mustEnv("ARTIFACT_FOLDER_ID", cfg.ArtifactFolderID)
	cfg.GoogleCredentialsFile = mustEnv("GOOGLE_CREDENTIALS_FILE", cfg.GoogleCredentialsFile)
	cfg.DriveExportBaseURL = mustEnv("DRIVE_EXPORT_BASE_URL", cfg.DriveExportBaseURL)

	cfg.LedgerBackend = strings.ToLower(mustEnv("LEDGER_BACKEND", cfg.LedgerBackend))
	cfg.SpreadsheetID = mustEnv("SPREADSHEET_ID", cfg.SpreadsheetID)
	cfg.SheetTab = mustEnv("SHEET_TAB", cfg.SheetTab)
	cfg.LedgerXLSXPath = mustEnv("LEDGER_XLSX_PATH", cfg.LedgerXLSXPath)

	cfg.GeminiAPIKey = mustEnv("GEMINI_API_KEY", cfg.GeminiAPIKey)
	cfg.GeminiModel = mustEnv("GEMINI_MODEL", cfg.GeminiModel)
	cfg.GeminiBaseURL = mustEnv("GEMINI_BASE_URL", cfg.GeminiBaseURL)
	cfg.AIBreakerEnabled = mustEnvBool("AI_BREAKER_ENABLED", cfg.AIBreakerEnabled)

	cfg.TransientPrefix = mustEnv("TRANSIENT_PREFIX", cfg.TransientPrefix)
	cfg.OCRLanguage = mustEnv("OCR_LANGUAGE", cfg.OCRLanguage)
	cfg.MinTextLength = mustEnvInt("MIN_TEXT_LENGTH", cfg.MinTextLength)
	cfg.ConversionSettle = mustEnvDuration("CONVERSION_SETTLE", cfg.ConversionSettle)
	cfg.FallbackSettle = mustEnvDuration("FALLBACK_SETTLE", cfg.FallbackSettle)
	cfg.ReadyPollAttempts = mustEnvInt("READY_POLL_ATTEMPTS", cfg.ReadyPollAttempts)
	cfg.ReadyPollBackoff = mustEnvDuration("READY_POLL_BACKOFF", cfg.ReadyPollBackoff)
	cfg.ReadyPollMaxBackoff = mustEnvDuration("READY_POLL_MAX_BACKOFF", cfg.ReadyPollMaxBackoff)

	cfg.DatabaseDSN = mustEnv("DATABASE_DSN", cfg.DatabaseDSN)
	cfg.LeaseTTL = mustEnvDuration("LEASE_TTL", cfg.LeaseTTL)

	cfg.NATSURL = mustEnv("NATS_URL", cfg.NATSURL)
	cfg.NATSSubject = mustEnv("NATS_SUBJECT", cfg.NATSSubject)

	cfg.RunSchedule = mustEnv("RUN_SCHEDULE", cfg.RunSchedule)
	cfg.RunTimeout = mustEnvDuration("RUN_TIMEOUT", cfg.RunTimeout)

	return cfg, nil
}

// Validate checks what a pipeline run needs. The trigger API only needs Load.
func (c Config) Validate() error {
	err := validator.New(validator.WithRequiredStructEnabled()).Struct(c)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate config: %w", err)
	}
	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(problems, "; "))
}

func mustEnv(key, fallback string) string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	return v
}

func mustEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func mustEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// mustEnvDuration accepts Go durations ("8s") or a bare number of seconds.
func mustEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	if d, err := time.ParseDuration(v); err == nil {
		return d
	}
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
