package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Profile is the configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev"
	Mode string
	// Addr is the binding address for the server
	Addr string
	// Port is the binding port for the server
	Port int
	// Data is the data directory
	Data string
	// DSN points to where linguasense stores its own data
	DSN string
	// Driver is the database driver (sqlite or postgres)
	Driver string
	// Version is the current version of the server
	Version string

	// Completion backend configuration
	AIBaseURL string // LINGUASENSE_AI_BASE_URL (default: https://api.openai.com/v1)
	AIAPIKey  string // LINGUASENSE_AI_API_KEY
	AIModel   string // LINGUASENSE_AI_MODEL (default: gpt-4o-mini)

	// PracticeTimezone anchors all scheduled sessions to the target-language
	// region's clock, not the server's or the learner's.
	PracticeTimezone string // LINGUASENSE_PRACTICE_TIMEZONE (default: Europe/Istanbul)

	// HistoryWindow is the maximum number of history entries loaded per prompt.
	HistoryWindow int // LINGUASENSE_HISTORY_WINDOW (default: 50)
	// HistoryCollapseAfter is the number of entries rendered verbatim before
	// older entries are collapsed into a summary line.
	HistoryCollapseAfter int // LINGUASENSE_HISTORY_COLLAPSE_AFTER (default: 20)

	// DispatchWebhookURL is the chat-bridge endpoint proactive messages are
	// posted to. Empty means messages are logged only (dev mode).
	DispatchWebhookURL string // LINGUASENSE_DISPATCH_WEBHOOK_URL
	// DispatchTimeout bounds a single webhook delivery.
	DispatchTimeout time.Duration
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// getEnvOrDefault returns the environment variable value or the default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// FromEnv loads configuration from LINGUASENSE_* environment variables.
func (p *Profile) FromEnv() {
	p.AIBaseURL = getEnvOrDefault("LINGUASENSE_AI_BASE_URL", "https://api.openai.com/v1")
	p.AIAPIKey = getEnvOrDefault("LINGUASENSE_AI_API_KEY", p.AIAPIKey)
	p.AIModel = getEnvOrDefault("LINGUASENSE_AI_MODEL", "gpt-4o-mini")
	p.PracticeTimezone = getEnvOrDefault("LINGUASENSE_PRACTICE_TIMEZONE", "Europe/Istanbul")
	p.HistoryWindow = getEnvIntOrDefault("LINGUASENSE_HISTORY_WINDOW", 50)
	p.HistoryCollapseAfter = getEnvIntOrDefault("LINGUASENSE_HISTORY_COLLAPSE_AFTER", 20)
	p.DispatchWebhookURL = getEnvOrDefault("LINGUASENSE_DISPATCH_WEBHOOK_URL", p.DispatchWebhookURL)
	if p.DispatchTimeout == 0 {
		p.DispatchTimeout = 10 * time.Second
	}
}

// Validate normalizes and validates the profile.
func (p *Profile) Validate() error {
	if p.Mode != "prod" && p.Mode != "dev" {
		p.Mode = "dev"
	}

	if p.Mode == "prod" && p.Data == "" {
		p.Data = "/var/opt/linguasense"
	}

	if p.Data == "" {
		dir, err := os.Getwd()
		if err != nil {
			return errors.Wrap(err, "failed to get current working directory")
		}
		p.Data = dir
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return errors.Wrapf(err, "failed to check data directory %q", p.Data)
	}
	p.Data = dataDir

	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("linguasense_%s.db", p.Mode)
		p.DSN = filepath.Join(p.Data, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn is required for postgres driver")
	}

	if _, err := time.LoadLocation(p.PracticeTimezone); err != nil {
		return errors.Wrapf(err, "invalid practice timezone %q", p.PracticeTimezone)
	}

	if p.HistoryWindow <= 0 {
		p.HistoryWindow = 50
	}
	if p.HistoryCollapseAfter <= 0 || p.HistoryCollapseAfter > p.HistoryWindow {
		p.HistoryCollapseAfter = 20
		if p.HistoryCollapseAfter > p.HistoryWindow {
			p.HistoryCollapseAfter = p.HistoryWindow
		}
	}

	return nil
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if a relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	dataDir = strings.TrimRight(dataDir, "/")

	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}

	return dataDir, nil
}
