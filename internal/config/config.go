package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
)

// IssuerDirectoryKey is the metadata key the issuer directory is stored under.
const IssuerDirectoryKey = "dist_labels_clients"

type Config struct {
	DBPath     string
	RawMailDir string
	OutputDir  string
	LogLevel   string

	LabelWidthMM     float64
	LabelHeightMM    float64
	MaxDocumentBytes int64

	GmailClientID     string
	GmailClientSecret string
	GmailRedirectURI  string
	GmailRefreshToken string
	GmailQuery        string

	IMAPHost       string
	IMAPPort       int
	IMAPSecure     bool
	IMAPUser       string
	IMAPPassword   string
	IMAPMarkSeen   bool
	IMAPSearchText string

	MailListenerProvider     string
	MailListenerLabel        string
	MailListenerIntervalSec  int
	MailListenerFetchMax     int
	MailListenerProcessBatch int
	MailListenerAutoPrint    bool
}

func Load() (Config, error) {
	_ = godotenv.Load()

	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, err
	}

	cfg := Config{
		DBPath:     getEnv("DB_PATH", filepath.Join(cwd, "data", "labelmaster.db")),
		RawMailDir: getEnv("MAIL_RAW_DIR", filepath.Join(cwd, "data", "raw")),
		OutputDir:  getEnv("OUTPUT_DIR", filepath.Join(cwd, "out")),
		LogLevel:   getEnv("LOG_LEVEL", "info"),

		LabelWidthMM:     getEnvFloat("LABEL_WIDTH_MM", 100),
		LabelHeightMM:    getEnvFloat("LABEL_HEIGHT_MM", 70),
		MaxDocumentBytes: int64(getEnvInt("LABEL_MAX_FILE_BYTES", 5<<20)),

		GmailClientID:     getEnv("GMAIL_CLIENT_ID", ""),
		GmailClientSecret: getEnv("GMAIL_CLIENT_SECRET", ""),
		GmailRedirectURI:  getEnv("GMAIL_REDIRECT_URI", "https://developers.google.com/oauthplayground"),
		GmailRefreshToken: getEnv("GMAIL_REFRESH_TOKEN", ""),
		GmailQuery:        getEnv("GMAIL_QUERY", "has:attachment filename:xml"),

		IMAPHost:       getEnv("IMAP_HOST", ""),
		IMAPPort:       getEnvInt("IMAP_PORT", 993),
		IMAPSecure:     getEnvBool("IMAP_SECURE", true),
		IMAPUser:       getEnv("IMAP_USER", ""),
		IMAPPassword:   getEnv("IMAP_PASSWORD", ""),
		IMAPMarkSeen:   getEnvBool("IMAP_MARK_SEEN", false),
		IMAPSearchText: getEnv("IMAP_SEARCH_TEXT", ""),

		MailListenerProvider:     getEnv("MAIL_LISTENER_PROVIDER", "imap"),
		MailListenerLabel:        getEnv("MAIL_LISTENER_LABEL", "INBOX"),
		MailListenerIntervalSec:  getEnvInt("MAIL_LISTENER_INTERVAL_SEC", 60),
		MailListenerFetchMax:     getEnvInt("MAIL_LISTENER_FETCH_MAX", 20),
		MailListenerProcessBatch: getEnvInt("MAIL_LISTENER_PROCESS_BATCH", 20),
		MailListenerAutoPrint:    getEnvBool("MAIL_LISTENER_AUTO_PRINT", true),
	}

	if cfg.LabelWidthMM <= 0 || cfg.LabelHeightMM <= 0 {
		return Config{}, errors.Newf("invalid label size %.1fx%.1fmm", cfg.LabelWidthMM, cfg.LabelHeightMM)
	}

	return cfg, nil
}

func (c Config) Require(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return errors.Newf("missing required env var: %s", name)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvFloat(key string, fallback float64) float64 {
	value := getEnv(key, "")
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvBool(key string, fallback bool) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(key, "")))
	if value == "" {
		return fallback
	}
	if value == "1" || value == "true" || value == "yes" || value == "on" {
		return true
	}
	if value == "0" || value == "false" || value == "no" || value == "off" {
		return false
	}
	return fallback
}
