// Package config loads runtime settings from the environment, an optional
// .env file and an optional config file named by FINANCAS_CONFIG.
package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/summary"
)

// Backends accepted by DATA_BACKEND and BACKUP_BACKEND.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendSheets = "sheets"
	BackendGCS    = "gcs"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite, BackendSheets, BackendGCS}

type Config struct {
	// HTTP Server
	Port     string
	LogLevel string

	// Ledger store
	DataBackend  string
	LedgerFile   string
	SQLiteDBPath string

	// Google Sheets
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
	GoogleOAuthClientFile    string
	GoogleOAuthClientJSON    string
	GoogleOAuthTokenFile     string
	GoogleOAuthTokenJSON     string

	// Cloud Storage
	GCSBucket string
	GCSObject string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Backup mirror
	BackupBackend    string
	BackupLedgerFile string
	BackupInterval   time.Duration

	// Household
	Payers          []string
	Budgets         string
	ProjectedIncome string

	// Summary cache
	SummaryCacheSize int
	SummaryCacheTTL  time.Duration

	// CIDRs whose X-Forwarded-For is trusted, on top of loopback and private ranges.
	TrustedProxies []string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8081")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATA_BACKEND", BackendFile)
	v.SetDefault("LEDGER_FILE", "./data/lancamentos.csv")
	v.SetDefault("SQLITE_DB_PATH", "./data/financas.db")
	v.SetDefault("GOOGLE_SHEET_NAME", "Lancamentos")
	v.SetDefault("GCS_OBJECT", "lancamentos.csv")
	v.SetDefault("AMQP_URL", "")
	v.SetDefault("AMQP_EXCHANGE", "financas")
	v.SetDefault("AMQP_QUEUE", "ledger_backup")
	v.SetDefault("BACKUP_BACKEND", BackendFile)
	v.SetDefault("BACKUP_LEDGER_FILE", "./data/backup/lancamentos.csv")
	v.SetDefault("BACKUP_INTERVAL", "5m")
	v.SetDefault("PAYERS", string(core.PayerCouple))
	v.SetDefault("BUDGETS", "")
	v.SetDefault("PROJECTED_INCOME", "")
	v.SetDefault("SUMMARY_CACHE_SIZE", 64)
	v.SetDefault("SUMMARY_CACHE_TTL", "10m")
	v.SetDefault("TRUSTED_PROXIES", "")
}

// Load reads the configuration. A .env file in the working directory is
// loaded first when present; it never overrides the real environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	setDefaults(v)
	v.AutomaticEnv()

	if path := os.Getenv("FINANCAS_CONFIG"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		Port:     v.GetString("PORT"),
		LogLevel: v.GetString("LOG_LEVEL"),

		DataBackend:  strings.ToLower(v.GetString("DATA_BACKEND")),
		LedgerFile:   v.GetString("LEDGER_FILE"),
		SQLiteDBPath: v.GetString("SQLITE_DB_PATH"),

		GoogleSpreadsheetID:      v.GetString("GOOGLE_SPREADSHEET_ID"),
		GoogleSheetName:          v.GetString("GOOGLE_SHEET_NAME"),
		GoogleServiceAccountFile: v.GetString("GOOGLE_SERVICE_ACCOUNT_FILE"),
		GoogleServiceAccountJSON: v.GetString("GOOGLE_SERVICE_ACCOUNT_JSON"),
		GoogleOAuthClientFile:    v.GetString("GOOGLE_OAUTH_CLIENT_FILE"),
		GoogleOAuthClientJSON:    v.GetString("GOOGLE_OAUTH_CLIENT_JSON"),
		GoogleOAuthTokenFile:     v.GetString("GOOGLE_OAUTH_TOKEN_FILE"),
		GoogleOAuthTokenJSON:     v.GetString("GOOGLE_OAUTH_TOKEN_JSON"),

		GCSBucket: v.GetString("GCS_BUCKET"),
		GCSObject: v.GetString("GCS_OBJECT"),

		AMQPURL:      v.GetString("AMQP_URL"),
		AMQPExchange: v.GetString("AMQP_EXCHANGE"),
		AMQPQueue:    v.GetString("AMQP_QUEUE"),

		BackupBackend:    strings.ToLower(v.GetString("BACKUP_BACKEND")),
		BackupLedgerFile: v.GetString("BACKUP_LEDGER_FILE"),
		BackupInterval:   v.GetDuration("BACKUP_INTERVAL"),

		Payers:          splitList(v.GetString("PAYERS")),
		Budgets:         v.GetString("BUDGETS"),
		ProjectedIncome: v.GetString("PROJECTED_INCOME"),

		SummaryCacheSize: v.GetInt("SUMMARY_CACHE_SIZE"),
		SummaryCacheTTL:  v.GetDuration("SUMMARY_CACHE_TTL"),

		TrustedProxies: splitList(v.GetString("TRUSTED_PROXIES")),
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Ceilings parses BUDGETS.
func (c *Config) Ceilings() ([]summary.Ceiling, error) {
	return summary.ParseCeilings(c.Budgets)
}

// Income parses PROJECTED_INCOME. Blank means no projection.
func (c *Config) Income() (decimal.Decimal, error) {
	if strings.TrimSpace(c.ProjectedIncome) == "" {
		return decimal.Zero, nil
	}
	d, err := core.ParseAmount(c.ProjectedIncome)
	if err != nil {
		return decimal.Zero, err
	}
	if d.IsNegative() {
		return decimal.Zero, core.ErrNegativeAmount
	}
	return d, nil
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errors = append(errors, fmt.Sprintf("invalid log level '%s'", c.LogLevel))
	}

	errors = append(errors, c.validateBackend("data", c.DataBackend, c.LedgerFile)...)

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if len(c.Payers) == 0 {
		errors = append(errors, "at least one payer must be configured")
	}
	if _, err := c.Ceilings(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid budgets: %v", err))
	}
	if _, err := c.Income(); err != nil {
		errors = append(errors, fmt.Sprintf("invalid projected income '%s'", c.ProjectedIncome))
	}

	if c.SummaryCacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid summary cache size %d: must be at least 1", c.SummaryCacheSize))
	}
	if c.SummaryCacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid summary cache ttl %v: must be at least 1 second", c.SummaryCacheTTL))
	}

	for _, cidr := range c.TrustedProxies {
		if _, _, err := net.ParseCIDR(cidr); err != nil {
			errors = append(errors, fmt.Sprintf("invalid trusted proxy '%s': must be a CIDR", cidr))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateBackup checks the settings the backup worker needs on top of
// Validate.
func (c *Config) ValidateBackup() error {
	var errors []string
	errors = append(errors, c.validateBackend("backup", c.BackupBackend, c.BackupLedgerFile)...)
	if c.BackupBackend == c.DataBackend && c.BackupBackend == BackendFile && c.BackupLedgerFile == c.LedgerFile {
		errors = append(errors, "backup ledger file must differ from the ledger file")
	}
	if c.BackupInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid backup interval %v: must be at least 1 second", c.BackupInterval))
	}
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func (c *Config) validateBackend(role, backend, ledgerFile string) []string {
	var errors []string
	switch backend {
	case BackendMemory:
	case BackendFile:
		if ledgerFile == "" {
			errors = append(errors, fmt.Sprintf("%s ledger file cannot be empty when using file backend", role))
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		} else if dir := filepath.Dir(c.SQLiteDBPath); dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if !c.hasServiceAccount() && !c.hasOAuth() {
			errors = append(errors, "sheets backend needs GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON, or an OAuth client and token (GOOGLE_OAUTH_CLIENT_* and GOOGLE_OAUTH_TOKEN_*)")
		}
		if c.GoogleServiceAccountFile != "" {
			if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
				errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
			}
		}
	case BackendGCS:
		if c.GCSBucket == "" {
			errors = append(errors, "GCS bucket is required when using gcs backend")
		}
		if c.GCSObject == "" {
			errors = append(errors, "GCS object is required when using gcs backend")
		}
	default:
		errors = append(errors, fmt.Sprintf("invalid %s backend '%s': must be one of %v", role, backend, validBackends))
	}
	return errors
}

func (c *Config) hasServiceAccount() bool {
	return c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
}

func (c *Config) hasOAuth() bool {
	return (c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != "") &&
		(c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != "")
}

// IsValidBackend reports whether name is a known store backend.
func IsValidBackend(name string) bool {
	return slices.Contains(validBackends, name)
}
