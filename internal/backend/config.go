package backend

import (
	"fmt"

	"financas/internal/config"
)

// FromAppConfig converts the application config to the ledger store config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return fromApp(appConfig, appConfig.DataBackend, appConfig.LedgerFile)
}

// BackupFromAppConfig converts the application config to the backup
// mirror store config.
func BackupFromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}
	return fromApp(appConfig, appConfig.BackupBackend, appConfig.BackupLedgerFile)
}

func fromApp(appConfig *config.Config, backend, ledgerFile string) (Config, error) {
	backendType := BackendType(backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", backend)
	}

	return Config{
		Type: backendType,

		LedgerFile:   ledgerFile,
		SQLiteDBPath: appConfig.SQLiteDBPath,

		GoogleSpreadsheetID:      appConfig.GoogleSpreadsheetID,
		GoogleSheetName:          appConfig.GoogleSheetName,
		GoogleServiceAccountFile: appConfig.GoogleServiceAccountFile,
		GoogleServiceAccountJSON: appConfig.GoogleServiceAccountJSON,
		GoogleOAuthClientFile:    appConfig.GoogleOAuthClientFile,
		GoogleOAuthClientJSON:    appConfig.GoogleOAuthClientJSON,
		GoogleOAuthTokenFile:     appConfig.GoogleOAuthTokenFile,
		GoogleOAuthTokenJSON:     appConfig.GoogleOAuthTokenJSON,

		GCSBucket: appConfig.GCSBucket,
		GCSObject: appConfig.GCSObject,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}

	switch c.Type {
	case FileBackend:
		if c.LedgerFile == "" {
			return fmt.Errorf("ledger file path is required for file backend")
		}
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case SheetsBackend:
		if c.GoogleSpreadsheetID == "" {
			return fmt.Errorf("Google Spreadsheet ID is required for sheets backend")
		}
		serviceAccount := c.GoogleServiceAccountFile != "" || c.GoogleServiceAccountJSON != ""
		oauth := (c.GoogleOAuthClientFile != "" || c.GoogleOAuthClientJSON != "") &&
			(c.GoogleOAuthTokenFile != "" || c.GoogleOAuthTokenJSON != "")
		if !serviceAccount && !oauth {
			return fmt.Errorf("sheets backend needs service account credentials or an OAuth client and token")
		}
	case GCSBackend:
		if c.GCSBucket == "" || c.GCSObject == "" {
			return fmt.Errorf("GCS bucket and object are required for gcs backend")
		}
	case MemoryBackend:
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, FileBackend, SQLiteBackend, SheetsBackend, GCSBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	out := make([]string, len(types))
	for i, t := range types {
		out[i] = t.String()
	}
	return out
}
