package backend

import (
	"context"
	"fmt"
	"log/slog"

	gsheet "financas/internal/sheets/google"
	"financas/internal/storage"
	"financas/internal/store"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case MemoryBackend:
		f.logger.Info("Initialized memory backend")
		return &BackendResult{Store: store.NewMemory()}, nil
	case FileBackend:
		return f.createFileBackend(config)
	case SQLiteBackend:
		return f.createSQLiteBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	case GCSBackend:
		return f.createGCSBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createFileBackend(config Config) (*BackendResult, error) {
	fs, err := store.NewFile(config.LedgerFile)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize ledger file: %w", err)
	}
	f.logger.Info("Initialized file backend", "path", fs.Path())
	return &BackendResult{Store: fs}, nil
}

func (f *DefaultFactory) createSQLiteBackend(config Config) (*BackendResult, error) {
	sqliteRepo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}
	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	return &BackendResult{Store: sqliteRepo, Cleanup: sqliteRepo.Close}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	cli, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      config.GoogleSpreadsheetID,
		SheetName:          config.GoogleSheetName,
		ServiceAccountFile: config.GoogleServiceAccountFile,
		ServiceAccountJSON: config.GoogleServiceAccountJSON,
		OAuthClientFile:    config.GoogleOAuthClientFile,
		OAuthClientJSON:    config.GoogleOAuthClientJSON,
		OAuthTokenFile:     config.GoogleOAuthTokenFile,
		OAuthTokenJSON:     config.GoogleOAuthTokenJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
	return &BackendResult{Store: cli}, nil
}

func (f *DefaultFactory) createGCSBackend(ctx context.Context, config Config) (*BackendResult, error) {
	gcs, err := store.NewGCS(ctx, config.GCSBucket, config.GCSObject)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Cloud Storage client: %w", err)
	}
	f.logger.Info("Initialized Cloud Storage backend", "object", gcs.String())
	return &BackendResult{Store: gcs, Cleanup: gcs.Close}, nil
}
