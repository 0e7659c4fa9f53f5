package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"golang.org/x/oauth2"
	oauthgoogle "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"financas/internal/ledger"
	"financas/internal/store"
)

// Config selects the spreadsheet tab holding the ledger and the credentials
// used to reach it: a service account, or an OAuth client with a user token
// obtained by `financas sheets-auth`.
type Config struct {
	SpreadsheetID      string
	SheetName          string
	ServiceAccountJSON string
	ServiceAccountFile string
	OAuthClientJSON    string
	OAuthClientFile    string
	OAuthTokenJSON     string
	OAuthTokenFile     string
}

// Client stores the ledger on one spreadsheet tab, header in row 1.
//
// Sheets has no compare-and-swap, so the version is the checksum of the cell
// values and Replace re-reads it right before writing. Two writers racing
// inside that window can still overwrite each other.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ store.Store = (*Client)(nil)

// New creates a Sheets-backed store. Extra client options replace the service
// account credentials when given.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.SheetName)
	if sheetName == "" {
		sheetName = "Lancamentos"
	}

	var (
		svc *gsheet.Service
		err error
	)
	if len(opts) > 0 {
		svc, err = gsheet.NewService(ctx, opts...)
	} else {
		svc, err = newSheetsService(ctx, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

// newSheetsService initializes a Sheets Service using Service Account
// credentials, falling back to GOOGLE_APPLICATION_CREDENTIALS and then to an
// OAuth user token.
func newSheetsService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(cfg.ServiceAccountJSON)
	serviceAccountFile := strings.TrimSpace(cfg.ServiceAccountFile)
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", serviceAccountFile)
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	case cfg.OAuthClientJSON != "" || cfg.OAuthClientFile != "":
		return newOAuthService(ctx, cfg)
	default:
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, GOOGLE_APPLICATION_CREDENTIALS, or an OAuth client and token)")
	}

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func newOAuthService(ctx context.Context, cfg Config) (*gsheet.Service, error) {
	clientJSON, err := inlineOrFile(cfg.OAuthClientJSON, cfg.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth client: %w", err)
	}
	oc, err := OAuthConfig(clientJSON)
	if err != nil {
		return nil, err
	}

	tokenJSON, err := inlineOrFile(cfg.OAuthTokenJSON, cfg.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("read oauth token: %w", err)
	}
	if len(tokenJSON) == 0 {
		return nil, errors.New("missing oauth token (set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("decode oauth token: %w", err)
	}

	slog.InfoContext(ctx, "Using OAuth user credentials")
	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(oc.Client(ctx, &tok)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// OAuthConfig builds the OAuth client configuration for the Sheets scope
// from a downloaded client secret.
func OAuthConfig(clientJSON []byte) (*oauth2.Config, error) {
	oc, err := oauthgoogle.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return oc, nil
}

// SaveToken writes tok as JSON to path, readable by the owner only.
func SaveToken(path string, tok *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open token file: %w", err)
	}
	if err := json.NewEncoder(f).Encode(tok); err != nil {
		f.Close()
		return fmt.Errorf("write token: %w", err)
	}
	return f.Close()
}

func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// Load implements store.Store. An empty tab means no ledger yet.
func (c *Client) Load(ctx context.Context) (store.Snapshot, error) {
	t, err := c.read(ctx)
	if err != nil {
		return store.Snapshot{}, err
	}
	if len(t.Header) == 0 {
		return store.Snapshot{}, store.ErrNotFound
	}
	version, err := tableVersion(t)
	if err != nil {
		return store.Snapshot{}, err
	}
	return store.Snapshot{Table: t, Version: version}, nil
}

// Replace implements store.Store.
func (c *Client) Replace(ctx context.Context, t ledger.Table, expected string) (string, error) {
	current := ""
	snap, err := c.Load(ctx)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return "", err
	default:
		current = snap.Version
	}
	if current != expected {
		return "", store.ErrVersionConflict
	}

	t = padded(t)
	records := t.Records[:0]
	for _, rec := range t.Records {
		if !isBlank(rec) {
			records = append(records, rec)
		}
	}
	t.Records = records
	t.Lines = nil
	if len(t.Header) == 0 {
		t.Header = ledger.EmptyTable().Header
	}
	version, err := tableVersion(t)
	if err != nil {
		return "", err
	}

	rng := c.ledgerRange()
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("clear %s: %w", rng, err)
	}

	values := make([][]interface{}, 0, len(t.Records)+1)
	values = append(values, toCells(t.Header))
	for _, rec := range t.Records {
		values = append(values, toCells(rec))
	}
	start := fmt.Sprintf("%s!A1", quoteSheet(c.sheetName))
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, start, &gsheet.ValueRange{Values: values}).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", start, err)
	}

	slog.InfoContext(ctx, "Ledger saved to Google Sheets",
		"sheet", c.sheetName,
		"rows", len(t.Records))
	return version, nil
}

func (c *Client) read(ctx context.Context) (ledger.Table, error) {
	rng := c.ledgerRange()
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		return ledger.Table{}, fmt.Errorf("read %s: %w", rng, err)
	}
	if len(resp.Values) == 0 {
		return ledger.Table{}, nil
	}
	t := ledger.Table{Header: toStrings(resp.Values[0])}
	for i, row := range resp.Values[1:] {
		rec := toStrings(row)
		if isBlank(rec) {
			continue
		}
		t.Records = append(t.Records, rec)
		t.Lines = append(t.Lines, i+2)
	}
	return padded(t), nil
}

func (c *Client) ledgerRange() string {
	return fmt.Sprintf("%s!A:Z", quoteSheet(c.sheetName))
}

// quoteSheet wraps names that A1 notation cannot take bare.
func quoteSheet(name string) string {
	if strings.ContainsAny(name, " '!:") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}

// padded extends every record to the header width. Sheets drops trailing
// empty cells, so versions are computed on padded tables only.
func padded(t ledger.Table) ledger.Table {
	out := t.Clone()
	for i, rec := range out.Records {
		for len(rec) < len(out.Header) {
			rec = append(rec, "")
		}
		out.Records[i] = rec
	}
	return out
}

func tableVersion(t ledger.Table) (string, error) {
	data, err := store.Encode(t)
	if err != nil {
		return "", err
	}
	return store.Checksum(data), nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = fmt.Sprint(v)
	}
	return out
}

func toCells(in []string) []interface{} {
	out := make([]interface{}, len(in))
	for i, v := range in {
		out[i] = v
	}
	return out
}

func isBlank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
