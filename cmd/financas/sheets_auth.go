package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/google/subcommands"
	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"financas/internal/config"
	gsheet "financas/internal/sheets/google"
)

type sheetsAuthCmd struct {
	port    string
	out     string
	timeout time.Duration
}

func (*sheetsAuthCmd) Name() string { return "sheets-auth" }
func (*sheetsAuthCmd) Synopsis() string {
	return "authorize the sheets backend with a Google account"
}
func (*sheetsAuthCmd) Usage() string {
	return `financas sheets-auth [-port 8085] [-out token.json]

  Runs the OAuth consent flow for the client in GOOGLE_OAUTH_CLIENT_JSON or
  GOOGLE_OAUTH_CLIENT_FILE and saves the token where GOOGLE_OAUTH_TOKEN_FILE
  points. http://localhost:<port>/callback must be an authorized redirect URI
  of the client.
`
}

func (c *sheetsAuthCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.port, "port", "8085", "Local port receiving the OAuth redirect.")
	f.StringVar(&c.out, "out", "", "Token destination. Defaults to GOOGLE_OAUTH_TOKEN_FILE, then token.json.")
	f.DurationVar(&c.timeout, "timeout", 5*time.Minute, "How long to wait for the browser.")
}

func (c *sheetsAuthCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	if err := c.run(ctx, cfg); err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func (c *sheetsAuthCmd) run(ctx context.Context, cfg *config.Config) error {
	var clientJSON []byte
	switch {
	case cfg.GoogleOAuthClientJSON != "":
		clientJSON = []byte(cfg.GoogleOAuthClientJSON)
	case cfg.GoogleOAuthClientFile != "":
		b, err := os.ReadFile(cfg.GoogleOAuthClientFile)
		if err != nil {
			return fmt.Errorf("read client file: %w", err)
		}
		clientJSON = b
	default:
		return errors.New("set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	}

	oc, err := gsheet.OAuthConfig(clientJSON)
	if err != nil {
		return err
	}
	oc.RedirectURL = "http://localhost:" + c.port + "/callback"

	state := uuid.NewString()
	codeCh := make(chan string, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /callback", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("error") != "":
			http.Error(w, "OAuth error: "+q.Get("error"), http.StatusBadRequest)
			notify(errCh, fmt.Errorf("authorization denied: %s", q.Get("error")))
		case q.Get("state") != state:
			http.Error(w, "state mismatch", http.StatusBadRequest)
		default:
			fmt.Fprintln(w, "You may close this window and return to the terminal.")
			notify(codeCh, q.Get("code"))
		}
	})
	srv := &http.Server{Addr: ":" + c.port, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			notify(errCh, err)
		}
	}()
	defer srv.Close()

	fmt.Fprintf(stdout, "Open this URL to authorize:\n%s\n", oc.AuthCodeURL(state, oauth2.AccessTypeOffline))

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	defer signal.Stop(sig)

	select {
	case code := <-codeCh:
		tok, err := oc.Exchange(ctx, code)
		if err != nil {
			return fmt.Errorf("token exchange: %w", err)
		}
		out := c.tokenPath(cfg)
		if err := gsheet.SaveToken(out, tok); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "Saved token to %s\n", out)
		return nil
	case err := <-errCh:
		return err
	case <-time.After(c.timeout):
		return errors.New("authorization timed out")
	case <-sig:
		return errors.New("interrupted")
	}
}

func (c *sheetsAuthCmd) tokenPath(cfg *config.Config) string {
	switch {
	case c.out != "":
		return c.out
	case cfg.GoogleOAuthTokenFile != "":
		return cfg.GoogleOAuthTokenFile
	default:
		return "token.json"
	}
}

// notify delivers v unless a value is already pending.
func notify[T any](ch chan T, v T) {
	select {
	case ch <- v:
	default:
	}
}
