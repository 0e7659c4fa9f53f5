package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/google/subcommands"

	"financas/internal/amqp"
	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/reconcile"
	"financas/internal/services"
	"financas/internal/store"
)

// env is what every command runs against.
type env struct {
	cfg    *config.Config
	logger *log.Logger
	ledger *services.LedgerService
	close  func()
}

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin

	// openEnv is replaced in tests.
	openEnv = defaultEnv
)

func defaultEnv(ctx context.Context) (*env, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadConfig()
	if err != nil {
		return nil, err
	}
	// Logs go to stderr so command output stays pipeable.
	logger := cli.SetupLoggerTo(os.Stderr, cfg.LogLevel, log.ComponentCLI)

	backendResult, err := cli.OpenStore(ctx, logger, cfg)
	if err != nil {
		return nil, err
	}
	closers := []func(){func() { _ = backendResult.Close() }}

	var opts []services.Option
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, ledger notifications disabled", log.FieldError, err)
		} else {
			opts = append(opts, services.WithNotifier(client))
			closers = append(closers, func() { _ = client.Close() })
		}
	}

	return &env{
		cfg:    cfg,
		logger: logger,
		ledger: services.NewLedgerService(backendResult.Store, opts...),
		close: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

// withEnv opens the environment, runs fn and maps its error to an exit status.
func withEnv(ctx context.Context, fn func(*env) error) subcommands.ExitStatus {
	e, err := openEnv(ctx)
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer e.close()
	if err := fn(e); err != nil {
		fmt.Fprintln(stderr, describe(err))
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func describe(err error) string {
	switch {
	case errors.Is(err, store.ErrVersionConflict):
		return "Error: the ledger changed since it was loaded; nothing was written. Reload and try again."
	case errors.Is(err, services.ErrStoreUnavailable):
		return fmt.Sprintf("Error: ledger store unavailable: %v", err)
	default:
		return fmt.Sprintf("Error: %v", err)
	}
}

// checkPayer accepts payers listed in PAYERS. An empty list accepts any.
func (e *env) checkPayer(p core.Payer) error {
	if p == "" || len(e.cfg.Payers) == 0 {
		return nil
	}
	for _, allowed := range e.cfg.Payers {
		if string(p) == allowed {
			return nil
		}
	}
	return fmt.Errorf("unknown payer %q (configured: %v)", p, e.cfg.Payers)
}

// filterFlags is shared by commands that select a working set.
type filterFlags struct {
	month    string
	category string
	origin   string
	search   string
}

func (f *filterFlags) filter() reconcile.Filter {
	return reconcile.Filter{
		Month:    f.month,
		Category: core.Category(f.category),
		Origin:   f.origin,
		Search:   f.search,
	}
}

func (f *filterFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.month, "month", "", "Month to select, as YYYY-MM.")
	fs.StringVar(&f.category, "category", "", "Category to select.")
	fs.StringVar(&f.origin, "origin", "", "Origin to select, e.g. Nubank or Manual.")
	fs.StringVar(&f.search, "q", "", "Case-insensitive text searched in description and origin.")
}

// categoryUsage is the -category flag help.
func categoryUsage() string {
	names := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		names = append(names, string(c))
	}
	return "Category, one of: " + strings.Join(names, ", ") + "."
}
