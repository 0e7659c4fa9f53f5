// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"

	"financas/internal/cache"
	"financas/internal/categorize"
	"financas/internal/core"
	"financas/internal/importer"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
	"financas/internal/summary"
)

const (
	loadTimeout           = 15 * time.Second
	defaultMaxUploadBytes = 5 << 20
)

// Options carries the household settings the handlers need.
type Options struct {
	// Payers accepted on writes. Empty accepts any payer.
	Payers          []core.Payer
	Ceilings        []summary.Ceiling
	ProjectedIncome decimal.Decimal

	CacheSize int
	CacheTTL  time.Duration

	Categorizer    *categorize.Categorizer
	Today          func() core.Date
	MaxUploadBytes int64
	RateLimit      ratelimit.Config
	TrustedProxies []string
}

func (o Options) withDefaults() Options {
	if o.CacheSize <= 0 {
		o.CacheSize = 64
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = 10 * time.Minute
	}
	if o.Categorizer == nil {
		o.Categorizer = categorize.Default()
	}
	if o.Today == nil {
		o.Today = core.Today
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = defaultMaxUploadBytes
	}
	return o
}

type Server struct {
	http.Server
	ledger   *services.LedgerService
	opts     Options
	logger   *log.Logger
	events   *log.StructuredLogger
	validate *validator.Validate

	// Concurrent reads share one store load.
	loads     singleflight.Group
	summaries *cache.LRUCache[summary.Report]
	caches    *cache.Manager

	limiter  *ratelimit.Limiter
	detector *security.Detector
	tracer   *trace.Middleware

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, svc *services.LedgerService, logger *log.Logger, opts Options) *Server {
	opts = opts.withDefaults()
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		ledger:    svc,
		opts:      opts,
		logger:    logger,
		events:    log.NewStructuredLogger(logger),
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		summaries: cache.NewLRUCache[summary.Report](opts.CacheSize, opts.CacheTTL),
		caches:    cache.NewManager(),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		detector:  security.NewDetector(),
		started:   time.Now(),
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}
	s.tracer = trace.NewMiddleware(logger, s.detector.ExtractClientIP)
	s.caches.Register(s.summaries)
	s.caches.StartCleanup(opts.CacheTTL)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/ledger", s.handleWorkingSet)
	mux.HandleFunc("PUT /api/ledger", s.handleSaveWorkingSet)
	mux.HandleFunc("DELETE /api/ledger", s.handleReset)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("POST /api/imports/bank", s.handleImportPreview(importer.ShapeBank))
	mux.HandleFunc("POST /api/imports/sheet", s.handleImportPreview(importer.ShapeAnnualSheet))
	mux.HandleFunc("POST /api/imports/confirm", s.handleConfirmImport)
	mux.HandleFunc("POST /api/recurring", s.handleRecurring)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("GET /api/months", s.handleMonths)
	mux.HandleFunc("GET /api/categories", s.handleCategories)
	mux.HandleFunc("GET /api/export", s.handleExport)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", "").Write(w)
	})(h)
	h = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(h)
	h = log.RequestIDMiddleware(trace.GetRequestID)(h)
	h = s.tracer.Middleware(h)
	h = log.Middleware(logger)(h)
	h = s.detector.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// snapshot loads the ledger, sharing one store round trip between concurrent
// callers. The returned rows are shared and must not be modified.
func (s *Server) snapshot(ctx context.Context) (services.Ledger, error) {
	v, err, shared := s.loads.Do("ledger", func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return s.ledger.Snapshot(lctx)
	})
	if err != nil {
		return services.Ledger{}, err
	}
	if shared {
		log.FromContext(ctx).DebugContext(ctx, "Ledger load shared")
	}
	return v.(services.Ledger), nil
}

// report returns the month report at the ledger's current version.
func (s *Server) report(ctx context.Context, l services.Ledger, month string, income decimal.Decimal) summary.Report {
	key := cache.Key(l.Version, month, income.String())
	if r, ok := s.summaries.Get(key); ok {
		return r
	}
	r := summary.Build(l.Rows, month, s.opts.Ceilings, income)
	s.summaries.Set(key, r)
	log.FromContext(ctx).DebugContext(ctx, "Summary computed",
		log.FieldVersion, l.Version,
		log.FieldMonth, r.Month)
	return r
}
