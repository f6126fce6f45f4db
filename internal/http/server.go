package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"finanze/internal/amqp"
	"finanze/internal/cache"
	"finanze/internal/core"
	"finanze/internal/log"
	"finanze/internal/middleware/ratelimit"
	"finanze/internal/middleware/security"
	"finanze/internal/middleware/trace"
	"finanze/internal/report"
	"finanze/internal/storage"
)

// Store is the slice of the repository the API serves from.
type Store interface {
	ListTransactions(ctx context.Context) ([]core.Transaction, error)
	GetTransaction(ctx context.Context, id string) (core.Transaction, error)
	CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	UpdateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error)
	DeleteTransaction(ctx context.Context, id string) error

	ListCategories(ctx context.Context) ([]core.Category, error)
	GetCategory(ctx context.Context, id string) (core.Category, error)
	CreateCategory(ctx context.Context, c core.Category) (core.Category, error)
	UpdateCategory(ctx context.Context, c core.Category) (core.Category, error)
	DeleteCategory(ctx context.Context, id string) error

	ListBudgets(ctx context.Context) ([]core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	DeleteBudget(ctx context.Context, id string) error

	LoadSnapshot(ctx context.Context) (storage.Snapshot, error)
}

// JobPublisher enqueues export jobs. A nil publisher disables the async
// export surface; synchronous downloads keep working.
type JobPublisher interface {
	PublishExportJob(ctx context.Context, msg *amqp.ExportJobMessage) error
}

// Options tunes the server beyond its wiring.
type Options struct {
	CacheSize int
	CacheTTL  time.Duration
	PDF       report.PDFOptions

	// Now supplies the reference time for dashboard aggregations.
	// Defaults to time.Now.
	Now func() time.Time
}

type Server struct {
	http.Server

	store     Store
	publisher JobPublisher
	logger    *log.Logger
	pdfOpts   report.PDFOptions
	now       func() time.Time

	// aggCache holds computed dashboard aggregates. Any successful write
	// purges it wholesale: every aggregate derives from the same
	// transaction set.
	aggCache *cache.LRUCache[any]
	caches   *cache.Manager

	rateLimiter  *ratelimit.Limiter
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, store Store, publisher JobPublisher, logger *log.Logger, opts Options) *Server {
	if opts.CacheSize <= 0 {
		opts.CacheSize = 128
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}

	s := &Server{
		store:       store,
		publisher:   publisher,
		logger:      logger.WithComponent(log.ComponentHTTP),
		pdfOpts:     opts.PDF,
		now:         opts.Now,
		aggCache:    cache.NewLRUCache[any](opts.CacheSize, opts.CacheTTL),
		caches:      cache.NewManager(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.DefaultConfig()),
	}

	s.caches.Register(s.aggCache)
	s.caches.StartCleanup(10 * time.Minute)

	s.Server = http.Server{
		Addr:    addr,
		Handler: s.routes(),
	}

	return s
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/dashboard/summary", s.handleDashboardSummary)
	mux.HandleFunc("GET /api/dashboard/monthly", s.handleDashboardMonthly)
	mux.HandleFunc("GET /api/dashboard/breakdown", s.handleDashboardBreakdown)
	mux.HandleFunc("GET /api/budgets/status", s.handleBudgetStatus)

	mux.HandleFunc("GET /api/reports", s.handleReports)
	mux.HandleFunc("GET /api/reports/export", s.handleExportDownload)
	mux.HandleFunc("POST /api/reports/export", s.handleExportEnqueue)

	mux.HandleFunc("GET /api/transactions", s.handleListTransactions)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /api/transactions/{id}", s.handleGetTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)

	mux.HandleFunc("GET /api/categories", s.handleListCategories)
	mux.HandleFunc("POST /api/categories", s.handleCreateCategory)
	mux.HandleFunc("PUT /api/categories/{id}", s.handleUpdateCategory)
	mux.HandleFunc("DELETE /api/categories/{id}", s.handleDeleteCategory)

	mux.HandleFunc("GET /api/budgets", s.handleListBudgets)
	mux.HandleFunc("POST /api/budgets", s.handleCreateBudget)
	mux.HandleFunc("PUT /api/budgets/{id}", s.handleUpdateBudget)
	mux.HandleFunc("DELETE /api/budgets/{id}", s.handleDeleteBudget)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	tracer := trace.NewMiddleware(clientIP, s.logger)
	limited := s.rateLimiter.Middleware(clientIP, nil)

	var h http.Handler = mux
	h = limited(h)
	h = headers.Middleware(h)
	h = tracer.Middleware(h)
	h = log.Middleware(s.logger)(h)
	return h
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// invalidateAggregates drops cached aggregates after any write.
func (s *Server) invalidateAggregates() {
	s.aggCache.Purge()
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if _, err := s.store.ListCategories(r.Context()); err != nil {
		http.Error(w, "storage not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// clientIP extracts the caller address, honoring proxy headers.
func clientIP(r *http.Request) string {
	if ip := r.Header.Get("X-Forwarded-For"); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}
