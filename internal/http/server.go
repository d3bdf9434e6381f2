// Package http exposes the ledger as a JSON API.
package http

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/classifier"
	"fintrack/internal/core"
	"fintrack/internal/insights"
	"fintrack/internal/ledger"
	applog "fintrack/internal/log"
)

// Ledger is the engine surface the handlers call.
type Ledger interface {
	CreateAccount(ctx context.Context, userID int64, p ledger.CreateAccountParams) (*core.Account, error)
	Account(ctx context.Context, userID, id int64) (*core.Account, error)
	Accounts(ctx context.Context, userID int64) ([]core.Account, error)
	UpdateAccount(ctx context.Context, userID, id int64, p ledger.UpdateAccountParams) (*core.Account, error)
	DeleteAccount(ctx context.Context, userID, id int64) error

	CreateTransaction(ctx context.Context, userID int64, p ledger.CreateTransactionParams) (*core.Transaction, error)
	Transaction(ctx context.Context, userID, id int64) (*core.Transaction, error)
	Transactions(ctx context.Context, filter core.TransactionFilter) ([]core.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, p ledger.UpdateTransactionParams) (*core.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error

	Summarize(ctx context.Context, filter core.TransactionFilter) (core.Summary, error)
	BulkCategorize(ctx context.Context, userID int64, ids []int64) (map[int64]core.Category, error)
}

// UserStore is the repository surface for registration and login.
type UserStore interface {
	CreateUser(ctx context.Context, u *core.User) error
	UserByEmail(ctx context.Context, email string) (*core.User, error)
}

// Insights builds a spending report for one owner.
type Insights interface {
	Generate(ctx context.Context, userID int64) (insights.Report, error)
}

// Suggester exposes the classifier for ad-hoc category suggestions.
type Suggester interface {
	Enabled() bool
	ClassifyWithOrigin(ctx context.Context, description string, amount decimal.Decimal, merchant string) (core.Category, classifier.Origin)
}

type Server struct {
	http.Server
	ledger      Ledger
	users       UserStore
	insights    Insights
	suggester   Suggester
	logger      *applog.Logger
	rateLimiter *rateLimiter

	// Summary responses are memoized per owner and invalidated by writes.
	summaryCache *cache.LRUCache[core.Summary]
	cacheManager *cache.Manager

	shutdownOnce sync.Once
}

func NewServer(addr string, lg Ledger, users UserStore, ins Insights, sug Suggester, logger *applog.Logger) *Server {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		ledger:       lg,
		users:        users,
		insights:     ins,
		suggester:    sug,
		logger:       logger,
		rateLimiter:  newRateLimiter(),
		summaryCache: cache.NewLRUCache[core.Summary](200, 5*time.Minute),
		cacheManager: cache.NewManager(),
	}
	s.cacheManager.Register(s.summaryCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", handleReady)

	mux.HandleFunc("POST /api/users", s.secure(s.handleRegister))
	mux.HandleFunc("POST /api/login", s.secure(s.handleLogin))

	mux.HandleFunc("POST /api/accounts", s.secure(s.withUser(s.handleCreateAccount)))
	mux.HandleFunc("GET /api/accounts", s.secure(s.withUser(s.handleListAccounts)))
	mux.HandleFunc("GET /api/accounts/{id}", s.secure(s.withUser(s.handleGetAccount)))
	mux.HandleFunc("PUT /api/accounts/{id}", s.secure(s.withUser(s.handleUpdateAccount)))
	mux.HandleFunc("DELETE /api/accounts/{id}", s.secure(s.withUser(s.handleDeleteAccount)))

	mux.HandleFunc("POST /api/transactions", s.secure(s.withUser(s.handleCreateTransaction)))
	mux.HandleFunc("GET /api/transactions", s.secure(s.withUser(s.handleListTransactions)))
	mux.HandleFunc("GET /api/transactions/{id}", s.secure(s.withUser(s.handleGetTransaction)))
	mux.HandleFunc("PUT /api/transactions/{id}", s.secure(s.withUser(s.handleUpdateTransaction)))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.secure(s.withUser(s.handleDeleteTransaction)))
	mux.HandleFunc("POST /api/transactions/categorize", s.secure(s.withUser(s.handleBulkCategorize)))

	mux.HandleFunc("GET /api/summary", s.secure(s.withUser(s.handleSummary)))
	mux.HandleFunc("GET /api/insights", s.secure(s.withUser(s.handleInsights)))

	mux.HandleFunc("POST /api/ai/categorize", s.secure(s.withUser(s.handleSuggestCategory)))
	mux.HandleFunc("GET /api/ai/categories", s.secure(s.withUser(s.handleListCategories)))

	return s
}

// secure adds security headers, rate limiting on writes, and request
// logging around a handler.
func (s *Server) secure(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		ctx := r.Context()

		if r.Method != http.MethodGet && !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				applog.FieldClientIP, clientIP,
				applog.FieldMethod, r.Method,
				applog.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.InfoContext(ctx, "Request completed",
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds(),
			applog.FieldClientIP, clientIP)
	}
}

// withUser resolves the owner from the X-User-ID header and passes it on.
// Every /api route below the auth endpoints is owner-scoped.
func (s *Server) withUser(next func(http.ResponseWriter, *http.Request, int64)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := parseUserHeader(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "missing or malformed X-User-ID header")
			return
		}
		next(w, r, userID)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		s.rateLimiter.stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// invalidateSummaries drops every cached summary for the owner after a
// write touches their ledger.
func (s *Server) invalidateSummaries(userID int64) {
	s.summaryCache.DeletePrefix(summaryKeyPrefix(userID))
}

func summaryKeyPrefix(userID int64) string {
	return "summary:" + strconv.FormatInt(userID, 10) + ":"
}
