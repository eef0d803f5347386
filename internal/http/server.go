package http

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"financas/internal/auth"
	"financas/internal/cache"
	"financas/internal/core"
	"financas/internal/log"
	"financas/internal/middleware/ratelimit"
	"financas/internal/middleware/security"
	"financas/internal/middleware/trace"
	"financas/internal/services"
)

// AccountStore persists user accounts for signup and login.
type AccountStore interface {
	CreateUser(ctx context.Context, u core.User, passwordHash string) (core.User, error)
	UserByEmail(ctx context.Context, email string) (core.User, string, error)
}

// Pinger reports storage health for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the server's own settings; collaborators come in via Deps.
type Config struct {
	Addr            string
	MetaVerifyToken string
	CronSecret      string
	RateLimit       ratelimit.Config
}

// Deps are the collaborators the handlers need.
type Deps struct {
	Accounts     AccountStore
	Transactions *services.TransactionService
	Bills        *services.BillService
	Reminders    *services.ReminderService
	Pipeline     *services.MessagePipeline
	Tokens       *auth.TokenIssuer
	Storage      Pinger
	Logger       *log.Logger
}

type Server struct {
	http.Server

	accounts     AccountStore
	transactions *services.TransactionService
	bills        *services.BillService
	reminders    *services.ReminderService
	pipeline     *services.MessagePipeline
	tokens       *auth.TokenIssuer
	storage      Pinger
	logger       *log.Logger

	verifyToken string
	cronSecret  string

	rateLimiter *ratelimit.Limiter
	extractor   *security.IPExtractor

	balanceCache *cache.LRU[core.BalanceSummary]
	summaryCache *cache.LRU[core.MonthSummary]

	startedAt    time.Time
	shutdownOnce sync.Once
}

// NewServer wires routes and middleware, returning a ready-to-run server.
func NewServer(cfg Config, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		accounts:     deps.Accounts,
		transactions: deps.Transactions,
		bills:        deps.Bills,
		reminders:    deps.Reminders,
		pipeline:     deps.Pipeline,
		tokens:       deps.Tokens,
		storage:      deps.Storage,
		logger:       deps.Logger.WithComponent(log.ComponentHTTP),

		verifyToken: cfg.MetaVerifyToken,
		cronSecret:  cfg.CronSecret,

		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		extractor:   security.NewIPExtractor(),

		balanceCache: cache.NewLRU[core.BalanceSummary](500, time.Minute),
		summaryCache: cache.NewLRU[core.MonthSummary](500, time.Minute),

		startedAt: time.Now(),
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("POST /api/auth/signup", s.handleSignup)
	mux.HandleFunc("POST /api/auth/login", s.handleLogin)

	mux.HandleFunc("GET /webhook", s.handleWebhookVerify)
	mux.HandleFunc("POST /webhook", s.handleWebhookEvent)

	mux.HandleFunc("POST /api/reminders/dispatch", s.requireCron(s.handleDispatchReminders))

	mux.HandleFunc("POST /api/transactions", s.requireAuth(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions", s.requireAuth(s.handleListTransactions))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.requireAuth(s.handleDeleteTransaction))
	mux.HandleFunc("GET /api/balance", s.requireAuth(s.handleBalance))
	mux.HandleFunc("GET /api/summary", s.requireAuth(s.handleMonthSummary))

	mux.HandleFunc("POST /api/bills/{kind}", s.requireAuth(s.handleCreateBill))
	mux.HandleFunc("GET /api/bills/{kind}", s.requireAuth(s.handleListBills))
	mux.HandleFunc("PATCH /api/bills/{kind}/{id}", s.requireAuth(s.handleUpdateBillStatus))
	mux.HandleFunc("DELETE /api/bills/{kind}/{id}", s.requireAuth(s.handleDeleteBill))

	mux.HandleFunc("POST /api/reminders", s.requireAuth(s.handleCreateReminder))
	mux.HandleFunc("GET /api/reminders", s.requireAuth(s.handleListReminders))

	traceMW := trace.NewMiddleware(s.extractor.ClientIP, deps.Logger)
	handler := security.Headers(security.DefaultHeadersConfig())(
		traceMW.Middleware(
			s.rateLimiter.Middleware(s.extractor.ClientIP)(mux)))

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops background goroutines and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
		"uptime":    time.Since(s.startedAt).String(),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ready"
	httpStatus := http.StatusOK
	checks := map[string]any{}

	if s.storage == nil {
		checks["storage"] = "not_configured"
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else if err := s.storage.Ping(ctx); err != nil {
		checks["storage"] = "failed: " + err.Error()
		status = "not_ready"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["storage"] = "ok"
	}

	checks["rate_limiter"] = map[string]any{
		"active_clients": s.rateLimiter.ActiveClients(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatus)
	json.NewEncoder(w).Encode(map[string]any{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"checks":    checks,
	})
}
