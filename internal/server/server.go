package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/simonvc/ledgersync/internal/book"
	"github.com/simonvc/ledgersync/internal/ledger"
)

// AccountStore manages the chart of accounts. *store.Store satisfies it.
type AccountStore interface {
	CreateAccount(ctx context.Context, acct ledger.Account) error
	GetAccount(ctx context.Context, code string) (*ledger.Account, error)
	ListAccounts(ctx context.Context) ([]ledger.Account, error)
	DeleteAccount(ctx context.Context, code string) error
	ListAllSettings(ctx context.Context) ([]ledger.CoASetting, error)
	UpsertSetting(ctx context.Context, setting ledger.CoASetting) error
	DeleteSetting(ctx context.Context, code string, name ledger.SettingName) error
}

type Server struct {
	book     *book.Service
	accounts AccountStore
	logger   *zap.Logger
	router   chi.Router
	addr     string
	http     *http.Server
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

func New(svc *book.Service, accounts AccountStore, addr string, opts ...Option) *Server {
	r := chi.NewRouter()
	s := &Server{book: svc, accounts: accounts, router: r, addr: addr, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Journal entries
		r.Post("/entries", s.createEntry)
		r.Post("/entries/quick", s.quickEntry)
		r.Get("/entries", s.listEntries)
		r.Get("/entries/{id}", s.getEntry)
		r.Post("/entries/{id}/approve", s.approveEntry)
		r.Post("/entries/{id}/post", s.postEntry)
		r.Delete("/entries/{id}", s.deleteEntry)
		r.Post("/validate", s.validate)

		// Merged row set
		r.Get("/rows", s.listRows)
		r.Post("/rows", s.addManualRows)
		r.Post("/rows/overlay", s.addOverlayRows)
		r.Delete("/rows", s.deleteRow)

		// Reports
		r.Get("/reports/trial-balance", s.trialBalance)
		r.Get("/reports/balance-sheet", s.balanceSheet)
		r.Get("/reports/profit-loss", s.profitAndLoss)
		r.Get("/reports/general-ledger", s.generalLedger)

		r.Get("/advisor/suggest", s.suggest)
		r.Post("/sequence/next", s.nextNumber)
		r.Post("/sync/scan", s.scan)
		r.Get("/sync/status", s.syncStatus)

		// Chart of accounts
		r.Get("/chart", s.getChart)
		r.Post("/accounts", s.createAccount)
		r.Get("/accounts", s.listAccounts)
		r.Get("/accounts/{code}", s.getAccount)
		r.Delete("/accounts/{code}", s.deleteAccount)

		// CoA code settings
		r.Get("/settings", s.listSettings)
		r.Put("/settings/{code}/{setting}", s.upsertSetting)
		r.Delete("/settings/{code}/{setting}", s.deleteSetting)
	})

	return s
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("took", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}

func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ln)
}

func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("ledgersync server listening", zap.String("addr", ln.Addr().String()))
	s.http = &http.Server{Handler: s.router, ReadHeaderTimeout: 10 * time.Second}
	if err := s.http.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func (s *Server) Handler() http.Handler {
	return s.router
}
