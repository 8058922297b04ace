package http

import (
	"context"
	"net/http"
	"sync"
	"time"

	"wallet/internal/cache"
	"wallet/internal/log"
	"wallet/internal/middleware/ratelimit"
	"wallet/internal/middleware/security"
	"wallet/internal/middleware/trace"
	"wallet/internal/rates"
	"wallet/internal/report"
	"wallet/internal/services"
)

// RateInfo reports the exchange rate the wallet currently applies.
type RateInfo interface {
	Info() rates.Info
}

// ReadyCheck is one dependency probed by /readyz.
type ReadyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Deps are the server's collaborators. Wallet is required.
type Deps struct {
	Wallet             *services.Wallet
	Rates              RateInfo
	Insights           report.Generator
	Caches             *cache.Manager
	Ready              []ReadyCheck
	Logger             *log.Logger
	RateLimitPerMinute int
}

type appMetrics struct {
	uptime      time.Time
	mutations   int64
	pdfRendered int64
	cacheHits   int64
	cacheMisses int64
}

// Server serves the JSON API over the wallet.
type Server struct {
	http.Server
	wallet   *services.Wallet
	rates    RateInfo
	insights report.Generator
	ready    []ReadyCheck
	logger   *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware

	// Archived weeks never change, so their PDFs are cached by week id.
	weekPDFCache *cache.LRUCache[[]byte]

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.Discard()
	}
	insights := deps.Insights
	if insights == nil {
		insights = report.Local{}
	}

	s := &Server{
		wallet:           deps.Wallet,
		rates:            deps.Rates,
		insights:         insights,
		ready:            deps.Ready,
		logger:           logger.WithComponent(log.ComponentHTTP),
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		securityDetector: security.NewDetector(logger),
		weekPDFCache:     cache.NewLRUCache[[]byte](50, time.Hour),
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP, logger)
	if deps.Caches != nil {
		deps.Caches.Register(s.weekPDFCache)
	}

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, logger)(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /api/state", s.handleState)
	mux.HandleFunc("GET /api/summary", s.handleSummary)
	mux.HandleFunc("POST /api/transactions", s.handleCreateTransaction)
	mux.HandleFunc("PUT /api/transactions/{id}", s.handleUpdateTransaction)
	mux.HandleFunc("DELETE /api/transactions/{id}", s.handleDeleteTransaction)
	mux.HandleFunc("POST /api/transactions/{id}/toggle", s.handleToggleTransaction)
	mux.HandleFunc("PUT /api/income", s.handleSetIncome)
	mux.HandleFunc("GET /api/week/close", s.handleClosePrompt)
	mux.HandleFunc("POST /api/week/close", s.handleCloseWeek)

	mux.HandleFunc("GET /api/stats", s.handleStats)
	mux.HandleFunc("GET /api/stats/report.pdf", s.handleStatsPDF)
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/history/{id}/report", s.handleHistoryReport)
	mux.HandleFunc("GET /api/history/{id}/report.pdf", s.handleHistoryReportPDF)

	mux.HandleFunc("GET /api/presets", s.handlePresets)
	mux.HandleFunc("POST /api/presets", s.handleAddPreset)
	mux.HandleFunc("DELETE /api/presets/{title}", s.handleRemovePreset)
	mux.HandleFunc("GET /api/titles", s.handleTitles)
	mux.HandleFunc("GET /api/rate", s.handleRate)
}

// Shutdown gracefully shuts down the server and its background routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
