package http

import (
	"context"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"grants/internal/core"
	"grants/internal/dashboard"
	"grants/internal/log"
	appweb "grants/web"
)

// DatasetLoader reads everything one dashboard render needs.
type DatasetLoader interface {
	Load(ctx context.Context) (core.Dataset, error)
}

// Pinger is implemented by loaders that can check the store without
// reading it. /readyz uses it when present.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds the page settings and collaborators of a Server.
type Config struct {
	Title       string
	ChartCDNURL string
	Logger      *log.Logger
}

type Server struct {
	http.Server
	loader   DatasetLoader
	renderer *dashboard.Renderer
	title    string
	chartURL string
	logger   *log.StructuredLogger
	metrics  *securityMetrics
	started  time.Time
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(addr string, loader DatasetLoader, renderer *dashboard.Renderer, cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	mux := http.NewServeMux()
	s := &Server{
		loader:   loader,
		renderer: renderer,
		title:    cfg.Title,
		chartURL: cfg.ChartCDNURL,
		logger:   log.NewStructuredLogger(logger),
		metrics:  &securityMetrics{},
		started:  time.Now(),
	}

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", staticCache(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	// GET patterns also answer HEAD; other methods get 405 with an Allow header.
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /api/charts", s.handleCharts)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	headers := NewHeadersMiddleware(DefaultHeadersConfig(cfg.ChartCDNURL))

	var handler http.Handler = mux
	handler = headers.Middleware(handler)
	handler = s.withRequestLogging(handler)
	handler = log.RequestIDMiddleware(func(*http.Request) string { return generateRequestID() })(handler)
	handler = log.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// withRequestLogging logs request start and completion with the client IP
// and flags suspicious requests.
func (s *Server) withRequestLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		clientIP := extractClientIP(r)

		if detectSuspiciousRequest(r, s.metrics) {
			log.FromContext(ctx).WithComponent(log.ComponentSecurity).WarnContext(ctx, "Suspicious request",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path,
				log.FieldUserAgent, r.Header.Get("User-Agent"))
		}

		s.logger.LogHTTPStart(ctx, r, clientIP)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// staticCache adds caching headers for static assets
func staticCache(maxAge int) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if maxAge > 0 {
				w.Header().Set("Cache-Control", fmt.Sprintf("public, max-age=%d", maxAge))
			}
			next.ServeHTTP(w, r)
		})
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
