package chat

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/zombor/receipt-chat/internal/benchmark"
)

// Benchmarker runs and reads accuracy benchmarks
type Benchmarker interface {
	Run() (*benchmark.Run, error)
	ListRuns() ([]*benchmark.Run, error)
	GetRun(id string) (*benchmark.Run, error)
}

// BasicAuth holds basic authentication credentials
type BasicAuth struct {
	Username string
	Password string
}

// Options configures a Server. Zero values disable the feature.
type Options struct {
	BasicAuth BasicAuth

	// UploadRate limits receipt uploads per second across all clients
	UploadRate  rate.Limit
	UploadBurst int

	Benchmarks Benchmarker
	Logger     *zap.Logger
}

// Server handles HTTP requests for chat sessions
type Server struct {
	service    *Service
	basicAuth  BasicAuth
	uploads    *rate.Limiter
	benchmarks Benchmarker
	logger     *zap.Logger
	mux        *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, opts Options) *Server {
	return NewServerWithMux(service, opts, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, opts Options, mux *http.ServeMux) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		service:    service,
		basicAuth:  opts.BasicAuth,
		benchmarks: opts.Benchmarks,
		logger:     logger,
		mux:        mux,
	}
	if opts.UploadRate > 0 {
		burst := opts.UploadBurst
		if burst < 1 {
			burst = 1
		}
		s.uploads = rate.NewLimiter(opts.UploadRate, burst)
	}
	s.registerRoutes()
	return s
}

// authenticate checks basic auth credentials
func (s *Server) authenticate(r *http.Request) bool {
	if s.basicAuth.Username == "" && s.basicAuth.Password == "" {
		return true // No auth required if not configured
	}

	auth := r.Header.Get("Authorization")
	if !strings.HasPrefix(auth, "Basic ") {
		return false
	}

	decoded, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(auth, "Basic "))
	if err != nil {
		return false
	}

	credentials := strings.SplitN(string(decoded), ":", 2)
	if len(credentials) != 2 {
		return false
	}

	return credentials[0] == s.basicAuth.Username && credentials[1] == s.basicAuth.Password
}

// corsMiddleware adds CORS headers to every response and answers preflights
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		setCORSHeaders(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireAuth middleware
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.authenticate(r) {
			w.Header().Set("WWW-Authenticate", `Basic realm="Receipt Chat"`)
			writeError(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next(w, r)
	}
}

// throttleUploads rejects uploads above the configured rate
func (s *Server) throttleUploads(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.uploads != nil && !s.uploads.Allow() {
			w.Header().Set("Retry-After", "1")
			writeError(w, "Too many uploads. Please wait and try again.", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

// registerRoutes registers all API routes on the server's mux
func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /api/sessions/{id}/messages", s.requireAuth(s.handleListMessages))
	s.mux.HandleFunc("POST /api/sessions/{id}/messages", s.requireAuth(s.handleAsk))
	s.mux.HandleFunc("GET /api/sessions/{id}/file", s.requireAuth(s.handleGetSessionFile))
	s.mux.HandleFunc("GET /api/sessions/{id}", s.requireAuth(s.handleGetSession))
	s.mux.HandleFunc("DELETE /api/sessions/{id}", s.requireAuth(s.handleDeleteSession))
	s.mux.HandleFunc("POST /api/sessions", s.requireAuth(s.throttleUploads(s.handleUpload)))

	s.mux.HandleFunc("GET /api/benchmarks/{id}", s.requireAuth(s.handleGetBenchmark))
	s.mux.HandleFunc("GET /api/benchmarks", s.requireAuth(s.handleListBenchmarks))
	s.mux.HandleFunc("POST /api/benchmarks", s.requireAuth(s.handleRunBenchmark))
}

// shutdownTimeout bounds how long in-flight requests get to finish
const shutdownTimeout = 10 * time.Second

// Start listens on addr and serves until ctx is done
func (s *Server) Start(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	s.logger.Info("Starting server", zap.String("address", ln.Addr().String()))
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is done, then shuts down
// gracefully. It returns nil after a clean shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{Handler: s, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serving: %w", err)
	}
	s.logger.Info("Server stopped")
	return nil
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.corsMiddleware(s.mux).ServeHTTP(w, r)
}
