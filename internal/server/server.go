package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/nightrate/internal/errors"
	"github.com/agbru/nightrate/internal/logging"
	"github.com/agbru/nightrate/internal/predict"
	"github.com/agbru/nightrate/internal/sysmon"
)

const (
	// IndexPath is the route proxied to the prediction server.
	IndexPath = "/api/index"

	defaultReadTimeout     = 15 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 10 * time.Second
	healthTimeout          = 3 * time.Second
	hostSampleInterval     = 5 * time.Second
)

// Config configures the gateway.
type Config struct {
	// Listen is the address to bind, e.g. ":3000".
	Listen string
	// Upstream is the prediction server URL; IndexPath is rewritten to its path.
	Upstream        string
	Version         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	Security        SecurityConfig
}

// HealthChecker reports the health of the prediction server.
type HealthChecker interface {
	Health(ctx context.Context) (predict.HealthStatus, error)
}

// Server is the HTTP gateway.
type Server struct {
	cfg      Config
	upstream *url.URL
	proxy    *httputil.ReverseProxy
	health   HealthChecker
	host     *sysmon.Sampler
	metrics  *Metrics
	logger   logging.Logger
	newID    func() string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(l logging.Logger) Option { return func(s *Server) { s.logger = l } }

// WithHealthChecker replaces the upstream health check.
func WithHealthChecker(h HealthChecker) Option { return func(s *Server) { s.health = h } }

// WithMetrics replaces the metrics set.
func WithMetrics(m *Metrics) Option { return func(s *Server) { s.metrics = m } }

// New creates a gateway for cfg. Zero timeouts take defaults.
func New(cfg Config, opts ...Option) (*Server, error) {
	upstream, err := url.Parse(cfg.Upstream)
	if err != nil || upstream.Scheme == "" || upstream.Host == "" {
		return nil, apperrors.NewConfigError("invalid upstream URL %q", cfg.Upstream)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = defaultReadTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = defaultWriteTimeout
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = defaultShutdownTimeout
	}

	s := &Server{
		cfg:      cfg,
		upstream: upstream,
		logger:   logging.Nop(),
		newID:    uuid.NewString,
		host:     sysmon.NewSampler(hostSampleInterval),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics()
	}
	if err := s.metrics.RegisterHost(s.host); err != nil {
		return nil, fmt.Errorf("register host metrics: %w", err)
	}
	if s.health == nil {
		s.health = predict.New(cfg.Upstream)
	}
	s.proxy = &httputil.ReverseProxy{
		Rewrite:      s.rewrite,
		ErrorHandler: s.proxyError,
	}
	return s, nil
}

// Metrics returns the server's metrics set.
func (s *Server) Metrics() *Metrics { return s.metrics }

// Handler returns the gateway's routes wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	route := func(path string, h http.HandlerFunc) {
		mux.HandleFunc(path, SecurityMiddleware(s.cfg.Security, s.metricsMiddleware(h)))
	}
	route(IndexPath, s.handleIndex)
	route("/health", s.handleHealth)
	route("/metrics", s.handleMetrics)
	return mux
}

// Run listens on cfg.Listen and serves until ctx is done.
func (s *Server) Run(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.cfg.ReadTimeout,
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("gateway listening",
			logging.String("addr", ln.Addr().String()),
			logging.String("upstream", s.upstream.String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.ShutdownTimeout)
		defer cancel()
		s.logger.Info("gateway shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// rewrite points the outbound request at the upstream root.
func (s *Server) rewrite(r *httputil.ProxyRequest) {
	r.SetURL(s.upstream)
	r.Out.URL.Path = s.upstream.Path
	r.Out.URL.RawPath = s.upstream.RawPath
	r.SetXForwarded()
	if r.Out.Header.Get(predict.RequestIDHeader) == "" {
		r.Out.Header.Set(predict.RequestIDHeader, s.newID())
	}
}

func (s *Server) proxyError(w http.ResponseWriter, r *http.Request, err error) {
	s.metrics.UpstreamError()
	s.logger.Error("upstream request failed", err,
		logging.String("upstream", s.upstream.String()),
		logging.String(predict.RequestIDHeader, r.Header.Get(predict.RequestIDHeader)))

	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "request body too large"})
		return
	}
	writeJSON(w, http.StatusBadGateway, errorBody{Error: "prediction service unavailable"})
}

// handleIndex proxies POST /api/index.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.methodNotAllowed(w, r, http.MethodPost)
		return
	}
	s.proxy.ServeHTTP(w, r)
}

type upstreamHealth struct {
	Status             string `json:"status"`
	ModelLoaded        bool   `json:"model_loaded"`
	PreprocessorLoaded bool   `json:"preprocessor_loaded"`
	Message            string `json:"message,omitempty"`
	Error              string `json:"error,omitempty"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Version  string         `json:"version,omitempty"`
	Upstream upstreamHealth `json:"upstream"`
	Host     sysmon.Stats   `json:"host"`
}

// handleHealth serves GET /health. The gateway is degraded when the
// upstream is unreachable or reports anything but a loaded model.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.methodNotAllowed(w, r, http.MethodGet)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := healthResponse{Status: "ok", Version: s.cfg.Version, Host: s.host.Stats()}
	hs, err := s.health.Health(ctx)
	switch {
	case err != nil:
		resp.Status = "degraded"
		resp.Upstream = upstreamHealth{Status: "unreachable", Error: err.Error()}
	default:
		resp.Upstream = upstreamHealth{
			Status:             hs.Status,
			ModelLoaded:        hs.ModelLoaded,
			PreprocessorLoaded: hs.PreprocessorLoaded,
			Message:            hs.Message,
		}
		if !strings.EqualFold(hs.Status, "healthy") || !hs.ModelLoaded {
			resp.Status = "degraded"
		}
	}

	code := http.StatusOK
	if resp.Status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, resp)
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) methodNotAllowed(w http.ResponseWriter, r *http.Request, allow string) {
	if s.logger != nil {
		s.logger.Warn("method not allowed",
			logging.String("method", r.Method),
			logging.String("path", r.URL.Path))
	}
	w.Header().Set("Allow", allow)
	writeJSON(w, http.StatusMethodNotAllowed, errorBody{Error: "method not allowed"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
