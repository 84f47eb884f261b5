package apihttp

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

type DeliveryService interface {
	ParseIntent(rawURL, quality, deliveryType string) (domain.RequestIntent, error)
	Info(ctx context.Context, rawURL string) (domain.VideoInfo, error)
	Formats(ctx context.Context, rawURL string) ([]domain.FormatDescriptor, error)
	Download(ctx context.Context, w http.ResponseWriter, intent domain.RequestIntent) error
}

type limitConfig struct {
	store  WindowStore
	max    int
	window time.Duration
}

type Server struct {
	service        DeliveryService
	logger         *slog.Logger
	allowedOrigins []string
	staticDir      string
	globalRPS      float64
	globalBurst    int
	general        limitConfig
	download       limitConfig
	trustedProxies []string
	handler        http.Handler
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAllowedOrigins configures the CORS allowed origins whitelist.
// When empty (default), any origin is permitted.
func WithAllowedOrigins(origins []string) ServerOption {
	return func(s *Server) {
		s.allowedOrigins = origins
	}
}

// WithStaticDir serves a front-end from dir for paths not handled by the API.
func WithStaticDir(dir string) ServerOption {
	return func(s *Server) {
		s.staticDir = strings.TrimSpace(dir)
	}
}

func WithGlobalRateLimit(rps float64, burst int) ServerOption {
	return func(s *Server) {
		s.globalRPS = rps
		s.globalBurst = burst
	}
}

// WithClientRateLimit bounds every API request per client IP.
func WithClientRateLimit(store WindowStore, limit int, window time.Duration) ServerOption {
	return func(s *Server) {
		s.general = limitConfig{store: store, max: limit, window: window}
	}
}

// WithDownloadRateLimit bounds /download requests per client IP.
func WithDownloadRateLimit(store WindowStore, limit int, window time.Duration) ServerOption {
	return func(s *Server) {
		s.download = limitConfig{store: store, max: limit, window: window}
	}
}

// WithTrustedProxies lists proxy addresses or CIDR ranges whose forwarding
// headers are believed when keying per-client limits.
func WithTrustedProxies(proxies []string) ServerOption {
	return func(s *Server) {
		s.trustedProxies = proxies
	}
}

func NewServer(service DeliveryService, opts ...ServerOption) *Server {
	s := &Server{service: service}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	trusted, invalid := parseTrustedProxies(s.trustedProxies)
	for _, entry := range invalid {
		s.logger.Warn("ignoring invalid trusted proxy", slog.String("entry", entry))
	}
	general := newWindowLimiter("general", s.general.store, s.general.max, s.general.window, trusted, s.logger)
	download := newWindowLimiter("download", s.download.store, s.download.max, s.download.window, trusted, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/info", s.handleInfo)
	mux.HandleFunc("/formats", s.handleFormats)
	mux.Handle("/download", download.wrap(http.HandlerFunc(s.handleDownload)))
	if s.staticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))
	} else {
		mux.HandleFunc("/", s.handleNotFound)
	}

	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, general.wrap(mux)), "ytdl",
		otelhttp.WithFilter(func(r *http.Request) bool {
			return !isNoisyPath(r.URL.Path)
		}),
	)
	s.handler = recoveryMiddleware(s.logger,
		rateLimitMiddleware(s.globalRPS, s.globalBurst,
			metricsMiddleware(corsMiddleware(s.allowedOrigins, requestIDMiddleware(traced)))))
	return s
}

func (s *Server) Handler() http.Handler {
	return s.handler
}
