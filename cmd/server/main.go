package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	apihttp "github.com/NeerajX-code/YtubVideo-Downloader/internal/api/http"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/app"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/delivery"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain/ports"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/resolver"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/telemetry"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/transcode"
)

const serviceName = "ytdl"

func main() {
	dotEnvErr := app.LoadDotEnv(".env")
	cfg := app.LoadConfig()
	logger := newLogger(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	if dotEnvErr != nil {
		logger.Warn(".env not loaded", slog.String("error", dotEnvErr.Error()))
	}
	metrics.Register(prometheus.DefaultRegisterer)

	shutdownTracer, err := telemetry.Init(context.Background(), serviceName, cfg.OTELExporterEndpoint)
	if err != nil {
		logger.Warn("otel init failed", slog.String("error", err.Error()))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	logger.Info("configuration loaded",
		slog.String("service", serviceName),
		slog.String("httpAddr", cfg.HTTPAddr),
		slog.String("logLevel", cfg.LogLevel),
		slog.String("logFormat", cfg.LogFormat),
		slog.String("tempDir", cfg.TempDir),
		slog.String("ffmpeg", cfg.FFmpegPath),
		slog.Int("maxMerges", cfg.MaxMerges),
		slog.Duration("resolverTimeout", cfg.ResolverTimeout),
		slog.Bool("hasRedis", strings.TrimSpace(cfg.RedisURL) != ""),
		slog.Bool("infoCacheDisabled", cfg.InfoCacheDisable),
		slog.String("staticDir", cfg.StaticDir),
	)

	redisClient := connectRedis(cfg.RedisURL, logger)

	youtube := resolver.NewYouTube(resolver.Config{
		HTTPClient:    newResolverHTTPClient(),
		LookupTimeout: cfg.ResolverTimeout,
		Retry:         resolver.DefaultRetryConfig(),
		Logger:        logger,
	})
	ffmpeg := transcode.NewFFmpeg(transcode.Options{
		Binary:        cfg.FFmpegPath,
		VideoCodec:    cfg.VideoCodec,
		AudioCodec:    cfg.AudioCodec,
		Preset:        cfg.FFmpegPreset,
		AudioBitrate:  cfg.AudioBitrate,
		MaxConcurrent: cfg.MaxMerges,
		Logger:        logger,
	})
	workspace := delivery.NewWorkspace(afero.NewOsFs(), cfg.TempDir, logger)

	serviceOpts := []delivery.Option{delivery.WithLogger(logger)}
	if cache := buildInfoCache(cfg, redisClient); cache != nil {
		serviceOpts = append(serviceOpts, delivery.WithInfoCache(cache))
	}
	service := delivery.NewService(resolver.NewCoalesced(youtube), youtube, ffmpeg, workspace, serviceOpts...)

	var windowStore apihttp.WindowStore = apihttp.NewMemoryWindowStore()
	if redisClient != nil {
		windowStore = apihttp.NewRedisWindowStore(redisClient)
	}
	handler := apihttp.NewServer(service,
		apihttp.WithLogger(logger),
		apihttp.WithAllowedOrigins(cfg.CORSAllowedOrigins),
		apihttp.WithTrustedProxies(cfg.TrustedProxies),
		apihttp.WithStaticDir(cfg.StaticDir),
		apihttp.WithGlobalRateLimit(cfg.GlobalRPS, cfg.GlobalBurst),
		apihttp.WithClientRateLimit(windowStore, cfg.RateLimitMax, cfg.RateLimitWindow),
		apihttp.WithDownloadRateLimit(windowStore, cfg.DownloadLimitMax, cfg.DownloadLimitWindow),
	).Handler()

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Merged downloads stream for as long as the client keeps reading.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	logger.Info("download service started", slog.String("addr", cfg.HTTPAddr))

	select {
	case <-rootCtx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", slog.String("error", err.Error()))
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	logger.Info("download service stopped")
}

// newResolverHTTPClient has no overall timeout because the same client
// streams media; lookups are bounded by the resolver's own deadline.
func newResolverHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ForceAttemptHTTP2 = true
	transport.ResponseHeaderTimeout = 30 * time.Second
	return &http.Client{Transport: otelhttp.NewTransport(transport)}
}

func connectRedis(rawURL string, logger *slog.Logger) *redis.Client {
	redisURL := strings.TrimSpace(rawURL)
	if redisURL == "" {
		return nil
	}
	redisOpts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("invalid redis url, using in-memory state only", slog.String("error", err.Error()))
		return nil
	}
	client := redis.NewClient(redisOpts)
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not reachable, using in-memory state only", slog.String("error", err.Error()))
		_ = client.Close()
		return nil
	}
	logger.Info("redis connected", slog.String("addr", redisOpts.Addr))
	return client
}

func buildInfoCache(cfg app.Config, redisClient *redis.Client) ports.InfoCache {
	if cfg.InfoCacheDisable {
		return nil
	}
	if redisClient != nil {
		return resolver.NewRedisInfoCache(redisClient, cfg.InfoCacheTTL)
	}
	return resolver.NewMemoryInfoCache(cfg.InfoCacheTTL, 0)
}

func newLogger(levelRaw, formatRaw string) *slog.Logger {
	level := parseLogLevel(levelRaw)
	options := &slog.HandlerOptions{Level: level}
	format := strings.ToLower(strings.TrimSpace(formatRaw))
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, options))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, options))
}

func parseLogLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
