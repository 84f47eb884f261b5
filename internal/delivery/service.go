package delivery

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain/ports"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/resolver"
)

// Service runs the request lifecycle: normalize, validate, resolve, select a
// strategy and deliver.
type Service struct {
	resolver   ports.Resolver
	source     ports.StreamSource
	transcoder ports.Transcoder
	workspace  *Workspace
	cache      ports.InfoCache
	logger     *slog.Logger
}

type Option func(*Service)

// WithInfoCache caches /info payloads. Downloads always resolve fresh since
// stream URLs expire.
func WithInfoCache(cache ports.InfoCache) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(res ports.Resolver, source ports.StreamSource, transcoder ports.Transcoder, workspace *Workspace, opts ...Option) *Service {
	s := &Service{
		resolver:   res,
		source:     source,
		transcoder: transcoder,
		workspace:  workspace,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// deliveryRun carries the per-request state shared by both strategies.
type deliveryRun struct {
	ctx   context.Context
	w     http.ResponseWriter
	meta  domain.VideoMetadata
	title string
}

// ParseIntent normalizes and validates raw request parameters. It performs
// no I/O.
func (s *Service) ParseIntent(rawURL, quality, deliveryType string) (domain.RequestIntent, error) {
	sourceURL, err := s.validURL(rawURL)
	if err != nil {
		return domain.RequestIntent{}, err
	}
	dt, err := domain.ParseDeliveryType(deliveryType)
	if err != nil {
		return domain.RequestIntent{}, err
	}
	return domain.RequestIntent{
		SourceURL:       sourceURL,
		QualitySelector: quality,
		DeliveryType:    dt,
	}, nil
}

func (s *Service) validURL(rawURL string) (string, error) {
	sourceURL := resolver.Normalize(rawURL)
	if err := s.resolver.Validate(sourceURL); err != nil {
		return "", err
	}
	return sourceURL, nil
}

func (s *Service) Info(ctx context.Context, rawURL string) (domain.VideoInfo, error) {
	sourceURL, err := s.validURL(rawURL)
	if err != nil {
		return domain.VideoInfo{}, err
	}

	if s.cache != nil {
		info, found, err := s.cache.Get(ctx, sourceURL)
		if err != nil {
			s.logger.Warn("info cache read failed", slog.String("error", err.Error()))
		}
		if found {
			metrics.CacheHitsTotal.Inc()
			return info, nil
		}
		metrics.CacheMissesTotal.Inc()
	}

	meta, err := s.resolver.Lookup(ctx, sourceURL)
	if err != nil {
		return domain.VideoInfo{}, domain.WrapUpstream(err)
	}
	info := meta.Info()
	if s.cache != nil {
		if err := s.cache.Set(ctx, sourceURL, info); err != nil {
			s.logger.Warn("info cache write failed", slog.String("error", err.Error()))
		}
	}
	return info, nil
}

// Formats lists the formats the resolver advertises for rawURL.
func (s *Service) Formats(ctx context.Context, rawURL string) ([]domain.FormatDescriptor, error) {
	sourceURL, err := s.validURL(rawURL)
	if err != nil {
		return nil, err
	}
	meta, err := s.resolver.Lookup(ctx, sourceURL)
	if err != nil {
		return nil, domain.WrapUpstream(err)
	}
	return meta.Formats, nil
}

// Download writes the requested media to w. A returned error for which
// domain.HeadersSent is true happened mid-body and must not be turned into an
// error response.
func (s *Service) Download(ctx context.Context, w http.ResponseWriter, intent domain.RequestIntent) error {
	start := time.Now()
	meta, err := s.resolver.Lookup(ctx, intent.SourceURL)
	if err != nil {
		return domain.WrapUpstream(err)
	}

	strategy, err := Select(meta.Formats, intent.QualitySelector, intent.DeliveryType, func() (domain.FormatDescriptor, error) {
		return s.source.BestAudio(meta)
	})
	if err != nil {
		return err
	}

	run := deliveryRun{ctx: ctx, w: w, meta: meta, title: SanitizeTitle(meta.Title)}
	logger := s.logger.With(
		slog.String("videoId", meta.ID),
		slog.String("strategy", strategy.Kind.String()),
		slog.String("format", strategy.Primary.Identifier),
		slog.String("type", string(intent.DeliveryType)),
	)

	var written int64
	switch strategy.Kind {
	case MergeStreams:
		written, err = s.streamMerged(run, strategy.Primary, strategy.Audio)
	default:
		written, err = s.streamDirect(run, strategy.Primary)
	}

	label := strategy.Kind.String()
	metrics.DeliveredBytesTotal.WithLabelValues(label).Add(float64(written))
	switch {
	case err == nil:
		metrics.DeliveriesTotal.WithLabelValues(label, "success").Inc()
		logger.Info("delivery complete",
			slog.Int64("bytes", written),
			slog.Duration("elapsed", time.Since(start)),
		)
	case domain.HeadersSent(err):
		metrics.DeliveriesTotal.WithLabelValues(label, "partial").Inc()
		metrics.PartialDeliveriesTotal.WithLabelValues(label).Inc()
		logger.Warn("delivery interrupted after headers were sent",
			slog.Bool("partial", true),
			slog.Int64("bytes", written),
			slog.String("error", err.Error()),
		)
	default:
		metrics.DeliveriesTotal.WithLabelValues(label, "error").Inc()
	}
	return err
}
