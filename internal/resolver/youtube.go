package resolver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/kkdai/youtube/v2"
	"github.com/samber/lo"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
)

const defaultLookupTimeout = 20 * time.Second

type Config struct {
	// HTTPClient is shared by lookups and stream downloads, so it should not
	// carry an overall Timeout.
	HTTPClient *http.Client
	// LookupTimeout bounds one metadata lookup including retries.
	LookupTimeout time.Duration
	Retry         RetryConfig
	Logger        *slog.Logger
}

// YouTube resolves watch URLs and opens their streams through kkdai/youtube.
type YouTube struct {
	client        *youtube.Client
	lookupTimeout time.Duration
	retry         RetryConfig
	logger        *slog.Logger
}

func NewYouTube(cfg Config) *YouTube {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	lookupTimeout := cfg.LookupTimeout
	if lookupTimeout <= 0 {
		lookupTimeout = defaultLookupTimeout
	}
	retry := cfg.Retry
	if retry.MaxAttempts == 0 {
		retry = DefaultRetryConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &YouTube{
		client:        &youtube.Client{HTTPClient: httpClient},
		lookupTimeout: lookupTimeout,
		retry:         retry,
		logger:        logger,
	}
}

// Validate accepts http(s) URLs on a YouTube host that carry a video id.
func (y *YouTube) Validate(rawURL string) error {
	raw := strings.TrimSpace(rawURL)
	if raw == "" {
		return fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	switch strings.ToLower(parsed.Scheme) {
	case "http", "https":
	default:
		return fmt.Errorf("%w: unsupported scheme %q", domain.ErrInvalidInput, parsed.Scheme)
	}
	if !isYouTubeHost(parsed.Hostname()) {
		return fmt.Errorf("%w: not a youtube url", domain.ErrInvalidInput)
	}
	if _, ok := videoID(parsed); !ok {
		return fmt.Errorf("%w: missing or malformed video id", domain.ErrInvalidInput)
	}
	return nil
}

func (y *YouTube) Lookup(ctx context.Context, rawURL string) (domain.VideoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, y.lookupTimeout)
	defer cancel()

	start := time.Now()
	var video *youtube.Video
	err := retryWithBackoff(ctx, y.retry, func() error {
		var lookupErr error
		video, lookupErr = y.client.GetVideoContext(ctx, rawURL)
		return lookupErr
	}, func(attempt int, err error) {
		y.logger.Debug("resolver lookup retry",
			slog.String("url", rawURL),
			slog.Int("attempt", attempt),
			slog.String("error", err.Error()),
		)
	})
	metrics.ResolverRequestDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ResolverRequestsTotal.WithLabelValues(lookupStatus(err)).Inc()
		return domain.VideoMetadata{}, domain.WrapUpstream(err)
	}
	metrics.ResolverRequestsTotal.WithLabelValues("ok").Inc()
	return toMetadata(video), nil
}

// BestAudio picks the audio-only format with the highest bitrate, falling
// back to any format that carries audio.
func (y *YouTube) BestAudio(meta domain.VideoMetadata) (domain.FormatDescriptor, error) {
	return bestAudio(meta.Formats)
}

func (y *YouTube) Open(ctx context.Context, meta domain.VideoMetadata, format domain.FormatDescriptor) (io.ReadCloser, int64, error) {
	video, ok := meta.Source.(*youtube.Video)
	if !ok || video == nil {
		return nil, 0, domain.WrapUpstream(errors.New("metadata was not produced by the youtube resolver"))
	}
	itag, err := strconv.Atoi(format.Identifier)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, format.Identifier)
	}
	matches := video.Formats.Itag(itag)
	if len(matches) == 0 {
		return nil, 0, fmt.Errorf("%w: itag %d", domain.ErrUnsupportedFormat, itag)
	}
	stream, size, err := y.client.GetStreamContext(ctx, video, &matches[0])
	if err != nil {
		return nil, 0, domain.WrapUpstream(fmt.Errorf("open itag %d: %w", itag, err))
	}
	return stream, size, nil
}

func toMetadata(video *youtube.Video) domain.VideoMetadata {
	formats := make([]domain.FormatDescriptor, 0, len(video.Formats))
	for _, f := range video.Formats {
		formats = append(formats, toDescriptor(f))
	}
	return domain.VideoMetadata{
		ID:        video.ID,
		Title:     video.Title,
		Thumbnail: largestThumbnail(video.Thumbnails),
		Channel:   video.Author,
		Duration:  video.Duration,
		Formats:   formats,
		Source:    video,
	}
}

func toDescriptor(f youtube.Format) domain.FormatDescriptor {
	return domain.FormatDescriptor{
		Identifier:    strconv.Itoa(f.ItagNo),
		QualityLabel:  f.QualityLabel,
		MimeType:      f.MimeType,
		Bitrate:       f.Bitrate,
		ContentLength: f.ContentLength,
		HasVideoTrack: f.Width > 0 || strings.HasPrefix(f.MimeType, "video/"),
		HasAudioTrack: f.AudioChannels > 0,
	}
}

func largestThumbnail(thumbnails youtube.Thumbnails) string {
	if len(thumbnails) == 0 {
		return ""
	}
	best := lo.MaxBy([]youtube.Thumbnail(thumbnails), func(a, b youtube.Thumbnail) bool {
		return a.Width*a.Height > b.Width*b.Height
	})
	return best.URL
}

func bestAudio(formats []domain.FormatDescriptor) (domain.FormatDescriptor, error) {
	candidates := lo.Filter(formats, func(f domain.FormatDescriptor, _ int) bool {
		return f.HasAudioTrack && !f.HasVideoTrack
	})
	if len(candidates) == 0 {
		candidates = lo.Filter(formats, func(f domain.FormatDescriptor, _ int) bool {
			return f.HasAudioTrack
		})
	}
	if len(candidates) == 0 {
		return domain.FormatDescriptor{}, fmt.Errorf("%w: no audio stream available", domain.ErrUnsupportedFormat)
	}
	return lo.MaxBy(candidates, func(a, b domain.FormatDescriptor) bool {
		return a.Bitrate > b.Bitrate
	}), nil
}

func lookupStatus(err error) string {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, youtube.ErrLoginRequired),
		errors.Is(err, youtube.ErrVideoPrivate),
		errors.Is(err, youtube.ErrNotPlayableInEmbed):
		return "restricted"
	}
	var playability *youtube.ErrPlayabiltyStatus
	if errors.As(err, &playability) {
		return "restricted"
	}
	return "error"
}
