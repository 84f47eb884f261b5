package delivery

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/telemetry"
)

const mergedContentType = "video/mp4"

// streamMerged downloads video and audio into a fresh work item, merges them
// and streams the result. The work item is released on every return path.
func (s *Service) streamMerged(r deliveryRun, video, audio domain.FormatDescriptor) (int64, error) {
	item, err := s.workspace.Allocate(r.title)
	if err != nil {
		return 0, err
	}
	defer s.workspace.Release(item)

	ctx, span := telemetry.Tracer().Start(r.ctx, "delivery.merge")
	defer span.End()
	span.SetAttributes(
		attribute.String("workItem", item.ID),
		attribute.String("video.format", video.Identifier),
		attribute.String("audio.format", audio.Identifier),
	)
	logger := s.logger.With(slog.String("workItem", item.ID))

	fail := func(stage string, err error) (int64, error) {
		span.RecordError(err)
		span.SetStatus(codes.Error, stage)
		logger.Warn("merge stage failed", slog.String("stage", stage), slog.String("error", err.Error()))
		return 0, err
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return s.downloadTo(gctx, r.meta, video, item.VideoPath)
	})
	g.Go(func() error {
		return s.downloadTo(gctx, r.meta, audio, item.AudioPath)
	})
	if err := g.Wait(); err != nil {
		return fail("download", err)
	}
	metrics.MergeStageDuration.WithLabelValues("download").Observe(time.Since(start).Seconds())
	logger.Debug("tracks downloaded", slog.Duration("elapsed", time.Since(start)))

	start = time.Now()
	err = s.transcoder.Merge(ctx, domain.MergeJob{
		VideoPath:  item.VideoPath,
		AudioPath:  item.AudioPath,
		OutputPath: item.OutputPath,
		VideoTrack: video,
		AudioTrack: audio,
	})
	if err != nil {
		return fail("transcode", domain.WrapTranscode(err))
	}
	metrics.MergeStageDuration.WithLabelValues("transcode").Observe(time.Since(start).Seconds())

	fsys := s.workspace.Fs()
	info, err := fsys.Stat(item.OutputPath)
	if err != nil {
		return fail("transcode", domain.WrapTranscode(fmt.Errorf("merged output missing: %w", err)))
	}
	out, err := fsys.Open(item.OutputPath)
	if err != nil {
		return fail("stream", fmt.Errorf("%w: open merged output: %v", domain.ErrWorkspace, err))
	}
	defer out.Close()
	logger.Info("merge complete", slog.String("size", humanize.Bytes(uint64(info.Size()))))

	start = time.Now()
	setAttachmentHeaders(r.w, mergedContentType, r.title+".mp4", info.Size())
	r.w.WriteHeader(http.StatusOK)
	written, err := io.Copy(r.w, out)
	metrics.MergeStageDuration.WithLabelValues("stream").Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "stream")
		return written, domain.WrapStreaming(err)
	}
	return written, nil
}

// downloadTo copies one remote track into path on the workspace filesystem.
func (s *Service) downloadTo(ctx context.Context, meta domain.VideoMetadata, format domain.FormatDescriptor, path string) error {
	body, size, err := s.source.Open(ctx, meta, format)
	if err != nil {
		return domain.WrapUpstream(err)
	}
	defer body.Close()

	f, err := s.workspace.Fs().Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %v", domain.ErrWorkspace, path, err)
	}
	written, copyErr := io.Copy(f, body)
	closeErr := f.Close()
	if copyErr != nil {
		return domain.WrapUpstream(fmt.Errorf("download format %s: %w", format.Identifier, copyErr))
	}
	if closeErr != nil {
		return fmt.Errorf("%w: close %s: %v", domain.ErrWorkspace, path, closeErr)
	}
	if size > 0 && written != size {
		return domain.WrapUpstream(fmt.Errorf("download format %s: got %d of %d bytes", format.Identifier, written, size))
	}
	return nil
}
