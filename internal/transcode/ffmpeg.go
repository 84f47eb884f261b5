package transcode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"github.com/alessio/shellescape"
	"golang.org/x/sync/semaphore"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
)

const maxStderrTail = 2048

// runFunc executes binary with args. It returns the process's stderr output
// alongside any execution error.
type runFunc func(ctx context.Context, binary string, args []string) ([]byte, error)

type Options struct {
	Binary       string
	VideoCodec   string
	AudioCodec   string
	Preset       string
	AudioBitrate string
	// MaxConcurrent bounds simultaneously running ffmpeg processes.
	MaxConcurrent int
	Logger        *slog.Logger
}

// FFmpeg merges separately downloaded video and audio tracks with an external
// ffmpeg binary.
type FFmpeg struct {
	opts   Options
	sem    *semaphore.Weighted
	run    runFunc
	logger *slog.Logger
}

func NewFFmpeg(opts Options) *FFmpeg {
	opts.Binary = strings.TrimSpace(opts.Binary)
	if opts.Binary == "" {
		opts.Binary = "ffmpeg"
	}
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 2
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &FFmpeg{
		opts:   opts,
		sem:    semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		run:    execRun,
		logger: logger,
	}
}

func (f *FFmpeg) Merge(ctx context.Context, job domain.MergeJob) error {
	if job.VideoPath == "" || job.AudioPath == "" || job.OutputPath == "" {
		return domain.WrapTranscode(errors.New("merge job requires video, audio and output paths"))
	}

	if err := f.sem.Acquire(ctx, 1); err != nil {
		return domain.WrapTranscode(fmt.Errorf("waiting for transcode slot: %w", err))
	}
	defer f.sem.Release(1)
	metrics.TranscodesInFlight.Inc()
	defer metrics.TranscodesInFlight.Dec()

	args := buildMergeArgs(MergeArgConfig{
		VideoPath:    job.VideoPath,
		AudioPath:    job.AudioPath,
		OutputPath:   job.OutputPath,
		VideoCodec:   f.opts.VideoCodec,
		AudioCodec:   f.opts.AudioCodec,
		Preset:       f.opts.Preset,
		AudioBitrate: f.opts.AudioBitrate,
	})
	f.logger.Debug("ffmpeg merge starting",
		slog.String("command", f.opts.Binary+" "+shellescape.QuoteCommand(args)),
		slog.String("videoFormat", job.VideoTrack.Identifier),
		slog.String("audioFormat", job.AudioTrack.Identifier),
	)

	start := time.Now()
	stderr, err := f.run(ctx, f.opts.Binary, args)
	if err != nil {
		if ctx.Err() != nil {
			return domain.WrapTranscode(fmt.Errorf("ffmpeg interrupted: %w", ctx.Err()))
		}
		tail := stderrTail(stderr)
		f.logger.Warn("ffmpeg merge failed",
			slog.String("error", err.Error()),
			slog.String("stderr", tail),
		)
		if tail != "" {
			return domain.WrapTranscode(fmt.Errorf("ffmpeg: %v: %s", err, tail))
		}
		return domain.WrapTranscode(fmt.Errorf("ffmpeg: %w", err))
	}
	f.logger.Debug("ffmpeg merge finished",
		slog.Duration("elapsed", time.Since(start)),
		slog.String("output", job.OutputPath),
	)
	return nil
}

func execRun(ctx context.Context, binary string, args []string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stderr.Bytes(), err
}

func stderrTail(stderr []byte) string {
	text := strings.TrimSpace(string(stderr))
	if len(text) > maxStderrTail {
		text = text[len(text)-maxStderrTail:]
	}
	return text
}
