package ports

import (
	"context"
	"io"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

// Resolver turns a canonical video URL into metadata and advertised formats.
type Resolver interface {
	// Validate rejects URLs the resolver cannot handle. It performs no I/O.
	Validate(rawURL string) error
	Lookup(ctx context.Context, rawURL string) (domain.VideoMetadata, error)
}

// StreamSource opens byte streams for formats of already resolved media.
type StreamSource interface {
	// BestAudio picks the highest quality audio-only stream of the video.
	BestAudio(meta domain.VideoMetadata) (domain.FormatDescriptor, error)
	Open(ctx context.Context, meta domain.VideoMetadata, format domain.FormatDescriptor) (io.ReadCloser, int64, error)
}

type Transcoder interface {
	Merge(ctx context.Context, job domain.MergeJob) error
}

// InfoCache stores /info payloads keyed by canonical URL.
type InfoCache interface {
	Get(ctx context.Context, key string) (domain.VideoInfo, bool, error)
	Set(ctx context.Context, key string, info domain.VideoInfo) error
}
