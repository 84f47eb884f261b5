package resolver

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain/ports"
)

// Coalesced shares one in-flight lookup between concurrent callers asking for
// the same URL. Results are not cached beyond the lookup itself.
type Coalesced struct {
	inner ports.Resolver
	group singleflight.Group
}

func NewCoalesced(inner ports.Resolver) *Coalesced {
	return &Coalesced{inner: inner}
}

func (c *Coalesced) Validate(rawURL string) error {
	return c.inner.Validate(rawURL)
}

func (c *Coalesced) Lookup(ctx context.Context, rawURL string) (domain.VideoMetadata, error) {
	// The shared lookup must outlive any single caller that disconnects.
	ch := c.group.DoChan(rawURL, func() (any, error) {
		return c.inner.Lookup(context.WithoutCancel(ctx), rawURL)
	})
	select {
	case <-ctx.Done():
		return domain.VideoMetadata{}, domain.WrapUpstream(ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return domain.VideoMetadata{}, res.Err
		}
		return res.Val.(domain.VideoMetadata), nil
	}
}
