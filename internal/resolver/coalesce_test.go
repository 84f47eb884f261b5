package resolver

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/domain"
)

type blockingResolver struct {
	calls   atomic.Int32
	release chan struct{}
	err     error
}

func (b *blockingResolver) Validate(string) error { return nil }

func (b *blockingResolver) Lookup(ctx context.Context, rawURL string) (domain.VideoMetadata, error) {
	b.calls.Add(1)
	<-b.release
	if b.err != nil {
		return domain.VideoMetadata{}, b.err
	}
	return domain.VideoMetadata{ID: rawURL, Title: "shared"}, nil
}

func TestCoalescedSharesInFlightLookup(t *testing.T) {
	inner := &blockingResolver{release: make(chan struct{})}
	c := NewCoalesced(inner)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]domain.VideoMetadata, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			meta, err := c.Lookup(context.Background(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ")
			if err != nil {
				t.Errorf("lookup %d: %v", i, err)
			}
			results[i] = meta
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(inner.release)
	wg.Wait()

	if got := inner.calls.Load(); got != 1 {
		t.Fatalf("expected 1 upstream lookup, got %d", got)
	}
	for i, meta := range results {
		if meta.Title != "shared" {
			t.Fatalf("caller %d got %+v", i, meta)
		}
	}
}

func TestCoalescedPropagatesError(t *testing.T) {
	boom := domain.WrapUpstream(errors.New("boom"))
	inner := &blockingResolver{release: make(chan struct{}), err: boom}
	close(inner.release)

	_, err := NewCoalesced(inner).Lookup(context.Background(), "u")
	if !errors.Is(err, domain.ErrUpstreamFetch) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestCoalescedCallerCancellation(t *testing.T) {
	inner := &blockingResolver{release: make(chan struct{})}
	defer close(inner.release)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCoalesced(inner).Lookup(ctx, "u")
	if !errors.Is(err, domain.ErrUpstreamFetch) {
		t.Fatalf("expected cancellation surfaced as upstream error, got %v", err)
	}
}
