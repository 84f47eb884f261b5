package apihttp

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"net/netip"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/NeerajX-code/YtubVideo-Downloader/internal/metrics"
)

// WindowStore counts hits per key in fixed windows.
type WindowStore interface {
	// Incr adds one hit to key and returns the count in the current window
	// and the time left until the window resets.
	Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

type windowEntry struct {
	count   int64
	resetAt time.Time
}

const memoryWindowSweepEvery = 1024

// MemoryWindowStore keeps window counters in process memory.
type MemoryWindowStore struct {
	mu      sync.Mutex
	entries map[string]windowEntry
	now     func() time.Time
	calls   int
}

func NewMemoryWindowStore() *MemoryWindowStore {
	return &MemoryWindowStore{
		entries: make(map[string]windowEntry),
		now:     time.Now,
	}
}

func (m *MemoryWindowStore) Incr(_ context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.calls++
	if m.calls%memoryWindowSweepEvery == 0 {
		m.sweepLocked(now)
	}

	entry, ok := m.entries[key]
	if !ok || !now.Before(entry.resetAt) {
		entry = windowEntry{resetAt: now.Add(window)}
	}
	entry.count++
	m.entries[key] = entry
	return entry.count, entry.resetAt.Sub(now), nil
}

func (m *MemoryWindowStore) sweepLocked(now time.Time) {
	for key, entry := range m.entries {
		if !now.Before(entry.resetAt) {
			delete(m.entries, key)
		}
	}
}

// RedisWindowStore shares window counters between replicas.
type RedisWindowStore struct {
	client *redis.Client
}

func NewRedisWindowStore(client *redis.Client) *RedisWindowStore {
	return &RedisWindowStore{client: client}
}

func (s *RedisWindowStore) Incr(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, key)
		ttl = pipe.PTTL(ctx, key)
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	remaining := ttl.Val()
	if remaining <= 0 {
		// First hit of the window, or a key that lost its expiry.
		if err := s.client.PExpire(ctx, key, window).Err(); err != nil {
			return 0, 0, err
		}
		remaining = window
	}
	return incr.Val(), remaining, nil
}

// windowLimiter enforces max requests per client per window. Store errors
// let the request through.
type windowLimiter struct {
	name    string
	store   WindowStore
	max     int64
	window  time.Duration
	trusted []netip.Prefix
	logger  *slog.Logger
}

func newWindowLimiter(name string, store WindowStore, limit int, window time.Duration, trusted []netip.Prefix, logger *slog.Logger) *windowLimiter {
	if store == nil || limit <= 0 || window <= 0 {
		return nil
	}
	return &windowLimiter{
		name:    name,
		store:   store,
		max:     int64(limit),
		window:  window,
		trusted: trusted,
		logger:  logger,
	}
}

func (l *windowLimiter) wrap(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isNoisyPath(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		key := "ytdl:ratelimit:" + l.name + ":" + limitKeyIP(r, l.trusted)
		count, resetIn, err := l.store.Incr(r.Context(), key, l.window)
		if err != nil {
			l.logger.Warn("rate limit store unavailable",
				slog.String("limiter", l.name),
				slog.String("error", err.Error()),
			)
			next.ServeHTTP(w, r)
			return
		}

		resetSeconds := strconv.FormatInt(int64((resetIn+time.Second-1)/time.Second), 10)
		h := w.Header()
		h.Set("X-RateLimit-Limit", strconv.FormatInt(l.max, 10))
		h.Set("X-RateLimit-Remaining", strconv.FormatInt(max(l.max-count, 0), 10))
		h.Set("X-RateLimit-Reset", resetSeconds)
		if count > l.max {
			metrics.RateLimitedTotal.WithLabelValues(l.name).Inc()
			h.Set("Retry-After", resetSeconds)
			writeError(w, http.StatusTooManyRequests, "rate_limited", l.message())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (l *windowLimiter) message() string {
	if l.name == "download" {
		return "download limit reached, please try again later"
	}
	return "too many requests, please try again later"
}

// parseTrustedProxies accepts single addresses and CIDR ranges. Entries that
// parse as neither are returned in invalid.
func parseTrustedProxies(entries []string) (prefixes []netip.Prefix, invalid []string) {
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		if prefix, err := netip.ParsePrefix(entry); err == nil {
			prefixes = append(prefixes, prefix.Masked())
			continue
		}
		if addr, err := netip.ParseAddr(entry); err == nil {
			addr = addr.Unmap()
			prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
			continue
		}
		invalid = append(invalid, entry)
	}
	return prefixes, invalid
}

func isTrusted(addr netip.Addr, trusted []netip.Prefix) bool {
	addr = addr.Unmap()
	for _, prefix := range trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// limitKeyIP identifies the client for rate limiting. Forwarding headers are
// honoured only when the connecting peer is a trusted proxy; X-Forwarded-For
// is walked right to left and the first untrusted hop wins.
func limitKeyIP(r *http.Request, trusted []netip.Prefix) string {
	remote := strings.TrimSpace(r.RemoteAddr)
	host, _, err := net.SplitHostPort(remote)
	if err != nil {
		host = remote
	}
	peer, err := netip.ParseAddr(host)
	if err != nil {
		return host
	}
	peer = peer.Unmap()
	if !isTrusted(peer, trusted) {
		return peer.String()
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
			if err != nil {
				break
			}
			if !isTrusted(hop, trusted) {
				return hop.Unmap().String()
			}
		}
	}
	if realIP, err := netip.ParseAddr(strings.TrimSpace(r.Header.Get("X-Real-IP"))); err == nil {
		return realIP.Unmap().String()
	}
	return peer.String()
}
