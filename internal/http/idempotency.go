package http

import (
	"bytes"
	"net/http"
	"strings"
	"sync"
	"time"
)

const (
	idempotencyKeyHeader = "Idempotency-Key"
	replayedHeader       = "Idempotent-Replayed"
)

// responseCache stores recent responses of mutating requests keyed by the
// caller and their Idempotency-Key.
type responseCache struct {
	mu         sync.Mutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]cachedResponse
}

type cachedResponse struct {
	status    int
	header    http.Header
	body      []byte
	expiresAt time.Time
}

func newResponseCache(ttl time.Duration, maxEntries int, now func() time.Time) *responseCache {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	if now == nil {
		now = time.Now
	}
	return &responseCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]cachedResponse),
	}
}

func (c *responseCache) Get(key string) (cachedResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.entries[key]
	if !ok {
		return cachedResponse{}, false
	}
	if c.now().After(entry.expiresAt) {
		delete(c.entries, key)
		return cachedResponse{}, false
	}
	return entry, true
}

func (c *responseCache) Store(key string, status int, header http.Header, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[key] = cachedResponse{
		status:    status,
		header:    header.Clone(),
		body:      append([]byte(nil), body...),
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *responseCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *responseCache) evictOneLocked() {
	var oldestKey string
	var oldest time.Time
	for key, entry := range c.entries {
		if oldestKey == "" || entry.expiresAt.Before(oldest) {
			oldestKey, oldest = key, entry.expiresAt
		}
	}
	delete(c.entries, oldestKey)
}

// Idempotency replays the stored response when a mutating request repeats
// an Idempotency-Key within ttl. Server errors are not stored. It must run
// after RequireSession so keys are scoped to the caller.
func Idempotency(ttl time.Duration, maxEntries int) func(http.Handler) http.Handler {
	return idempotency(newResponseCache(ttl, maxEntries, nil))
}

func idempotency(cache *responseCache) func(http.Handler) http.Handler {
	var inflight sync.Map

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
			if key == "" || !isMutating(r.Method) {
				next.ServeHTTP(w, r)
				return
			}

			principal, _ := PrincipalFromContext(r.Context())
			cacheKey := strings.Join([]string{principal.UserID, r.Method, r.URL.Path, key}, "|")

			if cached, ok := cache.Get(cacheKey); ok {
				replay(w, cached)
				return
			}
			if _, busy := inflight.LoadOrStore(cacheKey, struct{}{}); busy {
				newResponder(LoggerFromContext(r.Context())).writeJSON(r.Context(), w, http.StatusConflict, errorResponse{
					Message: "A request with this Idempotency-Key is still in progress.",
				})
				return
			}
			defer inflight.Delete(cacheKey)

			capture := &capturingWriter{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(capture, r)
			if capture.status < http.StatusInternalServerError {
				cache.Store(cacheKey, capture.status, w.Header(), capture.body.Bytes())
			}
		})
	}
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func replay(w http.ResponseWriter, cached cachedResponse) {
	for name, values := range cached.header {
		if name == requestIDHeader {
			continue
		}
		w.Header()[name] = append([]string(nil), values...)
	}
	w.Header().Set(replayedHeader, "true")
	w.WriteHeader(cached.status)
	_, _ = w.Write(cached.body)
}

type capturingWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	body        bytes.Buffer
}

func (c *capturingWriter) WriteHeader(status int) {
	if !c.wroteHeader {
		c.status = status
		c.wroteHeader = true
	}
	c.ResponseWriter.WriteHeader(status)
}

func (c *capturingWriter) Write(b []byte) (int, error) {
	if !c.wroteHeader {
		c.wroteHeader = true
	}
	c.body.Write(b)
	return c.ResponseWriter.Write(b)
}
