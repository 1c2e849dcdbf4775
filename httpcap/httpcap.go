package httpcap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/wippyai/wasm-host/engine"
	"github.com/wippyai/wasm-host/errors"
)

// Namespace is the import module name guests use for this capability.
const Namespace = "wasi_experimental_http"

// DefaultMaxSessions bounds how many response sessions a guest may hold
// open at once.
const DefaultMaxSessions = 10

// defaultTimeout bounds one outbound round trip.
const defaultTimeout = 30 * time.Second

// Error codes returned to the guest, per the wasi-experimental-http ABI.
const (
	ErrOK                    uint32 = 0
	ErrInvalidHandle         uint32 = 1
	ErrMemoryNotFound        uint32 = 2
	ErrMemoryAccess          uint32 = 3
	ErrBufferTooSmall        uint32 = 4
	ErrHeaderNotFound        uint32 = 5
	ErrUTF8                  uint32 = 6
	ErrDestinationNotAllowed uint32 = 7
	ErrInvalidMethod         uint32 = 8
	ErrInvalidEncoding       uint32 = 9
	ErrInvalidURL            uint32 = 10
	ErrRequestFailed         uint32 = 11
	ErrRuntime               uint32 = 12
	ErrTooManySessions       uint32 = 13
)

// Config carries the two link-time policies for the capability.
type Config struct {
	// AllowedHosts lists permitted outbound destinations as origins,
	// e.g. "https://postman-echo.com". nil and empty both deny all.
	AllowedHosts []string

	// MaxConcurrency bounds concurrently in-flight requests.
	// Zero or negative means unbounded.
	MaxConcurrency int

	// MaxSessions bounds open response sessions. Zero means
	// DefaultMaxSessions.
	MaxSessions int

	// Client overrides the shared HTTP client, for tests.
	Client *http.Client
}

// Capability is the initialized outbound-network surface for one run.
type Capability struct {
	client      *http.Client
	sem         *semaphore.Weighted
	sessions    map[uint32]*session
	allowed     []*url.URL
	nextHandle  uint32
	maxSessions int
	mu          sync.Mutex
}

// session is one guest-visible response: status, headers, and a body the
// guest drains incrementally through body_read.
type session struct {
	header http.Header
	body   []byte
	offset int
	status uint32
}

// New acquires the capability: it resolves the shared client state and
// fixes the run's policies. Called once per run, before instantiation;
// failure here aborts the run.
func New(ctx context.Context, cfg Config) (*Capability, error) {
	if err := ctx.Err(); err != nil {
		return nil, errors.CapabilityInit(err)
	}

	allowed := make([]*url.URL, 0, len(cfg.AllowedHosts))
	for _, host := range cfg.AllowedHosts {
		u, err := url.Parse(host)
		if err != nil || u.Host == "" {
			return nil, errors.CapabilityInit(
				fmt.Errorf("allowed host %q is not a valid origin", host))
		}
		allowed = append(allowed, u)
	}

	c := &Capability{
		client:      cfg.Client,
		allowed:     allowed,
		sessions:    make(map[uint32]*session),
		maxSessions: cfg.MaxSessions,
	}
	if c.client == nil {
		c.client = &http.Client{Timeout: defaultTimeout}
	}
	if c.maxSessions <= 0 {
		c.maxSessions = DefaultMaxSessions
	}
	if cfg.MaxConcurrency > 0 {
		c.sem = semaphore.NewWeighted(int64(cfg.MaxConcurrency))
	}

	engine.Logger().Debug("http capability acquired",
		zap.Int("allowed_hosts", len(allowed)),
		zap.Int("max_concurrency", cfg.MaxConcurrency))
	return c, nil
}

// allowedDestination reports whether u may be dialed. The allow-list is
// matched by origin: scheme and host must both agree, except that an
// entry registered without a scheme matches any scheme on its host.
func (c *Capability) allowedDestination(u *url.URL) bool {
	for _, a := range c.allowed {
		if a.Host != u.Host {
			continue
		}
		if a.Scheme == "" || a.Scheme == u.Scheme {
			return true
		}
	}
	return false
}

// request performs one outbound call on behalf of the guest. It returns
// the session handle and HTTP status on success, or a non-zero ABI error
// code.
func (c *Capability) request(ctx context.Context, method, rawURL string, headers http.Header, body []byte) (handle, status, code uint32) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return 0, 0, ErrInvalidURL
	}

	if !c.allowedDestination(u) {
		engine.Logger().Debug("outbound destination denied",
			zap.String("url", rawURL))
		return 0, 0, ErrDestinationNotAllowed
	}

	c.mu.Lock()
	full := len(c.sessions) >= c.maxSessions
	c.mu.Unlock()
	if full {
		return 0, 0, ErrTooManySessions
	}

	// The concurrency limiter is the sole arbiter of in-flight requests:
	// beyond the bound, callers block here until a slot frees.
	if c.sem != nil {
		if err := c.sem.Acquire(ctx, 1); err != nil {
			return 0, 0, ErrRuntime
		}
		defer c.sem.Release(1)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), bytes.NewReader(body))
	if err != nil {
		return 0, 0, ErrInvalidMethod
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		engine.Logger().Debug("outbound request failed",
			zap.String("url", rawURL), zap.Error(err))
		return 0, 0, ErrRequestFailed
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, 0, ErrRequestFailed
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sessions) >= c.maxSessions {
		return 0, 0, ErrTooManySessions
	}
	c.nextHandle++
	handle = c.nextHandle
	c.sessions[handle] = &session{
		status: uint32(resp.StatusCode),
		header: resp.Header,
		body:   data,
	}
	return handle, uint32(resp.StatusCode), ErrOK
}

func (c *Capability) get(handle uint32) *session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessions[handle]
}

// drop closes a session. Returns false for an unknown handle.
func (c *Capability) drop(handle uint32) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.sessions[handle]; !ok {
		return false
	}
	delete(c.sessions, handle)
	return true
}

// openSessions returns the number of live response sessions.
func (c *Capability) openSessions() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sessions)
}

// parseHeaders decodes the guest's newline-separated "Name:value" header
// encoding.
func parseHeaders(s string) http.Header {
	h := make(http.Header)
	for _, line := range strings.Split(s, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h
}

// renderHeaders encodes response headers in the same newline-separated
// form, sorted for deterministic output.
func renderHeaders(h http.Header) string {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range h[k] {
			b.WriteString(k)
			b.WriteByte(':')
			b.WriteString(v)
			b.WriteByte('\n')
		}
	}
	return b.String()
}
