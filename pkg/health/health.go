// Package health serves liveness and readiness probes.
//
// Each probe is polled in the background; a probe turns unhealthy only after
// failAfter consecutive failures and recovers on the first success.
package health

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-faster/jx"
)

// CheckFunc reports nil when the checked dependency is usable.
type CheckFunc func(ctx context.Context) error

const failAfter = 3

type kind uint8

const (
	kindLive kind = iota
	kindReady
)

type probe struct {
	name    string
	kind    kind
	timeout time.Duration
	check   CheckFunc

	healthy atomic.Bool
	lastErr atomic.Pointer[string]

	// fails is touched only by the polling goroutine.
	fails int
}

func (p *probe) poll(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	if err := p.check(ctx); err != nil {
		msg := err.Error()
		p.lastErr.Store(&msg)
		p.fails++
		if p.fails >= failAfter {
			p.healthy.Store(false)
		}
		return
	}
	p.fails = 0
	p.lastErr.Store(nil)
	p.healthy.Store(true)
}

func (p *probe) failure() string {
	if msg := p.lastErr.Load(); msg != nil {
		return *msg
	}
	return "check is unhealthy"
}

// Health tracks probes and a manual readiness switch.
type Health struct {
	ready atomic.Bool

	mu     sync.RWMutex
	probes []*probe
	stop   context.CancelFunc
	wg     sync.WaitGroup
}

// New returns a Health that is not ready until SetReady(true).
func New() *Health {
	return &Health{}
}

// Live registers a liveness probe.
func (h *Health) Live(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, kindLive, timeout, check)
}

// Ready registers a readiness probe, e.g. a database ping.
func (h *Health) Ready(name string, timeout time.Duration, check CheckFunc) {
	h.add(name, kindReady, timeout, check)
}

func (h *Health) add(name string, k kind, timeout time.Duration, check CheckFunc) {
	p := &probe{name: name, kind: k, timeout: timeout, check: check}
	p.healthy.Store(true)

	h.mu.Lock()
	h.probes = append(h.probes, p)
	h.mu.Unlock()
}

// Start polls every probe at interval until Stop or ctx is done.
func (h *Health) Start(ctx context.Context, interval time.Duration) {
	ctx, cancel := context.WithCancel(ctx)

	h.mu.Lock()
	h.stop = cancel
	probes := append([]*probe(nil), h.probes...)
	h.mu.Unlock()

	for _, p := range probes {
		h.wg.Add(1)
		go func() {
			defer h.wg.Done()
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for {
				p.poll(ctx)
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
				}
			}
		}()
	}
}

// Stop ends polling and waits for the pollers to exit.
func (h *Health) Stop() {
	h.mu.Lock()
	if h.stop != nil {
		h.stop()
		h.stop = nil
	}
	h.mu.Unlock()
	h.wg.Wait()
}

// SetReady flips the manual readiness switch. It goes false at the start of
// graceful shutdown.
func (h *Health) SetReady(ready bool) {
	h.ready.Store(ready)
}

// Mount registers /livez and /readyz on r.
func (h *Health) Mount(r chi.Router) {
	r.Get("/livez", h.LiveEndpoint)
	r.Get("/readyz", h.ReadyEndpoint)
}

// LiveEndpoint answers 200 while every liveness probe passes, 503 otherwise.
func (h *Health) LiveEndpoint(w http.ResponseWriter, _ *http.Request) {
	writeStatus(w, h.failures(kindLive))
}

// ReadyEndpoint answers 200 when the service is marked ready and every
// readiness probe passes, 503 otherwise.
func (h *Health) ReadyEndpoint(w http.ResponseWriter, _ *http.Request) {
	failures := h.failures(kindReady)
	if !h.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func (h *Health) failures(k kind) map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]string)
	for _, p := range h.probes {
		if p.kind == k && !p.healthy.Load() {
			out[p.name] = p.failure()
		}
	}
	return out
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	names := make([]string, 0, len(failures))
	for name := range failures {
		names = append(names, name)
	}
	sort.Strings(names)

	status, label := http.StatusOK, "ok"
	if len(failures) > 0 {
		status, label = http.StatusServiceUnavailable, "unhealthy"
	}

	var e jx.Encoder
	e.Obj(func(e *jx.Encoder) {
		e.Field("status", func(e *jx.Encoder) { e.Str(label) })
		if len(names) == 0 {
			return
		}
		e.Field("checks", func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				for _, name := range names {
					e.Field(name, func(e *jx.Encoder) { e.Str(failures[name]) })
				}
			})
		})
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
