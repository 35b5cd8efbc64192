package breaker

import (
	"sync"
	"time"
)

// Breaker states
const (
	StateClosed   = "CLOSED"
	StateOpen     = "OPEN"
	StateHalfOpen = "HALF_OPEN"
)

// Config encapsulates the failure-gating parameters.
type Config struct {
	Threshold int           // failures within Window that open the breaker
	Window    time.Duration // failure-counting window
	Cooldown  time.Duration // how long an open breaker blocks attempts
}

// DefaultConfig returns the default breaker configuration.
func DefaultConfig() Config {
	return Config{
		Threshold: 3,
		Window:    5 * time.Minute,
		Cooldown:  10 * time.Minute,
	}
}

// TransitionHook is invoked after a state change, outside the entry lock.
type TransitionHook func(adapterID, from, to string)

// entry is the breaker state for a single adapter. Each entry carries its
// own mutex so unrelated adapters never serialize on each other.
type entry struct {
	mu           sync.Mutex
	state        string
	failureCount int
	windowStart  time.Time
	openedAt     time.Time
	trialActive  bool
}

// Registry tracks one breaker per adapter identifier. It is shared
// process-wide across all in-flight requests.
type Registry struct {
	cfg          Config
	mu           sync.RWMutex // guards the entries map, not entry state
	entries      map[string]*entry
	nowFn        func() time.Time
	onTransition TransitionHook
}

// NewRegistry creates an empty registry with the given configuration.
func NewRegistry(cfg Config) *Registry {
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultConfig().Threshold
	}
	if cfg.Window <= 0 {
		cfg.Window = DefaultConfig().Window
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultConfig().Cooldown
	}
	return &Registry{
		cfg:     cfg,
		entries: make(map[string]*entry),
		nowFn:   time.Now,
	}
}

// OnTransition registers a hook observing state changes. Intended for
// wiring at startup, before the registry sees traffic.
func (r *Registry) OnTransition(hook TransitionHook) {
	r.onTransition = hook
}

func (r *Registry) get(adapterID string) *entry {
	r.mu.RLock()
	e, ok := r.entries[adapterID]
	r.mu.RUnlock()
	if ok {
		return e
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok = r.entries[adapterID]; ok {
		return e
	}
	e = &entry{state: StateClosed}
	r.entries[adapterID] = e
	return e
}

// Allow reports whether the adapter may be attempted. When the cooldown of
// an open breaker has elapsed it atomically transitions to HalfOpen and
// permits exactly one trial; concurrent callers during that trial are
// denied until the trial is recorded.
func (r *Registry) Allow(adapterID string) bool {
	e := r.get(adapterID)
	now := r.nowFn()

	e.mu.Lock()
	switch e.state {
	case StateClosed:
		e.mu.Unlock()
		return true
	case StateOpen:
		if now.Sub(e.openedAt) < r.cfg.Cooldown {
			e.mu.Unlock()
			return false
		}
		e.state = StateHalfOpen
		e.trialActive = true
		e.mu.Unlock()
		r.notify(adapterID, StateOpen, StateHalfOpen)
		return true
	case StateHalfOpen:
		if e.trialActive {
			e.mu.Unlock()
			return false
		}
		e.trialActive = true
		e.mu.Unlock()
		return true
	}
	e.mu.Unlock()
	return false
}

// RecordSuccess marks a successful adapter call. A HalfOpen trial success
// closes the breaker; a success while Closed restarts the failure window.
func (r *Registry) RecordSuccess(adapterID string) {
	e := r.get(adapterID)
	now := r.nowFn()

	e.mu.Lock()
	from := e.state
	switch e.state {
	case StateHalfOpen:
		e.state = StateClosed
		e.failureCount = 0
		e.windowStart = now
		e.trialActive = false
	case StateClosed:
		e.failureCount = 0
		e.windowStart = now
	}
	to := e.state
	e.mu.Unlock()

	if from != to {
		r.notify(adapterID, from, to)
	}
}

// RecordFailure marks a failed adapter call. Reaching the threshold within
// the window, or failing a HalfOpen trial, opens the breaker.
func (r *Registry) RecordFailure(adapterID string) {
	e := r.get(adapterID)
	now := r.nowFn()

	e.mu.Lock()
	from := e.state
	switch e.state {
	case StateHalfOpen:
		e.state = StateOpen
		e.openedAt = now
		e.trialActive = false
	case StateClosed:
		if e.failureCount == 0 || now.Sub(e.windowStart) > r.cfg.Window {
			// window expired (or first failure): restart the count
			e.failureCount = 0
			e.windowStart = now
		}
		e.failureCount++
		if e.failureCount >= r.cfg.Threshold {
			e.state = StateOpen
			e.openedAt = now
		}
	}
	to := e.state
	e.mu.Unlock()

	if from != to {
		r.notify(adapterID, from, to)
	}
}

// State returns the current state for an adapter, creating the breaker in
// Closed state if it has never been seen.
func (r *Registry) State(adapterID string) string {
	e := r.get(adapterID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (r *Registry) notify(adapterID, from, to string) {
	if r.onTransition != nil {
		r.onTransition(adapterID, from, to)
	}
}
