package sysexec

import (
	"sync"
	"time"
)

// DefaultMinCallInterval is how long a command's output is reused before
// the command is run again.
const DefaultMinCallInterval = 1 * time.Second

// callResult holds one cached command invocation.
type callResult struct {
	lines []string
	err   error
	at    time.Time
}

// CachedRunner wraps a Runner with two caches: command output is reused
// for a minimum interval so rapid repeat calls don't spawn duplicate
// subprocesses, and PATH availability checks are remembered for the
// session since tools rarely appear or disappear while running.
type CachedRunner struct {
	inner       Runner
	minInterval time.Duration

	mu        sync.Mutex
	calls     map[string]callResult
	available map[string]bool
}

// NewCachedRunner wraps inner with result caching. A non-positive
// minInterval uses DefaultMinCallInterval.
func NewCachedRunner(inner Runner, minInterval time.Duration) *CachedRunner {
	if minInterval <= 0 {
		minInterval = DefaultMinCallInterval
	}
	return &CachedRunner{
		inner:       inner,
		minInterval: minInterval,
		calls:       make(map[string]callResult),
		available:   make(map[string]bool),
	}
}

// Call returns the cached result for the command if it was run within the
// minimum interval, otherwise runs it and caches the outcome. Failures
// are cached too, so a broken tool isn't retried in a tight loop.
func (c *CachedRunner) Call(command string) ([]string, error) {
	c.mu.Lock()
	if cached, ok := c.calls[command]; ok && time.Since(cached.at) < c.minInterval {
		c.mu.Unlock()
		return cached.lines, cached.err
	}
	c.mu.Unlock()

	lines, err := c.inner.Call(command)

	c.mu.Lock()
	c.calls[command] = callResult{lines: lines, err: err, at: time.Now()}
	c.mu.Unlock()

	return lines, err
}

// IsAvailable reports whether the named executable is on the search path,
// remembering the answer for the lifetime of the runner.
func (c *CachedRunner) IsAvailable(name string) bool {
	c.mu.Lock()
	if avail, ok := c.available[name]; ok {
		c.mu.Unlock()
		return avail
	}
	c.mu.Unlock()

	avail := c.inner.IsAvailable(name)

	c.mu.Lock()
	c.available[name] = avail
	c.mu.Unlock()

	return avail
}

// ClearCalls drops all cached command results.
func (c *CachedRunner) ClearCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = make(map[string]callResult)
}
