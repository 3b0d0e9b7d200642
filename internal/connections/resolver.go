package connections

import (
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/paulzwoo/arm/internal/errors"
	"github.com/paulzwoo/arm/internal/logger"
	"github.com/paulzwoo/arm/internal/sysexec"
)

const (
	// DefaultMinRate is the starting floor between two lookups.
	DefaultMinRate = 5 * time.Second

	// failureTolerance is how many consecutive default-path failures are
	// allowed before a kind is blacklisted and the next one tried.
	failureTolerance = 3

	// rateHysteresis is how many consecutive cycles must break the rate
	// threshold before the default rate is raised. Keeps stray spikes
	// from bumping the rate.
	rateHysteresis = 3

	// minSleep caps how long a stop or unpause can go unnoticed.
	minSleep = 200 * time.Millisecond
)

// Resolver periodically queries for a process's current connections.
// This provides several benefits over on-demand queries:
//   - reads are non-blocking (cached results)
//   - repeated failures fall back to a different resolution method
//   - overly frequent querying is avoided, which matters on systems
//     strapped for resources or with a vast number of connections
//
// Unless an override kind is set, the resolver picks the first kind for
// this OS whose tool is on the search path, and moves down the list as
// kinds fail. The time between lookups grows to 100x the measured
// lookup cost when that cost is sustained.
type Resolver struct {
	processName string
	processPid  string

	runner sysexec.Runner
	log    logger.Logger

	mu          sync.Mutex
	resolveRate time.Duration // fixed rate; 0 means use the adaptive default
	defaultRate time.Duration
	lastLookup  time.Time // zero until the first attempt
	override    ResolverKind
	defaultKind ResolverKind // KindNone once every option is blacklisted
	options     []ResolverKind
	connections []ConnectionTuple
	paused      bool
	halted      bool
	failures    int // consecutive default-path failures
	blacklist   []ResolverKind
	rateStreak  int // consecutive cycles over the rate threshold

	wake chan struct{} // nudges the loop out of its sleep
	done chan struct{} // closed when the loop exits
}

// ResolverOption customizes a Resolver before its loop starts.
type ResolverOption func(*Resolver)

// WithRate fixes the minimum time between lookups instead of the
// adaptive default. Rate adaptation never applies to a fixed rate.
func WithRate(rate time.Duration) ResolverOption {
	return func(r *Resolver) { r.resolveRate = rate }
}

// WithMinRate seeds the adaptive baseline between lookups. Unlike
// WithRate, the effective floor still grows with the measured cost of
// lookups.
func WithMinRate(rate time.Duration) ResolverOption {
	return func(r *Resolver) {
		if rate > 0 {
			r.defaultRate = rate
		}
	}
}

// WithOverrideKind forces a resolution kind. Override lookups are never
// blacklisted on failure.
func WithOverrideKind(kind ResolverKind) ResolverOption {
	return func(r *Resolver) { r.override = kind }
}

// WithOSType overrides the detected operating system, mainly for tests.
func WithOSType(osType string) ResolverOption {
	return func(r *Resolver) { r.options = SystemResolvers(osType) }
}

// WithLogger sets the logger; the default discards everything.
func WithLogger(log logger.Logger) ResolverOption {
	return func(r *Resolver) { r.log = log }
}

// NewResolver creates a resolver for the process and starts its
// background loop. An empty pid matches any pid of the named process.
// Stop it when no longer needed.
func NewResolver(runner sysexec.Runner, processName, processPid string, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		processName: processName,
		processPid:  processPid,
		runner:      runner,
		log:         logger.Noop(),
		defaultRate: DefaultMinRate,
		defaultKind: KindNetstat,
		options:     SystemResolvers(runtime.GOOS),
		wake:        make(chan struct{}, 1),
		done:        make(chan struct{}),
	}

	for _, opt := range opts {
		opt(r)
	}

	labels := make([]string, len(r.options))
	for i, kind := range r.options {
		labels[i] = kind.Label()
	}
	r.log.Info("Operating System: %s, Connection Resolvers: %s", runtime.GOOS, strings.Join(labels, ", "))

	// The default kind is the first option found on the search path,
	// left as the first option if none are.
	if len(r.options) > 0 {
		r.defaultKind = r.options[0]
		for _, kind := range r.options {
			if runner.IsAvailable(kind.Tool()) {
				r.defaultKind = kind
				break
			}
		}
	}

	go r.run()
	return r
}

// ProcessName returns the name of the process being resolved.
func (r *Resolver) ProcessName() string {
	return r.processName
}

// ProcessPid returns the pid being resolved, "" if matching any pid.
func (r *Resolver) ProcessPid() string {
	return r.processPid
}

// GetConnections provides the last queried connection results as a
// copy, or an empty slice if the resolver has been halted. It never
// blocks and never triggers a lookup.
func (r *Resolver) GetConnections() []ConnectionTuple {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.halted {
		return []ConnectionTuple{}
	}
	out := make([]ConnectionTuple, len(r.connections))
	copy(out, r.connections)
	return out
}

// ActiveKind reports the kind the next lookup would use: the override
// if set, otherwise the current default. KindNone means every option
// has been exhausted.
func (r *Resolver) ActiveKind() ResolverKind {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.override != KindNone {
		return r.override
	}
	return r.defaultKind
}

// Rate reports the current minimum time between lookups.
func (r *Resolver) Rate() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.resolveRate > 0 {
		return r.resolveRate
	}
	return r.defaultRate
}

// IsPaused reports whether new lookups are suppressed.
func (r *Resolver) IsPaused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.paused
}

// IsHalted reports whether the resolver has been stopped.
func (r *Resolver) IsHalted() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.halted
}

// SetPaused allows or prevents further lookups. Cached results remain
// servable while paused. Idempotent.
func (r *Resolver) SetPaused(pause bool) {
	r.mu.Lock()
	if pause == r.paused {
		r.mu.Unlock()
		return
	}
	r.paused = pause
	r.mu.Unlock()

	r.nudge()
}

// Stop halts further resolutions and terminates the background loop.
// Halting is terminal; after Stop, GetConnections always returns an
// empty list.
func (r *Resolver) Stop() {
	r.mu.Lock()
	if r.halted {
		r.mu.Unlock()
		return
	}
	r.halted = true
	r.mu.Unlock()

	r.nudge()
	<-r.done
}

// nudge wakes the loop if it's sleeping. The channel is buffered so a
// pending wake-up is never lost and the caller never blocks.
func (r *Resolver) nudge() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// run is the background loop: wait out the pacing interval, resolve,
// and adapt pacing and fallback state from the outcome.
func (r *Resolver) run() {
	defer close(r.done)

	for {
		r.mu.Lock()
		if r.halted {
			r.mu.Unlock()
			return
		}

		minWait := r.defaultRate
		if r.resolveRate > 0 {
			minWait = r.resolveRate
		}
		var elapsed time.Duration
		firstLookup := r.lastLookup.IsZero()
		if !firstLookup {
			elapsed = time.Since(r.lastLookup)
		}
		paused := r.paused
		r.mu.Unlock()

		if paused || (!firstLookup && elapsed < minWait) {
			sleep := minWait - elapsed
			if sleep < minSleep {
				sleep = minSleep
			}

			timer := time.NewTimer(sleep)
			select {
			case <-r.wake:
				timer.Stop()
			case <-timer.C:
			}
			continue // done waiting, try again
		}

		r.mu.Lock()
		isDefault := r.override == KindNone
		kind := r.override
		if isDefault {
			kind = r.defaultKind
		}
		r.mu.Unlock()

		// Nothing left to resolve with. Recording the attempt time keeps
		// this from becoming a busy wait.
		if kind == KindNone {
			r.mu.Lock()
			r.lastLookup = time.Now()
			r.mu.Unlock()
			continue
		}

		start := time.Now()
		results, err := r.lookup(kind)
		lookupTime := time.Since(start)

		if err == nil {
			r.mu.Lock()
			r.connections = results
			r.adaptRateLocked(lookupTime)
			if isDefault {
				r.failures = 0
			}
			r.mu.Unlock()
		} else {
			// Missing results and broken tools are both reported; staleness
			// shouldn't be the first sign that a tool stopped working.
			if errors.IsCode(err, errors.ErrNoResults) || errors.IsCode(err, errors.ErrExec) {
				r.log.Info("%s", err)
			}
			// Malformed output means the tool is working but the process
			// printed something unexpected; only missing results and
			// execution failures count against the kind.
			if isDefault && !errors.IsCode(err, errors.ErrParse) {
				r.recordDefaultFailure(kind)
			}
		}

		r.mu.Lock()
		r.lastLookup = time.Now()
		r.mu.Unlock()
	}
}

// lookup builds and executes the command for the kind, parsing its
// output into tuples. Individually malformed lines are skipped; the
// call as a whole fails only when there's nothing usable at all.
func (r *Resolver) lookup(kind ResolverKind) ([]ConnectionTuple, error) {
	cmd, err := BuildCommand(kind, r.processName, r.processPid)
	if err != nil {
		return nil, err
	}

	lines, err := r.runner.Call(cmd)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.NewNoResults(cmd)
	}

	conns := make([]ConnectionTuple, 0, len(lines))
	var lastParseErr error
	for _, line := range lines {
		tuple, err := ParseLine(kind, line)
		if err != nil {
			lastParseErr = err
			continue
		}
		conns = append(conns, tuple)
	}

	if len(conns) == 0 {
		return nil, lastParseErr
	}
	return conns, nil
}

// adaptRateLocked raises the default rate to 100x the lookup cost once
// that threshold has been broken several cycles in a row. Callers hold
// r.mu.
func (r *Resolver) adaptRateLocked(lookupTime time.Duration) {
	newMinRate := 100 * lookupTime
	if r.defaultRate < newMinRate {
		r.rateStreak++
		if r.rateStreak >= rateHysteresis {
			// The extra half second keeps the rate from changing often.
			r.defaultRate = newMinRate + 500*time.Millisecond
			r.rateStreak = 0
			r.log.Debug("connection lookup time increasing to %0.1f seconds per call", r.defaultRate.Seconds())
		}
	} else {
		r.rateStreak = 0
	}
}

// recordDefaultFailure counts a failed default-path lookup, and after
// enough in a row blacklists the kind and falls over to the next option
// that hasn't been blacklisted. Once no options remain the default
// becomes KindNone for the rest of the resolver's life; the blacklist
// is never cleared.
func (r *Resolver) recordDefaultFailure(kind ResolverKind) {
	r.mu.Lock()
	r.failures++
	if r.failures < failureTolerance {
		r.mu.Unlock()
		return
	}

	// Failed several times in a row - abandon this kind and move on.
	r.blacklist = append(r.blacklist, kind)
	r.failures = 0

	next := KindNone
	for _, option := range r.options {
		if !r.isBlacklistedLocked(option) {
			next = option
			break
		}
	}
	r.defaultKind = next
	r.mu.Unlock()

	if next != KindNone {
		r.log.Notice("Querying connections with %s failed, trying %s", kind.Label(), next.Label())
	} else {
		r.log.Warn("All connection resolvers failed")
	}
}

// isBlacklistedLocked reports whether the kind has been abandoned.
// Callers hold r.mu.
func (r *Resolver) isBlacklistedLocked(kind ResolverKind) bool {
	for _, b := range r.blacklist {
		if b == kind {
			return true
		}
	}
	return false
}

// String describes the resolver for logs.
func (r *Resolver) String() string {
	if r.processPid == "" {
		return fmt.Sprintf("resolver(%s)", r.processName)
	}
	return fmt.Sprintf("resolver(%s:%s)", r.processName, r.processPid)
}
