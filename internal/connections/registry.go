package connections

import (
	"sync"

	"github.com/paulzwoo/arm/internal/logger"
	"github.com/paulzwoo/arm/internal/sysexec"
)

// Registry hands out at most one live resolver per (process name, pid)
// pair. It performs no polling itself; it is a lookup table with
// create-on-miss semantics.
type Registry struct {
	runner sysexec.Runner
	log    logger.Logger

	// recreateHalted controls whether a halted resolver's slot is reused
	// for a new instance on the next request. Off by default: recreating
	// makes it hard to ensure all background loops are terminated when
	// accessed concurrently.
	recreateHalted bool

	// resolverOpts are applied to every resolver the registry creates.
	resolverOpts []ResolverOption

	mu        sync.Mutex
	resolvers []*Resolver
}

// RegistryOption customizes a Registry.
type RegistryOption func(*Registry)

// WithRecreateHalted makes GetResolver replace a halted resolver's slot
// with a fresh instance instead of returning the halted one.
func WithRecreateHalted() RegistryOption {
	return func(g *Registry) { g.recreateHalted = true }
}

// WithRegistryLogger sets the logger passed to created resolvers.
func WithRegistryLogger(log logger.Logger) RegistryOption {
	return func(g *Registry) { g.log = log }
}

// WithResolverOptions sets extra options applied to every resolver the
// registry creates, such as a fixed rate or an override kind.
func WithResolverOptions(opts ...ResolverOption) RegistryOption {
	return func(g *Registry) { g.resolverOpts = opts }
}

// NewRegistry creates a registry whose resolvers execute commands
// through the given runner.
func NewRegistry(runner sysexec.Runner, opts ...RegistryOption) *Registry {
	g := &Registry{
		runner: runner,
		log:    logger.Noop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// GetResolver returns the resolver for the process, creating and
// starting one if none exists. An empty pid matches any resolver with
// the process name. The create-or-fetch is atomic: concurrent callers
// asking for the same key get the same instance.
func (g *Registry) GetResolver(processName, processPid string) *Resolver {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Check if one's already been created. A halted instance only
	// yields its slot when recreation is enabled.
	haltedIndex := -1
	for i, r := range g.resolvers {
		if !g.matches(r, processName, processPid) {
			continue
		}
		if r.IsHalted() && g.recreateHalted {
			haltedIndex = i
			continue
		}
		return r
	}

	opts := append([]ResolverOption{WithLogger(g.log)}, g.resolverOpts...)
	r := NewResolver(g.runner, processName, processPid, opts...)

	if haltedIndex == -1 {
		g.resolvers = append(g.resolvers, r)
	} else {
		g.resolvers[haltedIndex] = r
	}
	return r
}

// IsResolverAlive reports whether a non-halted resolver exists for the
// process/pid combination. An empty pid matches any pid.
func (g *Registry) IsResolverAlive(processName, processPid string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	for _, r := range g.resolvers {
		if !r.IsHalted() && g.matches(r, processName, processPid) {
			return true
		}
	}
	return false
}

// StopAll halts every resolver in the registry. Used at shutdown.
func (g *Registry) StopAll() {
	g.mu.Lock()
	resolvers := make([]*Resolver, len(g.resolvers))
	copy(resolvers, g.resolvers)
	g.mu.Unlock()

	for _, r := range resolvers {
		r.Stop()
	}
}

// matches reports whether the resolver serves the process/pid key.
func (g *Registry) matches(r *Resolver, processName, processPid string) bool {
	return r.processName == processName && (processPid == "" || r.processPid == processPid)
}
