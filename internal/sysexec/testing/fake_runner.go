// Package testing provides fakes for the sysexec package.
package testing

import "sync"

// FakeRunner is a scriptable Runner for tests. Each command can be given
// canned output or a canned error, and every call is recorded so tests
// can assert what was executed.
type FakeRunner struct {
	mu sync.Mutex

	// Outputs maps a command string to the lines it should return.
	Outputs map[string][]string

	// Errors maps a command string to the error it should return.
	Errors map[string]error

	// Available lists executables that should appear present on PATH.
	Available map[string]bool

	// Calls records every command passed to Call, in order.
	Calls []string
}

// NewFakeRunner creates an empty fake with no outputs and no available tools.
func NewFakeRunner() *FakeRunner {
	return &FakeRunner{
		Outputs:   make(map[string][]string),
		Errors:    make(map[string]error),
		Available: make(map[string]bool),
	}
}

// Call returns the scripted output or error for the command and records the call.
func (f *FakeRunner) Call(command string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.Calls = append(f.Calls, command)

	if err, ok := f.Errors[command]; ok {
		return nil, err
	}
	return f.Outputs[command], nil
}

// IsAvailable reports the scripted availability of the named executable.
func (f *FakeRunner) IsAvailable(name string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.Available[name]
}

// CallCount returns how many times Call has been invoked.
func (f *FakeRunner) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.Calls)
}

// LastCall returns the most recent command passed to Call, or "" if none.
func (f *FakeRunner) LastCall() string {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.Calls) == 0 {
		return ""
	}
	return f.Calls[len(f.Calls)-1]
}
