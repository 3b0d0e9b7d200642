package cli

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulzwoo/arm/internal/config"
	"github.com/paulzwoo/arm/internal/connections"
	"github.com/paulzwoo/arm/internal/errors"
	"github.com/paulzwoo/arm/internal/sysexec"
	sysexectesting "github.com/paulzwoo/arm/internal/sysexec/testing"
)

// slowRunner adds a fixed cost to every call so rate adaptation has
// something to measure.
type slowRunner struct {
	inner *sysexectesting.FakeRunner
	delay time.Duration
}

func (s *slowRunner) Call(command string) ([]string, error) {
	time.Sleep(s.delay)
	return s.inner.Call(command)
}

func (s *slowRunner) IsAvailable(name string) bool {
	return s.inner.IsAvailable(name)
}

var _ sysexec.Runner = (*slowRunner)(nil)

func TestParseIntervalFlag(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{name: "empty defers to config", input: "", want: 0},
		{name: "valid seconds", input: "5s", want: 5 * time.Second},
		{name: "valid minutes", input: "1m", want: time.Minute},
		{name: "garbage", input: "soon", wantErr: true},
		{name: "too short", input: "100ms", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseIntervalFlag(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrConfig))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseWaitFlag(t *testing.T) {
	got, err := parseWaitFlag("30s")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, got)

	_, err = parseWaitFlag("whenever")
	require.Error(t, err)

	_, err = parseWaitFlag("-5s")
	require.Error(t, err)
}

func TestResolverOptionsRejectsUnknownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Resolver.Kind = "wireshark"

	_, err := resolverOptions(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
}

func TestResolverOptionsAcceptsKnownKind(t *testing.T) {
	cfg := config.Default()
	cfg.Resolver.Kind = string(connections.KindLsof)

	opts, err := resolverOptions(cfg)
	require.NoError(t, err)
	// Fixed rate from the default config plus the override kind.
	assert.Len(t, opts, 2)
}

func TestResolverOptionsDefaults(t *testing.T) {
	cfg := config.Default()

	opts, err := resolverOptions(cfg)
	require.NoError(t, err)
	// Just the rate; no override configured.
	assert.Len(t, opts, 1)
}

func TestResolverOptionsProcstatRequiresPid(t *testing.T) {
	cfg := config.Default()
	cfg.Resolver.Kind = string(connections.KindBSDProcstat)

	// Without a pid the kind can't build a command; rejecting it here
	// keeps the failure out of the background loop.
	_, err := resolverOptions(cfg)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))
	assert.Contains(t, err.Error(), "requires a pid")

	cfg.Process.Pid = "9912"
	_, err = resolverOptions(cfg)
	require.NoError(t, err)
}

func TestConfiguredMinRateStillAdapts(t *testing.T) {
	cfg := config.Default()
	cfg.Queries.Connections.MinRate = time.Millisecond

	opts, err := resolverOptions(cfg)
	require.NoError(t, err)

	cmd, err := connections.BuildCommand(connections.KindNetstat, "tor", "9912")
	require.NoError(t, err)

	fake := sysexectesting.NewFakeRunner()
	fake.Available["netstat"] = true
	fake.Outputs[cmd] = []string{
		"tcp  0  0  127.0.0.1:9051  127.0.0.1:53308  ESTABLISHED 9912/tor",
	}

	// Each lookup costs ~5ms, so 100x the measured cost (~500ms) should
	// become the effective floor after three consecutive cycles. A fixed
	// rate would pin Rate() at 1ms forever.
	runner := &slowRunner{inner: fake, delay: 5 * time.Millisecond}
	r := connections.NewResolver(runner, "tor", "9912",
		append(opts, connections.WithOSType("linux"))...)
	defer r.Stop()

	require.Eventually(t, func() bool {
		return r.Rate() >= 100*time.Millisecond
	}, 10*time.Second, 20*time.Millisecond)
}

func TestRootCommandRegistration(t *testing.T) {
	names := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		names[cmd.Name()] = true
	}

	for _, want := range []string{"monitor", "connections", "resolvers", "init", "version", "completion"} {
		assert.True(t, names[want], "missing subcommand %q", want)
	}
}

func TestGlobalFlagsRegistered(t *testing.T) {
	for _, name := range []string{"config", "process", "pid", "resolver", "json"} {
		assert.NotNil(t, rootCmd.PersistentFlags().Lookup(name), "missing global flag %q", name)
	}
}
