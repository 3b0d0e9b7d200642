package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/paulzwoo/arm/internal/config"
)

// chdirTemp moves the test into a temp directory and back on cleanup.
func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	orig, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(orig) })
	return dir
}

func TestInitNonInteractiveCreatesConfig(t *testing.T) {
	dir := chdirTemp(t)

	err := Init(InitOptions{Process: "tor", NonInteractive: true})
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "tor", cfg.Process.Name)
	assert.Equal(t, config.CurrentConfigVersion, cfg.Version)
}

func TestInitNonInteractiveDefaultProcess(t *testing.T) {
	dir := chdirTemp(t)

	err := Init(InitOptions{NonInteractive: true})
	require.NoError(t, err)

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "tor", cfg.Process.Name, "defaults should fill in the process name")
}

func TestInitRefusesToOverwriteWithoutForce(t *testing.T) {
	chdirTemp(t)

	require.NoError(t, Init(InitOptions{Process: "tor", NonInteractive: true}))

	err := Init(InitOptions{Process: "firefox", NonInteractive: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitForceOverwrites(t *testing.T) {
	dir := chdirTemp(t)

	require.NoError(t, Init(InitOptions{Process: "tor", NonInteractive: true}))
	require.NoError(t, Init(InitOptions{Process: "firefox", NonInteractive: true, Overwrite: true}))

	cfg, err := config.Load(filepath.Join(dir, config.ConfigFileName))
	require.NoError(t, err)
	assert.Equal(t, "firefox", cfg.Process.Name)
}
