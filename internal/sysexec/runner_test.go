package sysexec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShellRunnerCall(t *testing.T) {
	r := NewShellRunner()

	lines, err := r.Call("echo one; echo two")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, lines)
}

func TestShellRunnerCallEmptyOutput(t *testing.T) {
	r := NewShellRunner()

	lines, err := r.Call("true")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestShellRunnerCallPipeline(t *testing.T) {
	r := NewShellRunner()

	lines, err := r.Call("printf 'a\\nb\\nc\\n' | grep b")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, lines)
}

func TestShellRunnerGrepNoMatchIsEmpty(t *testing.T) {
	r := NewShellRunner()

	// grep exiting 1 on no match is an empty result, not an error.
	lines, err := r.Call("printf 'a\\n' | grep nomatch")
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestShellRunnerDiscardsStderr(t *testing.T) {
	r := NewShellRunner()

	lines, err := r.Call("echo visible; echo hidden 1>&2")
	require.NoError(t, err)
	assert.Equal(t, []string{"visible"}, lines)
}

func TestShellRunnerIsAvailable(t *testing.T) {
	r := NewShellRunner()

	assert.True(t, r.IsAvailable("sh"))
	assert.False(t, r.IsAvailable("definitely-not-a-real-tool-xyz"))
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []string
	}{
		{"empty", "", nil},
		{"single", "one\n", []string{"one"}},
		{"blank lines skipped", "one\n\n  \ntwo\n", []string{"one", "two"}},
		{"crlf trimmed", "one\r\ntwo\r\n", []string{"one", "two"}},
		{"no trailing newline", "one\ntwo", []string{"one", "two"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitLines(tt.output))
		})
	}
}
