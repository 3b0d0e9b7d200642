package connections

import (
	"testing"

	"github.com/paulzwoo/arm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildCommandWithPid(t *testing.T) {
	tests := []struct {
		kind ResolverKind
		want string
	}{
		{KindNetstat, `netstat -np | grep "ESTABLISHED 9912/tor"`},
		{KindSS, `ss -nptu | grep "ESTAB.*\"tor\",9912"`},
		{KindLsof, `lsof -nPi | egrep "^tor\s*9912.*((UDP.*)|(\(ESTABLISHED\)))"`},
		{KindSockstat, `sockstat | egrep "tor\s*9912.*ESTABLISHED"`},
		{KindBSDSockstat, `sockstat -4c | grep 'tor *9912'`},
		{KindBSDProcstat, `procstat -f 9912 | grep TCP | grep -v 0.0.0.0:0`},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cmd, err := BuildCommand(tt.kind, "tor", "9912")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestBuildCommandAnyPid(t *testing.T) {
	// Omitting the pid substitutes a numeric wildcard in the pid column.
	tests := []struct {
		kind ResolverKind
		want string
	}{
		{KindNetstat, `netstat -np | grep "ESTABLISHED [0-9]*/tor"`},
		{KindSS, `ss -nptu | grep "ESTAB.*\"tor\",[0-9]*"`},
		{KindLsof, `lsof -nPi | egrep "^tor\s*[0-9]*.*((UDP.*)|(\(ESTABLISHED\)))"`},
		{KindSockstat, `sockstat | egrep "tor\s*[0-9]*.*ESTABLISHED"`},
		{KindBSDSockstat, `sockstat -4c | grep 'tor *[0-9]*'`},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			cmd, err := BuildCommand(tt.kind, "tor", "")
			require.NoError(t, err)
			assert.Equal(t, tt.want, cmd)
		})
	}
}

func TestBuildCommandProcstatRequiresPid(t *testing.T) {
	// procstat can only query a single pid; asking without one must fail
	// before anything executes.
	_, err := BuildCommand(KindBSDProcstat, "tor", "")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrResolver))
}

func TestBuildCommandUnknownKind(t *testing.T) {
	_, err := BuildCommand(ResolverKind("fstat"), "tor", "9912")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrResolver))
}

func TestParseLine(t *testing.T) {
	// One literal sample line per kind, taken from the documented
	// output formats.
	tests := []struct {
		kind ResolverKind
		line string
		want ConnectionTuple
	}{
		{
			kind: KindNetstat,
			line: "tcp  0  0  127.0.0.1:9051  127.0.0.1:53308  ESTABLISHED 9912/tor",
			want: ConnectionTuple{"127.0.0.1", "9051", "127.0.0.1", "53308"},
		},
		{
			kind: KindSS,
			line: `tcp  ESTAB  0  0  127.0.0.1:9051  127.0.0.1:53308  users:(("tor",9912,20))`,
			want: ConnectionTuple{"127.0.0.1", "9051", "127.0.0.1", "53308"},
		},
		{
			kind: KindLsof,
			line: "tor  3873  atagar  45u  IPv4  40994  0t0  TCP 10.243.55.20:45724->194.154.227.109:9001 (ESTABLISHED)",
			want: ConnectionTuple{"10.243.55.20", "45724", "194.154.227.109", "9001"},
		},
		{
			kind: KindSockstat,
			line: "atagar  tor  3475  tcp4  127.0.0.1:9051  127.0.0.1:38942  ESTABLISHED",
			want: ConnectionTuple{"127.0.0.1", "9051", "127.0.0.1", "38942"},
		},
		{
			kind: KindBSDSockstat,
			line: "_tor  tor  4397  7  tcp4  172.27.72.202:9050  127.0.0.1:22370",
			want: ConnectionTuple{"172.27.72.202", "9050", "127.0.0.1", "22370"},
		},
		{
			kind: KindBSDProcstat,
			line: " 3475  tor  20 s - rw---n--   2       0 TCP 10.0.0.2:9050 10.0.0.3:22370",
			want: ConnectionTuple{"10.0.0.2", "9050", "10.0.0.3", "22370"},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			tuple, err := ParseLine(tt.kind, tt.line)
			require.NoError(t, err)
			assert.Equal(t, tt.want, tuple)
		})
	}
}

func TestParseLineIgnoresTrailingTokens(t *testing.T) {
	line := "tcp  0  0  127.0.0.1:9051  127.0.0.1:53308  ESTABLISHED 9912/tor extra tokens here"
	tuple, err := ParseLine(KindNetstat, line)
	require.NoError(t, err)
	assert.Equal(t, "9051", tuple.LocalPort)
}

func TestParseLineTooFewTokens(t *testing.T) {
	for _, kind := range Catalog {
		t.Run(string(kind), func(t *testing.T) {
			_, err := ParseLine(kind, "tcp 0")
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrParse))
		})
	}
}

func TestParseLineBadAddress(t *testing.T) {
	line := "tcp  0  0  not-an-address  127.0.0.1:53308  ESTABLISHED 9912/tor"
	_, err := ParseLine(KindNetstat, line)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrParse))
}

func TestSystemResolvers(t *testing.T) {
	assert.Equal(t,
		[]ResolverKind{KindNetstat, KindSockstat, KindLsof, KindSS},
		SystemResolvers("linux"))
	assert.Equal(t,
		[]ResolverKind{KindBSDSockstat, KindBSDProcstat, KindLsof},
		SystemResolvers("freebsd"))
	assert.Equal(t,
		[]ResolverKind{KindBSDSockstat, KindBSDProcstat, KindLsof},
		SystemResolvers("FreeBSD"))
	// Unrecognized systems get the Linux set.
	assert.Equal(t,
		[]ResolverKind{KindNetstat, KindSockstat, KindLsof, KindSS},
		SystemResolvers("darwin"))
}

func TestKindLabels(t *testing.T) {
	assert.Equal(t, "netstat", KindNetstat.Label())
	assert.Equal(t, "sockstat (bsd)", KindBSDSockstat.Label())
	assert.Equal(t, "procstat (bsd)", KindBSDProcstat.Label())
	assert.Equal(t, "none", KindNone.Label())
}

func TestKindTools(t *testing.T) {
	assert.Equal(t, "sockstat", KindBSDSockstat.Tool())
	assert.Equal(t, "procstat", KindBSDProcstat.Tool())
	assert.Equal(t, "ss", KindSS.Tool())
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		input   string
		want    ResolverKind
		wantErr bool
	}{
		{input: "", want: KindNone},
		{input: "netstat", want: KindNetstat},
		{input: "SS", want: KindSS},
		{input: "bsd-procstat", want: KindBSDProcstat},
		{input: "wireshark", wantErr: true},
		{input: "sockstat (bsd)", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.IsCode(err, errors.ErrResolver))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
