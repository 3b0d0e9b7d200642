// Package connections discovers the live network connections of a
// monitored process. This sort of data can be retrieved via a variety
// of common *nix utilities:
//   - netstat   netstat -np | grep "ESTABLISHED <pid>/<process>"
//   - sockstat  sockstat | egrep "<process>\s*<pid>.*ESTABLISHED"
//   - lsof      lsof -nPi | egrep "^<process>\s*<pid>.*((UDP.*)|(\(ESTABLISHED\)))"
//   - ss        ss -nptu | grep "ESTAB.*\"<process>\",<pid>"
//
// All queries discard their stderr. Results include UDP and established
// TCP connections.
//
// FreeBSD lacks support for the needed netstat flags and has a
// completely different program for 'ss'. However, lsof works and there
// are a couple other options that perform even better:
//   - sockstat    sockstat -4c | grep '<process> *<pid>'
//   - procstat    procstat -f <pid> | grep TCP | grep -v 0.0.0.0:0
package connections

import (
	"fmt"
	"strings"

	"github.com/paulzwoo/arm/internal/errors"
)

// ResolverKind names one strategy (backed by one external tool) for
// discovering a process's active connections.
type ResolverKind string

const (
	KindNetstat     ResolverKind = "netstat"
	KindSS          ResolverKind = "ss"
	KindLsof        ResolverKind = "lsof"
	KindSockstat    ResolverKind = "sockstat"
	KindBSDSockstat ResolverKind = "bsd-sockstat"
	KindBSDProcstat ResolverKind = "bsd-procstat"

	// KindNone is the terminal selection once every catalog kind has been
	// blacklisted; it disables automatic lookups for the resolver.
	KindNone ResolverKind = ""
)

// anyPid matches any value in a tool's pid column when the caller
// didn't supply one.
const anyPid = "[0-9]*"

// Command templates. Flags used:
//
//	netstat: n = prevents dns lookups, p = include process
//	ss:      n = numeric ports, p = include process, t/u = tcp/udp sockets
//	lsof:    n = prevent dns lookups, P = show port numbers, i = ip only
//
// Using "lsof -nPi -p <pid>" instead of filtering with egrep is
// measurably slower, so the pid stays in the pattern.
const (
	runNetstat     = "netstat -np | grep \"ESTABLISHED %s/%s\""
	runSS          = "ss -nptu | grep \"ESTAB.*\\\"%s\\\",%s\""
	runLsof        = "lsof -nPi | egrep \"^%s\\s*%s.*((UDP.*)|(\\(ESTABLISHED\\)))\""
	runSockstat    = "sockstat | egrep \"%s\\s*%s.*ESTABLISHED\""
	runBSDSockstat = "sockstat -4c | grep '%s *%s'"
	runBSDProcstat = "procstat -f %s | grep TCP | grep -v 0.0.0.0:0"
)

// Catalog lists every resolver kind in fixed fail-over order.
var Catalog = []ResolverKind{
	KindNetstat,
	KindSS,
	KindLsof,
	KindSockstat,
	KindBSDSockstat,
	KindBSDProcstat,
}

// Label returns the human-readable name of the kind for logs and UI.
func (k ResolverKind) Label() string {
	switch k {
	case KindBSDSockstat:
		return "sockstat (bsd)"
	case KindBSDProcstat:
		return "procstat (bsd)"
	case KindNone:
		return "none"
	default:
		return string(k)
	}
}

// Tool returns the executable a kind depends on, for PATH probing.
func (k ResolverKind) Tool() string {
	switch k {
	case KindBSDSockstat:
		return "sockstat"
	case KindBSDProcstat:
		return "procstat"
	default:
		return string(k)
	}
}

// BuildCommand provides the exact shell command that resolves
// connections for the given kind. The pid improves accuracy; when empty
// a numeric wildcard matches any pid of the named process. procstat is
// the exception: it can only query a single pid, so requesting it
// without one is a contract violation surfaced before anything runs.
func BuildCommand(kind ResolverKind, processName, processPid string) (string, error) {
	if processPid == "" {
		if kind == KindBSDProcstat {
			return "", errors.New(errors.ErrResolver,
				"procstat resolution requires a pid",
				"Supply the process id or pick a different resolver.")
		}
		processPid = anyPid
	}

	switch kind {
	case KindNetstat:
		return fmt.Sprintf(runNetstat, processPid, processName), nil
	case KindSS:
		return fmt.Sprintf(runSS, processName, processPid), nil
	case KindLsof:
		return fmt.Sprintf(runLsof, processName, processPid), nil
	case KindSockstat:
		return fmt.Sprintf(runSockstat, processName, processPid), nil
	case KindBSDSockstat:
		return fmt.Sprintf(runBSDSockstat, processName, processPid), nil
	case KindBSDProcstat:
		return fmt.Sprintf(runBSDProcstat, processPid), nil
	default:
		return "", errors.New(errors.ErrResolver,
			fmt.Sprintf("Unrecognized resolution type: %s", kind),
			"")
	}
}

// addrColumns gives the whitespace-token positions of the local and
// foreign address:port fields in each tool's output. Sample lines:
//
//	netstat:      tcp  0  0  127.0.0.1:9051  127.0.0.1:53308  ESTABLISHED 9912/tor
//	ss:           tcp  ESTAB  0  0  127.0.0.1:9051  127.0.0.1:53308  users:(("tor",9912,20))
//	sockstat:     atagar  tor  3475  tcp4  127.0.0.1:9051  127.0.0.1:38942  ESTABLISHED
//	bsd-sockstat: user  tor  3475  6  tcp4  127.0.0.1:9051  127.0.0.1:38942
//	bsd-procstat: 3475  tor  20 s - rw---n--   2       0 TCP 10.0.0.2:9050 10.0.0.3:22370
//
// lsof is handled separately; it packs both endpoints into one
// "local->foreign" token at position 8.
func addrColumns(kind ResolverKind) (local, foreign int, ok bool) {
	switch kind {
	case KindNetstat:
		return 3, 4, true
	case KindSS:
		return 4, 5, true
	case KindSockstat:
		return 4, 5, true
	case KindBSDSockstat:
		return 5, 6, true
	case KindBSDProcstat:
		return 9, 10, true
	default:
		return 0, 0, false
	}
}

// lsofEndpointColumn is where lsof puts the "local->foreign" pair.
const lsofEndpointColumn = 8

// ParseLine extracts a connection tuple from one line of a kind's
// command output. Extra trailing tokens are ignored; a line with fewer
// tokens than the kind needs fails with a PARSE error.
func ParseLine(kind ResolverKind, line string) (ConnectionTuple, error) {
	comp := strings.Fields(line)

	if kind == KindLsof {
		if len(comp) <= lsofEndpointColumn {
			return ConnectionTuple{}, malformedLine(kind, line)
		}
		endpoints := strings.Split(comp[lsofEndpointColumn], "->")
		if len(endpoints) != 2 {
			return ConnectionTuple{}, malformedLine(kind, line)
		}
		localIP, localPort, err := splitAddr(endpoints[0])
		if err != nil {
			return ConnectionTuple{}, malformedLine(kind, line)
		}
		foreignIP, foreignPort, err := splitAddr(endpoints[1])
		if err != nil {
			return ConnectionTuple{}, malformedLine(kind, line)
		}
		return ConnectionTuple{
			LocalAddress:   localIP,
			LocalPort:      localPort,
			ForeignAddress: foreignIP,
			ForeignPort:    foreignPort,
		}, nil
	}

	localCol, foreignCol, ok := addrColumns(kind)
	if !ok {
		return ConnectionTuple{}, errors.New(errors.ErrResolver,
			fmt.Sprintf("Unrecognized resolution type: %s", kind),
			"")
	}
	if len(comp) <= foreignCol {
		return ConnectionTuple{}, malformedLine(kind, line)
	}

	localIP, localPort, err := splitAddr(comp[localCol])
	if err != nil {
		return ConnectionTuple{}, malformedLine(kind, line)
	}
	foreignIP, foreignPort, err := splitAddr(comp[foreignCol])
	if err != nil {
		return ConnectionTuple{}, malformedLine(kind, line)
	}

	return ConnectionTuple{
		LocalAddress:   localIP,
		LocalPort:      localPort,
		ForeignAddress: foreignIP,
		ForeignPort:    foreignPort,
	}, nil
}

// splitAddr splits "ip:port" on the last colon.
func splitAddr(addr string) (ip, port string, err error) {
	idx := strings.LastIndex(addr, ":")
	if idx <= 0 || idx == len(addr)-1 {
		return "", "", fmt.Errorf("not an ip:port pair: %q", addr)
	}
	return addr[:idx], addr[idx+1:], nil
}

// malformedLine builds the PARSE error for a line that doesn't match
// the kind's column layout.
func malformedLine(kind ResolverKind, line string) error {
	return errors.New(errors.ErrParse,
		fmt.Sprintf("Malformed %s output: %s", kind.Label(), line),
		"")
}

// ParseKind converts a user-supplied name into a resolver kind. Empty
// input means no override. Labels ("sockstat (bsd)") are not accepted,
// only the kind names themselves.
func ParseKind(name string) (ResolverKind, error) {
	if name == "" {
		return KindNone, nil
	}
	for _, kind := range Catalog {
		if string(kind) == strings.ToLower(name) {
			return kind, nil
		}
	}

	known := make([]string, len(Catalog))
	for i, kind := range Catalog {
		known[i] = string(kind)
	}
	return KindNone, errors.New(errors.ErrResolver,
		fmt.Sprintf("Unrecognized resolution type: %s", name),
		"Valid resolvers: "+strings.Join(known, ", "))
}

// SystemResolvers provides the resolver kinds worth trying on the given
// operating system, in preference order. osType is runtime.GOOS or
// uname -s output; anything not recognized as BSD gets the Linux set.
func SystemResolvers(osType string) []ResolverKind {
	switch strings.ToLower(osType) {
	case "freebsd":
		return []ResolverKind{KindBSDSockstat, KindBSDProcstat, KindLsof}
	default:
		return []ResolverKind{KindNetstat, KindSockstat, KindLsof, KindSS}
	}
}
