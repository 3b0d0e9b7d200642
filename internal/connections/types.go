package connections

// ConnectionTuple is one live connection of the monitored process.
// Ports are kept as strings because they come straight out of tool
// output and are only ever displayed.
type ConnectionTuple struct {
	LocalAddress   string
	LocalPort      string
	ForeignAddress string
	ForeignPort    string
}
