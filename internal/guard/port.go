package guard

import (
	"net"
	"strconv"
)

// PortAvailable probes whether a TCP port can be claimed for listening.
//
// The probe is advisory: the port is bound and released immediately, so
// another process can take it between this check and the real bind. A
// lost race surfaces as the listener bind failure, not here.
func PortAvailable(host string, port int) bool {
	ln, err := net.Listen("tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
