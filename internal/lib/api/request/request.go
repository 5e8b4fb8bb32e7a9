package request

import (
	"net"
	"net/http"
)

// ClientIP returns the peer address without the port. Behind the RealIP
// middleware RemoteAddr may already be a bare IP.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
