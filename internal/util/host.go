package util

import (
	"net"
	"strings"
)

// StripPort removes a :port suffix from a hostname, tolerating bare hosts.
func StripPort(hostport string) string {
	if !strings.Contains(hostport, ":") {
		return hostport
	}
	host, _, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport
	}
	return host
}

// NormalisePath trims a trailing slash (the root path stays "/") so path
// lookups are slash-insensitive.
func NormalisePath(p string) string {
	if p == "" {
		return "/"
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		return strings.TrimRight(p, "/")
	}
	return p
}
