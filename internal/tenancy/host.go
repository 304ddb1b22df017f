package tenancy

import (
	"net"
	"regexp"
	"slices"
	"strings"
)

// DefaultReservedSubdomains are host labels that never name a tenant.
var DefaultReservedSubdomains = []string{"www", "app", "api", "local", "localhost", "admin", "portal"}

var subdomainRe = regexp.MustCompile(`^[a-z0-9-]+$`)

// HostInfo is what a request host says about its tenant.
type HostInfo struct {
	// Domain is the full host, lowercased, without port.
	Domain string
	// Subdomain is the first host label, or "" when it is reserved or the
	// host is an IP address.
	Subdomain string
}

// ExtractHostInfo splits host into tenant lookup candidates using the
// default reserved list.
func ExtractHostInfo(host string) HostInfo {
	return extractHostInfo(host, DefaultReservedSubdomains)
}

func extractHostInfo(host string, reserved []string) HostInfo {
	host = strings.ToLower(strings.TrimSpace(host))
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return HostInfo{}
	}
	info := HostInfo{Domain: host}
	if net.ParseIP(host) != nil {
		return info
	}
	label, _, _ := strings.Cut(host, ".")
	if label != "" && !slices.Contains(reserved, label) {
		info.Subdomain = label
	}
	return info
}

// ValidSubdomain reports whether s may be used as a tenant subdomain: at
// least two characters of [a-z0-9-] and not reserved.
func ValidSubdomain(s string) bool {
	if len(s) < 2 || slices.Contains(DefaultReservedSubdomains, s) {
		return false
	}
	return subdomainRe.MatchString(s)
}
