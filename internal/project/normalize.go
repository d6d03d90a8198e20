package project

import (
	"fmt"
	"net"
	"net/url"
	"strings"
)

// NormalizeDomain returns a canonical representation of a project domain.
//
// The normalization rules are intentionally strict to help with project
// de-duplication per owner:
//   - Accept a bare hostname or a full URL; only the host is kept
//   - Lower-case the hostname
//   - Strip a single trailing dot (FQDN form)
//   - Drop default ports (http:80, https:443); reject other ports
//   - Reject IP addresses, empty hosts and hosts without a dot
//
// If the input cannot be reduced to a plausible registrable domain, an error
// is returned.
func NormalizeDomain(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty domain")
	}

	// allow callers to paste full URLs
	host := raw
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", fmt.Errorf("could not parse URL: %w", err)
		}
		host = u.Host
	}

	host = strings.ToLower(host)

	// split off an explicit port, keeping only defaults
	if h, p, err := net.SplitHostPort(host); err == nil {
		if p != "80" && p != "443" {
			return "", fmt.Errorf("unexpected port %q", p)
		}
		host = h
	}

	host = strings.TrimSuffix(host, ".")
	if host == "" {
		return "", fmt.Errorf("empty host")
	}
	if net.ParseIP(host) != nil {
		return "", fmt.Errorf("IP addresses are not accepted")
	}
	if !strings.Contains(host, ".") {
		return "", fmt.Errorf("%q is not a registrable domain", host)
	}
	for _, label := range strings.Split(host, ".") {
		if label == "" {
			return "", fmt.Errorf("empty label in %q", host)
		}
	}

	return host, nil
}
