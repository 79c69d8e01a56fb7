package httputil

import (
	"net/url"
	"strings"
)

// AllowedHost checks URLs that arrive inside registry responses (catalog
// indirections) before they are fetched. Only absolute HTTPS URLs whose host
// equals, or is a subdomain of, one of the trusted hosts pass.
type AllowedHost struct {
	hosts []string
}

// NewAllowedHost creates an allow list over the given trusted hosts.
// Hosts are matched case-insensitively; "nuget.org" admits "api.nuget.org".
func NewAllowedHost(hosts ...string) *AllowedHost {
	normalized := make([]string, 0, len(hosts))
	for _, h := range hosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			normalized = append(normalized, h)
		}
	}
	return &AllowedHost{hosts: normalized}
}

// Allows reports whether rawURL is an HTTPS URL on a trusted host.
// Malformed URLs, non-HTTPS schemes, URLs with embedded credentials, and
// unknown hosts all fail the check.
func (a *AllowedHost) Allows(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	if u.Scheme != "https" || u.User != nil {
		return false
	}

	host := strings.ToLower(u.Hostname())
	if host == "" {
		return false
	}

	for _, trusted := range a.hosts {
		if host == trusted || strings.HasSuffix(host, "."+trusted) {
			return true
		}
	}
	return false
}
