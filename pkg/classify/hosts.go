package classify

import (
	"net/url"
	"strings"
)

// FirstPartyHosts is the set of hosts the integrating application
// considers its own. A URL is first-party when its host is an exact
// match or a subdomain of any entry.
type FirstPartyHosts struct {
	hosts map[string]struct{}
}

// NewFirstPartyHosts normalizes hosts to lowercase and drops empty
// entries.
func NewFirstPartyHosts(hosts []string) FirstPartyHosts {
	set := make(map[string]struct{}, len(hosts))
	for _, h := range hosts {
		h = strings.ToLower(strings.TrimSpace(h))
		if h == "" {
			continue
		}
		set[h] = struct{}{}
	}
	return FirstPartyHosts{hosts: set}
}

// IsEmpty reports whether no hosts are configured.
func (f FirstPartyHosts) IsEmpty() bool {
	return len(f.hosts) == 0
}

// Matches reports whether host equals or is a subdomain of a configured
// host. Matching is case-insensitive. An empty host never matches.
func (f FirstPartyHosts) Matches(host string) bool {
	if host == "" {
		return false
	}
	host = strings.ToLower(host)
	for h := range f.hosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}

// MatchesURL applies Matches to the URL's hostname. A nil URL or a URL
// without a host classifies as not first-party.
func (f FirstPartyHosts) MatchesURL(u *url.URL) bool {
	if u == nil {
		return false
	}
	return f.Matches(u.Hostname())
}
