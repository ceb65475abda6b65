package classify

import (
	"net/url"
	"strings"
)

// InternalEndpoints is the set of the SDK's own telemetry-intake
// origins. Requests to these origins are invisible to the interception
// engine: never tracked, never modified. This precedence over
// first-party matching is load-bearing, it suppresses telemetry about
// the SDK's own traffic.
type InternalEndpoints struct {
	origins map[string]struct{}
}

// NewInternalEndpoints parses the configured intake URLs and keeps
// their origins (scheme + host). Entries that do not parse or lack a
// host are ignored; config validation reports them separately.
func NewInternalEndpoints(rawURLs []string) InternalEndpoints {
	origins := make(map[string]struct{}, len(rawURLs))
	for _, raw := range rawURLs {
		u, err := url.Parse(strings.TrimSpace(raw))
		if err != nil || u.Host == "" {
			continue
		}
		origins[originOf(u)] = struct{}{}
	}
	return InternalEndpoints{origins: origins}
}

// Contains reports whether the URL's origin matches a configured intake
// origin. A nil or hostless URL is never internal.
func (e InternalEndpoints) Contains(u *url.URL) bool {
	if u == nil || u.Host == "" {
		return false
	}
	_, ok := e.origins[originOf(u)]
	return ok
}

func originOf(u *url.URL) string {
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
}
