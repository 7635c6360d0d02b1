package util

import (
	"net/url"
	"strings"
)

func MakeUrl(parts ...string) string {
	res := ""
	for i, p := range parts {
		if p == "" {
			continue
		}
		if p[len(p)-1:] == "/" {
			p = p[:len(p)-1]
		}
		if p == "" {
			continue
		}
		if p[0] != '/' && i > 0 {
			res += "/" + p
		} else {
			res += p
		}
	}
	return res
}

// MakeResolveUrl builds the canonical resolve URL for a pid on the given node.
func MakeResolveUrl(baseUrl string, pid string) string {
	return MakeUrl(baseUrl, "/v1/resolve/", url.QueryEscape(pid))
}

// PidFromResolveUrl recovers the pid from a URL built by MakeResolveUrl. The
// second return is false when the URL has no resolve segment.
func PidFromResolveUrl(u string) (string, bool) {
	idx := strings.LastIndex(u, "/resolve/")
	if idx < 0 {
		return "", false
	}
	raw := u[idx+len("/resolve/"):]
	if raw == "" {
		return "", false
	}
	pid, err := url.QueryUnescape(raw)
	if err != nil {
		return raw, true
	}
	return pid, true
}

// SameBaseUrl compares two node base URLs ignoring trailing slashes and case.
func SameBaseUrl(a string, b string) bool {
	return strings.EqualFold(strings.TrimRight(a, "/"), strings.TrimRight(b, "/"))
}
