package utils

import (
	"net/url"
	"strconv"
	"strings"
)

// TryParseURL parses absolute URLs only.
func TryParseURL(raw string) (*url.URL, bool) {
	if strings.TrimSpace(raw) == "" {
		return nil, false
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Hostname() == "" {
		return nil, false
	}
	return u, true
}

// PortFromURL returns the explicit port or the scheme default, 0 if unknown.
func PortFromURL(u *url.URL) uint32 {
	if u == nil {
		return 0
	}
	if p := u.Port(); p != "" {
		port, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return 0
		}
		return uint32(port)
	}
	switch strings.ToLower(u.Scheme) {
	case "https", "wss":
		return 443
	case "http", "ws":
		return 80
	}
	return 0
}
