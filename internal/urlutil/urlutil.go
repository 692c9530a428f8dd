// Package urlutil turns loosely written host[:port][/path] strings into
// canonical absolute URLs with an explicit scheme and port.
package urlutil

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrMalformedInput is returned when no host can be extracted from the input.
var ErrMalformedInput = errors.New("malformed url input")

var urlPattern = regexp.MustCompile(`^(?:(?P<protocol>[A-Za-z][A-Za-z0-9+.-]*)://)?(?P<host>[^:/ ]+)(?::(?P<port>[0-9]+))?(?P<path>/.*)?$`)

// Normalize canonicalizes raw into "{protocol}://{host}:{port}/{path}" with
// any trailing slash stripped.
//
// Missing pieces are inferred: with neither protocol nor port the result is
// https on 443; a bare port implies https for 443 and http otherwise; a bare
// protocol implies 443 for https and 80 otherwise. When allowNakedDomain is
// false a dotless host is expanded with a "www." prefix.
func Normalize(raw string, allowNakedDomain bool) (string, error) {
	m := urlPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrMalformedInput, raw)
	}

	protocol := m[urlPattern.SubexpIndex("protocol")]
	host := m[urlPattern.SubexpIndex("host")]
	port := m[urlPattern.SubexpIndex("port")]
	path := m[urlPattern.SubexpIndex("path")]

	if host == "" {
		return "", fmt.Errorf("%w: %q", ErrMalformedInput, raw)
	}

	if !allowNakedDomain && !strings.Contains(host, ".") {
		host = "www." + host
	}

	switch {
	case protocol == "" && port == "":
		protocol = "https"
		port = "443"
	case protocol == "":
		if port == "443" {
			protocol = "https"
		} else {
			protocol = "http"
		}
	case port == "":
		if protocol == "https" {
			port = "443"
		} else {
			port = "80"
		}
	}

	out := fmt.Sprintf("%s://%s:%s%s", protocol, host, port, path)
	return strings.TrimSuffix(out, "/"), nil
}
