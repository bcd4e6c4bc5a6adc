package utils

import (
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var amountRe = regexp.MustCompile(`^\+?\d+$`)

// HostPort returns the host:port of an absolute URL. The scheme's default
// port is filled in when the URL does not carry one.
func HostPort(rawURL string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", errors.WithMessage(err, "error parsing url")
	}
	if u.Host == "" {
		return "", fmt.Errorf("url %q has no host", rawURL)
	}

	if u.Port() != "" {
		return strings.ToLower(u.Host), nil
	}

	port := ""
	switch strings.ToLower(u.Scheme) {
	case "http":
		port = "80"
	case "https":
		port = "443"
	default:
		return "", fmt.Errorf("url %q has no port and unknown scheme %q", rawURL, u.Scheme)
	}
	return strings.ToLower(net.JoinHostPort(u.Hostname(), port)), nil
}

// NormalizeAddress reduces a directory address to host[:port] so it can be
// compared against HostPort. Addresses may or may not carry a scheme or path.
func NormalizeAddress(addr string) string {
	addr = strings.TrimSpace(addr)
	if strings.Contains(addr, "://") {
		if hp, err := HostPort(addr); err == nil {
			return hp
		}
	}
	if i := strings.Index(addr, "/"); i >= 0 {
		addr = addr[:i]
	}
	return strings.ToLower(addr)
}

// ParseAmount parses a whole, non-negative token amount.
func ParseAmount(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, errors.New("amount is empty")
	}
	if strings.HasPrefix(s, "-") {
		return 0, errors.New("amount must be a non-negative integer")
	}
	if !amountRe.MatchString(s) {
		return 0, errors.Errorf("amount %q is not a whole number", s)
	}

	amount, err := strconv.ParseUint(strings.TrimPrefix(s, "+"), 10, 64)
	if err != nil {
		return 0, errors.WithMessage(err, "error parsing amount")
	}
	return amount, nil
}

// ParseKeyValues turns repeated key=value flag values into a map.
func ParseKeyValues(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, pair := range pairs {
		k, v, ok := strings.Cut(pair, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid key=value pair %q", pair)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}
