package connection

import (
	"fmt"
	"net/url"
)

// ResolveURL normalizes a server address to a websocket URL.
//
// http and https are mapped to ws and wss. When secureOrigin is set, ws is
// upgraded to wss so a client served from a secure origin never dials in
// plaintext.
func ResolveURL(raw string, secureOrigin bool) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}

	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}

	if secureOrigin && u.Scheme == "ws" {
		u.Scheme = "wss"
	}

	if u.Host == "" {
		return "", fmt.Errorf("server url %q has no host", raw)
	}

	return u.String(), nil
}
