package storefront

import (
	"fmt"
	"net/url"
	"strings"
)

// NormalizeBaseURL turns user input such as "shop.example.com/collections/x"
// or "http://shop.example.com/" into "scheme://host". Bare domains get https.
func NormalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty site address")
	}
	lower := strings.ToLower(raw)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		raw = "https://" + raw
	}
	raw = strings.TrimRight(raw, "/")

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse site address: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("site address %q has no host", raw)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
