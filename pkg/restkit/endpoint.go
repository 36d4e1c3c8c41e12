package restkit

import (
	"fmt"
	"net/url"
	"strings"
)

// Endpoint is a resource path template such as "users/{id}".
type Endpoint string

// Format substitutes {name} placeholders with escaped values from vars.
func (e Endpoint) Format(vars map[string]any) string {
	out := string(e)
	for name, value := range vars {
		out = strings.ReplaceAll(out, "{"+name+"}", url.PathEscape(fmt.Sprint(value)))
	}

	return out
}

// Endpoints binds endpoint templates to a base URL.
type Endpoints struct {
	BaseURL string
}

// URL returns the absolute URL of e with vars substituted.
func (b Endpoints) URL(e Endpoint, vars map[string]any) string {
	path := e.Format(vars)
	if b.BaseURL == "" {
		return path
	}

	return strings.TrimSuffix(b.BaseURL, "/") + "/" + strings.TrimPrefix(path, "/")
}

// parseBaseURL validates a base URL and normalizes its path so relative
// endpoints resolve beneath it.
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}

	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, raw)
	}

	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}

	return u, nil
}

// resolveURL returns endpoint unchanged when absolute; otherwise it is
// resolved beneath base. A leading "/" stays beneath the base path.
func resolveURL(base *url.URL, endpoint string) (string, error) {
	ref, err := url.Parse(strings.TrimSpace(endpoint))
	if err != nil {
		return "", fmt.Errorf("parsing endpoint %q: %w", endpoint, err)
	}

	if ref.IsAbs() {
		return ref.String(), nil
	}

	// "//host/path" would leave the base host behind with its credentials.
	if ref.Host != "" || ref.User != nil {
		return "", fmt.Errorf("%w: %q", ErrEndpointHost, endpoint)
	}

	if base == nil {
		return "", fmt.Errorf("%w: %q", ErrRelativeEndpoint, endpoint)
	}

	rel := *ref
	rel.Path = strings.TrimPrefix(rel.Path, "/")
	rel.RawPath = strings.TrimPrefix(rel.RawPath, "/")

	return base.ResolveReference(&rel).String(), nil
}
