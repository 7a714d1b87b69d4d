// Package utils provides common utility functions.
package utils

import (
	"net/http"
	"net/url"
	"strings"
)

// HTTPHelper provides HTTP utility functions.
type HTTPHelper struct {
	userAgent string
}

// NewHTTPHelper creates a new HTTP helper sending the given user agent.
func NewHTTPHelper(userAgent string) *HTTPHelper {
	if userAgent == "" {
		userAgent = "cryptodata/1.0"
	}

	return &HTTPHelper{userAgent: userAgent}
}

// IsValidURL reports whether raw is an absolute http(s) URL.
func (h *HTTPHelper) IsValidURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}

	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// BuildHeaders creates HTTP headers with defaults. Custom headers replace
// defaults of the same name.
func (h *HTTPHelper) BuildHeaders(customHeaders map[string]string) http.Header {
	headers := http.Header{}

	headers.Set("User-Agent", h.userAgent)
	headers.Set("Accept", "application/json")

	for key, value := range customHeaders {
		headers.Set(key, value)
	}

	return headers
}

// JoinURL appends escaped path segments to base.
func JoinURL(base string, segments ...string) string {
	var b strings.Builder

	b.WriteString(strings.TrimRight(base, "/"))

	for _, s := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(s))
	}

	return b.String()
}
