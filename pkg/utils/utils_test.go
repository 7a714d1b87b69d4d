package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	h := NewHTTPHelper("")

	headers := h.BuildHeaders(map[string]string{"x-messari-api-key": "k", "Accept": "text/csv"})

	assert.Equal(t, "cryptodata/1.0", headers.Get("User-Agent"))
	assert.Equal(t, "k", headers.Get("X-Messari-Api-Key"))
	assert.Equal(t, []string{"text/csv"}, headers.Values("Accept"))
}

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper("ua")

	assert.True(t, h.IsValidURL("https://api.llama.fi"))
	assert.False(t, h.IsValidURL("api.llama.fi"))
	assert.False(t, h.IsValidURL("ftp://host/x"))
	assert.False(t, h.IsValidURL("://bad"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://api.llama.fi/protocol/aave", JoinURL("https://api.llama.fi/", "protocol", "aave"))
	assert.Equal(t, "https://x.io/a%2Fb", JoinURL("https://x.io", "a/b"))
	assert.Equal(t, "https://x.io", JoinURL("https://x.io"))
}

func TestStringHelper(t *testing.T) {
	s := NewStringHelper()

	assert.Equal(t, "a b c", s.NormalizeWhitespace("  a\n b\t\tc "))
	assert.Equal(t, "short", s.TruncateString("short", 10))
	assert.Equal(t, "abcd...", s.TruncateString("abcdefghij", 7))
	assert.Equal(t, "abcdefghij", s.TruncateString("abcdefghij", 0))
	assert.Equal(t, 4, s.Width("比特"))
}
