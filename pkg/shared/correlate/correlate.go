package correlate

import (
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Param is the query parameter carrying the correlation token. It is test
// harness metadata, not protocol content, and must be stripped from every
// URL before structural comparison.
const Param = "id"

// NewID returns a fresh opaque correlation token, unique per invocation.
func NewID(prefix string) string {
	tok := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if prefix == "" {
		return tok
	}
	return prefix + "_" + tok
}

// Append adds the correlation token to a URL, using ? or & as appropriate.
func Append(rawURL, id string) string {
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + Param + "=" + url.QueryEscape(id)
}

// Extract returns the correlation token embedded in a URL or path, or ""
// when absent or unparseable.
func Extract(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Query().Get(Param)
}

// Strip removes the correlation parameter via a query round trip. Remaining
// parameters survive in the encoder's order, which is stable but not
// necessarily the original byte order. Strip is idempotent.
func Strip(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}
	q := u.Query()
	q.Del(Param)
	u.RawQuery = q.Encode()
	return u.String()
}
