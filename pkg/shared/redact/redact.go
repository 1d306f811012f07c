// Package redact masks credential-bearing header values before they reach
// a log. Both runners see the same masking, so redaction never introduces
// a comparison difference.
package redact

import "strings"

var sensitiveHeaders = []string{"authorization", "proxy-authorization"}

// Headers returns a copy of h with credential values masked. The auth
// scheme token is preserved so logs still show what kind of credential was
// presented.
func Headers(h map[string]string) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k, v := range h {
		if isSensitive(k) {
			out[k] = maskValue(v)
			continue
		}
		out[k] = v
	}
	return out
}

func isSensitive(key string) bool {
	k := strings.ToLower(key)
	for _, s := range sensitiveHeaders {
		if k == s {
			return true
		}
	}
	return false
}

func maskValue(v string) string {
	if scheme, _, ok := strings.Cut(v, " "); ok {
		return scheme + " ***"
	}
	return "***"
}
