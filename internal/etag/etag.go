// Package etag computes validators for compiled query responses.
package etag

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Generate returns a weak ETag for a response body.
func Generate(body []byte) string {
	return fmt.Sprintf("W/\"%016x\"", xxhash.Sum64(body))
}

// Parse extracts the opaque value from a strong ("v") or weak (W/"v") ETag.
func Parse(etagHeader string) string {
	etagHeader = strings.TrimSpace(etagHeader)
	if strings.HasPrefix(etagHeader, "W/") {
		etagHeader = etagHeader[2:]
	}
	if len(etagHeader) >= 2 && etagHeader[0] == '"' && etagHeader[len(etagHeader)-1] == '"' {
		return etagHeader[1 : len(etagHeader)-1]
	}
	return etagHeader
}

// NoneMatch reports whether an If-None-Match header lets the request proceed, i.e. none
// of its listed ETags equals current. false means the client copy is fresh (304).
// Comparison is weak: W/ prefixes are ignored.
func NoneMatch(ifNoneMatch string, current string) bool {
	ifNoneMatch = strings.TrimSpace(ifNoneMatch)
	if ifNoneMatch == "" {
		return true
	}
	if ifNoneMatch == "*" {
		return current == ""
	}

	want := Parse(current)
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		if Parse(candidate) == want {
			return false
		}
	}
	return true
}
