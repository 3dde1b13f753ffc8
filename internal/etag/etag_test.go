package etag

import (
	"strings"
	"testing"
)

func TestGenerate(t *testing.T) {
	a := Generate([]byte(`{"q":"title_t:hello"}`))
	if !strings.HasPrefix(a, `W/"`) || !strings.HasSuffix(a, `"`) {
		t.Errorf("expected weak ETag, got %s", a)
	}
	if len(Parse(a)) != 16 {
		t.Errorf("expected 16 hex digits, got %q", Parse(a))
	}
	if b := Generate([]byte(`{"q":"title_t:hello"}`)); a != b {
		t.Errorf("expected stable ETag, got %s and %s", a, b)
	}
	if b := Generate([]byte(`{"q":"title_t:world"}`)); a == b {
		t.Errorf("expected different ETags for different bodies, got %s", a)
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Weak ETag", `W/"abc123"`, "abc123"},
		{"Strong ETag", `"abc123"`, "abc123"},
		{"Empty string", "", ""},
		{"No quotes", "abc123", "abc123"},
		{"Surrounding space", ` W/"abc123" `, "abc123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Parse(tt.input); got != tt.want {
				t.Errorf("Parse(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNoneMatch(t *testing.T) {
	tests := []struct {
		name        string
		ifNoneMatch string
		currentETag string
		want        bool
	}{
		{"ETags match", `W/"abc123"`, `W/"abc123"`, false},
		{"ETags differ", `W/"abc123"`, `W/"def456"`, true},
		{"Strong and weak ETags match", `"abc123"`, `W/"abc123"`, false},
		{"Match in list", `W/"x", W/"abc123"`, `W/"abc123"`, false},
		{"No match in list", `W/"x", W/"y"`, `W/"abc123"`, true},
		{"Empty If-None-Match", "", `W/"abc123"`, true},
		{"Wildcard with current ETag", "*", `W/"abc123"`, false},
		{"Wildcard without current ETag", "*", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NoneMatch(tt.ifNoneMatch, tt.currentETag); got != tt.want {
				t.Errorf("NoneMatch(%q, %q) = %v, want %v", tt.ifNoneMatch, tt.currentETag, got, tt.want)
			}
		})
	}
}
