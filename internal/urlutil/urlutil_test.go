package urlutil_test

import (
	"errors"
	"testing"

	"webmon/internal/urlutil"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"foo.com", "https://foo.com:443"},
		{"foo42.com", "https://foo42.com:443"},
		{"foo.com:8080", "http://foo.com:8080"},
		{"foo.io/health", "https://foo.io:443/health"},
		{"foo.com:8080/health", "http://foo.com:8080/health"},
		{"foo.com:443", "https://foo.com:443"},
		{"http://foo.com", "http://foo.com:80"},
		{"https://foo.com", "https://foo.com:443"},
		{"http://foo.com:9090/status", "http://foo.com:9090/status"},
		{"https://foo.com/", "https://foo.com:443"},
		{"foo.com/deep/path/", "https://foo.com:443/deep/path"},
	}

	for _, tt := range tests {
		got, err := urlutil.Normalize(tt.in, false)
		if err != nil {
			t.Errorf("Normalize(%q): unexpected error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalize_NakedDomain(t *testing.T) {
	got, err := urlutil.Normalize("intranet", false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://www.intranet:443" {
		t.Errorf("expected www prefix for dotless host, got %q", got)
	}

	got, err = urlutil.Normalize("intranet", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "https://intranet:443" {
		t.Errorf("expected dotless host kept as-is, got %q", got)
	}
}

func TestNormalize_Malformed(t *testing.T) {
	for _, in := range []string{"", "   ", "://foo", "/just/a/path", ":8080"} {
		_, err := urlutil.Normalize(in, false)
		if err == nil {
			t.Errorf("Normalize(%q): expected error, got nil", in)
			continue
		}
		if !errors.Is(err, urlutil.ErrMalformedInput) {
			t.Errorf("Normalize(%q): expected ErrMalformedInput, got %v", in, err)
		}
	}
}

func TestNormalize_AlwaysExplicit(t *testing.T) {
	inputs := []string{"a.com", "a.com:81", "https://a.com", "a.com/x", "http://a.com:8080/x/y"}
	for _, in := range inputs {
		got, err := urlutil.Normalize(in, false)
		if err != nil {
			t.Fatalf("Normalize(%q): %v", in, err)
		}
		if got[len(got)-1] == '/' {
			t.Errorf("Normalize(%q) = %q: trailing slash not stripped", in, got)
		}
	}
}
