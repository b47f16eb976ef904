package registry

import (
	"errors"
	"fmt"
	"testing"
)

func TestAlreadyExistsOutput(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
		want   bool
	}{
		{
			name:   "index rejection",
			stderr: `error: crate core@1.0.0 already exists on crates.io index`,
			want:   true,
		},
		{
			name:   "upload rejection",
			stderr: `error: api request failed: crate version 1.0.0 is already uploaded`,
			want:   true,
		},
		{
			name:   "unrelated failure",
			stderr: `error: failed to verify package tarball`,
			want:   false,
		},
		{
			name:   "empty",
			stderr: "",
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := alreadyExistsOutput(tt.stderr); got != tt.want {
				t.Errorf("alreadyExistsOutput(%q) = %v, want %v", tt.stderr, got, tt.want)
			}
		})
	}
}

func TestSearchMatches(t *testing.T) {
	output := `core = "1.2.3"    # A core library
core-utils = "0.9.0"  # Helpers for core
`

	tests := []struct {
		name    string
		pkg     string
		version string
		want    bool
	}{
		{"exact match", "core", "1.2.3", true},
		{"version mismatch", "core", "1.2.4", false},
		{"name prefix is not a match", "core-utils", "1.2.3", false},
		{"second line matches", "core-utils", "0.9.0", true},
		{"absent package", "missing", "1.0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := searchMatches(output, tt.pkg, tt.version); got != tt.want {
				t.Errorf("searchMatches(%q, %q) = %v, want %v", tt.pkg, tt.version, got, tt.want)
			}
		})
	}
}

func TestSearchMatchesEmptyOutput(t *testing.T) {
	if searchMatches("", "core", "1.0.0") {
		t.Error("empty output must not match")
	}
}

func TestErrorUnwrap(t *testing.T) {
	inner := fmt.Errorf("%w: detail", ErrAlreadyExists)
	err := &Error{Package: "core@1.0.0", Op: "publish", Err: inner}

	if !errors.Is(err, ErrAlreadyExists) {
		t.Error("errors.Is must see ErrAlreadyExists through Error")
	}
	if err.Error() == "" {
		t.Error("empty error string")
	}
}

func TestFirstLine(t *testing.T) {
	if got := firstLine("  one\ntwo\n"); got != "one" {
		t.Errorf("firstLine = %q, want \"one\"", got)
	}
	if got := firstLine("solo"); got != "solo" {
		t.Errorf("firstLine = %q, want \"solo\"", got)
	}
}
