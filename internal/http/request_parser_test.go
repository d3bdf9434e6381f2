package http

import (
	"net/http/httptest"
	"testing"
)

func TestParseUserHeader(t *testing.T) {
	tests := []struct {
		name    string
		header  string
		want    int64
		wantErr bool
	}{
		{name: "valid", header: "42", want: 42},
		{name: "padded", header: " 7 ", want: 7},
		{name: "missing", header: "", wantErr: true},
		{name: "non-numeric", header: "alice", wantErr: true},
		{name: "zero", header: "0", wantErr: true},
		{name: "negative", header: "-3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				r.Header.Set("X-User-ID", tt.header)
			}
			got, err := parseUserHeader(r)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseUserHeader(%q) = %d, want error", tt.header, got)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("parseUserHeader(%q) = %d, %v, want %d", tt.header, got, err, tt.want)
			}
		})
	}
}

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trims whitespace", input: "  coffee  ", want: "coffee"},
		{name: "strips control characters", input: "cof\x00fee\x07", want: "coffee"},
		{name: "keeps newlines and tabs", input: "line1\nline2\ttabbed", want: "line1\nline2\ttabbed"},
		{name: "empty", input: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizeInput(tt.input); got != tt.want {
				t.Errorf("sanitizeInput(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	got, err := parseDate("2026-03-01")
	if err != nil {
		t.Fatalf("parseDate: %v", err)
	}
	if got.Year() != 2026 || int(got.Month()) != 3 || got.Day() != 1 {
		t.Errorf("parseDate = %v", got)
	}

	for _, bad := range []string{"03/01/2026", "2026-3-1", "yesterday", ""} {
		if _, err := parseDate(bad); err == nil {
			t.Errorf("parseDate(%q) succeeded, want error", bad)
		}
	}
}
