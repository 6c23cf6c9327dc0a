package middleware

import "testing"

func TestValidateIdentifier(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"plain", "bitcoin", "bitcoin", false},
		{"at prefix", "@Bitcoin", "bitcoin", false},
		{"t.me link", "https://t.me/tech_news", "tech_news", false},
		{"trims whitespace", "  golang  ", "golang", false},
		{"empty", "", "", true},
		{"only at", "@", "", true},
		{"too short", "ab", "", true},
		{"exactly 3", "abc", "abc", false},
		{"too long", "a123456789012345678901234567890123456789012345678901234567890123x", "", true},
		{"invalid chars", "tech news", "", true},
		{"sql injection", "a'; DROP--", "", true},
		{"unicode", "café", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateIdentifier(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateCategory(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		allowAll bool
		want     string
		wantErr  bool
	}{
		{"valid", "sport", false, "sport", false},
		{"uppercase normalized", "NEWS", false, "news", false},
		{"wildcard allowed", "all", true, "all", false},
		{"wildcard rejected", "all", false, "", true},
		{"unknown", "cooking", true, "", true},
		{"empty", "", true, "", true},
		{"too long", "entertainmententertainment", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateCategory(tt.input, tt.allowAll)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidateChannelID(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"valid", "42", 42, false},
		{"empty", "", 0, true},
		{"zero", "0", 0, true},
		{"negative", "-3", 0, true},
		{"not a number", "abc", 0, true},
		{"overflow", "99999999999999999999", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, errMsg := ValidateChannelID(tt.input)
			if tt.wantErr && errMsg == "" {
				t.Errorf("expected error, got none")
			}
			if !tt.wantErr && errMsg != "" {
				t.Errorf("unexpected error: %s", errMsg)
			}
			if got != tt.want {
				t.Errorf("got %d, want %d", got, tt.want)
			}
		})
	}
}

func TestValidateLimit(t *testing.T) {
	tests := []struct {
		raw  string
		want int
	}{
		{"", DefaultListLimit},
		{"0", DefaultListLimit},
		{"1", 1},
		{" 25 ", 25},
		{"100", MaxListLimit},
		{"101", MaxListLimit},
		{"5000", MaxListLimit},
	}
	for _, tt := range tests {
		if n, msg := ValidateLimit(tt.raw); n != tt.want || msg != "" {
			t.Errorf("ValidateLimit(%q) = %d %q, want %d", tt.raw, n, msg, tt.want)
		}
	}
	if _, msg := ValidateLimit("-1"); msg == "" {
		t.Error("negative limit should be rejected")
	}
	if _, msg := ValidateLimit("ten"); msg == "" {
		t.Error("non-numeric limit should be rejected")
	}
}
