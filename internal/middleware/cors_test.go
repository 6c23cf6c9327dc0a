package middleware

import (
	"strings"
	"testing"
)

func TestSplitOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{" https://a.example , https://b.example,", []string{"https://a.example", "https://b.example"}},
	}
	for _, tt := range tests {
		got := splitOrigins(tt.in)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("splitOrigins(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
