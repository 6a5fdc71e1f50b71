package database

import (
	"slices"
	"testing"
)

func TestAllowedOriginsSlice(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"empty", "", nil},
		{"only separators", " , ,", nil},
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"comma", "https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"dedup keeps first position", "x, y, x", []string{"x", "y"}},
		{"trim", "  a  ,  b  ", []string{"a", "b"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if !slices.Equal(got, tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeRate(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    string
		wantErr bool
	}{
		{"5-S", "5-S", false},
		{" 100-M ", "100-M", false},
		{"1000-H", "1000-H", false},
		{"", "", true},
		{"fast", "", true},
		{"5-X", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			got, err := NormalizeRate(tt.raw)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NormalizeRate(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("NormalizeRate(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}
