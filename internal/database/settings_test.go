package database

import (
	"reflect"
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
		{"single", "https://a.example.com", []string{"https://a.example.com"}},
		{"multiple", "https://a.com, https://b.com", []string{"https://a.com", "https://b.com"}},
		{"duplicates dropped", "x, x, y", []string{"x", "y"}},
		{"whitespace trimmed", "  a  ,  b  ", []string{"a", "b"}},
		{"blank entries skipped", "a,,b,", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := AllowedOriginsSlice(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("AllowedOriginsSlice(%q) = %v, want %v", tt.raw, got, tt.want)
			}
		})
	}
}
