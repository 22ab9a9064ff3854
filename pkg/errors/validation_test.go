package errors

import (
	"strings"
	"testing"
)

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid simple", "downtown", false},
		{"valid with dash", "city-center", false},
		{"valid with underscore", "zoom_14", false},
		{"valid with dot", "berlin.mitte", false},
		{"valid digits first", "2024-poi", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 129), true},
		{"parent traversal", "a..b", true},
		{"slash", "a/b", true},
		{"backslash", "a\\b", true},
		{"leading dot", ".hidden", true},
		{"space", "two words", true},
		{"null byte", "a\x00b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "scenes/city.json", false},
		{"absolute", "/tmp/scene.json", false},
		{"parent", "../scene.json", false},

		{"empty", "", true},
		{"too long", strings.Repeat("a", 5000), true},
		{"null byte", "scene\x00.json", true},
		{"newline", "scene\n.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
