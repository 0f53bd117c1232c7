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
		{"simple", "lut2_0", false},
		{"upper", "COUNTER", false},
		{"bus index", "IN[3]", false},
		{"dotted", "top.u1.q", false},
		{"leading underscore", "_tmp", false},

		{"empty", "", true},
		{"too long", "a" + strings.Repeat("b", 200), true},
		{"leading digit", "0lut", true},
		{"space", "my node", true},
		{"control char", "foo\x01bar", true},
		{"slash", "a/b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName("node", tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidName) {
				t.Errorf("ValidateName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidName)
			}
		})
	}
}
