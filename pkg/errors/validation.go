package errors

import (
	"regexp"
	"unicode"
)

// maxNameLength bounds node, port and label names read from description files.
const maxNameLength = 128

// nameRegex matches identifiers accepted for nodes, ports and labels:
// a letter or underscore followed by letters, digits, '_', '.', '-', '[' or ']'.
// Brackets allow bus-style names such as "IN[3]".
var nameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_.\-\[\]]*$`)

// ValidateName validates an identifier read from a netlist or device file.
// The kind ("node", "port", "label") is only used in the error message.
//
// Validation rules:
//   - Name cannot be empty
//   - Maximum length of 128 characters
//   - No control characters
//   - Must match [A-Za-z_][A-Za-z0-9_.-[]]*
func ValidateName(kind, name string) error {
	if name == "" {
		return New(ErrCodeInvalidName, "%s name cannot be empty", kind)
	}

	if len(name) > maxNameLength {
		return New(ErrCodeInvalidName, "%s name too long (max %d characters)", kind, maxNameLength)
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidName, "%s name contains invalid control characters", kind)
		}
	}

	if !nameRegex.MatchString(name) {
		return New(ErrCodeInvalidName, "invalid %s name: %q", kind, name)
	}

	return nil
}
