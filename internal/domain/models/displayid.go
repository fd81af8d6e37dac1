package models

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Display IDs follow PREFIX-YYYY-NNNN, e.g. QTN-2025-0007. The prefix is
// fixed per kind, the 4-digit sequence resets every year.
var displayIDPattern = regexp.MustCompile(`^[A-Z]{2,4}-\d{4}-\d{4}$`)

// FormatDisplayID builds a display ID from its parts.
func FormatDisplayID(prefix string, year, seq int) string {
	return fmt.Sprintf("%s-%04d-%04d", prefix, year, seq)
}

// ValidDisplayID reports whether s matches the display-ID format.
func ValidDisplayID(s string) bool {
	return displayIDPattern.MatchString(s)
}

// ParseDisplayID splits a display ID into prefix, year and sequence number.
func ParseDisplayID(s string) (prefix string, year, seq int, err error) {
	if !displayIDPattern.MatchString(s) {
		return "", 0, 0, fmt.Errorf("malformed display id %q", s)
	}
	parts := strings.Split(s, "-")
	year, err = strconv.Atoi(parts[1])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed display id %q: %w", s, err)
	}
	seq, err = strconv.Atoi(parts[2])
	if err != nil {
		return "", 0, 0, fmt.Errorf("malformed display id %q: %w", s, err)
	}
	return parts[0], year, seq, nil
}
