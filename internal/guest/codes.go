package guest

import (
	"fmt"
	"strconv"
	"strings"
)

// CodePrefix prefixes every guest code.
const CodePrefix = "GUEST-"

// FormatCode derives the guest code for a visual ID.
//
// The code is a pure function of the visual ID; it is stored redundantly on
// the record only so lookups by scanned code stay a single indexed query.
func FormatCode(visualID int) string {
	return fmt.Sprintf("%s%04d", CodePrefix, visualID)
}

// ParseCode extracts the visual ID from a guest code.
func ParseCode(code string) (int, bool) {
	trimmed := strings.TrimSpace(code)
	if !strings.HasPrefix(trimmed, CodePrefix) {
		return 0, false
	}
	digits := strings.TrimPrefix(trimmed, CodePrefix)
	if digits == "" {
		return 0, false
	}
	visualID, errParse := strconv.Atoi(digits)
	if errParse != nil || visualID <= 0 {
		return 0, false
	}
	return visualID, true
}
