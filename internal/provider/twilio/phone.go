package twilio

import (
	"fmt"
	"regexp"
	"strings"
)

// e164 is the international number format: +, country code, up to 15 digits.
var e164 = regexp.MustCompile(`^\+[1-9]\d{1,14}$`)

// ValidateNumber reports whether a number is already in E.164 form.
func ValidateNumber(number string) bool {
	return e164.MatchString(number)
}

// FormatNumber coerces common US dialings into E.164. Ten digits get +1
// prepended, eleven digits starting with 1 get a +; anything else must
// already carry its + prefix.
func FormatNumber(number string) (string, error) {
	var digits strings.Builder
	for _, r := range number {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	d := digits.String()

	switch {
	case len(d) == 11 && strings.HasPrefix(d, "1"):
		return "+" + d, nil
	case len(d) == 10:
		return "+1" + d, nil
	case strings.HasPrefix(strings.TrimSpace(number), "+"):
		return "+" + d, nil
	}
	return "", fmt.Errorf("invalid phone number format: %q", number)
}
