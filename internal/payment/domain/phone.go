package domain

import "strings"

// NormalizePhone canonicalizes a Kenyan mobile number to the
// 254XXXXXXXXX form the gateway requires.
func NormalizePhone(raw string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, strings.TrimSpace(raw))

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "254"):
	case len(digits) == 10 && strings.HasPrefix(digits, "0"):
		digits = "254" + digits[1:]
	case len(digits) == 9 && (strings.HasPrefix(digits, "7") || strings.HasPrefix(digits, "1")):
		digits = "254" + digits
	default:
		return "", ErrInvalidPhone
	}

	return digits, nil
}
