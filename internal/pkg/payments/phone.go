package payments

import (
	"errors"
	"strings"
)

// ErrInvalidPhone is returned for numbers that cannot be normalized to the
// canonical 254 form.
var ErrInvalidPhone = errors.New("invalid Kenyan phone number")

// NormalizeKenyanPhone converts the accepted local formats to the canonical
// international form Safaricom expects:
//
//	0712345678  -> 254712345678
//	712345678   -> 254712345678
//	254712345678 unchanged
//
// Anything else is rejected.
func NormalizeKenyanPhone(phone string) (string, error) {
	p := strings.TrimSpace(phone)
	p = strings.TrimPrefix(p, "+")
	if p == "" {
		return "", ErrInvalidPhone
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return "", ErrInvalidPhone
		}
	}

	switch {
	case strings.HasPrefix(p, "254") && len(p) == 12:
		return p, nil
	case strings.HasPrefix(p, "0") && len(p) == 10:
		return "254" + p[1:], nil
	case strings.HasPrefix(p, "7") && len(p) == 9:
		return "254" + p, nil
	default:
		return "", ErrInvalidPhone
	}
}
