package helpers

import (
	"regexp"

	"authweb/internal/configuration"

	"github.com/pquerna/otp"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// partialCodePattern accepts codes still being typed: empty through six digits.
var partialCodePattern = regexp.MustCompile(`^\d{0,6}$`)

// IsValidCode reports whether code is exactly six digits. Submission to the
// remote API is only attempted for codes that pass this check.
func IsValidCode(code string) bool {
	return codePattern.MatchString(code)
}

// IsPartialCode reports whether code is a prefix of a valid code (zero to
// six digits), the only shape an input field is allowed to hold.
func IsPartialCode(code string) bool {
	return partialCodePattern.MatchString(code)
}

// ParseEnrollmentURI parses the otpauth:// URI issued by the server during
// MFA setup. The client never generates or verifies secrets; parsing is a
// sanity check before the URI is handed to the QR renderer, and gives the
// presentation layer access to the issuer and account labels.
func ParseEnrollmentURI(qrURI string) (*otp.Key, error) {
	return otp.NewKeyFromURL(qrURI)
}

// ExtractDigits pulls up to max digit characters out of text, in order,
// ignoring everything else. Used for paste handling on code inputs.
func ExtractDigits(text string, max int) []string {
	if max <= 0 {
		max = configuration.MFACodeLength
	}
	digits := make([]string, 0, max)
	for _, r := range text {
		if r >= '0' && r <= '9' {
			digits = append(digits, string(r))
			if len(digits) == max {
				break
			}
		}
	}
	return digits
}
