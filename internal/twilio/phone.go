package twilio

import "strings"

// FormatNumber normalizes a raw phone number for outbound dialing. Bare
// 10-digit numbers get the configured country code; anything longer is taken
// as already carrying one and just gets "+" re-applied.
func FormatNumber(phone, countryCode string) string {
	digits := sanitizeDigits(phone)
	if len(digits) == 10 {
		return countryCode + digits
	}
	return "+" + digits
}

// MaskNumber hides the middle of a phone number for logs.
func MaskNumber(phone string) string {
	if len(phone) <= 4 {
		return "****"
	}
	return phone[:2] + "****" + phone[len(phone)-2:]
}

func sanitizeDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
