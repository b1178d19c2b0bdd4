package pii

import (
	"strings"
)

// maskEmail keeps the first character of the local part and the full domain:
// u***@example.com.
func maskEmail(value string, mask rune) string {
	at := strings.Index(value, "@")
	if at <= 0 {
		return maskGeneric(value, mask)
	}
	local, domain := value[:at], value[at:]
	return local[:1] + strings.Repeat(string(mask), len(local)-1) + domain
}

// maskPhone normalizes to digits and keeps the area code and last four:
// (555) ***-4567.
func maskPhone(value string, mask rune) string {
	digits := digitsOf(value)
	if len(digits) < 10 {
		return maskGeneric(value, mask)
	}
	return "(" + digits[:3] + ") " + strings.Repeat(string(mask), 3) + "-" + digits[len(digits)-4:]
}

// maskSSN keeps only the last four digits: ***-**-6789.
func maskSSN(value string, mask rune) string {
	digits := digitsOf(value)
	if len(digits) < 4 {
		return maskGeneric(value, mask)
	}
	return strings.Repeat(string(mask), 3) + "-" + strings.Repeat(string(mask), 2) + "-" + digits[len(digits)-4:]
}

// maskCreditCard keeps only the last four digits: **** **** **** 0366.
func maskCreditCard(value string, mask rune) string {
	digits := digitsOf(value)
	if len(digits) < 4 {
		return maskGeneric(value, mask)
	}
	quad := strings.Repeat(string(mask), 4)
	return quad + " " + quad + " " + quad + " " + digits[len(digits)-4:]
}

// maskGeneric masks all but the last four characters, or everything when the
// value is four characters or fewer.
func maskGeneric(value string, mask rune) string {
	if len(value) <= 4 {
		return strings.Repeat(string(mask), len(value))
	}
	return strings.Repeat(string(mask), len(value)-4) + value[len(value)-4:]
}
