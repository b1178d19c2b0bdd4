package pii

// luhnValid reports whether a digit string passes the Luhn checksum.
// Walking right to left, digits in odd positions are summed as-is; digits in
// even positions are doubled, with 9 subtracted when the doubling carries.
// The string is valid iff the total is divisible by 10.
func luhnValid(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if d < 0 || d > 9 {
			return false
		}
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}

	return sum%10 == 0
}
