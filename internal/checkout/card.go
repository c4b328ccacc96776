package checkout

import "strings"

const maxCardDigits = 16

// CardDigits strips everything but digits from raw input and truncates
// to the 16-digit maximum. This is the value used for submission.
func CardDigits(raw string) string {
	var builder strings.Builder
	for _, r := range raw {
		if r < '0' || r > '9' {
			continue
		}
		builder.WriteRune(r)
		if builder.Len() == maxCardDigits {
			break
		}
	}
	return builder.String()
}

// FormatCardNumber renders the card number for display, grouped in
// fours: "4242424242424242" becomes "4242 4242 4242 4242". Applied as
// the user types, so partial input formats too.
func FormatCardNumber(raw string) string {
	digits := CardDigits(raw)
	if digits == "" {
		return ""
	}

	groups := make([]string, 0, 4)
	for start := 0; start < len(digits); start += 4 {
		end := start + 4
		if end > len(digits) {
			end = len(digits)
		}
		groups = append(groups, digits[start:end])
	}
	return strings.Join(groups, " ")
}
