package auth

import "unicode"

// Strength labels, weakest first.
var strengthLabels = [...]string{"Sangat Lemah", "Lemah", "Sederhana", "Kuat", "Sangat Kuat"}

// StrengthReport is presentational feedback for a candidate password. It is
// not the acceptance rule; ValidateNewPassword is.
type StrengthReport struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

// Strength scores secret from 0 to 4.
func Strength(secret string) StrengthReport {
	var upper, lower, digit, symbol bool
	length := 0
	for _, r := range secret {
		length++
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}

	score := 0
	if length >= MinPasswordLength {
		score++
	}
	if length >= 12 {
		score++
	}
	if upper && lower {
		score++
	}
	if digit {
		score++
	}
	if symbol {
		score++
	}
	if length < MinPasswordLength && score > 1 {
		score = 1
	}
	if score > len(strengthLabels)-1 {
		score = len(strengthLabels) - 1
	}
	return StrengthReport{Score: score, Label: strengthLabels[score]}
}
