// Package validation holds the field rules and form validators shared by every entry point.
package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	emailPattern    = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@([A-Za-z0-9.-]+\.[A-Za-z]{2,})$`)
	phoneSeparators = regexp.MustCompile(`[\s\-()]`)
	phoneDigits     = regexp.MustCompile(`^\d{10,15}$`)
	postcodePattern = regexp.MustCompile(`^[A-Z]{1,2}[0-9R][0-9A-Z]? [0-9][A-Z]{2}$`)
	datePattern     = regexp.MustCompile(`^(0[1-9]|[12][0-9]|3[01])/(0[1-9]|1[0-2])/(19|20)\d{2}$`)
)

// PasswordSpecialChars is the set of characters that satisfy the special-character rule.
const PasswordSpecialChars = "!@#$%^&*()_+-=[]{}|;:,.<>?"

// PasswordStrongMarker is reported by PasswordStrengthReport when every rule passes.
const PasswordStrongMarker = "Strong password ✓"

func IsValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// IsValidPhone accepts 10 to 15 digits once spaces, dashes and parentheses are removed.
func IsValidPhone(s string) bool {
	return phoneDigits.MatchString(phoneSeparators.ReplaceAllString(s, ""))
}

// IsValidUKPostcode is case-sensitive; callers uppercase input first.
func IsValidUKPostcode(s string) bool {
	return postcodePattern.MatchString(s)
}

// IsValidDate checks DD/MM/YYYY syntax only. Impossible dates such as 31/02 pass.
func IsValidDate(s string) bool {
	return datePattern.MatchString(s)
}

type passwordRule struct {
	missing string
	ok      func(string) bool
}

var passwordRules = []passwordRule{
	{"at least 8 characters", func(s string) bool { return utf8.RuneCountInString(s) >= 8 }},
	{"one uppercase letter", func(s string) bool { return strings.IndexFunc(s, unicode.IsUpper) >= 0 }},
	{"one lowercase letter", func(s string) bool { return strings.IndexFunc(s, unicode.IsLower) >= 0 }},
	{"one digit", func(s string) bool { return strings.IndexFunc(s, unicode.IsDigit) >= 0 }},
	{"one special character", func(s string) bool { return strings.ContainsAny(s, PasswordSpecialChars) }},
}

func IsStrongPassword(s string) bool {
	for _, r := range passwordRules {
		if !r.ok(s) {
			return false
		}
	}
	return true
}

// PasswordStrengthReport returns "" for empty input, PasswordStrongMarker for a strong password,
// and otherwise lists every failing rule in a fixed order.
func PasswordStrengthReport(s string) string {
	if s == "" {
		return ""
	}
	var missing []string
	for _, r := range passwordRules {
		if !r.ok(s) {
			missing = append(missing, r.missing)
		}
	}
	if len(missing) == 0 {
		return PasswordStrongMarker
	}
	return "Password must contain: " + strings.Join(missing, ", ")
}
