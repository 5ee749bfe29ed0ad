package stepform

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^\+?[0-9\s\-().]*$`)
)

// Msg replaces the message produced by v with msg.
func Msg(v Validator, msg string) Validator {
	return func(value any) string {
		if v(value) != "" {
			return msg
		}
		return ""
	}
}

// runeLen counts characters of the NFC form, so "é" typed as e + combining
// accent counts once.
func runeLen(s string) int {
	return utf8.RuneCountInString(norm.NFC.String(s))
}

// Length bounds the character count to [min, max], inclusive.
func Length(min, max int) Validator {
	msg := fmt.Sprintf("must be between %d and %d characters", min, max)
	return func(value any) string {
		s, ok := value.(string)
		if !ok {
			return msg
		}
		if n := runeLen(s); n < min || n > max {
			return msg
		}
		return ""
	}
}

// MinLength requires at least n characters.
func MinLength(n int) Validator {
	msg := fmt.Sprintf("must be at least %d characters", n)
	return func(value any) string {
		s, ok := value.(string)
		if !ok || runeLen(s) < n {
			return msg
		}
		return ""
	}
}

// MaxLength allows at most n characters.
func MaxLength(n int) Validator {
	msg := fmt.Sprintf("must be at most %d characters", n)
	return func(value any) string {
		s, ok := value.(string)
		if !ok || runeLen(s) > n {
			return msg
		}
		return ""
	}
}

// LettersAndSpaces restricts a value to letters, accented ones included, and spaces.
func LettersAndSpaces() Validator {
	const msg = "may only contain letters and spaces"
	return func(value any) string {
		s, ok := value.(string)
		if !ok {
			return msg
		}
		for _, r := range norm.NFC.String(s) {
			if !unicode.IsLetter(r) && r != ' ' && !unicode.Is(unicode.Mn, r) {
				return msg
			}
		}
		return ""
	}
}

// Digits restricts a value to ASCII digits.
func Digits() Validator {
	const msg = "may only contain digits"
	return func(value any) string {
		s, ok := value.(string)
		if !ok {
			return msg
		}
		for _, r := range s {
			if r < '0' || r > '9' {
				return msg
			}
		}
		return ""
	}
}

// Pattern requires the value to match re.
func Pattern(re *regexp.Regexp, msg string) Validator {
	return func(value any) string {
		s, ok := value.(string)
		if !ok || !re.MatchString(s) {
			return msg
		}
		return ""
	}
}

// Email requires a plausible address: something@domain.tld, no spaces.
func Email() Validator {
	return Pattern(emailPattern, "must be a valid email address")
}

// Phone accepts digits with the usual punctuation: + ( ) - . and spaces.
func Phone() Validator {
	return Pattern(phonePattern, "must be a valid phone number")
}

// Range bounds a numeric value to [min, max]. Out-of-range values are rejected, never clamped.
func Range(min, max float64) Validator {
	return func(value any) string {
		n, ok := toFloat(value)
		if !ok {
			return "must be a number"
		}
		if n < min {
			return "must be at least " + formatNumber(min)
		}
		if n > max {
			return "must be at most " + formatNumber(max)
		}
		return ""
	}
}

// Min rejects numbers below min.
func Min(min float64) Validator {
	return func(value any) string {
		n, ok := toFloat(value)
		if !ok || n < min {
			return "must be at least " + formatNumber(min)
		}
		return ""
	}
}

// Max rejects numbers above max.
func Max(max float64) Validator {
	return func(value any) string {
		n, ok := toFloat(value)
		if !ok || n > max {
			return "must be at most " + formatNumber(max)
		}
		return ""
	}
}

// OneOf restricts a value to the listed options.
func OneOf(options ...string) Validator {
	msg := "must be one of: " + strings.Join(options, ", ")
	return func(value any) string {
		s, ok := value.(string)
		if !ok || !isValidOption(s, options) {
			return msg
		}
		return ""
	}
}

// isValidOption checks if a value is in the allowed options list.
func isValidOption(value string, options []string) bool {
	if options == nil {
		return true
	}
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}

func formatNumber(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
