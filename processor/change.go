package processor

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// Any decimal digit counts, so "٣%" reads as 3 like "3%".
var changePattern = regexp.MustCompile(`[+-]?\p{Nd}+\.?\p{Nd}*`)

// ParseChange extracts the first signed decimal number from a freeform
// change string such as "+2.45%" or "-1.23 %". It returns 0 when the string
// is empty or carries no number; it never fails.
func ParseChange(text string) float64 {
	value, _ := parseChange(text)
	return value
}

// parseChange also reports whether a number was found, so callers can tell
// a genuine 0% apart from a degraded field.
func parseChange(text string) (float64, bool) {
	if text == "" {
		return 0, false
	}
	match := changePattern.FindString(strings.ReplaceAll(text, "%", ""))
	if match == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(asciiDigits(match), 64)
	if err != nil {
		// Out-of-range input still carries a sign; ParseFloat returns ±Inf for it.
		if errors.Is(err, strconv.ErrRange) {
			return value, true
		}
		return 0, false
	}
	return value, true
}

// asciiDigits rewrites every decimal digit to its ASCII form. Unicode lays
// each digit set out as a run of 0 through 9, so the value is the offset
// from the start of its range.
func asciiDigits(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 || !unicode.Is(unicode.Nd, r) {
			return r
		}
		for _, rng := range unicode.Nd.R16 {
			if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
				return '0' + (r-lo)%10
			}
		}
		for _, rng := range unicode.Nd.R32 {
			if lo, hi := rune(rng.Lo), rune(rng.Hi); r >= lo && r <= hi {
				return '0' + (r-lo)%10
			}
		}
		return r
	}, s)
}
