package seo

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidNumber is returned for text that is not a pt-BR number.
var ErrInvalidNumber = errors.New("invalid number")

// numberPattern matches a pt-BR number with an optional magnitude word.
// Digit groups may also be split by a space or no-break space ("1 234").
// It is embedded in the label patterns of the extractor.
const numberPattern = `(\d+(?:[.,]\d+|[\x{00a0}\x{202f} ]\d{3}\b)*(?:\s*(?:milh(?:ões|oes|ão|ao)|bilh(?:ões|oes|ão|ao)|mil|bi|mi|k|m|b)\b)?)`

// digitGroupRe finds a thousands group split off by a space or no-break space.
var digitGroupRe = regexp.MustCompile(`(\d)[\x{00a0}\x{202f} ](\d{3})\b`)

var numberParts = regexp.MustCompile(`^(\d+(?:[.,]\d+)*)\s*([\p{L}]*)$`)

var multipliers = map[string]float64{
	"":        1,
	"mil":     1e3,
	"k":       1e3,
	"mi":      1e6,
	"m":       1e6,
	"milhão":  1e6,
	"milhao":  1e6,
	"milhões": 1e6,
	"milhoes": 1e6,
	"bi":      1e9,
	"b":       1e9,
	"bilhão":  1e9,
	"bilhao":  1e9,
	"bilhões": 1e9,
	"bilhoes": 1e9,
}

// ParseNumber converts pt-BR numeric text into a float.
//
// "." groups thousands and "," marks decimals ("1.234,5"). A lone "." is a
// thousands separator only when exactly three digits follow it ("12.345");
// otherwise it is a decimal point ("4.5"). Magnitude words ("mil", "mi",
// "milhões", "bi", "k", "M") scale the value and a trailing "%" is dropped.
// Groups separated by a space or no-break space are joined ("1 234").
func ParseNumber(text string) (float64, error) {
	s := joinDigitGroups(strings.ToLower(strings.TrimSpace(text)))
	s = strings.NewReplacer("\u00a0", " ", "\u202f", " ").Replace(s)
	s = strings.TrimSpace(strings.TrimSuffix(s, "%"))

	m := numberParts.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}

	mult, ok := multipliers[m[2]]
	if !ok {
		return 0, fmt.Errorf("%w: unknown magnitude %q", ErrInvalidNumber, m[2])
	}

	digits, err := normalizeDigits(m[1])
	if err != nil {
		return 0, fmt.Errorf("%w: %q", err, text)
	}

	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, text)
	}
	return v * mult, nil
}

// ParseInt is ParseNumber rounded to the nearest integer.
func ParseInt(text string) (int64, error) {
	f, err := ParseNumber(text)
	if err != nil {
		return 0, err
	}
	return int64(math.Round(f)), nil
}

// joinDigitGroups removes space separators between thousands groups, so
// "12 345 678" becomes "12345678". Matches cannot overlap, hence the loop.
func joinDigitGroups(s string) string {
	for {
		joined := digitGroupRe.ReplaceAllString(s, "$1$2")
		if joined == s {
			return s
		}
		s = joined
	}
}

func normalizeDigits(s string) (string, error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case commas > 1:
		return "", ErrInvalidNumber
	case commas == 1:
		intPart, frac, _ := strings.Cut(s, ",")
		if dots > 0 && !validGroups(intPart) {
			return "", ErrInvalidNumber
		}
		return strings.ReplaceAll(intPart, ".", "") + "." + frac, nil
	case dots > 1:
		if !validGroups(s) {
			return "", ErrInvalidNumber
		}
		return strings.ReplaceAll(s, ".", ""), nil
	case dots == 1:
		_, after, _ := strings.Cut(s, ".")
		if len(after) == 3 {
			return strings.Replace(s, ".", "", 1), nil
		}
		return s, nil
	default:
		return s, nil
	}
}

// validGroups checks "1.234.567" style grouping: every group after the
// first has exactly three digits.
func validGroups(s string) bool {
	groups := strings.Split(s, ".")
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return false
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return false
		}
	}
	return true
}
