package validation

import (
	"net/url"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"painel/internal/config"
)

// PartyPattern defines the valid party acronym format: letters, digits and spaces.
var PartyPattern = regexp.MustCompile(`^[\p{L}0-9 ]{1,20}$`)

// States lists the 27 federative units.
var States = []string{
	"AC", "AL", "AM", "AP", "BA", "CE", "DF", "ES", "GO", "MA", "MG", "MS", "MT", "PA",
	"PB", "PE", "PI", "PR", "RJ", "RN", "RO", "RR", "RS", "SC", "SE", "SP", "TO",
}

// PageSizes are the page sizes offered on the deputies tab.
var PageSizes = []int{25, 50, 100, 200}

// DefaultPageSize is used when no valid size is given.
const DefaultPageSize = 50

const maxSearchLen = 100

// ValidateParty checks if a party acronym matches the allowed pattern.
func ValidateParty(party string) bool {
	return PartyPattern.MatchString(party)
}

// ValidateState checks if s is a known federative unit.
func ValidateState(s string) bool {
	return slices.Contains(States, s)
}

// Parties trims and de-duplicates party filters, dropping invalid ones.
// Case is kept since acronyms such as PCdoB are mixed case.
func Parties(values []string) []string {
	return cleanList(values, strings.TrimSpace, ValidateParty)
}

// StatesFilter trims, uppercases and de-duplicates state filters, dropping unknown ones.
func StatesFilter(values []string) []string {
	return cleanList(values, func(s string) string {
		return strings.ToUpper(strings.TrimSpace(s))
	}, ValidateState)
}

func cleanList(values []string, normalize func(string) string, valid func(string) bool) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = normalize(v)
		if v == "" || !valid(v) || slices.Contains(out, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

// PageSize parses a page size, falling back to DefaultPageSize.
func PageSize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !slices.Contains(PageSizes, n) {
		return DefaultPageSize
	}
	return n
}

// Page parses a 1-based page number, falling back to 1.
func Page(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// TTLMinutes parses a cache TTL and keeps it inside the accepted window.
func TTLMinutes(s string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return fallback
	}
	return config.ClampTTLMinutes(n)
}

// SearchTerm trims a name search and caps its length.
func SearchTerm(s string) string {
	s = strings.TrimSpace(s)
	if r := []rune(s); len(r) > maxSearchLen {
		s = string(r[:maxSearchLen])
	}
	return s
}

// ValidateURL checks if a URL is valid and uses an allowed scheme (http/https only).
// This prevents javascript:, data:, vbscript:, and other dangerous URL schemes.
func ValidateURL(urlStr string) (bool, string) {
	if urlStr == "" {
		return false, "URL is required"
	}

	u, err := url.Parse(urlStr)
	if err != nil {
		return false, "Invalid URL format"
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false, "URL must use http:// or https:// scheme"
	}

	if u.Host == "" {
		return false, "URL must have a valid host"
	}

	return true, ""
}

// SafeURL returns u when it is a valid http(s) URL and "" otherwise, for
// links and images taken from upstream data.
func SafeURL(u string) string {
	if ok, _ := ValidateURL(u); ok {
		return u
	}
	return ""
}
