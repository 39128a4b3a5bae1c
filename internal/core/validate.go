package core

import (
	"net/url"
	"regexp"
	"unicode/utf8"
)

const (
	maxURLLength  = 2048
	minCodeLength = 3
	maxCodeLength = 32
)

var codeRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// reservedCodes are single-segment GET routes served before the redirect
// route; a link under one of them could never be followed.
var reservedCodes = map[string]struct{}{
	"health": {},
}

// IsReservedCode reports whether code collides with a fixed route.
func IsReservedCode(code string) bool {
	_, ok := reservedCodes[code]
	return ok
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
func ValidateURL(raw string) error {
	if raw == "" {
		return invalidURL("Please enter a URL.")
	}
	if utf8.RuneCountInString(raw) > maxURLLength {
		return invalidURL("URL is too long.")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return invalidURL("URL is not valid.")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return invalidURL("URL must start with http:// or https://.")
	}
	if parsed.Host == "" {
		return invalidURL("URL must include a valid domain.")
	}
	return nil
}

// ValidateCode checks a user-chosen short code.
func ValidateCode(code string) error {
	switch {
	case len(code) < minCodeLength:
		return invalidCode("Short code must be at least 3 characters.")
	case len(code) > maxCodeLength:
		return invalidCode("Short code must be at most 32 characters.")
	case !codeRe.MatchString(code):
		return invalidCode("Short code can only contain letters, numbers, hyphens, and underscores.")
	case IsReservedCode(code):
		return invalidCode("This short code is reserved. Please choose another one.")
	}
	return nil
}
