// Package timezone provides timezone utilities for the LinguaSense server.
//
// All proactive practice sessions are evaluated against one fixed zone (the
// target-language region's clock), so parsing and validating IANA zone
// identifiers is centralized here.
package timezone

import (
	"fmt"
	"time"
)

// ParseTimezone parses an IANA timezone identifier (e.g., "Europe/Istanbul").
// If the timezone is invalid, returns UTC and an error.
func ParseTimezone(tz string) (*time.Location, error) {
	if tz == "" || tz == "UTC" {
		return time.UTC, nil
	}

	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}

	return loc, nil
}

// MustParseTimezone parses a timezone or panics if invalid.
// Use this for constants that are known to be valid at compile time.
func MustParseTimezone(tz string) *time.Location {
	loc, err := ParseTimezone(tz)
	if err != nil {
		panic(err)
	}
	return loc
}

// IsValidTimezone checks if a timezone identifier is valid.
func IsValidTimezone(tz string) bool {
	if tz == "" || tz == "UTC" {
		return true
	}

	_, err := time.LoadLocation(tz)
	return err == nil
}
