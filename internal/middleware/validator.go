package middleware

import (
	"fmt"
	"regexp"
	"strconv"
)

// Input validation utilities

const DefaultUserID = "anonymous"

var userIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{5,20}$`)

// ValidateUserID checks the caller-supplied identifier used to name result records.
func ValidateUserID(user string) error {
	if !userIDPattern.MatchString(user) {
		return fmt.Errorf("invalid userId %q (5-20 characters: letters, digits, dash, underscore)", user)
	}
	return nil
}

// ValidateLimit validates pagination limit
func ValidateLimit(limit int) int {
	if limit <= 0 {
		return 20 // default
	}
	if limit > 100 {
		return 100 // max limit
	}
	return limit
}

// ValidatePage validates a 1-based page number
func ValidatePage(page int) int {
	if page <= 0 {
		return 1
	}
	return page
}

// QueryInt parses an integer query value, returning def when absent or invalid.
func QueryInt(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
