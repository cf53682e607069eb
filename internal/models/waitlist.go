package models

import (
	"regexp"
	"strings"
)

var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// WaitlistEntry is a single waitlist signup.
type WaitlistEntry struct {
	ID         string `json:"id,omitempty" db:"id"`
	Email      string `json:"email" db:"email"`
	SignedUpAt string `json:"signedUpAt" db:"signed_up_at"`
}

// WaitlistRequest is the body of a waitlist signup.
type WaitlistRequest struct {
	Email *string `json:"email"`
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail applies the basic address pattern.
func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}
