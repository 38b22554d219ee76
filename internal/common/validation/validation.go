package validation

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	MaxDisplayNameLength = 80
	MaxLocationLength    = 200
	MaxBioLength         = 2000
	MaxEventNameLength   = 200
	MaxDescriptionLength = 1000

	MinPasswordLength = 8
)

var (
	lowerRegex   = regexp.MustCompile(`[a-z]`)
	upperRegex   = regexp.MustCompile(`[A-Z]`)
	digitRegex   = regexp.MustCompile(`\d`)
	specialRegex = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
	emailRegex   = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// PasswordRequirement is a single named strength rule so callers can report
// which rules a candidate password fails.
type PasswordRequirement struct {
	ID    string
	Label string
	Test  func(string) bool
}

var PasswordRequirements = []PasswordRequirement{
	{"length", fmt.Sprintf("At least %d characters", MinPasswordLength), func(p string) bool { return len(p) >= MinPasswordLength }},
	{"lower", "One lowercase letter", lowerRegex.MatchString},
	{"upper", "One uppercase letter", upperRegex.MatchString},
	{"number", "One number", digitRegex.MatchString},
	{"special", "One special character (!@#$%^&*)", specialRegex.MatchString},
}

// IsPasswordStrong reports whether a password satisfies every requirement.
func IsPasswordStrong(password string) bool {
	for _, r := range PasswordRequirements {
		if !r.Test(password) {
			return false
		}
	}
	return true
}

// FailedPasswordRequirements returns the labels of the rules the password
// does not meet, in declaration order.
func FailedPasswordRequirements(password string) []string {
	var failed []string
	for _, r := range PasswordRequirements {
		if !r.Test(password) {
			failed = append(failed, r.Label)
		}
	}
	return failed
}

func ValidateEmail(email string) error {
	if !emailRegex.MatchString(strings.TrimSpace(email)) {
		return fmt.Errorf("invalid email address")
	}
	return nil
}

func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("display name cannot be empty")
	}
	if len(name) > MaxDisplayNameLength {
		return fmt.Errorf("display name cannot exceed %d characters", MaxDisplayNameLength)
	}
	return nil
}

func ValidateLocation(location string) error {
	if len(location) > MaxLocationLength {
		return fmt.Errorf("location cannot exceed %d characters", MaxLocationLength)
	}
	return nil
}

func ValidateBio(bio string) error {
	if len(bio) > MaxBioLength {
		return fmt.Errorf("bio cannot exceed %d characters", MaxBioLength)
	}
	return nil
}

func ValidateEventName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("event name cannot be empty")
	}
	if len(name) > MaxEventNameLength {
		return fmt.Errorf("event name cannot exceed %d characters", MaxEventNameLength)
	}
	return nil
}

func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("description cannot exceed %d characters", MaxDescriptionLength)
	}
	return nil
}
