package service

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	maxPhoneLen        = 50
	maxProfileFieldLen = 255
)

// Deliberately permissive syntactic check, not full RFC validation: no "@"
// or whitespace on either side, at least one "." in the domain.
var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

func validateContactBase(name string, email *string) error {
	if strings.TrimSpace(name) == "" {
		return &ValidationError{Msg: "name is required"}
	}
	return validateEmail(email)
}

func validateEmail(email *string) error {
	if email != nil && *email != "" && !emailRe.MatchString(*email) {
		return &ValidationError{Msg: "invalid email format"}
	}
	return nil
}

func validateProfileFields(avatarURL, bio *string) error {
	if avatarURL != nil && len(*avatarURL) > maxProfileFieldLen {
		return &ValidationError{Msg: "avatar_url too long"}
	}
	if bio != nil && len(*bio) > maxProfileFieldLen {
		return &ValidationError{Msg: "bio too long"}
	}
	return nil
}

// validatePhones checks per-value length and rejects duplicates within the
// request itself. This is independent of the storage-level uniqueness
// constraint; an empty set is always valid.
func validatePhones(phones []string) error {
	seen := make(map[string]struct{}, len(phones))
	for _, p := range phones {
		if len(p) > maxPhoneLen {
			return &ValidationError{Msg: "phone number too long"}
		}
		if _, ok := seen[p]; ok {
			return &ValidationError{Msg: fmt.Sprintf("duplicate phone number in request: %s", p)}
		}
		seen[p] = struct{}{}
	}
	return nil
}

// trimOptional trims an optional string and collapses blank values to nil so
// they persist as NULL.
func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
