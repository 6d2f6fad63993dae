package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Validation constants
const (
	MaxNameLength        = 100
	MaxDescriptionLength = 255
	BSNLength            = 9
	DefaultPageSize      = 50
	MaxPageSize          = 1000
)

var (
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	phoneRegex = regexp.MustCompile(`^\+?[0-9 ()-]{6,20}$`)
)

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidateBSN checks a Dutch citizen service number with the eleven-test.
func ValidateBSN(bsn string) error {
	if len(bsn) != BSNLength {
		return fmt.Errorf("%w: must be %d digits", ErrInvalidBSN, BSNLength)
	}

	sum := 0
	for i, r := range bsn {
		if r < '0' || r > '9' {
			return fmt.Errorf("%w: must be numeric", ErrInvalidBSN)
		}

		weight := BSNLength - i
		if i == BSNLength-1 {
			weight = -1
		}
		sum += weight * int(r-'0')
	}

	if sum%11 != 0 {
		return fmt.Errorf("%w: checksum mismatch", ErrInvalidBSN)
	}

	return nil
}

// ValidatePhone performs a loose format check on a phone number.
func ValidatePhone(phone string) error {
	if !phoneRegex.MatchString(strings.TrimSpace(phone)) {
		return fmt.Errorf("%w: invalid phone number", ErrInvalidRegistration)
	}

	return nil
}

// ValidateName validates a first or last name.
func ValidateName(field, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: %s is required", ErrInvalidRegistration, field)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: %s exceeds %d characters", ErrInvalidRegistration, field, MaxNameLength)
	}

	return nil
}

// ValidateDescription bounds free-text transaction descriptions.
func ValidateDescription(description string) error {
	if len(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: exceeds %d characters", ErrInvalidDescription, MaxDescriptionLength)
	}

	return nil
}

// ValidateIdempotencyKey bounds caller-supplied idempotency keys.
func ValidateIdempotencyKey(key string) error {
	if len(key) > MaxIdempotencyKeyLength {
		return ErrIdempotencyKeyTooLong
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
