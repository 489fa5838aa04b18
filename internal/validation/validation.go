// Package validation holds the pure field rules used as gate conditions by
// onboarding and registration. Every function here is side-effect free.
package validation

import (
	"errors"
	"regexp"
	"time"
)

const (
	// MinLikes is the number of interest tags required to complete the
	// likes onboarding step.
	MinLikes = 3

	// AdultAge is the minimum age in whole years to register.
	AdultAge = 18

	MinPasswordLength = 8

	usernameMin = 3
	usernameMax = 20
)

var (
	ErrInvalidBirthdate = errors.New("birthdate must be a valid YYYY-MM-DD date")
	ErrUnderage         = errors.New("you must be at least 18 years old")
	ErrInvalidUsername  = errors.New("username must be 3-20 characters of lowercase letters, digits, '.' or '_'")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrTooFewLikes      = errors.New("pick at least 3 interests")
)

var usernameRe = regexp.MustCompile(`^[a-z0-9._]{3,20}$`)

// AgeOn returns the exact calendar age in whole years at the given reference
// date. The year difference is decremented when the reference month/day has
// not yet reached the birth month/day. Both arguments are treated as plain
// calendar dates; their time and location components are ignored.
func AgeOn(birthdate, on time.Time) int {
	age := on.Year() - birthdate.Year()
	if on.Month() < birthdate.Month() ||
		(on.Month() == birthdate.Month() && on.Day() < birthdate.Day()) {
		age--
	}
	return age
}

// AgeFromDate parses an ISO YYYY-MM-DD birthdate and returns the current age
// in whole years.
func AgeFromDate(birthdate string) (int, error) {
	d, err := ParseBirthdate(birthdate)
	if err != nil {
		return 0, err
	}
	return AgeOn(d, time.Now()), nil
}

// ParseBirthdate parses an ISO YYYY-MM-DD string as a calendar date. The
// result carries no time zone adjustment, so the day component is preserved
// exactly as written.
func ParseBirthdate(s string) (time.Time, error) {
	d, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidBirthdate
	}
	return d, nil
}

// IsAdult reports whether the birthdate yields an age of at least 18.
// Unparseable input counts as not adult.
func IsAdult(birthdate string) bool {
	age, err := AgeFromDate(birthdate)
	return err == nil && age >= AdultAge
}

// ValidateBirthdate checks parseability and the adult age gate.
func ValidateBirthdate(birthdate string) error {
	age, err := AgeFromDate(birthdate)
	if err != nil {
		return err
	}
	if age < AdultAge {
		return ErrUnderage
	}
	return nil
}

// ValidateLikes reports whether enough interest tags were picked. Duplicates
// are not filtered here; deduplication is the caller's concern.
func ValidateLikes(tags []string) bool {
	return len(tags) >= MinLikes
}

// ValidateUsername checks the username format: lowercase letters, digits,
// '.' and '_' only, 3 to 20 characters.
func ValidateUsername(username string) error {
	if !usernameRe.MatchString(username) {
		return ErrInvalidUsername
	}
	return nil
}

// ValidatePassword enforces the minimum length. There are no complexity
// rules beyond length.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Registration is the field set checked before creating an account.
type Registration struct {
	Email     string
	Password  string
	Username  string
	Birthdate string
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var ErrInvalidEmail = errors.New("enter a valid email address")

// ValidateEmail checks basic address shape. Deliverability is the mail
// provider's problem.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateRegistration runs every registration rule and returns the first
// failure in field order.
func ValidateRegistration(r Registration) error {
	if err := ValidateEmail(r.Email); err != nil {
		return err
	}
	if err := ValidatePassword(r.Password); err != nil {
		return err
	}
	if err := ValidateUsername(r.Username); err != nil {
		return err
	}
	return ValidateBirthdate(r.Birthdate)
}
