// Package auth covers sign-in: password hashing, signed tokens for magic links and
// OAuth state, and the Google profile lookup.
package auth

import (
	"errors"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLen is the shortest password sign-up accepts.
const MinPasswordLen = 8

var (
	ErrInvalidEmail     = errors.New("a valid email address is required")
	ErrWeakPassword     = errors.New("password must be at least 8 characters")
	ErrWrongCredentials = errors.New("invalid email or password")
)

// NormalizeEmail lowercases and validates an address.
func NormalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	a, err := mail.ParseAddress(s)
	if err != nil || a.Address != s {
		return "", ErrInvalidEmail
	}
	return s, nil
}

func HashPassword(pw string) (string, error) {
	if len(pw) < MinPasswordLen {
		return "", ErrWeakPassword
	}
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// CheckPassword compares pw with a stored hash. An empty hash (OAuth-only account)
// never matches.
func CheckPassword(hash, pw string) error {
	if hash == "" {
		return ErrWrongCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)); err != nil {
		return ErrWrongCredentials
	}
	return nil
}
