package security

import (
	"errors"
	"fmt"

	"bookstack/internal/common"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns a bcrypt digest with a per-call random salt.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(bytes), nil
}

// CheckPasswordHash reports whether the password matches the stored digest.
// A mismatch is (false, nil); a digest that cannot be parsed at all is
// reported as common.ErrIntegrity so callers can fail closed.
func CheckPasswordHash(password, digest string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(password))
	if err == nil {
		return true, nil
	}
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	return false, fmt.Errorf("%w: %v", common.ErrIntegrity, err)
}
