package utils

import (
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Password length bounds in bytes.  bcrypt ignores anything past 72.
const (
	MinPasswordLen = 8
	MaxPasswordLen = 72
)

var ErrWeakPassword = errors.New("password length out of range")

// CheckPassword enforces the account password length bounds.
func CheckPassword(plain string) error {
	if n := len(plain); n < MinPasswordLen || n > MaxPasswordLen {
		return fmt.Errorf("%w: %d bytes, want %d-%d", ErrWeakPassword, n, MinPasswordLen, MaxPasswordLen)
	}
	return nil
}

// HashPassword checks plain against the length bounds and returns its
// bcrypt hash.  A cost outside bcrypt's range uses bcrypt.DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if err := CheckPassword(plain); err != nil {
		return "", err
	}
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
