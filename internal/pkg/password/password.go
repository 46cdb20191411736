package password

import (
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	// DefaultCost is the default bcrypt cost
	DefaultCost = 12

	// MinLength is the minimum accepted password length
	MinLength = 8
)

// Hash hashes a password using bcrypt
func Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Verify compares a password with a hash
func Verify(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// ValidatePolicy checks if a password meets the minimum length policy
func ValidatePolicy(password string) bool {
	return len(password) >= MinLength
}

// GenerateTemporary returns a random temporary password for invited or
// approved volunteers. Shortened so it survives being typed from an email.
func GenerateTemporary() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:12]
}
