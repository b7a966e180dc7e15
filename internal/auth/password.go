package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword returns the bcrypt hash stored for password-bearing users.
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}
