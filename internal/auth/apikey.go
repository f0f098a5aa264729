package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// HashAPIKey produces the bcrypt hash of an API key for storage in
// configuration. Keys are never stored in the clear.
func HashAPIKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// VerifyAPIKey reports whether key matches any of the configured hashes.
func VerifyAPIKey(hashes []string, key string) bool {
	for _, hash := range hashes {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil {
			return true
		}
	}
	return false
}
