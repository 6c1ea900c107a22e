package hash

import "github.com/alexedwards/argon2id"

// HashPassword encodes the password with argon2id using the library defaults.
// The encoded string carries its own parameters and salt.
func HashPassword(password string) (string, error) {
	h, err := argon2id.CreateHash(password, argon2id.DefaultParams)
	if err != nil {
		return "", err
	}
	return h, nil
}

// CheckPassword reports whether password matches the stored encoded hash.
// An empty hash (federated-only accounts) never matches anything.
func CheckPassword(encodedHash, password string) bool {
	if encodedHash == "" {
		return false
	}
	ok, err := argon2id.ComparePasswordAndHash(password, encodedHash)
	return err == nil && ok
}
