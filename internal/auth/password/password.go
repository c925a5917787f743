package password

import "golang.org/x/crypto/bcrypt"

const bcryptCost = 10

// Hash returns the bcrypt hash used by StegaShield authentication.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify checks whether a password matches the encoded bcrypt hash.
func Verify(password, encoded string) bool {
	return bcrypt.CompareHashAndPassword([]byte(encoded), []byte(password)) == nil
}
