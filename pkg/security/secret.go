package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

var ErrHashingFailed = errors.New("secret hashing failed")

// SecretVerifier checks shared secrets (the registrar API key) against a
// stored bcrypt hash so the plaintext never lives in configuration.
type SecretVerifier interface {
	Hash(secret string) (string, error)
	Compare(hashedSecret, secret string) error
}

type bcryptVerifier struct {
	cost int
}

// NewBcryptVerifier creates a secret verifier using bcrypt
func NewBcryptVerifier(cost int) SecretVerifier {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &bcryptVerifier{cost: cost}
}

func (b *bcryptVerifier) Hash(secret string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(secret), b.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(bytes), nil
}

func (b *bcryptVerifier) Compare(hashedSecret, secret string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashedSecret), []byte(secret))
}
