package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher produces and checks one-way password digests.
type PasswordHasher interface {
	Hash(secret string) (string, error)
	Compare(digest, secret string) error
}

// BcryptHasher implements PasswordHasher with bcrypt.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher using cost, or bcrypt.DefaultCost when cost is zero.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

// Hash implements PasswordHasher.
func (h BcryptHasher) Hash(secret string) (string, error) {
	cost := h.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	digest, err := bcrypt.GenerateFromPassword([]byte(secret), cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Compare implements PasswordHasher. A mismatch returns ErrInvalidCredentials.
func (h BcryptHasher) Compare(digest, secret string) error {
	err := bcrypt.CompareHashAndPassword([]byte(digest), []byte(secret))
	if err == bcrypt.ErrMismatchedHashAndPassword {
		return ErrInvalidCredentials
	}
	return err
}
