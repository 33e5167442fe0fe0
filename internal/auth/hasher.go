package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"github.com/rpac/rpac/internal/shared"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// ErrPasswordTooLong is returned instead of silently truncating long passwords.
var ErrPasswordTooLong = fmt.Errorf("%w: password must not exceed %d bytes", shared.ErrValidation, maxPasswordBytes)

// Hasher derives and verifies bcrypt password hashes.
type Hasher struct {
	cost int
}

// NewHasher builds a Hasher. Out of range costs fall back to bcrypt.DefaultCost.
func NewHasher(cost int) *Hasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Hasher{cost: cost}
}

// Hash returns a salted bcrypt hash that embeds the cost and salt.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// Verify reports whether password matches hash. Malformed hashes never match.
func (h *Hasher) Verify(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
