package hash

import (
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

var ErrHashingFailed = errors.New("failed to hash password")

type Service struct {
	cost int
}

func NewService(cost int) *Service {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Service{cost: cost}
}

func (s *Service) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", ErrHashingFailed
	}
	return string(hashed), nil
}

// Verify reports whether password matches stored. Legacy hashes carry a
// "$2y$" prefix; the algorithm and parameters are identical to "$2a$", so the
// prefix is rewritten in memory before comparison. The stored value is never
// modified. A malformed stored hash is a mismatch, not an error.
func (s *Service) Verify(password, stored string) bool {
	return bcrypt.CompareHashAndPassword([]byte(normalizePrefix(stored)), []byte(password)) == nil
}

func normalizePrefix(stored string) string {
	if strings.HasPrefix(stored, "$2y$") || strings.HasPrefix(stored, "$2x$") {
		return "$2a$" + stored[4:]
	}
	return stored
}
