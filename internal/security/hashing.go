package security

import "golang.org/x/crypto/bcrypt"

// Hasher wraps bcrypt password hashing at a fixed cost. Plaintext passwords
// must never be logged or persisted.
type Hasher struct {
	Cost int
}

// NewHasher returns a Hasher clamped to bcrypt's valid cost range. A
// non-positive cost falls back to the bcrypt default.
func NewHasher(cost int) *Hasher {
	switch {
	case cost <= 0:
		cost = bcrypt.DefaultCost
	case cost < bcrypt.MinCost:
		cost = bcrypt.MinCost
	case cost > bcrypt.MaxCost:
		cost = bcrypt.MaxCost
	}
	return &Hasher{Cost: cost}
}

// Hash returns the bcrypt hash of password in its storable string form.
func (h *Hasher) Hash(password []byte) (string, error) {
	out, err := bcrypt.GenerateFromPassword(password, h.Cost)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Compare checks password against a stored hash. Returns nil on a match;
// bcrypt.ErrMismatchedHashAndPassword on a mismatch.
func (h *Hasher) Compare(hash string, password []byte) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), password)
}
