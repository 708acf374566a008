package utils

import "golang.org/x/crypto/bcrypt"

// DefaultCost is the bcrypt cost used for admin password hashes.
const DefaultCost = 12

// HashPassword returns the bcrypt hash of plain. Costs below bcrypt.MinCost
// are raised to DefaultCost.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the bcrypt hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
