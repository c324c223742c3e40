package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword hashes plain with bcrypt at the configured cost.  A cost
// below bcrypt's minimum (from a misconfigured BCRYPT_COST) falls back
// to the library default instead of silently weakening hashes.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored bcrypt hash.
// Malformed hashes simply fail verification.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
