package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// GenerateNumericCode returns a random code of exactly `digits` ASCII digits,
// drawn uniformly over [0, 10^digits). Leading zeros are preserved, so a
// 6-digit code may legitimately be "004217".
func GenerateNumericCode(digits int) (string, error) {
	if digits <= 0 || digits > 18 {
		return "", fmt.Errorf("invalid code length: %d", digits)
	}

	bound := big.NewInt(1)
	for range digits {
		bound.Mul(bound, big.NewInt(10))
	}

	n, err := rand.Int(rand.Reader, bound)
	if err != nil {
		return "", fmt.Errorf("failed to generate code: %w", err)
	}

	return fmt.Sprintf("%0*d", digits, n), nil
}
