package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

const opaqueTokenLength = 6

// GenerateOpaqueToken returns a fixed-length numeric code from
// crypto/rand, used for the emailed confirmation and password-reset
// flows. It carries no information about the account or the time it
// was generated.
func GenerateOpaqueToken() (string, error) {
	digits := make([]byte, opaqueTokenLength)
	for i := range digits {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", fmt.Errorf("generating token: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}
