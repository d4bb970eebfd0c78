package user

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"
)

const (
	activationCodeMin = 1000
	activationCodeMax = 9999
)

// generateActivationCode returns a uniformly random 4-digit code.
func generateActivationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(activationCodeMax-activationCodeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate activation code: %w", err)
	}
	return strconv.FormatInt(n.Int64()+activationCodeMin, 10), nil
}
