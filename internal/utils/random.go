package utils

import (
	"crypto/rand"
	"math/big"
)

// Codes avoid lowercase so they survive SMS autocorrect and transcription
// over a phone line.
const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateCode returns a random uppercase alphanumeric string of the given
// length, suitable for SMS location codes.
func GenerateCode(length int) string {
	result := make([]byte, length)
	alphabetLen := big.NewInt(int64(len(codeAlphabet)))

	for i := range result {
		n, _ := rand.Int(rand.Reader, alphabetLen)
		result[i] = codeAlphabet[n.Int64()]
	}

	return string(result)
}
