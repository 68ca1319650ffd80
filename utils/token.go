package utils

import (
	"crypto/rand"
	"math/big"
)

const tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"

// TokenLength is the length of public post identifiers and attachment name prefixes.
const TokenLength = 6

// NewToken returns a uniformly random alphanumeric string of the given length.
// Tokens are opaque labels, not keys: callers must tolerate the (negligible)
// chance of a collision.
func NewToken(length int) string {
	buf := make([]byte, length)
	max := big.NewInt(int64(len(tokenAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is broken
			panic(err)
		}
		buf[i] = tokenAlphabet[n.Int64()]
	}
	return string(buf)
}
