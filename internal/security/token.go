package security

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"math/big"
)

const (
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
	TokenLength   = 40
)

// NewOpaqueToken returns a random alphanumeric bearer token.
func NewOpaqueToken() (string, error) {
	out := make([]byte, TokenLength)
	limit := big.NewInt(int64(len(tokenAlphabet)))
	for i := range out {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		out[i] = tokenAlphabet[n.Int64()]
	}
	return string(out), nil
}

// TokenHasher derives the at-rest form of a bearer token.
type TokenHasher struct {
	pepper []byte
}

func NewTokenHasher(pepper string) *TokenHasher {
	return &TokenHasher{pepper: []byte(pepper)}
}

func (h *TokenHasher) Hash(token string) string {
	mac := hmac.New(sha256.New, h.pepper)
	mac.Write([]byte(token))
	return hex.EncodeToString(mac.Sum(nil))
}
