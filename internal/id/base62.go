package id

import (
	"crypto/rand"
	"math/big"
)

const alphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz" // 62 chars

// CodeLength is the length of generated codes.
const CodeLength = 7

// codeSpace is 62^CodeLength.
var codeSpace = new(big.Int).Exp(big.NewInt(int64(len(alphabet))), big.NewInt(CodeLength), nil)

// Encode writes v in base62 and left-pads it with '0' to minLen characters.
// Zero encodes as "0".
func Encode(v uint64, minLen int) string {
	var buf [11]byte // 62^11 > 2^64
	i := len(buf)
	if v == 0 {
		i--
		buf[i] = alphabet[0]
	}
	for v > 0 {
		i--
		buf[i] = alphabet[v%62]
		v /= 62
	}
	out := string(buf[i:])
	for len(out) < minLen {
		out = string(alphabet[0]) + out
	}
	return out
}

// RandomCode returns a cryptographically random value uniform in
// [0, 62^CodeLength), base62 encoded to exactly CodeLength characters.
func RandomCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", err
	}
	return Encode(n.Uint64(), CodeLength), nil
}

// Alphabet exposes the base62 alphabet.
func Alphabet() string { return alphabet }
