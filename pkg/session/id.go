package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

// idEntropy is the number of random bytes behind every identifier; the
// encoded form is 43 characters long.
const idEntropy = 32

// IDGenerator produces fresh, unguessable session identifiers.
type IDGenerator interface {
	Generate() (string, error)
}

// IDGeneratorFunc adapts a function to IDGenerator.
type IDGeneratorFunc func() (string, error)

// Generate calls f.
func (f IDGeneratorFunc) Generate() (string, error) {
	return f()
}

// DefaultIDGenerator draws identifiers from crypto/rand.
var DefaultIDGenerator IDGenerator = IDGeneratorFunc(RandomID)

// RandomID returns 32 random bytes encoded as unpadded base64url.
func RandomID() (string, error) {
	b := make([]byte, idEntropy)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Join(ErrTokenGeneration, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
