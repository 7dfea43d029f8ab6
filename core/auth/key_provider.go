package auth

import (
	"errors"
)

// KeyProvider returns the verification key for a token's key id.
type KeyProvider interface {
	GetKey(kid string) ([]byte, error)
}

// StaticKeyProvider serves one shared HMAC secret for every key id.
type StaticKeyProvider struct {
	Secret []byte
}

func (s StaticKeyProvider) GetKey(kid string) ([]byte, error) {
	if len(s.Secret) == 0 {
		return nil, errors.New("no signing secret set")
	}
	return s.Secret, nil
}
