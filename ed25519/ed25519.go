package ed25519

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
)

const (
	PublicKeySize  = ed25519.PublicKeySize
	PrivateKeySize = ed25519.PrivateKeySize
	SignatureSize  = ed25519.SignatureSize
)

var ErrInvalidParams = errors.New("ed25519: invalid params")

// GenerateKeyPair returns a new long-term key pair.
func GenerateKeyPair() (public, private []byte, err error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, nil, err
	}
	return pub, priv, nil
}

// PublicKey returns the public half of a 64 byte private key.
func PublicKey(private []byte) ([]byte, error) {
	if len(private) != PrivateKeySize {
		return nil, ErrInvalidParams
	}
	return append([]byte(nil), private[32:]...), nil
}

func ValidateSignature(key, data, signature []byte) bool {
	if len(key) != PublicKeySize || len(signature) != SignatureSize {
		return false
	}

	return ed25519.Verify(key, data, signature)
}

func Signature(key, data []byte) ([]byte, error) {
	if len(key) != PrivateKeySize {
		return nil, ErrInvalidParams
	}

	return ed25519.Sign(key, data), nil
}
