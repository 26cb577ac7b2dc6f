package chacha20poly1305

import (
	"crypto/cipher"
	"errors"

	"golang.org/x/crypto/chacha20poly1305"
)

// TagSize is the size of the Poly1305 authentication tag.
const TagSize = chacha20poly1305.Overhead

var (
	ErrInvalidParams  = errors.New("chacha20poly1305: invalid params")
	ErrAuthentication = errors.New("chacha20poly1305: message authentication failed")
)

// Seal returns ciphertext || tag.
func Seal(key, nonce, plaintext, aad []byte) ([]byte, error) {
	aead, n, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}

	return aead.Seal(nil, n, plaintext, aad), nil
}

// Open authenticates and decrypts ciphertext || tag.
func Open(key, nonce, sealed, aad []byte) ([]byte, error) {
	if len(sealed) < TagSize {
		return nil, ErrAuthentication
	}

	aead, n, err := newAEAD(key, nonce)
	if err != nil {
		return nil, err
	}

	plaintext, err := aead.Open(nil, n, sealed, aad)
	if err != nil {
		return nil, ErrAuthentication
	}

	return plaintext, nil
}

func newAEAD(key, nonce []byte) (aead cipher.AEAD, n []byte, err error) {
	if len(key) != chacha20poly1305.KeySize || len(nonce) != 8 {
		return nil, nil, ErrInvalidParams
	}

	if aead, err = chacha20poly1305.New(key); err != nil {
		return nil, nil, err
	}

	n = make([]byte, chacha20poly1305.NonceSize)
	copy(n[4:], nonce)

	return aead, n, nil
}
