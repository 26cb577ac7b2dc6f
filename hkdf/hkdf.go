package hkdf

import (
	"crypto/sha512"
	"io"

	"golang.org/x/crypto/hkdf"
)

// KeySize is the length of every key derived by the pairing protocol.
const KeySize = 32

// Sha512 derives a 32 byte key from the input key material using
// HKDF-SHA512 with the given salt and info labels.
func Sha512(key, salt, info []byte) ([KeySize]byte, error) {
	var out [KeySize]byte

	r := hkdf.New(sha512.New, key, salt, info)
	if _, err := io.ReadFull(r, out[:]); err != nil {
		return out, err
	}

	return out, nil
}
