package curve25519

import (
	"crypto/rand"
	"io"

	"golang.org/x/crypto/curve25519"
)

const KeySize = curve25519.ScalarSize

// GenerateKeyPair returns a fresh ephemeral key pair.
func GenerateKeyPair() (public, private [KeySize]byte, err error) {
	return GenerateKeyPairFrom(rand.Reader)
}

// GenerateKeyPairFrom reads the private scalar from r.
func GenerateKeyPairFrom(r io.Reader) (public, private [KeySize]byte, err error) {
	if _, err = io.ReadFull(r, private[:]); err != nil {
		return
	}
	public, err = PublicKey(private)
	return
}

// PublicKey computes the public key of the private scalar.
func PublicKey(private [KeySize]byte) (public [KeySize]byte, err error) {
	b, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return
	}
	copy(public[:], b)
	return
}

// SharedSecret computes the X25519 shared secret. It fails on low order
// peer keys which would yield an all-zero secret.
func SharedSecret(private [KeySize]byte, otherPublic []byte) (shared [KeySize]byte, err error) {
	b, err := curve25519.X25519(private[:], otherPublic)
	if err != nil {
		return
	}
	copy(shared[:], b)
	return
}
