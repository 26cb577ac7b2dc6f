package hkpair

import (
	"github.com/hkontrol/hkpair/hkdf"
)

// SessionKeys are the directional keys of one verified session, from the
// controller's point of view. They are never mutated once derived.
type SessionKeys struct {
	ReadKey  [32]byte // decrypts accessory -> controller
	WriteKey [32]byte // encrypts controller -> accessory
}

func newControllerSessionKeys(shared [32]byte) (SessionKeys, error) {
	salt := []byte("Control-Salt")
	in := []byte("Control-Read-Encryption-Key")
	out := []byte("Control-Write-Encryption-Key")

	var keys SessionKeys
	var err error

	if keys.ReadKey, err = hkdf.Sha512(shared[:], salt, in); err != nil {
		return SessionKeys{}, err
	}
	if keys.WriteKey, err = hkdf.Sha512(shared[:], salt, out); err != nil {
		return SessionKeys{}, err
	}

	return keys, nil
}

// Zero overwrites both keys. Call it when the session ends.
func (k *SessionKeys) Zero() {
	zero(k.ReadKey[:])
	zero(k.WriteKey[:])
}

// IsZero reports whether the keys were never set or already discarded.
func (k *SessionKeys) IsZero() bool {
	return k.ReadKey == [32]byte{} && k.WriteKey == [32]byte{}
}

func zero(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
