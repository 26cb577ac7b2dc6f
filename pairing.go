package hkpair

import (
	"errors"
	"fmt"
	"strings"

	"github.com/hkontrol/hkpair/ed25519"
)

// Pairing is the long-term identity of a peer: the accessory after
// pair-setup, or a controller entry listed by the accessory.
type Pairing struct {
	Name       string `json:"name"`
	PublicKey  []byte `json:"publicKey"`
	Permission byte   `json:"permission,omitempty"`
}

// Identity is the controller's long-term pairing identity. It is created
// once and persisted; the handshakes only read it.
type Identity struct {
	Id         string `json:"id"`
	PublicKey  []byte `json:"publicKey"`
	PrivateKey []byte `json:"privateKey"`
}

func generateIdentity(id string) (Identity, error) {
	public, private, err := ed25519.GenerateKeyPair()
	if err != nil {
		return Identity{}, err
	}
	return Identity{Id: id, PublicKey: public, PrivateKey: private}, nil
}

func (i Identity) valid() error {
	if i.Id == "" {
		return errors.New("hkpair: empty controller identifier")
	}
	if len(i.PublicKey) != ed25519.PublicKeySize || len(i.PrivateKey) != ed25519.PrivateKeySize {
		return errors.New("hkpair: bad controller key pair")
	}
	return nil
}

// NormalizeSetupCode accepts XXX-XX-XXX, XXXX-XXXX or XXXXXXXX (any
// separators) and returns XXX-XX-XXX.
func NormalizeSetupCode(code string) (string, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, code)

	if len(digits) != 8 {
		return "", fmt.Errorf("hkpair: setup code must contain exactly 8 digits: %q", code)
	}

	return digits[:3] + "-" + digits[3:5] + "-" + digits[5:], nil
}
