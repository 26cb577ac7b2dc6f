package hkpair

import (
	"context"
	"errors"

	"github.com/hkontrol/hkpair/ed25519"
	"github.com/hkontrol/hkpair/tlv8"
)

// PairAdd registers another controller with the accessory. The session
// must belong to an admin controller.
func (c *Client) PairAdd(ctx context.Context, keys SessionKeys, p Pairing) error {
	if p.Name == "" || len(p.PublicKey) != ed25519.PublicKeySize {
		return &PairingsError{MethodAddPairing, "M1", errors.New("pairing needs an identifier and a 32 byte public key")}
	}

	m1 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M1)).
		SetByte(tlv8.TypeMethod, byte(MethodAddPairing)).
		SetString(tlv8.TypeIdentifier, p.Name).
		Set(tlv8.TypePublicKey, p.PublicKey).
		SetByte(tlv8.TypePermissions, p.Permission)

	_, err := c.pairings(ctx, keys, MethodAddPairing, m1)
	return err
}
