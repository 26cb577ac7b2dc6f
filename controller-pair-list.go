package hkpair

import (
	"context"

	"github.com/hkontrol/hkpair/tlv8"
)

// ListPairings returns the controllers the accessory knows about.
func (c *Client) ListPairings(ctx context.Context, keys SessionKeys) ([]Pairing, error) {
	m1 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M1)).
		SetByte(tlv8.TypeMethod, byte(MethodListPairings))

	m2, err := c.pairings(ctx, keys, MethodListPairings, m1)
	if err != nil {
		return nil, err
	}

	var pairings []Pairing
	for _, part := range m2.Split(tlv8.TypeSeparator) {
		if !part.Has(tlv8.TypeIdentifier) {
			continue
		}
		p := Pairing{Name: part.String(tlv8.TypeIdentifier)}
		p.PublicKey, _ = part.Get(tlv8.TypePublicKey)
		p.Permission, _ = part.Byte(tlv8.TypePermissions)
		pairings = append(pairings, p)
	}

	return pairings, nil
}
