package hkpair

import (
	"context"

	"github.com/hkontrol/hkpair/tlv8"
)

// PairRemove asks the accessory to forget controllerID over a verified
// session. Any reply that does not confirm the removal, including an
// accessory ERROR item, satisfies errors.Is(err, ErrAuthentication). On
// error the accessory may or may not have removed the pairing; callers
// should keep their record until a later attempt succeeds.
func (c *Client) PairRemove(ctx context.Context, keys SessionKeys, controllerID string) error {
	m1 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M1)).
		SetByte(tlv8.TypeMethod, byte(MethodDeletePairing)).
		SetString(tlv8.TypeIdentifier, controllerID)

	_, err := c.pairings(ctx, keys, MethodDeletePairing, m1)
	return err
}
