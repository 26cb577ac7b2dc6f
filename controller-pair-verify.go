package hkpair

import (
	"context"

	"github.com/hkontrol/hkpair/chacha20poly1305"
	"github.com/hkontrol/hkpair/curve25519"
	"github.com/hkontrol/hkpair/ed25519"
	"github.com/hkontrol/hkpair/hkdf"
	"github.com/hkontrol/hkpair/log"
	"github.com/hkontrol/hkpair/tlv8"
)

// PairVerify establishes a session with an accessory paired earlier and
// returns the directional session keys. The ephemeral key pair, shared
// secret and handshake key are wiped before it returns.
func (c *Client) PairVerify(ctx context.Context, accessory Pairing) (SessionKeys, error) {
	if err := c.Controller.valid(); err != nil {
		return SessionKeys{}, &PairVerifyError{"M1", err}
	}
	if accessory.Name == "" || len(accessory.PublicKey) != ed25519.PublicKeySize {
		return SessionKeys{}, &PairVerifyError{"M1", &ProtocolError{Method: MethodPairVerify, State: M1, Reason: "accessory is not paired"}}
	}

	localPublic, localPrivate, err := curve25519.GenerateKeyPairFrom(c.random())
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M1", err}
	}
	defer zero(localPrivate[:])

	m1 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M1)).
		Set(tlv8.TypePublicKey, localPublic[:])
	b, err := send(MethodPairVerify, m1)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M1", err}
	}

	log.Debug.Println("pair-verify M1")

	res, err := c.post(ctx, PathPairVerify, b)
	if err != nil {
		return SessionKeys{}, err
	}

	m2, err := receive(MethodPairVerify, M2, res)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M2", err}
	}

	remotePubk, _ := m2.Get(tlv8.TypePublicKey)
	if len(remotePubk) != curve25519.KeySize {
		return SessionKeys{}, &PairVerifyError{"M2", &ProtocolError{
			Method: MethodPairVerify, State: M2, Tag: tlv8.TypePublicKey, Reason: "wrong public key length",
		}}
	}

	shared, err := curve25519.SharedSecret(localPrivate, remotePubk)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M2", err}
	}
	defer zero(shared[:])

	key, err := hkdf.Sha512(shared[:],
		[]byte("Pair-Verify-Encrypt-Salt"),
		[]byte("Pair-Verify-Encrypt-Info"),
	)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M2", err}
	}
	defer zero(key[:])

	encrypted, _ := m2.Get(tlv8.TypeEncryptedData)
	decrypted, err := chacha20poly1305.Open(key[:], []byte("PV-Msg02"), encrypted, nil)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M2", &AuthenticationError{Reason: "cannot decrypt accessory info", Err: err}}
	}

	var info pairingInfo
	if err = tlv8.Unmarshal(decrypted, &info); err != nil {
		return SessionKeys{}, &PairVerifyError{"M2", err}
	}
	if info.Identifier != accessory.Name {
		return SessionKeys{}, &PairVerifyError{"M2", &AuthenticationError{Reason: "unexpected accessory identifier " + info.Identifier}}
	}

	var material []byte
	material = append(material, remotePubk...)
	material = append(material, info.Identifier...)
	material = append(material, localPublic[:]...)

	if !ed25519.ValidateSignature(accessory.PublicKey, material, info.Signature) {
		return SessionKeys{}, &PairVerifyError{"M2", &AuthenticationError{Reason: "accessory signature is not valid"}}
	}

	// m3
	material = material[:0]
	material = append(material, localPublic[:]...)
	material = append(material, c.Controller.Id...)
	material = append(material, remotePubk...)

	signature, err := ed25519.Signature(c.Controller.PrivateKey, material)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M3", err}
	}

	b, err = tlv8.Marshal(pairingInfo{
		Identifier: c.Controller.Id,
		Signature:  signature,
	})
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M3", err}
	}

	encData, err := chacha20poly1305.Seal(key[:], []byte("PV-Msg03"), b, nil)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M3", err}
	}

	m3 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M3)).
		Set(tlv8.TypeEncryptedData, encData)
	b, err = send(MethodPairVerify, m3)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M3", err}
	}

	log.Debug.Println("pair-verify M3")

	res, err = c.post(ctx, PathPairVerify, b)
	if err != nil {
		return SessionKeys{}, err
	}

	if _, err = receive(MethodPairVerify, M4, res); err != nil {
		return SessionKeys{}, &PairVerifyError{"M4", err}
	}

	keys, err := newControllerSessionKeys(shared)
	if err != nil {
		return SessionKeys{}, &PairVerifyError{"M4", err}
	}

	log.Debug.Printf("pair-verify with %s done", accessory.Name)

	return keys, nil
}
