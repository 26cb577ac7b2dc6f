package hkpair

import (
	"context"

	"github.com/hkontrol/hkpair/log"
	"github.com/hkontrol/hkpair/tlv8"
)

func (c *Client) setupMethod() Method {
	return c.FeatureFlags.SetupMethod()
}

func (c *Client) pairSetupM1(ctx context.Context, code string) (*pairSetupClientSession, error) {
	method := c.setupMethod()

	m1 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M1)).
		SetByte(tlv8.TypeMethod, byte(method))
	b, err := send(method, m1)
	if err != nil {
		return nil, &PairSetupError{"M1", err}
	}

	log.Debug.Printf("%s M1", method)

	res, err := c.post(ctx, PathPairSetup, b)
	if err != nil {
		return nil, err
	}

	m2, err := receive(method, M2, res)
	if err != nil {
		return nil, &PairSetupError{"M2", err}
	}

	salt, _ := m2.Get(tlv8.TypeSalt)
	remotePubk, _ := m2.Get(tlv8.TypePublicKey)

	clientSession, err := newPairSetupClientSession(salt, remotePubk, code)
	if err != nil {
		return nil, &PairSetupError{"M2", err}
	}

	return clientSession, nil
}

func (c *Client) pairSetupM3(ctx context.Context, clientSession *pairSetupClientSession) error {
	method := c.setupMethod()

	m3 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M3)).
		Set(tlv8.TypePublicKey, clientSession.PublicKey).
		Set(tlv8.TypeProof, clientSession.Proof)
	b, err := send(method, m3)
	if err != nil {
		return &PairSetupError{"M3", err}
	}

	log.Debug.Printf("%s M3", method)

	res, err := c.post(ctx, PathPairSetup, b)
	if err != nil {
		return err
	}

	m4, err := receive(method, M4, res)
	if err != nil {
		return &PairSetupError{"M4", err}
	}

	serverProof, _ := m4.Get(tlv8.TypeProof)
	if !clientSession.VerifyServerProof(serverProof) {
		return &PairSetupError{"M4", &AuthenticationError{Reason: "server proof is not valid"}}
	}

	return nil
}

func (c *Client) pairSetupM5(ctx context.Context, clientSession *pairSetupClientSession) (*Pairing, error) {
	method := c.setupMethod()

	encData, err := clientSession.SealControllerInfo(c.Controller)
	if err != nil {
		return nil, &PairSetupError{"M5", err}
	}

	m5 := tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(M5)).
		Set(tlv8.TypeEncryptedData, encData)
	b, err := send(method, m5)
	if err != nil {
		return nil, &PairSetupError{"M5", err}
	}

	log.Debug.Printf("%s M5", method)

	res, err := c.post(ctx, PathPairSetup, b)
	if err != nil {
		return nil, err
	}

	m6, err := receive(method, M6, res)
	if err != nil {
		return nil, &PairSetupError{"M6", err}
	}

	encrypted, _ := m6.Get(tlv8.TypeEncryptedData)
	accessory, err := clientSession.OpenAccessoryInfo(encrypted)
	if err != nil {
		return nil, &PairSetupError{"M6", err}
	}

	if c.AccessoryID != "" && accessory.Name != c.AccessoryID {
		return nil, &PairSetupError{"M6", &AuthenticationError{Reason: "unexpected accessory identifier " + accessory.Name}}
	}

	return accessory, nil
}

// PairSetup runs the M1..M6 exchange with the setup code printed on the
// accessory and returns the accessory's long-term identity. Nothing is
// returned unless every step, including the accessory proof in M4 and
// its signature in M6, checked out.
func (c *Client) PairSetup(ctx context.Context, code string) (*Pairing, error) {
	code, err := NormalizeSetupCode(code)
	if err != nil {
		return nil, &PairSetupError{"M1", err}
	}
	if err = c.Controller.valid(); err != nil {
		return nil, &PairSetupError{"M1", err}
	}

	clientSession, err := c.pairSetupM1(ctx, code)
	if err != nil {
		return nil, err
	}
	defer clientSession.zero()

	err = c.pairSetupM3(ctx, clientSession)
	if err != nil {
		return nil, err
	}
	accessory, err := c.pairSetupM5(ctx, clientSession)
	if err != nil {
		return nil, err
	}

	log.Info.Printf("paired with %s", accessory.Name)

	return accessory, nil
}
