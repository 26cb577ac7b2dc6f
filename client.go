package hkpair

import (
	"context"
	"crypto/rand"
	"io"

	"github.com/hkontrol/hkpair/chacha20poly1305"
	"github.com/hkontrol/hkpair/log"
	"github.com/hkontrol/hkpair/tlv8"
)

// Client drives the pairing handshakes against one accessory. A Client
// keeps no state between calls: every handshake owns its ephemeral keys.
type Client struct {
	Transport Transport
	BaseURL   string

	// Controller is the long-term identity presented to the accessory.
	Controller Identity

	// AccessoryID, when set, is the identifier pair-setup must see in M6.
	AccessoryID string

	// FeatureFlags as advertised by the accessory; they select the
	// pair-setup method.
	FeatureFlags FeatureFlags

	// Rand is the source of ephemeral key material. Nil means crypto/rand.
	Rand io.Reader
}

func NewClient(transport Transport, baseURL string, controller Identity) *Client {
	return &Client{
		Transport:  transport,
		BaseURL:    baseURL,
		Controller: controller,
	}
}

func (c *Client) random() io.Reader {
	if c.Rand != nil {
		return c.Rand
	}
	return rand.Reader
}

// send checks an outbound message against the same table inbound
// messages are checked with and encodes it.
func send(method Method, m *tlv8.Container) ([]byte, error) {
	if _, err := Validate(method, m); err != nil {
		return nil, err
	}
	return m.Encode(), nil
}

// receive decodes and validates an inbound message before anything else
// looks at it.
func receive(method Method, want State, b []byte) (*tlv8.Container, error) {
	m, err := tlv8.Decode(b)
	if err != nil {
		return nil, err
	}
	if err = expect(method, want, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) ([]byte, error) {
	return c.Transport.Post(ctx, c.BaseURL, path, HTTPContentTypePairingTLV8, body)
}

// pairings runs one sealed request/response over /pairings: the request
// is encrypted with the write key ("PV-Msg05"), the response decrypted
// with the read key ("PV-Msg06").
func (c *Client) pairings(ctx context.Context, keys SessionKeys, method Method, req *tlv8.Container) (*tlv8.Container, error) {
	if keys.IsZero() {
		return nil, &PairingsError{method, "M1", &ProtocolError{Method: method, State: M1, Reason: "no verified session"}}
	}

	b, err := send(method, req)
	if err != nil {
		return nil, &PairingsError{method, "M1", err}
	}

	sealed, err := chacha20poly1305.Seal(keys.WriteKey[:], []byte("PV-Msg05"), b, nil)
	if err != nil {
		return nil, &PairingsError{method, "M1", err}
	}

	log.Debug.Printf("%s M1", method)

	res, err := c.post(ctx, PathPairings, sealed)
	if err != nil {
		return nil, err
	}

	decrypted, err := chacha20poly1305.Open(keys.ReadKey[:], []byte("PV-Msg06"), res, nil)
	if err != nil {
		return nil, &PairingsError{method, "M2", &AuthenticationError{Reason: "cannot decrypt response", Err: err}}
	}

	m2, err := receive(method, M2, decrypted)
	if err != nil {
		if method == MethodDeletePairing {
			err = &AuthenticationError{Reason: "removal not confirmed", Err: err}
		}
		return nil, &PairingsError{method, "M2", err}
	}

	log.Debug.Printf("%s M2", method)

	return m2, nil
}
