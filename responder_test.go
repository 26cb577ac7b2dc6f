package hkpair

import (
	"context"
	"sort"
	"testing"

	"github.com/hkontrol/hkpair/chacha20poly1305"
	"github.com/hkontrol/hkpair/curve25519"
	"github.com/hkontrol/hkpair/ed25519"
	"github.com/hkontrol/hkpair/hkdf"
	"github.com/hkontrol/hkpair/tlv8"
	"github.com/stretchr/testify/require"
	"github.com/tadglines/go-pkgs/crypto/srp"
)

// testAccessory is the accessory side of every handshake, answering
// in-process through the Transport interface.
type testAccessory struct {
	t    *testing.T
	id   Identity
	code string

	setup       *srp.ServerSession
	setupKey    []byte
	setupMethod Method

	verifyPublic  [32]byte
	verifyPrivate [32]byte
	controllerEph []byte
	verifyShared  [32]byte
	verifyKey     [32]byte

	// session keys from the accessory's point of view
	readKey  [32]byte
	writeKey [32]byte

	controllers map[string]Pairing
	requests    []string

	// mutate may rewrite a response before it is encoded (and, for
	// /pairings, sealed).
	mutate func(path string, state State, res *tlv8.Container) *tlv8.Container
	// raw may rewrite the encoded response bytes.
	raw func(path string, res []byte) []byte
}

func newTestAccessory(t *testing.T, code string) *testAccessory {
	id, err := generateIdentity("AA:BB:CC:DD:EE:FF")
	require.NoError(t, err)

	return &testAccessory{
		t:           t,
		id:          id,
		code:        code,
		controllers: map[string]Pairing{},
	}
}

func (a *testAccessory) pairing() Pairing {
	return Pairing{Name: a.id.Id, PublicKey: a.id.PublicKey}
}

func (a *testAccessory) Post(_ context.Context, _, path, contentType string, body []byte) ([]byte, error) {
	require.Equal(a.t, HTTPContentTypePairingTLV8, contentType)
	a.requests = append(a.requests, path)

	var res []byte
	switch path {
	case PathPairSetup:
		res = a.pairSetup(body)
	case PathPairVerify:
		res = a.pairVerify(body)
	case PathPairings:
		res = a.pairings(body)
	default:
		a.t.Fatalf("unexpected path %s", path)
	}

	if a.raw != nil {
		res = a.raw(path, res)
	}
	return res, nil
}

func (a *testAccessory) reply(path string, state State, res *tlv8.Container) *tlv8.Container {
	if a.mutate != nil {
		res = a.mutate(path, state, res)
	}
	return res
}

func errorReply(state State, e TlvError) *tlv8.Container {
	return tlv8.NewContainer().
		SetByte(tlv8.TypeState, byte(state)).
		SetByte(tlv8.TypeError, e.Code)
}

func (a *testAccessory) derive(key []byte, salt, info string) [32]byte {
	k, err := hkdf.Sha512(key, []byte(salt), []byte(info))
	require.NoError(a.t, err)
	return k
}

func (a *testAccessory) pairSetup(body []byte) []byte {
	t := a.t

	req, err := tlv8.Decode(body)
	require.NoError(t, err)
	state, ok := req.Byte(tlv8.TypeState)
	require.True(t, ok)

	var res *tlv8.Container

	switch State(state) {
	case M1:
		method, _ := req.Byte(tlv8.TypeMethod)
		a.setupMethod = Method(method)

		s, err := newSRP()
		require.NoError(t, err)
		salt, verifier, err := s.ComputeVerifier([]byte(a.code))
		require.NoError(t, err)
		a.setup = s.NewServerSession(srpUsername, salt, verifier)

		res = tlv8.NewContainer().
			SetByte(tlv8.TypeState, byte(M2)).
			Set(tlv8.TypeSalt, salt).
			Set(tlv8.TypePublicKey, a.setup.GetB())
		res = a.reply(PathPairSetup, M2, res)

	case M3:
		clientPublic, _ := req.Get(tlv8.TypePublicKey)
		clientProof, _ := req.Get(tlv8.TypeProof)

		key, err := a.setup.ComputeKey(clientPublic)
		require.NoError(t, err)

		if !a.setup.VerifyClientAuthenticator(clientProof) {
			res = errorReply(M4, TlvErrorAuthentication)
			break
		}
		a.setupKey = key

		res = tlv8.NewContainer().
			SetByte(tlv8.TypeState, byte(M4)).
			Set(tlv8.TypeProof, a.setup.ComputeAuthenticator(clientProof))
		res = a.reply(PathPairSetup, M4, res)

	case M5:
		encKey := a.derive(a.setupKey, "Pair-Setup-Encrypt-Salt", "Pair-Setup-Encrypt-Info")
		encrypted, _ := req.Get(tlv8.TypeEncryptedData)

		plain, err := chacha20poly1305.Open(encKey[:], []byte("PS-Msg05"), encrypted, nil)
		if err != nil {
			res = errorReply(M6, TlvErrorAuthentication)
			break
		}

		var info pairingInfo
		require.NoError(t, tlv8.Unmarshal(plain, &info))

		hash := a.derive(a.setupKey, "Pair-Setup-Controller-Sign-Salt", "Pair-Setup-Controller-Sign-Info")
		material := append(append(hash[:], info.Identifier...), info.PublicKey...)
		if !ed25519.ValidateSignature(info.PublicKey, material, info.Signature) {
			res = errorReply(M6, TlvErrorAuthentication)
			break
		}
		a.controllers[info.Identifier] = Pairing{Name: info.Identifier, PublicKey: info.PublicKey, Permission: PermissionAdmin}

		hash = a.derive(a.setupKey, "Pair-Setup-Accessory-Sign-Salt", "Pair-Setup-Accessory-Sign-Info")
		material = append(append(hash[:], a.id.Id...), a.id.PublicKey...)
		signature, err := ed25519.Signature(a.id.PrivateKey, material)
		require.NoError(t, err)

		b, err := tlv8.Marshal(pairingInfo{Identifier: a.id.Id, PublicKey: a.id.PublicKey, Signature: signature})
		require.NoError(t, err)
		sealed, err := chacha20poly1305.Seal(encKey[:], []byte("PS-Msg06"), b, nil)
		require.NoError(t, err)

		res = tlv8.NewContainer().
			SetByte(tlv8.TypeState, byte(M6)).
			Set(tlv8.TypeEncryptedData, sealed)
		res = a.reply(PathPairSetup, M6, res)

	default:
		t.Fatalf("pair-setup: unexpected state %d", state)
	}

	return res.Encode()
}

func (a *testAccessory) pairVerify(body []byte) []byte {
	t := a.t

	req, err := tlv8.Decode(body)
	require.NoError(t, err)
	state, ok := req.Byte(tlv8.TypeState)
	require.True(t, ok)

	var res *tlv8.Container

	switch State(state) {
	case M1:
		a.controllerEph, _ = req.Get(tlv8.TypePublicKey)

		a.verifyPublic, a.verifyPrivate, err = curve25519.GenerateKeyPair()
		require.NoError(t, err)
		a.verifyShared, err = curve25519.SharedSecret(a.verifyPrivate, a.controllerEph)
		require.NoError(t, err)
		a.verifyKey = a.derive(a.verifyShared[:], "Pair-Verify-Encrypt-Salt", "Pair-Verify-Encrypt-Info")

		var material []byte
		material = append(material, a.verifyPublic[:]...)
		material = append(material, a.id.Id...)
		material = append(material, a.controllerEph...)
		signature, err := ed25519.Signature(a.id.PrivateKey, material)
		require.NoError(t, err)

		b, err := tlv8.Marshal(pairingInfo{Identifier: a.id.Id, Signature: signature})
		require.NoError(t, err)
		sealed, err := chacha20poly1305.Seal(a.verifyKey[:], []byte("PV-Msg02"), b, nil)
		require.NoError(t, err)

		res = tlv8.NewContainer().
			SetByte(tlv8.TypeState, byte(M2)).
			Set(tlv8.TypePublicKey, a.verifyPublic[:]).
			Set(tlv8.TypeEncryptedData, sealed)
		res = a.reply(PathPairVerify, M2, res)

	case M3:
		encrypted, _ := req.Get(tlv8.TypeEncryptedData)
		plain, err := chacha20poly1305.Open(a.verifyKey[:], []byte("PV-Msg03"), encrypted, nil)
		if err != nil {
			res = errorReply(M4, TlvErrorAuthentication)
			break
		}

		var info pairingInfo
		require.NoError(t, tlv8.Unmarshal(plain, &info))

		controller, ok := a.controllers[info.Identifier]
		if !ok {
			res = errorReply(M4, TlvErrorAuthentication)
			break
		}

		var material []byte
		material = append(material, a.controllerEph...)
		material = append(material, info.Identifier...)
		material = append(material, a.verifyPublic[:]...)
		if !ed25519.ValidateSignature(controller.PublicKey, material, info.Signature) {
			res = errorReply(M4, TlvErrorAuthentication)
			break
		}

		// the controller's write key is our read key
		a.readKey = a.derive(a.verifyShared[:], "Control-Salt", "Control-Write-Encryption-Key")
		a.writeKey = a.derive(a.verifyShared[:], "Control-Salt", "Control-Read-Encryption-Key")

		res = tlv8.NewContainer().SetByte(tlv8.TypeState, byte(M4))
		res = a.reply(PathPairVerify, M4, res)

	default:
		t.Fatalf("pair-verify: unexpected state %d", state)
	}

	return res.Encode()
}

func (a *testAccessory) pairings(body []byte) []byte {
	t := a.t

	plain, err := chacha20poly1305.Open(a.readKey[:], []byte("PV-Msg05"), body, nil)
	require.NoError(t, err)

	req, err := tlv8.Decode(plain)
	require.NoError(t, err)
	method, ok := req.Byte(tlv8.TypeMethod)
	require.True(t, ok)

	res := tlv8.NewContainer().SetByte(tlv8.TypeState, byte(M2))

	switch Method(method) {
	case MethodDeletePairing:
		delete(a.controllers, req.String(tlv8.TypeIdentifier))

	case MethodAddPairing:
		p := Pairing{Name: req.String(tlv8.TypeIdentifier)}
		p.PublicKey, _ = req.Get(tlv8.TypePublicKey)
		p.Permission, _ = req.Byte(tlv8.TypePermissions)
		a.controllers[p.Name] = p

	case MethodListPairings:
		names := make([]string, 0, len(a.controllers))
		for name := range a.controllers {
			names = append(names, name)
		}
		sort.Strings(names)

		for i, name := range names {
			if i > 0 {
				res.Add(tlv8.TypeSeparator, nil)
			}
			p := a.controllers[name]
			res.Add(tlv8.TypeIdentifier, []byte(p.Name))
			res.Add(tlv8.TypePublicKey, p.PublicKey)
			res.Add(tlv8.TypePermissions, []byte{p.Permission})
		}

	default:
		t.Fatalf("pairings: unexpected method %d", method)
	}

	res = a.reply(PathPairings, M2, res)

	sealed, err := chacha20poly1305.Seal(a.writeKey[:], []byte("PV-Msg06"), res.Encode(), nil)
	require.NoError(t, err)
	return sealed
}
