package hkpair

import (
	"crypto/sha512"

	"github.com/hkontrol/hkpair/chacha20poly1305"
	"github.com/hkontrol/hkpair/ed25519"
	"github.com/hkontrol/hkpair/hkdf"
	"github.com/hkontrol/hkpair/tlv8"
	"github.com/tadglines/go-pkgs/crypto/srp"
)

// Main SRP algorithm is described in http://srp.stanford.edu/design.html
// The HAP uses the SRP-6a Stanford implementation with the following characteristics
//
//	x = H(s | H(I | ":" | P)) -> called the key derivative function
//	M1 = H(H(N) xor H(g), H(I), s, A, B, K)
const (
	srpGroup      = "rfc5054.3072" // N (modulo) => 384 byte
	srpSaltLength = 16
)

var srpUsername = []byte("Pair-Setup")

// pairSetupClientSession holds the state of exactly one pair-setup attempt.
type pairSetupClientSession struct {
	PublicKey     []byte   // A
	SessionKey    []byte   // K
	EncryptionKey [32]byte // derived from K
	Proof         []byte   // M1

	session *srp.ClientSession
}

// pairingInfo is the encrypted sub-TLV of M5 and M6 (and of verify M2/M3,
// which leave the public key out).
type pairingInfo struct {
	Identifier string `tlv8:"1"`
	PublicKey  []byte `tlv8:"3,omitempty"`
	Signature  []byte `tlv8:"10"`
}

// zero wipes the SRP secrets once the exchange is over.
func (s *pairSetupClientSession) zero() {
	zero(s.SessionKey)
	zero(s.EncryptionKey[:])
	zero(s.Proof)
}

func newSRP() (*srp.SRP, error) {
	s, err := srp.NewSRP(srpGroup, sha512.New, keyDerivativeFuncRFC2945(sha512.New, srpUsername))
	if err != nil {
		return nil, err
	}
	s.SaltLength = srpSaltLength
	return s, nil
}

// newPairSetupClientSession feeds the accessory salt and public key B into
// a fresh SRP client for the given setup code.
func newPairSetupClientSession(serverSalt, serverB []byte, code string) (*pairSetupClientSession, error) {
	s, err := newSRP()
	if err != nil {
		return nil, err
	}

	client := s.NewClientSession(srpUsername, []byte(code))
	key, err := client.ComputeKey(serverSalt, serverB)
	if err != nil {
		return nil, err
	}

	session := &pairSetupClientSession{
		session:    client,
		PublicKey:  client.GetA(),
		SessionKey: key,
		Proof:      client.ComputeAuthenticator(),
	}

	session.EncryptionKey, err = hkdf.Sha512(key,
		[]byte("Pair-Setup-Encrypt-Salt"),
		[]byte("Pair-Setup-Encrypt-Info"),
	)
	if err != nil {
		return nil, err
	}

	return session, nil
}

// VerifyServerProof checks the accessory proof M2 against our K.
func (s *pairSetupClientSession) VerifyServerProof(proof []byte) bool {
	return s.session.VerifyServerAuthenticator(proof)
}

// SealControllerInfo builds the M5 payload: our identifier, LTPK and a
// signature over HKDF(K) | identifier | LTPK, encrypted with "PS-Msg05".
func (s *pairSetupClientSession) SealControllerInfo(id Identity) ([]byte, error) {
	hash, err := hkdf.Sha512(s.SessionKey,
		[]byte("Pair-Setup-Controller-Sign-Salt"),
		[]byte("Pair-Setup-Controller-Sign-Info"),
	)
	if err != nil {
		return nil, err
	}

	var material []byte
	material = append(material, hash[:]...)
	material = append(material, id.Id...)
	material = append(material, id.PublicKey...)

	signature, err := ed25519.Signature(id.PrivateKey, material)
	if err != nil {
		return nil, err
	}

	b, err := tlv8.Marshal(pairingInfo{
		Identifier: id.Id,
		PublicKey:  id.PublicKey,
		Signature:  signature,
	})
	if err != nil {
		return nil, err
	}

	return chacha20poly1305.Seal(s.EncryptionKey[:], []byte("PS-Msg05"), b, nil)
}

// OpenAccessoryInfo decrypts the M6 payload and verifies the accessory's
// signature over HKDF(K) | identifier | LTPK.
func (s *pairSetupClientSession) OpenAccessoryInfo(data []byte) (*Pairing, error) {
	decrypted, err := chacha20poly1305.Open(s.EncryptionKey[:], []byte("PS-Msg06"), data, nil)
	if err != nil {
		return nil, &AuthenticationError{Reason: "cannot decrypt accessory info", Err: err}
	}

	var info pairingInfo
	if err = tlv8.Unmarshal(decrypted, &info); err != nil {
		return nil, err
	}
	if info.Identifier == "" || len(info.PublicKey) != ed25519.PublicKeySize || len(info.Signature) == 0 {
		return nil, &ProtocolError{Method: MethodPairSetup, State: M6, Tag: tlv8.TypeEncryptedData, Reason: "incomplete accessory info"}
	}

	hash, err := hkdf.Sha512(s.SessionKey,
		[]byte("Pair-Setup-Accessory-Sign-Salt"),
		[]byte("Pair-Setup-Accessory-Sign-Info"),
	)
	if err != nil {
		return nil, err
	}

	var material []byte
	material = append(material, hash[:]...)
	material = append(material, info.Identifier...)
	material = append(material, info.PublicKey...)

	if !ed25519.ValidateSignature(info.PublicKey, material, info.Signature) {
		return nil, &AuthenticationError{Reason: "accessory signature is not valid"}
	}

	return &Pairing{Name: info.Identifier, PublicKey: info.PublicKey}, nil
}

// keyDerivativeFuncRFC2945 returns the SRP-6a key derivative function which does
//
//	x = H(s | H(I | ":" | P))
func keyDerivativeFuncRFC2945(h srp.HashFunc, id []byte) srp.KeyDerivationFunc {
	return func(salt, pin []byte) []byte {
		h := h()
		h.Write(id)
		h.Write([]byte(":"))
		h.Write(pin)
		t2 := h.Sum(nil)
		h.Reset()
		h.Write(salt)
		h.Write(t2)
		return h.Sum(nil)
	}
}
