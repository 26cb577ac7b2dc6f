package hkpair

import (
	"errors"
	"fmt"

	"github.com/hkontrol/hkpair/tlv8"
)

// ErrAuthentication matches every failed proof, signature or AEAD check,
// i.e. a wrong setup code or active tampering.
var ErrAuthentication = errors.New("hkpair: authentication failed")

type PairVerifyError struct {
	Step string
	err  error
}

func (e *PairVerifyError) Unwrap() error {
	return e.err
}

func (e *PairVerifyError) Error() string {
	return fmt.Sprintf("pair-verify error on step %s: %v", e.Step, e.err)
}

type PairSetupError struct {
	Step string
	err  error
}

func (p *PairSetupError) Error() string {
	return fmt.Sprintf("pair-setup error on step %s: %v", p.Step, p.err)
}

func (p *PairSetupError) Unwrap() error {
	return p.err
}

// PairingsError is returned by the /pairings exchanges (remove, add, list).
type PairingsError struct {
	Method Method
	Step   string
	err    error
}

func (p *PairingsError) Error() string {
	return fmt.Sprintf("%s error on step %s: %v", p.Method, p.Step, p.err)
}

func (p *PairingsError) Unwrap() error {
	return p.err
}

// ProtocolError reports a message that is not legal for the method and
// state it claims, or one that carries an accessory ERROR item.
type ProtocolError struct {
	Method Method
	State  State
	Tag    tlv8.Type
	Reason string
	Err    error
}

func (p *ProtocolError) Error() string {
	s := fmt.Sprintf("hkpair: %s %s: %s", p.Method, p.State, p.Reason)
	if p.Err != nil {
		s += ": " + p.Err.Error()
	}
	return s
}

func (p *ProtocolError) Unwrap() error {
	return p.Err
}

// AuthenticationError wraps the cause of a failed cryptographic check.
// errors.Is(err, ErrAuthentication) holds for every AuthenticationError.
type AuthenticationError struct {
	Reason string
	Err    error
}

func (a *AuthenticationError) Error() string {
	if a.Err != nil {
		return fmt.Sprintf("%v: %s: %v", ErrAuthentication, a.Reason, a.Err)
	}
	return fmt.Sprintf("%v: %s", ErrAuthentication, a.Reason)
}

func (a *AuthenticationError) Unwrap() error {
	return a.Err
}

func (a *AuthenticationError) Is(target error) bool {
	return target == ErrAuthentication
}

type TlvError struct {
	Code    byte
	Message string
}

func (t *TlvError) Error() string {
	return fmt.Sprintf("tlv error %x: %s", t.Code, t.Message)
}

// Error codes for TLV8 communication.
var (
	TlvErrorUnknown        = TlvError{0x1, "unknown"}
	TlvErrorAuthentication = TlvError{0x2, "setup code or signature verification failed"}
	TlvErrorBackoff        = TlvError{0x3,
		"client must look at the retry delay TLV item and wait that many seconds before retrying"}
	TlvErrorMaxPeers    = TlvError{0x4, "server cannot accept any more pairings"}
	TlvErrorMaxTries    = TlvError{0x5, "server reached its maximum number of authentication attempts"}
	TlvErrorUnavailable = TlvError{0x6, "server pairing method is unavailable"}
	TlvErrorBusy        = TlvError{0x7, "server is busy and cannot accept a pairing request at this time"}

	tlvErrors = []TlvError{
		TlvErrorUnknown, TlvErrorAuthentication,
		TlvErrorBackoff, TlvErrorMaxPeers,
		TlvErrorMaxTries, TlvErrorUnavailable, TlvErrorBusy,
	}
)

// TlvErrorFromCode returns a copy of the matching error, so callers can
// compare codes with errors.As.
func TlvErrorFromCode(code byte) *TlvError {
	for _, e := range tlvErrors {
		if e.Code == code {
			e := e
			return &e
		}
	}
	return &TlvError{code, TlvErrorUnknown.Message}
}
