package hkpair

import (
	"github.com/hkontrol/hkpair/tlv8"
)

// requiredTypes lists the items every message of a (method, state) pair
// must carry. A state missing from a method's row is illegal for it.
var requiredTypes = map[Method]map[State][]tlv8.Type{
	MethodPairSetup: {
		M1: {tlv8.TypeState, tlv8.TypeMethod},
		M2: {tlv8.TypeState, tlv8.TypeSalt, tlv8.TypePublicKey},
		M3: {tlv8.TypeState, tlv8.TypePublicKey, tlv8.TypeProof},
		M4: {tlv8.TypeState, tlv8.TypeProof},
		M5: {tlv8.TypeState, tlv8.TypeEncryptedData},
		M6: {tlv8.TypeState, tlv8.TypeEncryptedData},
	},
	MethodPairVerify: {
		M1: {tlv8.TypeState, tlv8.TypePublicKey},
		M2: {tlv8.TypeState, tlv8.TypePublicKey, tlv8.TypeEncryptedData},
		M3: {tlv8.TypeState, tlv8.TypeEncryptedData},
		M4: {tlv8.TypeState},
	},
	MethodDeletePairing: {
		M1: {tlv8.TypeState, tlv8.TypeMethod, tlv8.TypeIdentifier},
		M2: {tlv8.TypeState},
	},
	MethodAddPairing: {
		M1: {tlv8.TypeState, tlv8.TypeMethod, tlv8.TypeIdentifier, tlv8.TypePublicKey, tlv8.TypePermissions},
		M2: {tlv8.TypeState},
	},
	MethodListPairings: {
		M1: {tlv8.TypeState, tlv8.TypeMethod},
		M2: {tlv8.TypeState},
	},
}

// tableMethod maps method variants onto their table row.
func tableMethod(m Method) Method {
	if m == MethodPairSetupWithAuth {
		return MethodPairSetup
	}
	return m
}

// Validate checks a decoded message for method and returns its state.
// An ERROR item always fails, whatever else the message carries.
func Validate(method Method, c *tlv8.Container) (State, error) {
	var state State
	if b, ok := c.Byte(tlv8.TypeState); ok {
		state = State(b)
	}

	if v, ok := c.Get(tlv8.TypeError); ok {
		pe := &ProtocolError{Method: method, State: state, Tag: tlv8.TypeError, Reason: "accessory reported error"}
		if len(v) == 1 {
			pe.Err = TlvErrorFromCode(v[0])
		} else {
			pe.Err = TlvErrorFromCode(TlvErrorUnknown.Code)
		}
		return state, pe
	}

	if v, ok := c.Get(tlv8.TypeState); !ok || len(v) != 1 {
		return 0, &ProtocolError{Method: method, Tag: tlv8.TypeState, Reason: "missing or malformed state"}
	}

	row, ok := requiredTypes[tableMethod(method)]
	if !ok {
		return state, &ProtocolError{Method: method, State: state, Tag: tlv8.TypeMethod, Reason: "unsupported method"}
	}

	required, ok := row[state]
	if !ok {
		return state, &ProtocolError{Method: method, State: state, Tag: tlv8.TypeState, Reason: "illegal state"}
	}

	for _, t := range required {
		if !c.Has(t) {
			return state, &ProtocolError{Method: method, State: state, Tag: t, Reason: "missing " + t.String()}
		}
	}

	return state, nil
}

// expect validates c and requires it to be in state want.
func expect(method Method, want State, c *tlv8.Container) error {
	state, err := Validate(method, c)
	if err != nil {
		return err
	}
	if state != want {
		return &ProtocolError{Method: method, State: state, Tag: tlv8.TypeState, Reason: "unexpected state, want " + want.String()}
	}
	return nil
}
