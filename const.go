package hkpair

import (
	"fmt"

	"github.com/xiam/to"
)

const (
	HTTPContentTypePairingTLV8 = "application/pairing+tlv8"

	PathPairSetup  = "/pair-setup"
	PathPairVerify = "/pair-verify"
	PathPairings   = "/pairings"
)

// Method is the pairing method carried in the METHOD item.
type Method byte

const (
	MethodPairSetup         Method = 0
	MethodPairSetupWithAuth Method = 1 // accessory has an MFi coprocessor
	MethodPairVerify        Method = 2
	MethodAddPairing        Method = 3
	MethodDeletePairing     Method = 4
	MethodListPairings      Method = 5
)

func (m Method) String() string {
	switch m {
	case MethodPairSetup:
		return "pair-setup"
	case MethodPairSetupWithAuth:
		return "pair-setup-auth"
	case MethodPairVerify:
		return "pair-verify"
	case MethodAddPairing:
		return "add-pairing"
	case MethodDeletePairing:
		return "remove-pairing"
	case MethodListPairings:
		return "list-pairings"
	}
	return fmt.Sprintf("method(%d)", byte(m))
}

// State is the M1..M6 step number. Its meaning depends on the method.
type State byte

const (
	M1 State = 1
	M2 State = 2
	M3 State = 3
	M4 State = 4
	M5 State = 5
	M6 State = 6
)

func (s State) String() string {
	if s >= M1 && s <= M6 {
		return fmt.Sprintf("M%d", byte(s))
	}
	return fmt.Sprintf("state(%d)", byte(s))
}

// Permission of a controller pairing.
const (
	PermissionUser  byte = 0
	PermissionAdmin byte = 1
)

// FeatureFlags advertised by the accessory in the "ff" TXT record.
type FeatureFlags uint8

const FeatureFlagAuthCoprocessor FeatureFlags = 1 << 0

const TXTFeatureFlags = "ff"

// FeatureFlagsFromString parses the "ff" value. An empty value reads as zero.
func FeatureFlagsFromString(s string) FeatureFlags {
	return FeatureFlags(to.Uint64(s))
}

// SetupMethod returns the pair-setup method the accessory expects.
func (f FeatureFlags) SetupMethod() Method {
	if f&FeatureFlagAuthCoprocessor != 0 {
		return MethodPairSetupWithAuth
	}
	return MethodPairSetup
}
