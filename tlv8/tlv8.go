// Package tlv8 implements the tag-length-value encoding used by HomeKit
// pairing messages.
//
// Values longer than 255 bytes are written as consecutive fragments under
// the same tag and are joined again when decoding.
package tlv8

import (
	"errors"
	"fmt"
)

// Type is the tag of a TLV8 item. Values are fixed by the HomeKit
// Accessory Protocol.
type Type byte

const (
	TypeMethod        Type = 0x00
	TypeIdentifier    Type = 0x01
	TypeSalt          Type = 0x02
	TypePublicKey     Type = 0x03
	TypeProof         Type = 0x04
	TypeEncryptedData Type = 0x05
	TypeState         Type = 0x06
	TypeError         Type = 0x07
	TypeRetryDelay    Type = 0x08
	TypeCertificate   Type = 0x09
	TypeSignature     Type = 0x0A
	TypePermissions   Type = 0x0B
	TypeFragmentData  Type = 0x0C
	TypeFragmentLast  Type = 0x0D
	TypeFlags         Type = 0x13
	TypeSeparator     Type = 0xFF
)

var typeNames = map[Type]string{
	TypeMethod:        "method",
	TypeIdentifier:    "identifier",
	TypeSalt:          "salt",
	TypePublicKey:     "public key",
	TypeProof:         "proof",
	TypeEncryptedData: "encrypted data",
	TypeState:         "state",
	TypeError:         "error",
	TypeRetryDelay:    "retry delay",
	TypeCertificate:   "certificate",
	TypeSignature:     "signature",
	TypePermissions:   "permissions",
	TypeFragmentData:  "fragment data",
	TypeFragmentLast:  "fragment last",
	TypeFlags:         "flags",
	TypeSeparator:     "separator",
}

func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("type 0x%02x", byte(t))
}

// maxFragment is the largest value a single item can carry.
const maxFragment = 255

var (
	ErrTruncated = errors.New("tlv8: truncated item")
	ErrEmpty     = errors.New("tlv8: unmarshal zero data")
)

// Item is one logical value, already reassembled from its fragments.
type Item struct {
	Type  Type
	Value []byte
}

// Container is an ordered list of items. Encoding preserves the order in
// which items were added.
type Container struct {
	items []Item
}

func NewContainer() *Container {
	return &Container{}
}

// Set replaces the first item of type t or appends a new one.
func (c *Container) Set(t Type, v []byte) *Container {
	for i := range c.items {
		if c.items[i].Type == t {
			c.items[i].Value = v
			return c
		}
	}
	return c.Add(t, v)
}

func (c *Container) SetByte(t Type, b byte) *Container {
	return c.Set(t, []byte{b})
}

func (c *Container) SetString(t Type, s string) *Container {
	return c.Set(t, []byte(s))
}

// Add always appends, so repeated types are kept as distinct items.
func (c *Container) Add(t Type, v []byte) *Container {
	c.items = append(c.items, Item{Type: t, Value: v})
	return c
}

// Get returns the value of the first item of type t.
func (c *Container) Get(t Type) ([]byte, bool) {
	for _, item := range c.items {
		if item.Type == t {
			return item.Value, true
		}
	}
	return nil, false
}

func (c *Container) Has(t Type) bool {
	_, ok := c.Get(t)
	return ok
}

// Byte returns a one byte value. ok is false if the item is missing or
// does not have exactly one byte.
func (c *Container) Byte(t Type) (b byte, ok bool) {
	v, found := c.Get(t)
	if !found || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

func (c *Container) String(t Type) string {
	v, _ := c.Get(t)
	return string(v)
}

func (c *Container) Items() []Item {
	return c.items
}

func (c *Container) Len() int {
	return len(c.items)
}

// Split cuts the container at every item of type sep. Separators are not
// part of the result.
func (c *Container) Split(sep Type) []*Container {
	parts := []*Container{{}}
	for _, item := range c.items {
		if item.Type == sep {
			parts = append(parts, &Container{})
			continue
		}
		last := parts[len(parts)-1]
		last.items = append(last.items, item)
	}
	return parts
}

// Encode serializes the container. Long values are fragmented into
// consecutive items of at most 255 bytes.
func Encode(c *Container) []byte {
	var b []byte
	for _, item := range c.items {
		b = appendItem(b, item.Type, item.Value)
	}
	return b
}

func (c *Container) Encode() []byte {
	return Encode(c)
}

func appendItem(b []byte, t Type, v []byte) []byte {
	for len(v) > maxFragment {
		b = append(b, byte(t), maxFragment)
		b = append(b, v[:maxFragment]...)
		v = v[maxFragment:]
	}
	b = append(b, byte(t), byte(len(v)))
	return append(b, v...)
}

// Decode parses b. Consecutive items with the same type are joined into a
// single value; the same type appearing again after another type starts a
// new item.
func Decode(b []byte) (*Container, error) {
	c := &Container{}
	var last *Item

	for offset := 0; offset < len(b); {
		if len(b)-offset < 2 {
			return nil, fmt.Errorf("%w: header at offset %d", ErrTruncated, offset)
		}

		t := Type(b[offset])
		l := int(b[offset+1])
		offset += 2

		if len(b)-offset < l {
			return nil, fmt.Errorf("%w: %s wants %d bytes at offset %d, %d left", ErrTruncated, t, l, offset, len(b)-offset)
		}

		v := b[offset : offset+l]
		offset += l

		if last != nil && last.Type == t {
			last.Value = append(last.Value, v...)
			continue
		}

		c.items = append(c.items, Item{Type: t, Value: append([]byte{}, v...)})
		last = &c.items[len(c.items)-1]
	}

	return c, nil
}
