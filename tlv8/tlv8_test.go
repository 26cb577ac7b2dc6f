package tlv8

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"
)

func sequence(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i)
	}
	return b
}

func TestChunking(t *testing.T) {
	value := sequence(600)

	b := NewContainer().Set(TypeEncryptedData, value).Encode()
	require.Len(t, b, 600+3*2)

	// 255 + 255 + 90, all tagged 0x05
	require.Equal(t, []byte{0x05, 255}, b[0:2])
	require.Equal(t, []byte{0x05, 255}, b[257:259])
	require.Equal(t, []byte{0x05, 90}, b[514:516])

	c, err := Decode(b)
	require.Nil(t, err)
	require.Equal(t, 1, c.Len())

	v, ok := c.Get(TypeEncryptedData)
	require.True(t, ok)
	require.Equal(t, value, v)
}

func TestRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 254, 255, 256, 510, 511, 1024} {
		src := NewContainer().
			SetByte(TypeState, 3).
			Set(TypePublicKey, sequence(n)).
			Set(TypeProof, bytes.Repeat([]byte{0xAB}, 64))

		b := Encode(src)

		dst, err := Decode(b)
		require.Nil(t, err, "n=%d", n)
		require.Equal(t, src.Items(), dst.Items(), "n=%d", n)

		// already chunk-correct input re-encodes byte for byte
		require.Equal(t, b, dst.Encode(), "n=%d", n)
	}
}

func TestDecodeKnownBytes(t *testing.T) {
	// state=M2, salt(16), error absent
	src, err := hex.DecodeString("060102" + "0210" + "000102030405060708090a0b0c0d0e0f")
	require.Nil(t, err)

	c, err := Decode(src)
	require.Nil(t, err)

	state, ok := c.Byte(TypeState)
	require.True(t, ok)
	require.Equal(t, byte(2), state)

	salt, ok := c.Get(TypeSalt)
	require.True(t, ok)
	require.Equal(t, sequence(16), salt)

	require.False(t, c.Has(TypeError))
	require.Equal(t, src, c.Encode())
}

func TestDecodeSeparatedTypesStayDistinct(t *testing.T) {
	b := []byte{
		0x01, 0x01, 'a',
		0xFF, 0x00,
		0x01, 0x01, 'b',
	}

	c, err := Decode(b)
	require.Nil(t, err)
	require.Equal(t, 3, c.Len())

	// first one wins on lookup
	require.Equal(t, "a", c.String(TypeIdentifier))

	parts := c.Split(TypeSeparator)
	require.Len(t, parts, 2)
	require.Equal(t, "a", parts[0].String(TypeIdentifier))
	require.Equal(t, "b", parts[1].String(TypeIdentifier))

	require.Equal(t, b, c.Encode())
}

func TestDecodeJoinsConsecutiveFragments(t *testing.T) {
	b := []byte{0x0A, 0x02, 1, 2, 0x0A, 0x01, 3, 0x06, 0x01, 4}

	c, err := Decode(b)
	require.Nil(t, err)
	require.Equal(t, 2, c.Len())

	v, _ := c.Get(TypeSignature)
	require.Equal(t, []byte{1, 2, 3}, v)
}

func TestDecodeTruncated(t *testing.T) {
	for _, b := range [][]byte{
		{0x06},
		{0x06, 0x02, 0x01},
		{0x06, 0x01, 0x01, 0x05, 0xFF},
		append([]byte{0x05, 0xFF}, sequence(254)...),
	} {
		c, err := Decode(b)
		require.ErrorIs(t, err, ErrTruncated, "%x", b)
		require.Nil(t, c)
	}
}

func TestDecodeEmpty(t *testing.T) {
	c, err := Decode(nil)
	require.Nil(t, err)
	require.Equal(t, 0, c.Len())
}

func TestContainerSet(t *testing.T) {
	c := NewContainer().SetByte(TypeState, 1).SetByte(TypeMethod, 0)
	c.SetByte(TypeState, 3)

	require.Equal(t, []byte{0x06, 0x01, 0x03, 0x00, 0x01, 0x00}, c.Encode())

	_, ok := c.Byte(TypeProof)
	require.False(t, ok)

	c.Set(TypeProof, []byte{1, 2})
	_, ok = c.Byte(TypeProof)
	require.False(t, ok)
}

func TestTypeString(t *testing.T) {
	require.Equal(t, "salt", TypeSalt.String())
	require.Equal(t, "type 0x42", Type(0x42).String())
}
