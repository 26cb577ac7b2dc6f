package tlv8

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Marshal encodes a struct whose fields carry `tlv8:"<tag>[,omitempty]"`
// tags. Supported field kinds are uint8, uint16, uint32 (little endian),
// string, []byte and [N]byte.
func Marshal(v any) ([]byte, error) {
	c, err := MarshalContainer(v)
	if err != nil {
		return nil, err
	}
	return c.Encode(), nil
}

// MarshalContainer is like Marshal but returns the container so it can be
// checked before encoding.
func MarshalContainer(v any) (*Container, error) {
	value := reflect.ValueOf(v)
	if value.Kind() == reflect.Pointer {
		value = value.Elem()
	}
	if value.Kind() != reflect.Struct {
		return nil, errors.New("tlv8: not implemented: " + value.Kind().String())
	}

	c := &Container{}
	valueType := value.Type()

	for i := 0; i < value.NumField(); i++ {
		s, ok := valueType.Field(i).Tag.Lookup("tlv8")
		if !ok {
			continue
		}

		tag, omitEmpty, err := parseTag(s)
		if err != nil {
			return nil, err
		}

		field := value.Field(i)
		if omitEmpty && field.IsZero() {
			continue
		}

		b, err := valueBytes(field)
		if err != nil {
			return nil, fmt.Errorf("tlv8: field %s: %w", valueType.Field(i).Name, err)
		}
		c.Add(tag, b)
	}

	return c, nil
}

func valueBytes(value reflect.Value) ([]byte, error) {
	switch value.Kind() {
	case reflect.Uint8:
		return []byte{byte(value.Uint())}, nil

	case reflect.Uint16:
		v := value.Uint()
		return []byte{byte(v), byte(v >> 8)}, nil

	case reflect.Uint32:
		v := value.Uint()
		return []byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)}, nil

	case reflect.String:
		return []byte(value.String()), nil

	case reflect.Slice, reflect.Array:
		if value.Type().Elem().Kind() != reflect.Uint8 {
			break
		}
		b := make([]byte, value.Len())
		for i := range b {
			b[i] = byte(value.Index(i).Uint())
		}
		return b, nil
	}

	return nil, errors.New("not implemented: " + value.Kind().String())
}

// Unmarshal decodes data into the struct pointed to by v. Items without a
// matching field are ignored.
func Unmarshal(data []byte, v any) error {
	if len(data) == 0 {
		return ErrEmpty
	}

	c, err := Decode(data)
	if err != nil {
		return err
	}

	return UnmarshalContainer(c, v)
}

// UnmarshalContainer fills v from an already decoded container. For
// repeated types the first item wins.
func UnmarshalContainer(c *Container, v any) error {
	value := reflect.ValueOf(v)
	if value.Kind() != reflect.Pointer || value.IsNil() {
		return errors.New("tlv8: value should be pointer: " + value.Kind().String())
	}

	value = value.Elem()
	if value.Kind() != reflect.Struct {
		return errors.New("tlv8: not implemented: " + value.Kind().String())
	}

	valueType := value.Type()

	for i := 0; i < value.NumField(); i++ {
		s, ok := valueType.Field(i).Tag.Lookup("tlv8")
		if !ok {
			continue
		}

		tag, _, err := parseTag(s)
		if err != nil {
			return err
		}

		b, ok := c.Get(tag)
		if !ok {
			continue
		}

		if err = setValue(value.Field(i), b); err != nil {
			return fmt.Errorf("tlv8: field %s: %w", valueType.Field(i).Name, err)
		}
	}

	return nil
}

func setValue(value reflect.Value, b []byte) error {
	switch value.Kind() {
	case reflect.Uint8:
		if len(b) != 1 {
			return fmt.Errorf("wrong size %d", len(b))
		}
		value.SetUint(uint64(b[0]))

	case reflect.Uint16:
		if len(b) != 2 {
			return fmt.Errorf("wrong size %d", len(b))
		}
		value.SetUint(uint64(b[0]) | uint64(b[1])<<8)

	case reflect.Uint32:
		if len(b) != 4 {
			return fmt.Errorf("wrong size %d", len(b))
		}
		value.SetUint(uint64(b[0]) | uint64(b[1])<<8 | uint64(b[2])<<16 | uint64(b[3])<<24)

	case reflect.String:
		value.SetString(string(b))

	case reflect.Slice:
		if value.Type().Elem().Kind() != reflect.Uint8 {
			return errors.New("unsupported slice")
		}
		value.SetBytes(append([]byte{}, b...))

	case reflect.Array:
		if value.Type().Elem().Kind() != reflect.Uint8 || value.Len() != len(b) {
			return fmt.Errorf("wrong size %d", len(b))
		}
		for i, c := range b {
			value.Index(i).SetUint(uint64(c))
		}

	default:
		return errors.New("not implemented: " + value.Kind().String())
	}

	return nil
}

func parseTag(s string) (tag Type, omitEmpty bool, err error) {
	name, opts, _ := strings.Cut(s, ",")

	n, err := strconv.ParseUint(name, 10, 8)
	if err != nil {
		return 0, false, fmt.Errorf("tlv8: bad tag %q", s)
	}

	return Type(n), opts == "omitempty", nil
}
