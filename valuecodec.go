package rctclient

import (
	"encoding/binary"
	"fmt"
	"math"
)

// wireSize returns the fixed wire width in bytes of t, or -1 if t has a
// variable or decode-only width (STRING, TIMESERIES, EVENT_TABLE).
func wireSize(t DataType) int {
	switch t {
	case DataTypeBool, DataTypeUint8, DataTypeInt8, DataTypeEnum:
		return 1
	case DataTypeUint16, DataTypeInt16:
		return 2
	case DataTypeUint32, DataTypeInt32, DataTypeFloat:
		return 4
	default:
		return -1
	}
}

// EncodeValue encodes v as the wire representation of t, appending it to the
// end of dst and returning the extended slice. It fails with ErrEncodeOverflow
// if v does not fit in t's wire width, and with ErrDecodeMalformed-adjacent
// type errors if v's Go type does not match t.
func EncodeValue(dst []byte, t DataType, v interface{}) ([]byte, error) {
	switch t {
	case DataTypeBool:
		b, ok := v.(bool)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil

	case DataTypeUint8, DataTypeEnum:
		n, err := toUint(v, 8)
		if err != nil {
			return nil, err
		}
		return append(dst, byte(n)), nil

	case DataTypeInt8:
		n, err := toInt(v, 8)
		if err != nil {
			return nil, err
		}
		return append(dst, byte(int8(n))), nil

	case DataTypeUint16:
		n, err := toUint(v, 16)
		if err != nil {
			return nil, err
		}
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(n))
		return append(dst, buf[:]...), nil

	case DataTypeInt16:
		n, err := toInt(v, 16)
		if err != nil {
			return nil, err
		}
		var buf [2]byte
		binary.BigEndian.PutUint16(buf[:], uint16(int16(n)))
		return append(dst, buf[:]...), nil

	case DataTypeUint32:
		n, err := toUint(v, 32)
		if err != nil {
			return nil, err
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(n))
		return append(dst, buf[:]...), nil

	case DataTypeInt32:
		n, err := toInt(v, 32)
		if err != nil {
			return nil, err
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], uint32(int32(n)))
		return append(dst, buf[:]...), nil

	case DataTypeFloat:
		f, ok := v.(float32)
		if !ok {
			if f64, ok2 := v.(float64); ok2 {
				f = float32(f64)
			} else {
				return nil, typeMismatch(t, v)
			}
		}
		var buf [4]byte
		binary.BigEndian.PutUint32(buf[:], math.Float32bits(f))
		return append(dst, buf[:]...), nil

	case DataTypeString:
		s, ok := v.(string)
		if !ok {
			return nil, typeMismatch(t, v)
		}
		return append(dst, []byte(s)...), nil

	default:
		return nil, fmt.Errorf("rctclient: %s is decode-only, cannot encode a value for it", t)
	}
}

// DecodeValue decodes payload as a value of type t. The returned value's Go
// type depends on t: bool, uint8, int8, uint16, int16, uint32, int32,
// float32, or string. TIMESERIES and EVENT_TABLE are handled by
// DecodeTimeseries and DecodeEventTable respectively, not here.
func DecodeValue(t DataType, payload []byte) (interface{}, error) {
	if size := wireSize(t); size >= 0 && len(payload) < size {
		return nil, fmt.Errorf("%w: %s needs %d bytes, got %d", ErrDecodeShort, t, size, len(payload))
	}

	switch t {
	case DataTypeBool:
		return payload[0] != 0, nil
	case DataTypeUint8:
		return payload[0], nil
	case DataTypeEnum:
		return payload[0], nil
	case DataTypeInt8:
		return int8(payload[0]), nil
	case DataTypeUint16:
		return binary.BigEndian.Uint16(payload), nil
	case DataTypeInt16:
		return int16(binary.BigEndian.Uint16(payload)), nil
	case DataTypeUint32:
		return binary.BigEndian.Uint32(payload), nil
	case DataTypeInt32:
		return int32(binary.BigEndian.Uint32(payload)), nil
	case DataTypeFloat:
		return math.Float32frombits(binary.BigEndian.Uint32(payload)), nil
	case DataTypeString:
		s := payload
		for i, b := range payload {
			if b == 0 {
				s = payload[:i]
				break
			}
		}
		for _, b := range s {
			if b >= 0x80 {
				return nil, fmt.Errorf("%w: byte %#02x", ErrDecodeBadUtf8, b)
			}
		}
		return string(s), nil
	default:
		return nil, fmt.Errorf("rctclient: %s has no scalar decoding, use DecodeTimeseries/DecodeEventTable", t)
	}
}

func typeMismatch(t DataType, v interface{}) error {
	return fmt.Errorf("rctclient: value %v (%T) does not match data type %s", v, v, t)
}

// toUint normalizes an integer-like Go value to uint64 and checks it fits
// bits unsigned bits, returning ErrEncodeOverflow if it does not.
func toUint(v interface{}, bits int) (uint64, error) {
	var n uint64
	switch x := v.(type) {
	case uint8:
		n = uint64(x)
	case uint16:
		n = uint64(x)
	case uint32:
		n = uint64(x)
	case uint64:
		n = x
	case uint:
		n = uint64(x)
	case int:
		if x < 0 {
			return 0, fmt.Errorf("%w: %d is negative", ErrEncodeOverflow, x)
		}
		n = uint64(x)
	default:
		return 0, typeMismatchBits(v, bits)
	}
	if bits < 64 && n >= uint64(1)<<bits {
		return 0, fmt.Errorf("%w: %d does not fit %d unsigned bits", ErrEncodeOverflow, n, bits)
	}
	return n, nil
}

// toInt normalizes an integer-like Go value to int64 and checks it fits
// bits signed bits, returning ErrEncodeOverflow if it does not.
func toInt(v interface{}, bits int) (int64, error) {
	var n int64
	switch x := v.(type) {
	case int8:
		n = int64(x)
	case int16:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case int:
		n = int64(x)
	default:
		return 0, typeMismatchBits(v, bits)
	}
	lo := -(int64(1) << (bits - 1))
	hi := int64(1)<<(bits-1) - 1
	if n < lo || n > hi {
		return 0, fmt.Errorf("%w: %d does not fit %d signed bits", ErrEncodeOverflow, n, bits)
	}
	return n, nil
}

func typeMismatchBits(v interface{}, bits int) error {
	return fmt.Errorf("rctclient: value %v (%T) is not an integer type fitting %d bits", v, v, bits)
}
