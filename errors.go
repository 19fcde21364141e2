package rctclient

import "fmt"

// Sentinel errors a caller can test with errors.Is.
var (
	// ErrUnknownID is returned by Registry.ByID when no descriptor is registered
	// under the given object id.
	ErrUnknownID = fmt.Errorf("rctclient: unknown object id")
	// ErrUnknownName is returned by Registry.ByName when no descriptor is
	// registered under the given name.
	ErrUnknownName = fmt.Errorf("rctclient: unknown object name")
	// ErrEncodeOverflow is returned when a value does not fit the wire width of
	// its data type (for example a payload longer than 251 bytes for a
	// CommandWrite frame, whose one byte length field holds the payload
	// length plus 4).
	ErrEncodeOverflow = fmt.Errorf("rctclient: value does not fit its wire encoding")
	// ErrDecodeShort is returned when a payload is shorter than the data type
	// it is being decoded as requires.
	ErrDecodeShort = fmt.Errorf("rctclient: payload too short for data type")
	// ErrDecodeMalformed is returned when a composite payload (TIMESERIES,
	// EVENT_TABLE) has a length or internal structure that the format does
	// not allow.
	ErrDecodeMalformed = fmt.Errorf("rctclient: malformed composite payload")
	// ErrDecodeBadUtf8 is returned by DecodeValue for a STRING payload
	// containing a byte outside the ASCII range (the wire format only ever
	// carries ASCII strings).
	ErrDecodeBadUtf8 = fmt.Errorf("rctclient: string payload is not ASCII")
)

// UnsupportedDataTypeError is returned by ParseDataType for a name it does not
// recognize.
type UnsupportedDataTypeError struct {
	Name string
}

func (e *UnsupportedDataTypeError) Error() string {
	return fmt.Sprintf("rctclient: unsupported data type %q", e.Name)
}

// UnsupportedObjectGroupError is returned by ParseObjectGroup for a name it
// does not recognize.
type UnsupportedObjectGroupError struct {
	Name string
}

func (e *UnsupportedObjectGroupError) Error() string {
	return fmt.Sprintf("rctclient: unsupported object group %q", e.Name)
}

// FrameCRCMismatch is returned by FrameDecoder.Consume when the trailing CRC
// bytes of a completed frame do not match the CRC computed over the frame
// body. ConsumedBytes lets the caller discard exactly the bad frame and
// resynchronize on the byte stream rather than the whole buffer.
type FrameCRCMismatch struct {
	ReceivedCRC   uint16
	CalculatedCRC uint16
	ConsumedBytes int
}

func (e *FrameCRCMismatch) Error() string {
	return fmt.Sprintf("rctclient: frame CRC mismatch: received %#04x, calculated %#04x", e.ReceivedCRC, e.CalculatedCRC)
}

// InvalidCommand is returned by FrameDecoder.Consume when the command byte
// following the start token is not one this codec parses. The
// recognized-but-unparsed EXTENSION command is reported with this error too,
// with IsExtension set.
type InvalidCommand struct {
	Command       byte
	ConsumedBytes int
	// IsExtension reports whether Command was the recognized-but-unparsed
	// EXTENSION command, as opposed to a byte this codec has never heard of.
	IsExtension bool
}

func (e *InvalidCommand) Error() string {
	return fmt.Sprintf("rctclient: invalid command byte %#02x", e.Command)
}

// FrameLengthExceeded is returned when a frame's declared length field would
// make the frame larger than MaxFrameLength.
type FrameLengthExceeded struct {
	DeclaredLength int
	ConsumedBytes  int
}

func (e *FrameLengthExceeded) Error() string {
	return fmt.Sprintf("rctclient: frame length %d exceeds maximum %d", e.DeclaredLength, MaxFrameLength)
}
