package rctclient

import "encoding/binary"

// MaxFrameLength is a hard cap on the total size (start token through CRC,
// unescaped) a FrameDecoder will accumulate before giving up with
// FrameLengthExceeded. It lies above the largest total a 16 bit length field
// can declare (65541 bytes for a long frame), so no length field value
// reaches it.
const MaxFrameLength = 1<<16 + 16

type decoderState int

const (
	stateSync decoderState = iota
	stateBody
	stateComplete
)

// FrameDecoder is a resumable, byte-streaming decoder for one frame (C4). It
// is single-use: once Complete reports true, or Consume has returned an
// error, discard it and construct a new FrameDecoder for the next frame.
type FrameDecoder struct {
	state  decoderState
	buf    []byte
	escape bool

	// totalLen is the total unescaped frame length (start token through CRC)
	// once known; 0 until enough of the length field has arrived.
	totalLen int

	command Command
	id      uint32
	address uint32
	data    []byte
}

// NewFrameDecoder returns a decoder ready to consume the bytes of one frame,
// starting in the SYNC state.
func NewFrameDecoder() *FrameDecoder {
	return &FrameDecoder{}
}

// Complete reports whether a full, CRC-verified frame has been decoded.
func (d *FrameDecoder) Complete() bool {
	return d.state == stateComplete
}

// Command returns the decoded command byte. Valid only once Complete.
func (d *FrameDecoder) Command() Command { return d.command }

// ID returns the decoded object id. Valid only once Complete.
func (d *FrameDecoder) ID() uint32 { return d.id }

// Address returns the decoded plant address, 0 for standard frames. Valid
// only once Complete.
func (d *FrameDecoder) Address() uint32 { return d.address }

// Payload returns the decoded payload bytes. Valid only once Complete. The
// returned slice aliases the decoder's internal buffer and must not be
// retained past the decoder's reuse (there is none: decoders are single-use).
func (d *FrameDecoder) Payload() []byte { return d.data }

// Consume feeds data into the decoder byte by byte and returns the number of
// bytes consumed from data. It returns early, with a short count, the moment
// the frame completes or an unrecoverable error occurs; the caller must
// discard the decoder in either case rather than calling Consume again.
func (d *FrameDecoder) Consume(data []byte) (int, error) {
	for i, b := range data {
		switch d.state {
		case stateComplete:
			return i, nil

		case stateSync:
			if b == startToken {
				d.buf = append(d.buf, b)
				d.state = stateBody
			}
			continue

		case stateBody:
			appended, b := d.stepEscape(b)
			if !appended {
				continue
			}
			d.buf = append(d.buf, b)
			consumed := i + 1

			if len(d.buf) == 2 {
				cmd, isExtension, known := knownCommand(d.buf[1])
				if !known {
					d.state = stateComplete
					return consumed, &InvalidCommand{Command: d.buf[1], ConsumedBytes: consumed, IsExtension: isExtension}
				}
				d.command = cmd
			}

			if d.totalLen == 0 {
				total, ready := d.tryComputeTotalLength()
				if ready {
					if total > MaxFrameLength {
						d.state = stateComplete
						return consumed, &FrameLengthExceeded{DeclaredLength: total, ConsumedBytes: consumed}
					}
					d.totalLen = total
				}
			}

			switch {
			case d.totalLen != 0 && len(d.buf) == d.totalLen:
				err := d.decode(consumed)
				d.state = stateComplete
				return consumed, err
			case d.totalLen != 0 && len(d.buf) > d.totalLen:
				d.state = stateComplete
				return consumed, &FrameLengthExceeded{DeclaredLength: d.totalLen, ConsumedBytes: consumed}
			}
		}
	}
	return len(data), nil
}

// stepEscape applies the BODY-state escape substate to one raw input byte,
// reporting whether a (possibly different) byte should be appended to the
// buffer.
func (d *FrameDecoder) stepEscape(b byte) (appended bool, out byte) {
	if d.escape {
		d.escape = false
		return true, b
	}
	if b == escapeToken {
		d.escape = true
		return false, 0
	}
	return true, b
}

// tryComputeTotalLength attempts to compute the total unescaped frame length
// (start token through CRC) as soon as enough bytes of the length field have
// arrived. It returns ready=false until then.
func (d *FrameDecoder) tryComputeTotalLength() (total int, ready bool) {
	lengthWidth := 1
	if d.command.IsLong() {
		lengthWidth = 2
	}
	if len(d.buf) < 2+lengthWidth {
		return 0, false
	}

	var lengthField uint32
	if lengthWidth == 2 {
		lengthField = uint32(binary.BigEndian.Uint16(d.buf[2:4]))
	} else {
		lengthField = uint32(d.buf[2])
	}

	marker := uint32(d.command.frameTypeMarker())
	var dataLength uint32
	if lengthField >= marker {
		dataLength = lengthField - marker
	}

	headerLen := 1 + 1 + lengthWidth + 4 // start + command + length field + id
	if d.command.IsPlant() {
		headerLen += 4
	}
	return headerLen + int(dataLength) + 2, true // + CRC
}

// decode verifies the CRC and splits the buffer into its fields. Called only
// once len(d.buf) == d.totalLen; consumed is the raw byte count Consume has
// taken from its current input so far.
func (d *FrameDecoder) decode(consumed int) error {
	body := d.buf[:len(d.buf)-2]
	received := binary.BigEndian.Uint16(d.buf[len(d.buf)-2:])
	calculated := crc16(body[1:])
	if calculated != received {
		return &FrameCRCMismatch{ReceivedCRC: received, CalculatedCRC: calculated, ConsumedBytes: consumed}
	}

	lengthWidth := 1
	if d.command.IsLong() {
		lengthWidth = 2
	}
	idx := 2 + lengthWidth
	if d.command.IsPlant() {
		d.address = binary.BigEndian.Uint32(d.buf[idx : idx+4])
		idx += 4
	}
	d.id = binary.BigEndian.Uint32(d.buf[idx : idx+4])
	idx += 4
	d.data = d.buf[idx : len(d.buf)-2]
	return nil
}
