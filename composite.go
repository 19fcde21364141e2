package rctclient

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Timeseries is the decoded form of a DataTypeTimeseries payload: a header
// timestamp and an ordered set of (timestamp, value) samples.
type Timeseries struct {
	HeaderTimestamp uint32
	Samples         []TimeseriesSample
}

// TimeseriesSample is one (timestamp, value) pair of a Timeseries.
type TimeseriesSample struct {
	Timestamp uint32
	Value     float32
}

// DecodeTimeseries decodes a DataTypeTimeseries payload per §4.2.2: a 4 byte
// header timestamp followed by an even number of 4 byte (timestamp, float)
// pairs.
func DecodeTimeseries(payload []byte) (Timeseries, error) {
	if len(payload) < 4 {
		return Timeseries{}, fmt.Errorf("%w: timeseries header needs 4 bytes, got %d", ErrDecodeShort, len(payload))
	}
	if len(payload)%4 != 0 {
		return Timeseries{}, fmt.Errorf("%w: timeseries length %d is not a multiple of 4", ErrDecodeMalformed, len(payload))
	}
	rest := payload[4:]
	pairCount := len(rest) / 4
	if pairCount%2 != 0 {
		return Timeseries{}, fmt.Errorf("%w: timeseries has an odd number of 4-byte words after the header", ErrDecodeMalformed)
	}

	ts := Timeseries{
		HeaderTimestamp: binary.BigEndian.Uint32(payload[:4]),
		Samples:         make([]TimeseriesSample, 0, pairCount/2),
	}
	for i := 0; i < len(rest); i += 8 {
		stamp := binary.BigEndian.Uint32(rest[i : i+4])
		value := math.Float32frombits(binary.BigEndian.Uint32(rest[i+4 : i+8]))
		ts.Samples = append(ts.Samples, TimeseriesSample{Timestamp: stamp, Value: value})
	}
	return ts, nil
}

// EventEntry is one 20 byte record of an EVENT_TABLE payload: entry_type,
// entry_timestamp and three further opaque 4-byte words. The meaning of
// Element2 through Element4 varies by entry_type and is not decoded further
// here; some known entry types pack an object id and old/new values across
// these words, but that mapping is not part of this codec.
type EventEntry struct {
	EntryType      uint8
	EntryTimestamp uint32
	Element2       uint32
	Element3       uint32
	Element4       uint32
}

// EventTable is the decoded form of a DataTypeEventTable payload.
type EventTable struct {
	HeaderTimestamp uint32
	// Entries preserves wire order; Entries[i].EntryTimestamp is the key an
	// ordered mapping would use, duplicates included.
	Entries []EventEntry
}

const eventRecordSize = 20

// DecodeEventTable decodes a DataTypeEventTable payload per §4.2.3: a 4 byte
// header timestamp followed by 20 byte records of five big-endian uint32
// words (entry_type, entry_timestamp, element2, element3, element4).
func DecodeEventTable(payload []byte) (EventTable, error) {
	if len(payload) < 4 {
		return EventTable{}, fmt.Errorf("%w: event table header needs 4 bytes, got %d", ErrDecodeShort, len(payload))
	}
	rest := payload[4:]
	if len(rest)%eventRecordSize != 0 {
		return EventTable{}, fmt.Errorf("%w: event table body length %d is not a multiple of %d", ErrDecodeMalformed, len(rest), eventRecordSize)
	}

	table := EventTable{
		HeaderTimestamp: binary.BigEndian.Uint32(payload[:4]),
		Entries:         make([]EventEntry, 0, len(rest)/eventRecordSize),
	}
	for i := 0; i < len(rest); i += eventRecordSize {
		rec := rest[i : i+eventRecordSize]
		entryType := binary.BigEndian.Uint32(rec[0:4])
		if entryType > 0xFF {
			return EventTable{}, fmt.Errorf("%w: event entry_type %#x does not fit a byte", ErrDecodeMalformed, entryType)
		}
		table.Entries = append(table.Entries, EventEntry{
			EntryType:      uint8(entryType),
			EntryTimestamp: binary.BigEndian.Uint32(rec[4:8]),
			Element2:       binary.BigEndian.Uint32(rec[8:12]),
			Element3:       binary.BigEndian.Uint32(rec[12:16]),
			Element4:       binary.BigEndian.Uint32(rec[16:20]),
		})
	}
	return table, nil
}
