package rctclient

// ObjectDescriptor describes one addressable object in the device's data
// model: its wire id, a dotted human-readable name, the group it belongs to
// for documentation purposes, and the data types used to encode a request
// and decode its response.
type ObjectDescriptor struct {
	ID   uint32
	Name string
	Group ObjectGroup

	RequestDataType  DataType
	ResponseDataType DataType

	Unit        string
	Description string

	// EnumMap, when non-nil, maps a raw ENUM wire value to its label. Only
	// meaningful when RequestDataType or ResponseDataType is DataTypeEnum.
	EnumMap map[uint8]string

	// SimData is the value the simulator (see the simulator package) should
	// answer with when no more specific behavior is configured. A nil value
	// means "use the type default", per §4.5.
	SimData interface{}
}

// EffectiveResponseDataType returns ResponseDataType if set, otherwise
// RequestDataType, matching the "defaults to request type" rule in the
// registry model.
func (o ObjectDescriptor) EffectiveResponseDataType() DataType {
	if o.ResponseDataType != DataTypeUnknown {
		return o.ResponseDataType
	}
	return o.RequestDataType
}

// DefaultSimValue returns the type-default simulator value for t, per §4.5:
// true for BOOL, a placeholder string for STRING, 0.0 for FLOAT, 0 otherwise.
// Used when an ObjectDescriptor's SimData is unset.
func DefaultSimValue(t DataType) interface{} {
	switch t {
	case DataTypeBool:
		return true
	case DataTypeString:
		return "ABCDEFG"
	case DataTypeFloat:
		return float32(0)
	case DataTypeInt8:
		return int8(0)
	case DataTypeInt16:
		return int16(0)
	case DataTypeInt32:
		return int32(0)
	case DataTypeUint16:
		return uint16(0)
	case DataTypeUint32:
		return uint32(0)
	default:
		return uint8(0)
	}
}
