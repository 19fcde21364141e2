package rctclient

// Command is the single-byte frame command, see the RCT Power wire protocol documentation.
type Command uint8

const (
	// CommandRead requests the current value of an object.
	CommandRead Command = 0x01
	// CommandWrite sets the value of an object. Payload must be <= 251 bytes
	// (the one byte length field holds the payload length plus 4).
	CommandWrite Command = 0x02
	// CommandLongWrite sets the value of an object using a 16 bit length field.
	CommandLongWrite Command = 0x03
	// CommandResponse is the device's reply to a read or write command.
	CommandResponse Command = 0x05
	// CommandLongResponse is a reply using a 16 bit length field.
	CommandLongResponse Command = 0x06
	// CommandExtension is a vendor extension. It is recognized but not parsed.
	CommandExtension Command = 0x3C

	// CommandPlantRead is the plant-communication variant of CommandRead.
	CommandPlantRead Command = CommandRead | plantBit
	// CommandPlantWrite is the plant-communication variant of CommandWrite.
	CommandPlantWrite Command = CommandWrite | plantBit
	// CommandPlantLongWrite is the plant-communication variant of CommandLongWrite.
	CommandPlantLongWrite Command = CommandLongWrite | plantBit
)

// plantBit is bit 6, set on a command byte to mark plant communication.
const plantBit = 0x40

// IsPlant reports whether the command carries a plant address.
func (c Command) IsPlant() bool {
	return c&plantBit != 0
}

// IsLong reports whether the command uses a 2 byte length field.
func (c Command) IsLong() bool {
	return c == CommandLongWrite || c == CommandLongResponse || c == CommandPlantLongWrite
}

// frameTypeMarker returns the magic value added into the wire length field to
// distinguish standard frames (4) from plant frames (8).
func (c Command) frameTypeMarker() byte {
	if c.IsPlant() {
		return frameTypePlant
	}
	return frameTypeStandard
}

// String implements fmt.Stringer.
func (c Command) String() string {
	switch c {
	case CommandRead:
		return "READ"
	case CommandWrite:
		return "WRITE"
	case CommandLongWrite:
		return "LONG_WRITE"
	case CommandResponse:
		return "RESPONSE"
	case CommandLongResponse:
		return "LONG_RESPONSE"
	case CommandExtension:
		return "EXTENSION"
	case CommandPlantRead:
		return "PLANT_READ"
	case CommandPlantWrite:
		return "PLANT_WRITE"
	case CommandPlantLongWrite:
		return "PLANT_LONG_WRITE"
	default:
		return "UNKNOWN"
	}
}

// knownCommand reports whether b is one of the commands this codec understands,
// distinguishing the unparsed EXTENSION command from a truly unknown byte.
func knownCommand(b byte) (cmd Command, isExtension, known bool) {
	switch Command(b) {
	case CommandRead, CommandWrite, CommandLongWrite, CommandResponse, CommandLongResponse,
		CommandPlantRead, CommandPlantWrite, CommandPlantLongWrite:
		return Command(b), false, true
	case CommandExtension:
		return CommandExtension, true, false
	default:
		return Command(b), false, false
	}
}

// frameTypeStandard and frameTypePlant are the length-field markers added for
// standard and plant frames respectively (also the byte lengths of the
// header portion before the payload for each variant: 4 = command sized out
// + id, 8 = + plant address).
const (
	frameTypeStandard = 4
	frameTypePlant    = 8
)

// DataType selects how a payload is encoded or decoded by the value codec (C2).
type DataType uint8

const (
	// DataTypeUnknown is the zero value. Do not use it for encoding or decoding.
	DataTypeUnknown DataType = 0
	// DataTypeBool is a single byte, 0 is false, any other value is true.
	DataTypeBool DataType = 1
	// DataTypeUint8 is an 8 bit unsigned integer.
	DataTypeUint8 DataType = 2
	// DataTypeInt8 is an 8 bit signed (two's complement) integer.
	DataTypeInt8 DataType = 3
	// DataTypeUint16 is a 16 bit unsigned integer, big-endian.
	DataTypeUint16 DataType = 4
	// DataTypeInt16 is a 16 bit signed integer, big-endian.
	DataTypeInt16 DataType = 5
	// DataTypeUint32 is a 32 bit unsigned integer, big-endian.
	DataTypeUint32 DataType = 6
	// DataTypeInt32 is a 32 bit signed integer, big-endian.
	DataTypeInt32 DataType = 7
	// DataTypeEnum is wire-compatible with DataTypeUint8.
	DataTypeEnum DataType = 8
	// DataTypeFloat is an IEEE-754 binary32 float, big-endian.
	DataTypeFloat DataType = 9
	// DataTypeString is ASCII on decode (truncated at the first NUL), UTF-8 on encode.
	DataTypeString DataType = 10

	// DataTypeTimeseries is a decode-only composite: a header timestamp followed
	// by (timestamp, float) pairs.
	DataTypeTimeseries DataType = 20
	// DataTypeEventTable is a decode-only composite: a header timestamp followed
	// by 20 byte event records.
	DataTypeEventTable DataType = 21
)

// String implements fmt.Stringer.
func (t DataType) String() string {
	switch t {
	case DataTypeBool:
		return "BOOL"
	case DataTypeUint8:
		return "UINT8"
	case DataTypeInt8:
		return "INT8"
	case DataTypeUint16:
		return "UINT16"
	case DataTypeInt16:
		return "INT16"
	case DataTypeUint32:
		return "UINT32"
	case DataTypeInt32:
		return "INT32"
	case DataTypeEnum:
		return "ENUM"
	case DataTypeFloat:
		return "FLOAT"
	case DataTypeString:
		return "STRING"
	case DataTypeTimeseries:
		return "TIMESERIES"
	case DataTypeEventTable:
		return "EVENT_TABLE"
	default:
		return "UNKNOWN"
	}
}

// ParseDataType parses the name as produced by DataType.String; the match is
// case-sensitive, and an empty name parses as DataTypeUnknown. It is used when
// loading the registry from its CSV data file.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "", "UNKNOWN":
		return DataTypeUnknown, nil
	case "BOOL":
		return DataTypeBool, nil
	case "UINT8":
		return DataTypeUint8, nil
	case "INT8":
		return DataTypeInt8, nil
	case "UINT16":
		return DataTypeUint16, nil
	case "INT16":
		return DataTypeInt16, nil
	case "UINT32":
		return DataTypeUint32, nil
	case "INT32":
		return DataTypeInt32, nil
	case "ENUM":
		return DataTypeEnum, nil
	case "FLOAT":
		return DataTypeFloat, nil
	case "STRING":
		return DataTypeString, nil
	case "TIMESERIES":
		return DataTypeTimeseries, nil
	case "EVENT_TABLE":
		return DataTypeEventTable, nil
	default:
		return DataTypeUnknown, &UnsupportedDataTypeError{Name: name}
	}
}

// ObjectGroup is informational grouping for object descriptors. It is not used
// by the wire protocol itself, only to help a human navigate the registry.
type ObjectGroup uint8

// The object groups known to the registry, in the order the device firmware
// assigns them.
const (
	GroupRB485 ObjectGroup = iota
	GroupEnergy
	GroupGridMon
	GroupTemperature
	GroupBattery
	GroupCSNeg
	GroupHWTest
	GroupGSync
	GroupLogger
	GroupWifi
	GroupADC
	GroupNet
	GroupAccConv
	GroupDCConv
	GroupNSM
	GroupIOBoard
	GroupFlashRTC
	GroupPowerMng
	GroupBufVControl
	GroupDB
	GroupSwitchOnCond
	GroupPRec
	GroupModbus
	GroupBatMngStruct
	GroupIsoStruct
	GroupGridLT
	GroupCANBus
	GroupDisplayStruct
	GroupFlashParam
	GroupFault
	GroupPrimSM
	GroupCSMap
	GroupLineMon
	GroupOthers
	GroupBatteryPlaceholder
	GroupFRT
	GroupPartition
)

var groupNames = [...]string{
	"RB485", "ENERGY", "GRID_MON", "TEMPERATURE", "BATTERY", "CS_NEG", "HW_TEST", "G_SYNC",
	"LOGGER", "WIFI", "ADC", "NET", "ACC_CONV", "DC_CONV", "NSM", "IO_BOARD", "FLASH_RTC",
	"POWER_MNG", "BUF_V_CONTROL", "DB", "SWITCH_ON_COND", "P_REC", "MODBUS", "BAT_MNG_STRUCT",
	"ISO_STRUCT", "GRID_LT", "CAN_BUS", "DISPLAY_STRUCT", "FLASH_PARAM", "FAULT", "PRIM_SM",
	"CS_MAP", "LINE_MON", "OTHERS", "BATTERY_PLACEHOLDER", "FRT", "PARTITION",
}

// String implements fmt.Stringer.
func (g ObjectGroup) String() string {
	if int(g) < len(groupNames) {
		return groupNames[g]
	}
	return "UNKNOWN"
}

// ParseObjectGroup parses the name as produced by ObjectGroup.String.
func ParseObjectGroup(name string) (ObjectGroup, error) {
	for i, n := range groupNames {
		if n == name {
			return ObjectGroup(i), nil
		}
	}
	return 0, &UnsupportedObjectGroupError{Name: name}
}
