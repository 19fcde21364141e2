package rctclient

import (
	"embed"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
)

//go:embed data/registry.csv
var registryCSV embed.FS

// Registry is an immutable, concurrency-safe table of ObjectDescriptors
// keyed by object id and by name. Build one with LoadRegistry or use the
// package-level DefaultRegistry, built from the embedded data file at
// package init.
type Registry struct {
	byID   map[uint32]ObjectDescriptor
	byName map[string]ObjectDescriptor
	// conflicts records names whose object id collided with an
	// already-registered id; the later row in the data file wins, per the
	// last-wins resolution documented in SPEC_FULL.md.
	conflicts []RegistryConflict
	allByID   []ObjectDescriptor
	nameMax   int
}

// RegistryConflict records that two different names in the data file were
// mapped to the same object id; LoadRegistry keeps the one read last.
type RegistryConflict struct {
	ID           uint32
	DisplacedName string
	KeptName      string
}

// DefaultRegistry is built once, from the CSV data embedded in this module,
// at package initialization.
var DefaultRegistry *Registry

func init() {
	f, err := registryCSV.Open("data/registry.csv")
	if err != nil {
		panic(fmt.Sprintf("rctclient: embedded registry data missing: %v", err))
	}
	defer f.Close()

	reg, err := LoadRegistry(f)
	if err != nil {
		panic(fmt.Sprintf("rctclient: embedded registry data is invalid: %v", err))
	}
	DefaultRegistry = reg
}

// LoadRegistry parses a CSV data file in the same format as data/registry.csv
// (header: object_id,index,name,group,request_type,response_type,unit,
// description,enum_map,sim_data) and builds a Registry from it.
//
// Duplicate object ids are resolved last-wins; see Registry.Conflicts. A
// request type of ENUM paired with an explicit, non-ENUM response type is
// rejected, per the asymmetric ENUM-compatibility rule.
func LoadRegistry(r io.Reader) (*Registry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("rctclient: reading registry header: %w", err)
	}
	if len(header) < 9 {
		return nil, fmt.Errorf("rctclient: registry header has %d columns, want at least 9", len(header))
	}

	reg := &Registry{
		byID:   make(map[uint32]ObjectDescriptor),
		byName: make(map[string]ObjectDescriptor),
	}

	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("rctclient: registry line %d: %w", line, err)
		}
		line++

		desc, err := parseRegistryRow(row)
		if err != nil {
			return nil, fmt.Errorf("rctclient: registry line %d: %w", line, err)
		}

		if desc.RequestDataType == DataTypeEnum && desc.ResponseDataType != DataTypeUnknown && desc.ResponseDataType != DataTypeEnum {
			return nil, fmt.Errorf("rctclient: registry line %d: object %q has ENUM request type but non-ENUM response type %s", line, desc.Name, desc.ResponseDataType)
		}

		if existing, ok := reg.byID[desc.ID]; ok {
			reg.conflicts = append(reg.conflicts, RegistryConflict{ID: desc.ID, DisplacedName: existing.Name, KeptName: desc.Name})
			delete(reg.byName, existing.Name)
		}
		reg.byID[desc.ID] = desc
		reg.byName[desc.Name] = desc
		if len(desc.Name) > reg.nameMax {
			reg.nameMax = len(desc.Name)
		}
	}

	reg.allByID = make([]ObjectDescriptor, 0, len(reg.byID))
	for _, d := range reg.byID {
		reg.allByID = append(reg.allByID, d)
	}
	sort.Slice(reg.allByID, func(i, j int) bool { return reg.allByID[i].ID < reg.allByID[j].ID })

	return reg, nil
}

func parseRegistryRow(row []string) (ObjectDescriptor, error) {
	for len(row) < 10 {
		row = append(row, "")
	}

	id, err := strconv.ParseUint(strings.TrimPrefix(row[0], "0x"), 16, 32)
	if err != nil {
		return ObjectDescriptor{}, fmt.Errorf("parsing object_id %q: %w", row[0], err)
	}

	group, err := ParseObjectGroup(row[3])
	if err != nil {
		return ObjectDescriptor{}, err
	}
	reqType, err := ParseDataType(row[4])
	if err != nil {
		return ObjectDescriptor{}, err
	}
	respType, err := ParseDataType(row[5])
	if err != nil {
		return ObjectDescriptor{}, err
	}

	desc := ObjectDescriptor{
		ID:               uint32(id),
		Name:             row[2],
		Group:            group,
		RequestDataType:  reqType,
		ResponseDataType: respType,
		Unit:             row[6],
		Description:      row[7],
	}

	if row[8] != "" {
		desc.EnumMap = make(map[uint8]string)
		for _, pair := range strings.Split(row[8], "|") {
			code, label, ok := strings.Cut(pair, ":")
			if !ok {
				return ObjectDescriptor{}, fmt.Errorf("malformed enum_map entry %q", pair)
			}
			n, err := strconv.ParseUint(code, 10, 8)
			if err != nil {
				return ObjectDescriptor{}, fmt.Errorf("malformed enum_map code %q: %w", code, err)
			}
			desc.EnumMap[uint8(n)] = label
		}
	}

	if row[9] != "" {
		v, err := parseSimData(desc.EffectiveResponseDataType(), row[9])
		if err != nil {
			return ObjectDescriptor{}, fmt.Errorf("parsing sim_data %q: %w", row[9], err)
		}
		desc.SimData = v
	}

	return desc, nil
}

func parseSimData(t DataType, s string) (interface{}, error) {
	switch t {
	case DataTypeBool:
		return strconv.ParseBool(s)
	case DataTypeString:
		return s, nil
	case DataTypeFloat:
		f, err := strconv.ParseFloat(s, 32)
		return float32(f), err
	case DataTypeInt8, DataTypeInt16, DataTypeInt32:
		n, err := strconv.ParseInt(s, 10, 32)
		switch t {
		case DataTypeInt8:
			return int8(n), err
		case DataTypeInt16:
			return int16(n), err
		default:
			return int32(n), err
		}
	default:
		n, err := strconv.ParseUint(s, 10, 32)
		switch t {
		case DataTypeUint16:
			return uint16(n), err
		case DataTypeUint32:
			return uint32(n), err
		default:
			return uint8(n), err
		}
	}
}

// ByID returns the descriptor registered under id.
func (r *Registry) ByID(id uint32) (ObjectDescriptor, error) {
	d, ok := r.byID[id]
	if !ok {
		return ObjectDescriptor{}, fmt.Errorf("%w: %#08x", ErrUnknownID, id)
	}
	return d, nil
}

// ByName returns the descriptor registered under name.
func (r *Registry) ByName(name string) (ObjectDescriptor, error) {
	d, ok := r.byName[name]
	if !ok {
		return ObjectDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownName, name)
	}
	return d, nil
}

// TypeByID returns the request data type registered for id.
func (r *Registry) TypeByID(id uint32) (DataType, error) {
	d, err := r.ByID(id)
	if err != nil {
		return DataTypeUnknown, err
	}
	return d.RequestDataType, nil
}

// All returns every descriptor, ordered by object id ascending. The returned
// slice is shared; callers must not mutate it.
func (r *Registry) All() []ObjectDescriptor {
	return r.allByID
}

// PrefixCompleteName returns the names of every descriptor whose name begins
// with prefix, in ascending lexicographic order; an empty prefix returns
// every name.
func (r *Registry) PrefixCompleteName(prefix string) []string {
	names := make([]string, 0, len(r.allByID))
	for _, d := range r.allByID {
		if strings.HasPrefix(d.Name, prefix) {
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names
}

// NameMaxLength returns the length of the longest registered name.
func (r *Registry) NameMaxLength() int {
	return r.nameMax
}

// Conflicts returns the object ids for which the data file registered more
// than one name; the registry keeps only the last name read for each.
func (r *Registry) Conflicts() []RegistryConflict {
	return r.conflicts
}
