package rctclient

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_LoadsEmbeddedData(t *testing.T) {
	require.NotNil(t, DefaultRegistry)
	assert.Greater(t, len(DefaultRegistry.All()), 800)
}

func TestDefaultRegistry_KnownObject(t *testing.T) {
	desc, err := DefaultRegistry.ByID(0x959930BF)
	require.NoError(t, err)
	assert.Equal(t, "battery.soc", desc.Name)
	assert.Equal(t, GroupBattery, desc.Group)
	assert.Equal(t, DataTypeFloat, desc.RequestDataType)
	assert.Equal(t, "%", desc.Unit)

	byName, err := DefaultRegistry.ByName("battery.soc")
	require.NoError(t, err)
	assert.Equal(t, desc, byName)
}

func TestDefaultRegistry_EventTableObject(t *testing.T) {
	desc, err := DefaultRegistry.ByID(0x6F3876BC)
	require.NoError(t, err)
	assert.Equal(t, DataTypeInt32, desc.RequestDataType)
	assert.Equal(t, DataTypeEventTable, desc.EffectiveResponseDataType())
}

func TestDefaultRegistry_UnknownIDAndName(t *testing.T) {
	_, err := DefaultRegistry.ByID(0xDEADBEEF)
	assert.ErrorIs(t, err, ErrUnknownID)

	_, err = DefaultRegistry.ByName("not.a.real.object")
	assert.ErrorIs(t, err, ErrUnknownName)
}

func TestDefaultRegistry_AllIsOrderedByID(t *testing.T) {
	all := DefaultRegistry.All()
	for i := 1; i < len(all); i++ {
		assert.Less(t, all[i-1].ID, all[i].ID)
	}
}

func TestDefaultRegistry_PrefixCompleteName(t *testing.T) {
	names := DefaultRegistry.PrefixCompleteName("battery.")
	assert.NotEmpty(t, names)
	for _, n := range names {
		assert.True(t, strings.HasPrefix(n, "battery."))
	}

	all := DefaultRegistry.PrefixCompleteName("")
	assert.Len(t, all, len(DefaultRegistry.All()))
}

// TestDefaultRegistry_PrefixCompleteName_AscendingOrder pins down the
// ordering requirement: these four names have object ids that sort
// (0x8B9FF008, 0x959930BF, 0xA616B022, 0xB84A38AB) into
// soc_target, soc, soc_target_low, soc_target_high - which differs from the
// ascending lexicographic order that's required instead. The result also
// contains battery.soc_update_since, which is not part of the ordering
// being pinned down here, so this asserts a subsequence rather than
// exact equality.
func TestDefaultRegistry_PrefixCompleteName_AscendingOrder(t *testing.T) {
	names := DefaultRegistry.PrefixCompleteName("battery.soc")
	want := []string{
		"battery.soc",
		"battery.soc_target",
		"battery.soc_target_high",
		"battery.soc_target_low",
	}

	var got []string
	for _, n := range names {
		for _, w := range want {
			if n == w {
				got = append(got, n)
			}
		}
	}
	assert.Equal(t, want, got)
}

func TestDefaultRegistry_NameMaxLength(t *testing.T) {
	max := DefaultRegistry.NameMaxLength()
	require.Greater(t, max, 0)
	for _, d := range DefaultRegistry.All() {
		assert.LessOrEqual(t, len(d.Name), max)
	}
}

func TestDefaultRegistry_KnownDuplicateIDs(t *testing.T) {
	// The upstream data file is known to reuse 8 object ids across two sets
	// of power_mng.schedule rows (schedule[N]?? and schedule[M]); for each
	// such id the registry keeps the last row read and records the displaced
	// one as a conflict rather than silently dropping it.
	conflicts := DefaultRegistry.Conflicts()
	assert.NotEmpty(t, conflicts)
}

func TestLoadRegistry_RejectsEnumRequestWithNonEnumResponse(t *testing.T) {
	csv := "object_id,index,name,group,request_type,response_type,unit,description,enum_map,sim_data\n" +
		"0x00000001,0,bad.object,RB485,ENUM,UINT8,,,0:Off|1:On,\n"
	_, err := LoadRegistry(strings.NewReader(csv))
	assert.Error(t, err)
}

func TestLoadRegistry_AllowsEnumResponseWithNonEnumRequest(t *testing.T) {
	csv := "object_id,index,name,group,request_type,response_type,unit,description,enum_map,sim_data\n" +
		"0x00000001,0,good.object,RB485,UINT8,ENUM,,,0:Off|1:On,\n"
	reg, err := LoadRegistry(strings.NewReader(csv))
	require.NoError(t, err)
	desc, err := reg.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, DataTypeEnum, desc.ResponseDataType)
}

func TestLoadRegistry_LastWinsOnDuplicateID(t *testing.T) {
	csv := "object_id,index,name,group,request_type,response_type,unit,description,enum_map,sim_data\n" +
		"0x00000001,0,first.object,RB485,UINT8,,,,,\n" +
		"0x00000001,1,second.object,RB485,UINT8,,,,,\n"
	reg, err := LoadRegistry(strings.NewReader(csv))
	require.NoError(t, err)

	desc, err := reg.ByID(1)
	require.NoError(t, err)
	assert.Equal(t, "second.object", desc.Name)

	_, err = reg.ByName("first.object")
	assert.ErrorIs(t, err, ErrUnknownName)

	require.Len(t, reg.Conflicts(), 1)
	assert.Equal(t, "first.object", reg.Conflicts()[0].DisplacedName)
	assert.Equal(t, "second.object", reg.Conflicts()[0].KeptName)
}
