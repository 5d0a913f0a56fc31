package registry

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const blocksFixture = `{
	"minecraft:air": {
		"states": [{"id": 0, "default": true}]
	},
	"minecraft:grass_block": {
		"states": [
			{"properties": {"snowy": "true"}, "id": 8},
			{"properties": {"snowy": "false"}, "id": 9, "default": true}
		]
	}
}`

const blockEntitiesFixture = `{
	"minecraft:sign": 7,
	"minecraft:chest": 1
}`

func load(t *testing.T) *Registry {
	t.Helper()
	r, err := Load(strings.NewReader(blocksFixture), strings.NewReader(blockEntitiesFixture))
	require.NoError(t, err)
	return r
}

func TestStateID(t *testing.T) {
	r := load(t)

	id, err := r.StateID(BlockState{Name: "minecraft:air"})
	require.NoError(t, err)
	require.Equal(t, int32(0), id)

	id, err = r.StateID(BlockState{
		Name:       "minecraft:grass_block",
		Properties: map[string]string{"snowy": "false"},
	})
	require.NoError(t, err)
	require.Equal(t, int32(9), id)
}

func TestStateID_UnknownIsError(t *testing.T) {
	r := load(t)

	_, err := r.StateID(BlockState{Name: "minecraft:not_a_block"})
	require.Error(t, err)

	// Known block but no property match.
	_, err = r.StateID(BlockState{
		Name:       "minecraft:grass_block",
		Properties: map[string]string{"snowy": "maybe"},
	})
	require.Error(t, err)

	// Properties must match exactly, not partially.
	_, err = r.StateID(BlockState{Name: "minecraft:grass_block"})
	require.Error(t, err)
}

func TestStateByID(t *testing.T) {
	r := load(t)

	s, ok := r.StateByID(8)
	require.True(t, ok)
	require.Equal(t, "minecraft:grass_block", s.Name)
	require.Equal(t, map[string]string{"snowy": "true"}, s.Properties)

	_, ok = r.StateByID(404)
	require.False(t, ok)
}

func TestDefaultStateID(t *testing.T) {
	r := load(t)
	id, err := r.DefaultStateID("minecraft:grass_block")
	require.NoError(t, err)
	require.Equal(t, int32(9), id)
}

func TestBlockEntityID(t *testing.T) {
	r := load(t)

	id, err := r.BlockEntityID("minecraft:sign")
	require.NoError(t, err)
	require.Equal(t, int32(7), id)

	_, err = r.BlockEntityID("minecraft:beacon")
	require.Error(t, err)
}
