package world

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrymc/quarry/pkg/nbt"
)

const dimensionCodecJSON = `{
	"minecraft:dimension_type": {
		"type": "minecraft:dimension_type",
		"value": [{
			"name": "minecraft:overworld",
			"id": 0,
			"element": {
				"piglin_safe": false,
				"natural": true,
				"ambient_light": 0.0,
				"infiniburn": "minecraft:infiniburn_overworld",
				"respawn_anchor_works": false,
				"has_skylight": true,
				"bed_works": true,
				"effects": "minecraft:overworld",
				"has_raids": true,
				"min_y": 0,
				"height": 256,
				"logical_height": 256,
				"coordinate_scale": 1.0,
				"ultrawarm": false,
				"has_ceiling": false
			}
		}]
	},
	"minecraft:worldgen/biome": {
		"type": "minecraft:worldgen/biome",
		"value": [{
			"name": "minecraft:plains",
			"id": 1,
			"element": {
				"precipitation": "rain",
				"depth": 0.125,
				"temperature": 0.8,
				"scale": 0.05,
				"downfall": 0.4,
				"category": "plains",
				"effects": {
					"sky_color": 7907327,
					"water_fog_color": 329011,
					"fog_color": 12638463,
					"water_color": 4159204,
					"mood_sound": {"sound": "minecraft:ambient.cave"}
				}
			}
		}]
	}
}`

func TestDimensionCodec_JSONToNBT(t *testing.T) {
	var codec DimensionCodec
	require.NoError(t, json.Unmarshal([]byte(dimensionCodecJSON), &codec))

	tree := codec.ToNBT()

	dims := tree.Compound("minecraft:dimension_type")
	require.NotNil(t, dims)
	require.Equal(t, "minecraft:dimension_type", dims.String("type", ""))

	entries, ok := dims["value"].(nbt.List)
	require.True(t, ok)
	require.Len(t, entries.Elems, 1)
	entry := entries.Elems[0].(nbt.Compound)
	require.Equal(t, "minecraft:overworld", entry.String("name", ""))

	elem := entry.Compound("element")
	require.NotNil(t, elem)
	// Booleans become byte tags, ints stay ints, floats stay floats.
	require.Equal(t, int8(1), elem["natural"])
	require.Equal(t, int8(0), elem["ultrawarm"])
	require.Equal(t, int32(256), elem["height"])
	require.Equal(t, float32(0), elem["ambient_light"])
	// Absent optional fields are omitted entirely.
	_, hasFixedTime := elem["fixed_time"]
	require.False(t, hasFixedTime)

	biomes := tree.Compound("minecraft:worldgen/biome")
	require.NotNil(t, biomes)
	biome := biomes["value"].(nbt.List).Elems[0].(nbt.Compound).Compound("element")
	require.Equal(t, "rain", biome.String("precipitation", ""))
	effects := biome.Compound("effects")
	require.Equal(t, int32(7907327), effects["sky_color"])

	// The whole tree must serialize cleanly.
	_, err := nbt.Marshal("", tree)
	require.NoError(t, err)
}

func TestDimensionType_RoundTripsThroughWire(t *testing.T) {
	fixed := int64(6000)
	d := DimensionType{
		Natural:   true,
		FixedTime: &fixed,
		Height:    256,
		Effects:   "minecraft:the_end",
	}
	b, err := nbt.Marshal("", d.ToNBT())
	require.NoError(t, err)
	_, c, err := nbt.Read(bytes.NewReader(b))
	require.NoError(t, err)
	require.Equal(t, int64(6000), c["fixed_time"])
	require.Equal(t, int32(256), c["height"])
}
