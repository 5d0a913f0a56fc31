package world

import (
	"github.com/quarrymc/quarry/pkg/nbt"
)

// DimensionCodec is the registry data sent in the join packet.
// It is declared in the config as JSON and sent as a tag tree.
type DimensionCodec struct {
	DimensionType RegistryData[DimensionType] `json:"minecraft:dimension_type"`
	WorldgenBiome RegistryData[Biome]         `json:"minecraft:worldgen/biome"`
}

// RegistryData is a named list of registry entries.
type RegistryData[T interface{ toNBT() nbt.Compound }] struct {
	Type  string             `json:"type"`
	Value []RegistryEntry[T] `json:"value"`
}

// RegistryEntry is one element of a RegistryData list.
type RegistryEntry[T interface{ toNBT() nbt.Compound }] struct {
	Name    string `json:"name"`
	ID      int32  `json:"id"`
	Element T      `json:"element"`
}

// DimensionType describes one dimension's properties.
type DimensionType struct {
	PiglinSafe         bool    `json:"piglin_safe"`
	Natural            bool    `json:"natural"`
	AmbientLight       float32 `json:"ambient_light"`
	FixedTime          *int64  `json:"fixed_time"`
	Infiniburn         string  `json:"infiniburn"`
	RespawnAnchorWorks bool    `json:"respawn_anchor_works"`
	HasSkylight        bool    `json:"has_skylight"`
	BedWorks           bool    `json:"bed_works"`
	Effects            string  `json:"effects"`
	HasRaids           bool    `json:"has_raids"`
	MinY               int32   `json:"min_y"`
	Height             int32   `json:"height"`
	LogicalHeight      int32   `json:"logical_height"`
	CoordinateScale    float32 `json:"coordinate_scale"`
	Ultrawarm          bool    `json:"ultrawarm"`
	HasCeiling         bool    `json:"has_ceiling"`
}

// Biome describes one biome's properties.
type Biome struct {
	Precipitation       string       `json:"precipitation"`
	Depth               float32      `json:"depth"`
	Temperature         float32      `json:"temperature"`
	Scale               float32      `json:"scale"`
	Downfall            float32      `json:"downfall"`
	Category            string       `json:"category"`
	TemperatureModifier *string      `json:"temperature_modifier"`
	Effects             BiomeEffects `json:"effects"`
}

// BiomeEffects are a biome's client-side visuals.
type BiomeEffects struct {
	SkyColor           int32   `json:"sky_color"`
	WaterFogColor      int32   `json:"water_fog_color"`
	FogColor           int32   `json:"fog_color"`
	WaterColor         int32   `json:"water_color"`
	FoliageColor       *int32  `json:"foliage_color"`
	GrassColor         *int32  `json:"grass_color"`
	GrassColorModifier *string `json:"grass_color_modifier"`
	AmbientSound       *string `json:"ambient_sound"`
}

// ToNBT returns the codec as the tag tree the join packet carries.
func (c *DimensionCodec) ToNBT() nbt.Compound {
	return nbt.Compound{
		"minecraft:dimension_type": registryToNBT(c.DimensionType),
		"minecraft:worldgen/biome": registryToNBT(c.WorldgenBiome),
	}
}

func registryToNBT[T interface{ toNBT() nbt.Compound }](r RegistryData[T]) nbt.Compound {
	entries := make([]any, 0, len(r.Value))
	for _, e := range r.Value {
		entries = append(entries, nbt.Compound{
			"name":    e.Name,
			"id":      e.ID,
			"element": e.Element.toNBT(),
		})
	}
	return nbt.Compound{
		"type":  r.Type,
		"value": nbt.List{ElemType: nbt.TagCompound, Elems: entries},
	}
}

// ToNBT returns the dimension as the tag tree the join packet carries.
func (d DimensionType) ToNBT() nbt.Compound { return d.toNBT() }

func (d DimensionType) toNBT() nbt.Compound {
	c := nbt.Compound{
		"piglin_safe":          nbtBool(d.PiglinSafe),
		"natural":              nbtBool(d.Natural),
		"ambient_light":        d.AmbientLight,
		"infiniburn":           d.Infiniburn,
		"respawn_anchor_works": nbtBool(d.RespawnAnchorWorks),
		"has_skylight":         nbtBool(d.HasSkylight),
		"bed_works":            nbtBool(d.BedWorks),
		"effects":              d.Effects,
		"has_raids":            nbtBool(d.HasRaids),
		"min_y":                d.MinY,
		"height":               d.Height,
		"logical_height":       d.LogicalHeight,
		"coordinate_scale":     d.CoordinateScale,
		"ultrawarm":            nbtBool(d.Ultrawarm),
		"has_ceiling":          nbtBool(d.HasCeiling),
	}
	if d.FixedTime != nil {
		c["fixed_time"] = *d.FixedTime
	}
	return c
}

func (b Biome) toNBT() nbt.Compound {
	c := nbt.Compound{
		"precipitation": b.Precipitation,
		"depth":         b.Depth,
		"temperature":   b.Temperature,
		"scale":         b.Scale,
		"downfall":      b.Downfall,
		"category":      b.Category,
		"effects":       b.Effects.toNBT(),
	}
	if b.TemperatureModifier != nil {
		c["temperature_modifier"] = *b.TemperatureModifier
	}
	return c
}

func (e BiomeEffects) toNBT() nbt.Compound {
	c := nbt.Compound{
		"sky_color":       e.SkyColor,
		"water_fog_color": e.WaterFogColor,
		"fog_color":       e.FogColor,
		"water_color":     e.WaterColor,
	}
	if e.FoliageColor != nil {
		c["foliage_color"] = *e.FoliageColor
	}
	if e.GrassColor != nil {
		c["grass_color"] = *e.GrassColor
	}
	if e.GrassColorModifier != nil {
		c["grass_color_modifier"] = *e.GrassColorModifier
	}
	if e.AmbientSound != nil {
		c["ambient_sound"] = *e.AmbientSound
	}
	return c
}

func nbtBool(v bool) int8 {
	if v {
		return 1
	}
	return 0
}
