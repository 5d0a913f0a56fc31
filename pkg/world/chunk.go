package world

import (
	"bytes"
	"fmt"
	"io"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto/util"
	"github.com/quarrymc/quarry/pkg/registry"
)

// SectionSize is the number of blocks in one 16x16x16 chunk section.
const SectionSize = 4096

// SectionsPerChunk is the height of a chunk column in sections.
const SectionsPerChunk = 16

// Chunk is a full column of sections.
type Chunk struct {
	X, Z     int32
	Sections []Section
}

// Section is one 16x16x16 cube of block states, indexed y*256+z*16+x.
type Section struct {
	Y           int32
	BlockCount  uint16
	BlockStates []registry.BlockState // SectionSize entries
}

// MarshalSections serializes all sections of the chunk into the
// paletted container wire format, resolving state ids through reg.
func (c *Chunk) MarshalSections(reg *registry.Registry) ([]byte, error) {
	buf := new(bytes.Buffer)
	for i := range c.Sections {
		if err := c.Sections[i].encode(buf, reg); err != nil {
			return nil, fmt.Errorf("section y=%d: %w", c.Sections[i].Y, err)
		}
	}
	return buf.Bytes(), nil
}

// buildPalette deduplicates the section's states into a palette and
// the per-block palette indices.
func (s *Section) buildPalette(reg *registry.Registry) (palette []int32, indices []uint64, err error) {
	seen := map[int32]int{}
	indices = make([]uint64, 0, len(s.BlockStates))
	for i := range s.BlockStates {
		stateID, err := reg.StateID(s.BlockStates[i])
		if err != nil {
			return nil, nil, err
		}
		idx, ok := seen[stateID]
		if !ok {
			idx = len(palette)
			palette = append(palette, stateID)
			seen[stateID] = idx
		}
		indices = append(indices, uint64(idx))
	}
	return palette, indices, nil
}

func (s *Section) encode(wr io.Writer, reg *registry.Registry) error {
	if len(s.BlockStates) != SectionSize {
		return fmt.Errorf("section has %d block states, want %d", len(s.BlockStates), SectionSize)
	}
	if err := util.WriteUint16(wr, s.BlockCount); err != nil {
		return err
	}

	palette, indices, err := s.buildPalette(reg)
	if err != nil {
		return err
	}
	storage := NewBitStorage(len(palette), SectionSize)
	for i, v := range indices {
		if err = storage.Set(i, v); err != nil {
			return err
		}
	}

	if err = util.WriteByte(wr, byte(storage.BitsPerEntry())); err != nil {
		return err
	}
	if err = util.WriteVarInt(wr, len(palette)); err != nil {
		return err
	}
	for _, id := range palette {
		if err = util.WriteVarInt(wr, int(id)); err != nil {
			return err
		}
	}
	if err = util.WriteVarInt(wr, len(storage.Data())); err != nil {
		return err
	}
	for _, word := range storage.Data() {
		if err = util.WriteUint64(wr, word); err != nil {
			return err
		}
	}

	// Biomes: a single-valued container.
	if err = util.WriteByte(wr, 0); err != nil {
		return err
	}
	if err = util.WriteVarInt(wr, 0); err != nil {
		return err
	}
	return util.WriteVarInt(wr, 0)
}

// Heightmaps returns the constant heightmap compound sent with every
// chunk: all columns at the same surface height.
func Heightmaps() nbt.Compound {
	heightmap := make(nbt.LongArray, 0, 37)
	for i := 0; i < 36; i++ {
		heightmap = append(heightmap, 0x0100804020100804)
	}
	heightmap = append(heightmap, 0x0000000020100804)
	return nbt.Compound{"MOTION_BLOCKING": heightmap}
}

// EmptySection returns a section filled with air.
func EmptySection(y int32) Section {
	states := make([]registry.BlockState, SectionSize)
	for i := range states {
		states[i] = registry.BlockState{Name: "minecraft:air"}
	}
	return Section{Y: y, BlockCount: 0, BlockStates: states}
}
