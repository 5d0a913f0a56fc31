package world

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/registry"
)

// MapTemplate is the static map loaded at startup. It is stored as a
// gzip-compressed tag tree.
type MapTemplate struct {
	Biome         string
	BlockEntities []BlockEntity
	Chunks        []TemplateSection
}

// BlockEntity is a block entity placed by the template. Data carries
// the entity's extra tags besides id and position.
type BlockEntity struct {
	ID      string
	X, Y, Z int32
	Data    nbt.Compound
}

// TemplateSection is one 16x16x16 section of the template with its
// own palette and packed indices.
type TemplateSection struct {
	X, Y, Z int32
	Palette []registry.BlockState
	Data    []uint64
}

// LoadTemplate reads a gzip-compressed template from path.
func LoadTemplate(path string) (*MapTemplate, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return ReadTemplate(f)
}

// ReadTemplate reads a gzip-compressed template from rd.
func ReadTemplate(rd io.Reader) (*MapTemplate, error) {
	_, root, err := nbt.ReadGzip(rd)
	if err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return templateFromNBT(root)
}

func templateFromNBT(root nbt.Compound) (*MapTemplate, error) {
	t := &MapTemplate{Biome: root.String("biome", "")}

	entities, _ := root["block_entities"].(nbt.List)
	for i, e := range entities.Elems {
		c, ok := e.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("block entity %d is not a compound", i)
		}
		be := BlockEntity{
			ID:   c.String("id", ""),
			X:    c.Int("x", 0),
			Y:    c.Int("y", 0),
			Z:    c.Int("z", 0),
			Data: nbt.Compound{},
		}
		if be.ID == "" {
			return nil, fmt.Errorf("block entity %d has no id", i)
		}
		for k, v := range c {
			switch k {
			case "id", "x", "y", "z":
			default:
				be.Data[k] = v
			}
		}
		t.BlockEntities = append(t.BlockEntities, be)
	}

	sections, _ := root["chunks"].(nbt.List)
	for i, e := range sections.Elems {
		c, ok := e.(nbt.Compound)
		if !ok {
			return nil, fmt.Errorf("chunk %d is not a compound", i)
		}
		sec, err := sectionFromNBT(c)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", i, err)
		}
		t.Chunks = append(t.Chunks, sec)
	}
	return t, nil
}

func sectionFromNBT(c nbt.Compound) (TemplateSection, error) {
	var sec TemplateSection
	switch pos := c["pos"].(type) {
	case nbt.IntArray:
		if len(pos) != 3 {
			return sec, fmt.Errorf("pos has %d elements, want 3", len(pos))
		}
		sec.X, sec.Y, sec.Z = pos[0], pos[1], pos[2]
	case nbt.List:
		if len(pos.Elems) != 3 {
			return sec, fmt.Errorf("pos has %d elements, want 3", len(pos.Elems))
		}
		for i, v := range pos.Elems {
			n, ok := v.(int32)
			if !ok {
				return sec, fmt.Errorf("pos element %d is not an int", i)
			}
			switch i {
			case 0:
				sec.X = n
			case 1:
				sec.Y = n
			case 2:
				sec.Z = n
			}
		}
	default:
		return sec, fmt.Errorf("section has no pos")
	}

	states := c.Compound("block_states")
	if states == nil {
		return sec, fmt.Errorf("section has no block_states")
	}
	palette, _ := states["palette"].(nbt.List)
	for i, e := range palette.Elems {
		pc, ok := e.(nbt.Compound)
		if !ok {
			return sec, fmt.Errorf("palette entry %d is not a compound", i)
		}
		state := registry.BlockState{Name: pc.String("Name", "")}
		if state.Name == "" {
			return sec, fmt.Errorf("palette entry %d has no Name", i)
		}
		if props := pc.Compound("Properties"); props != nil {
			state.Properties = make(map[string]string, len(props))
			for k, v := range props {
				s, ok := v.(string)
				if !ok {
					return sec, fmt.Errorf("palette entry %d property %q is not a string", i, k)
				}
				state.Properties[k] = s
			}
		}
		sec.Palette = append(sec.Palette, state)
	}

	data, _ := states["data"].(nbt.LongArray)
	sec.Data = make([]uint64, len(data))
	for i, v := range data {
		sec.Data[i] = uint64(v)
	}
	return sec, nil
}

// Expand resolves the template section's packed indices into the
// full 4096 block states of a chunk section.
func (s *TemplateSection) Expand() (Section, error) {
	storage, err := BitStorageFromData(s.Data, len(s.Palette), SectionSize)
	if err != nil {
		return Section{}, err
	}
	states := make([]registry.BlockState, SectionSize)
	for i := range states {
		idx, err := storage.Get(i)
		if err != nil {
			return Section{}, err
		}
		if int(idx) >= len(s.Palette) {
			return Section{}, fmt.Errorf("palette index %d out of range (palette size %d)", idx, len(s.Palette))
		}
		states[i] = s.Palette[idx]
	}
	return Section{Y: s.Y, BlockCount: SectionSize, BlockStates: states}, nil
}

// BuildChunks assembles the template's sections into full chunk
// columns, filling missing sections with air. Chunks are ordered by
// distance from the origin so the spawn area arrives first.
func (t *MapTemplate) BuildChunks() ([]Chunk, error) {
	type colKey struct{ x, z int32 }
	columns := map[colKey]map[int32]Section{}

	for i := range t.Chunks {
		sec, err := t.Chunks[i].Expand()
		if err != nil {
			return nil, fmt.Errorf("section (%d,%d,%d): %w",
				t.Chunks[i].X, t.Chunks[i].Y, t.Chunks[i].Z, err)
		}
		key := colKey{t.Chunks[i].X, t.Chunks[i].Z}
		if columns[key] == nil {
			columns[key] = map[int32]Section{}
		}
		columns[key][sec.Y] = sec
	}

	chunks := make([]Chunk, 0, len(columns))
	for key, sections := range columns {
		full := make([]Section, 0, SectionsPerChunk)
		for y := int32(0); y < SectionsPerChunk; y++ {
			sec, ok := sections[y]
			if !ok {
				sec = EmptySection(y)
			}
			full = append(full, sec)
		}
		chunks = append(chunks, Chunk{X: key.x, Z: key.z, Sections: full})
	}

	sort.Slice(chunks, func(i, j int) bool {
		di := abs32(chunks[i].X*256 + chunks[i].Z)
		dj := abs32(chunks[j].X*256 + chunks[j].Z)
		return di < dj
	})
	return chunks, nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}
