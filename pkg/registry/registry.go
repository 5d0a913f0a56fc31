// Package registry resolves block states and block entity kinds to
// the numeric ids of the wire protocol. The tables are generated game
// data loaded from JSON.
package registry

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
)

// BlockState is a block name with its property values.
// Nil properties and absent properties are equivalent.
type BlockState struct {
	Name       string
	Properties map[string]string
}

// String implements fmt.Stringer.
func (s BlockState) String() string {
	if len(s.Properties) == 0 {
		return s.Name
	}
	return fmt.Sprintf("%s%v", s.Name, s.Properties)
}

// Registry holds the block state and block entity id tables.
type Registry struct {
	blocks        map[string][]stateEntry
	blockEntities map[string]int32
}

type stateEntry struct {
	properties map[string]string
	id         int32
	isDefault  bool
}

type blockJSON struct {
	States []struct {
		Properties map[string]string `json:"properties"`
		ID         int32             `json:"id"`
		Default    bool              `json:"default"`
	} `json:"states"`
}

// Load reads the block state table and the block entity table.
func Load(blocks, blockEntities io.Reader) (*Registry, error) {
	var rawBlocks map[string]blockJSON
	if err := json.NewDecoder(blocks).Decode(&rawBlocks); err != nil {
		return nil, fmt.Errorf("decode block states: %w", err)
	}
	r := &Registry{
		blocks:        make(map[string][]stateEntry, len(rawBlocks)),
		blockEntities: map[string]int32{},
	}
	for name, b := range rawBlocks {
		entries := make([]stateEntry, 0, len(b.States))
		for _, s := range b.States {
			entries = append(entries, stateEntry{
				properties: s.Properties,
				id:         s.ID,
				isDefault:  s.Default,
			})
		}
		r.blocks[name] = entries
	}
	if err := json.NewDecoder(blockEntities).Decode(&r.blockEntities); err != nil {
		return nil, fmt.Errorf("decode block entities: %w", err)
	}
	return r, nil
}

// LoadFiles is Load reading from the given file paths.
func LoadFiles(blocksPath, blockEntitiesPath string) (*Registry, error) {
	bf, err := os.Open(blocksPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = bf.Close() }()
	ef, err := os.Open(blockEntitiesPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = ef.Close() }()
	return Load(bf, ef)
}

// StateID resolves a block state to its protocol id.
// An unknown name or property combination is an error;
// there is no fallback id.
func (r *Registry) StateID(s BlockState) (int32, error) {
	entries, ok := r.blocks[s.Name]
	if !ok {
		return 0, fmt.Errorf("unknown block %q", s.Name)
	}
	for _, e := range entries {
		if maps.Equal(e.properties, s.Properties) {
			return e.id, nil
		}
	}
	return 0, fmt.Errorf("no state of block %q matches properties %v", s.Name, s.Properties)
}

// DefaultStateID resolves a block name to the id of its default state.
func (r *Registry) DefaultStateID(name string) (int32, error) {
	entries, ok := r.blocks[name]
	if !ok {
		return 0, fmt.Errorf("unknown block %q", name)
	}
	for _, e := range entries {
		if e.isDefault {
			return e.id, nil
		}
	}
	if len(entries) > 0 {
		return entries[0].id, nil
	}
	return 0, fmt.Errorf("block %q has no states", name)
}

// StateByID is the reverse lookup of StateID, for diagnostics on the
// decode direction. The second return is false for an unknown id.
func (r *Registry) StateByID(id int32) (BlockState, bool) {
	for name, entries := range r.blocks {
		for _, e := range entries {
			if e.id == id {
				return BlockState{Name: name, Properties: e.properties}, true
			}
		}
	}
	return BlockState{}, false
}

// BlockEntityID resolves a block entity kind to its protocol id.
func (r *Registry) BlockEntityID(name string) (int32, error) {
	id, ok := r.blockEntities[name]
	if !ok {
		return 0, fmt.Errorf("unknown block entity %q", name)
	}
	return id, nil
}

// BlockCount returns the number of known blocks.
func (r *Registry) BlockCount() int { return len(r.blocks) }
