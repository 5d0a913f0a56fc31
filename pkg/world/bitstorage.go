// Package world models chunk columns and the map template they are
// loaded from, and serializes them into the section wire format.
package world

import (
	"fmt"
	"math/bits"
)

// MinBitsPerEntry is the smallest width of a packed palette index.
const MinBitsPerEntry = 4

// BitsFor returns the index width needed for a palette of the given
// size: ceil(log2(size)), but never below MinBitsPerEntry.
func BitsFor(paletteSize int) int {
	if paletteSize <= 1 {
		return MinBitsPerEntry
	}
	bpe := bits.Len(uint(paletteSize - 1))
	if bpe < MinBitsPerEntry {
		return MinBitsPerEntry
	}
	return bpe
}

// BitStorage packs fixed-width values into 64-bit words. Values never
// straddle a word boundary; the trailing bits of each word are padding.
type BitStorage struct {
	data          []uint64
	bitsPerEntry  int
	valuesPerWord int
	size          int
}

// NewBitStorage returns a zeroed storage holding size values wide
// enough for a palette of paletteSize entries.
func NewBitStorage(paletteSize, size int) *BitStorage {
	bpe := BitsFor(paletteSize)
	vpw := 64 / bpe
	return &BitStorage{
		data:          make([]uint64, (size+vpw-1)/vpw),
		bitsPerEntry:  bpe,
		valuesPerWord: vpw,
		size:          size,
	}
}

// BitStorageFromData wraps existing packed words. The word count must
// match exactly what size values at this palette's width occupy.
func BitStorageFromData(data []uint64, paletteSize, size int) (*BitStorage, error) {
	bpe := BitsFor(paletteSize)
	vpw := 64 / bpe
	want := (size + vpw - 1) / vpw
	if len(data) != want {
		return nil, fmt.Errorf("packed data has %d words, want %d for %d values at %d bits",
			len(data), want, size, bpe)
	}
	return &BitStorage{
		data:          data,
		bitsPerEntry:  bpe,
		valuesPerWord: vpw,
		size:          size,
	}, nil
}

// Get returns the value at index i.
func (s *BitStorage) Get(i int) (uint64, error) {
	if i < 0 || i >= s.size {
		return 0, fmt.Errorf("index %d out of range [0,%d)", i, s.size)
	}
	word := s.data[i/s.valuesPerWord]
	offset := (i % s.valuesPerWord) * s.bitsPerEntry
	return (word >> offset) & s.mask(), nil
}

// Set stores v at index i. v must fit in the entry width.
func (s *BitStorage) Set(i int, v uint64) error {
	if i < 0 || i >= s.size {
		return fmt.Errorf("index %d out of range [0,%d)", i, s.size)
	}
	if v&s.mask() != v {
		return fmt.Errorf("value %d does not fit in %d bits", v, s.bitsPerEntry)
	}
	wordIdx := i / s.valuesPerWord
	offset := (i % s.valuesPerWord) * s.bitsPerEntry
	s.data[wordIdx] = s.data[wordIdx]&^(s.mask()<<offset) | v<<offset
	return nil
}

// Data returns the backing words.
func (s *BitStorage) Data() []uint64 { return s.data }

// BitsPerEntry returns the width of one packed value.
func (s *BitStorage) BitsPerEntry() int { return s.bitsPerEntry }

// Size returns the number of stored values.
func (s *BitStorage) Size() int { return s.size }

func (s *BitStorage) mask() uint64 {
	return (1 << s.bitsPerEntry) - 1
}
