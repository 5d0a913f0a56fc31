package world

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitsFor(t *testing.T) {
	for _, tc := range []struct{ paletteSize, want int }{
		{0, 4},
		{1, 4},
		{2, 4},
		{16, 4},
		{17, 5},
		{32, 5},
		{33, 6},
		{256, 8},
		{257, 9},
	} {
		require.Equal(t, tc.want, BitsFor(tc.paletteSize), "palette size %d", tc.paletteSize)
	}
}

func TestBitStorage_RoundTrip(t *testing.T) {
	s := NewBitStorage(20, SectionSize) // 5 bits per entry
	require.Equal(t, 5, s.BitsPerEntry())
	// 12 values per word, padded: ceil(4096/12) words
	require.Len(t, s.Data(), 342)

	for i := 0; i < SectionSize; i++ {
		require.NoError(t, s.Set(i, uint64(i%20)))
	}
	for i := 0; i < SectionSize; i++ {
		v, err := s.Get(i)
		require.NoError(t, err)
		require.Equal(t, uint64(i%20), v)
	}
}

func TestBitStorage_ValuesDoNotStraddleWords(t *testing.T) {
	s := NewBitStorage(20, 13) // 5 bits, 12 values per word
	require.NoError(t, s.Set(12, 0b11111))
	// The 13th value must start a new word, not spill into the
	// first word's padding bits.
	require.Len(t, s.Data(), 2)
	require.Zero(t, s.Data()[0])
	require.Equal(t, uint64(0b11111), s.Data()[1])
}

func TestBitStorage_Set_Overwrites(t *testing.T) {
	s := NewBitStorage(16, 8)
	require.NoError(t, s.Set(3, 0xF))
	require.NoError(t, s.Set(3, 0x1))
	v, err := s.Get(3)
	require.NoError(t, err)
	require.Equal(t, uint64(0x1), v)
}

func TestBitStorage_Rejections(t *testing.T) {
	s := NewBitStorage(16, 8)

	require.Error(t, s.Set(-1, 0))
	require.Error(t, s.Set(8, 0))
	_, err := s.Get(8)
	require.Error(t, err)

	// 16 needs 5 bits but entries are 4 wide.
	require.Error(t, s.Set(0, 16))
}

func TestBitStorageFromData_LengthCheck(t *testing.T) {
	_, err := BitStorageFromData(make([]uint64, 10), 16, SectionSize)
	require.Error(t, err)

	s, err := BitStorageFromData(make([]uint64, 256), 16, SectionSize)
	require.NoError(t, err)
	require.Equal(t, 4, s.BitsPerEntry())
}
