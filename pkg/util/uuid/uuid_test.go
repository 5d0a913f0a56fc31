package uuid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfflinePlayerUUID_Deterministic(t *testing.T) {
	id := OfflinePlayerUUID("bob")
	for i := 0; i < 10; i++ {
		require.Equal(t, id, OfflinePlayerUUID("bob"))
	}
	require.NotEqual(t, id, OfflinePlayerUUID("Bob"))
}

func TestOfflinePlayerUUID_VersionAndVariant(t *testing.T) {
	names := []string{"bob", "Alice", "Notch", "x", "a_very_long_name"}
	seen := map[UUID]string{}
	for _, name := range names {
		id := OfflinePlayerUUID(name)
		require.Equal(t, byte(0x30), id[6]&0xf0, "version bits for %q", name)
		require.Equal(t, byte(0x80), id[8]&0xc0, "variant bits for %q", name)
		if prev, ok := seen[id]; ok {
			t.Fatalf("collision between %q and %q", prev, name)
		}
		seen[id] = name
	}
}

func TestUUID_JSON(t *testing.T) {
	id := OfflinePlayerUUID("bob")
	b, err := id.MarshalJSON()
	require.NoError(t, err)
	require.Equal(t, `"`+id.String()+`"`, string(b))

	var id2 UUID
	err = id2.UnmarshalJSON(b)
	require.NoError(t, err)
	require.Equal(t, id, id2)
}
