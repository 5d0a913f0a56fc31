package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"
)

const configFixture = `{
	"bind": "127.0.0.1:25565",
	"online_mode": true,
	"server_brand": "quarry",
	"map_file": "map.nbt",
	"spawn_point": [0.5, 65.0, 0.5],
	"compression": {"threshold": 64, "level": 6},
	"status": {
		"version": {"name": "1.18.1", "protocol": 757},
		"players": {"max": 20, "online": 0, "sample": []},
		"description": {"text": "a quarry server"}
	},
	"join_game_data": {
		"is_hardcore": false,
		"gamemode": "Creative",
		"previous_gamemode": "Creative",
		"dimension_names": ["minecraft:overworld"],
		"dimension_codec": {
			"minecraft:dimension_type": {"type": "minecraft:dimension_type", "value": []},
			"minecraft:worldgen/biome": {"type": "minecraft:worldgen/biome", "value": []}
		},
		"dimension": {"min_y": 0, "height": 256},
		"dimension_name": "minecraft:overworld",
		"hashed_seed": 1,
		"max_players": 20,
		"view_distance": 10,
		"simulation_distance": 10,
		"enable_respawn_screen": true,
		"is_flat": true
	}
}`

func loadFixture(t *testing.T, content string) (*Config, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	v := viper.New()
	v.SetConfigFile(path)
	return Load(v)
}

func TestLoad(t *testing.T) {
	c, err := loadFixture(t, configFixture)
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1:25565", c.Bind)
	require.True(t, c.OnlineMode)
	require.Equal(t, SpawnPoint{X: 0.5, Y: 65, Z: 0.5}, c.SpawnPoint)
	require.Equal(t, 64, c.Compression.Threshold)
	require.Equal(t, Creative, c.JoinGame.Gamemode)
	require.Equal(t, int8(1), c.JoinGame.Gamemode.ID())
	require.Equal(t, int32(256), c.JoinGame.Dimension.Height)

	// Defaults fill unset keys.
	require.Equal(t, 1000, c.KeepAliveIntervalMillis)
	require.Equal(t, "blocks.json", c.BlocksFile)

	status, err := c.Status.JSON()
	require.NoError(t, err)
	require.Contains(t, status, `"protocol":757`)
	require.Contains(t, status, `"text":"a quarry server"`)
	// Absent favicon must be omitted, not sent as an empty string.
	require.NotContains(t, status, "favicon")
}

func TestLoad_InvalidGamemode(t *testing.T) {
	_, err := loadFixture(t, `{
		"map_file": "map.nbt",
		"join_game_data": {"gamemode": "Hardcore"}
	}`)
	require.ErrorContains(t, err, "gamemode")
}

func TestLoad_MissingMapFile(t *testing.T) {
	_, err := loadFixture(t, `{"join_game_data": {"gamemode": "Survival"}}`)
	require.ErrorContains(t, err, "map_file")
}

func TestValidate(t *testing.T) {
	c := &Config{
		Bind:                    "not-an-address",
		MapFile:                 "map.nbt",
		Compression:             Compression{Level: 42},
		JoinGame:                JoinGame{Gamemode: Survival},
		KeepAliveIntervalMillis: 1000,
	}
	errs := c.Validate()
	require.Len(t, errs, 2)
}
