// Package config reads and validates the server configuration.
package config

import (
	"encoding/json"
	"fmt"
	"net"

	"github.com/spf13/viper"

	"github.com/quarrymc/quarry/pkg/util/uuid"
	"github.com/quarrymc/quarry/pkg/world"
)

// Config is the server configuration, read from a file and
// environment variables with Viper.
type Config struct {
	// Bind is the listen address for client connections.
	Bind string `json:"bind"`
	// OnlineMode authenticates joining players with the session service.
	OnlineMode bool `json:"online_mode"`
	// ServerBrand is announced to clients after joining.
	ServerBrand string `json:"server_brand"`

	// MapFile is the gzip-compressed map template sent to every player.
	MapFile string `json:"map_file"`
	// BlocksFile and BlockEntitiesFile are the generated id tables.
	BlocksFile        string `json:"blocks_file"`
	BlockEntitiesFile string `json:"block_entities_file"`

	SpawnPoint  SpawnPoint  `json:"spawn_point"`
	Compression Compression `json:"compression"`
	Status      Status      `json:"status"`
	JoinGame    JoinGame    `json:"join_game_data"`

	// KeepAliveIntervalMillis is the play-state keep alive period.
	KeepAliveIntervalMillis int `json:"keep_alive_interval_millis"`
}

// SpawnPoint is where players appear. In the config
// file it is a [x, y, z] array.
type SpawnPoint struct {
	X, Y, Z float64
}

func (s *SpawnPoint) UnmarshalJSON(b []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(b, &arr); err != nil {
		return fmt.Errorf("spawn_point must be a [x, y, z] array: %w", err)
	}
	s.X, s.Y, s.Z = arr[0], arr[1], arr[2]
	return nil
}

func (s SpawnPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{s.X, s.Y, s.Z})
}

// Compression configures the frame compression installed after login.
// A negative threshold disables compression entirely.
type Compression struct {
	Threshold int `json:"threshold"`
	Level     int `json:"level"`
}

// Status is the server list ping response document.
type Status struct {
	Version     StatusVersion   `json:"version"`
	Players     StatusPlayers   `json:"players"`
	Description json.RawMessage `json:"description"`
	Favicon     string          `json:"favicon,omitempty"`
}

type StatusVersion struct {
	Name     string `json:"name"`
	Protocol int    `json:"protocol"`
}

type StatusPlayers struct {
	Max    int            `json:"max"`
	Online int            `json:"online"`
	Sample []SamplePlayer `json:"sample"`
}

type SamplePlayer struct {
	Name string    `json:"name"`
	ID   uuid.UUID `json:"id"`
}

// JSON returns the status document as sent on the wire.
func (s *Status) JSON() (string, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("marshal status response: %w", err)
	}
	return string(b), nil
}

// Gamemode is a named game mode.
type Gamemode string

// The game modes.
const (
	Survival  Gamemode = "Survival"
	Creative  Gamemode = "Creative"
	Adventure Gamemode = "Adventure"
	Spectator Gamemode = "Spectator"
)

// ID returns the gamemode's protocol id, or -1 if unknown.
func (g Gamemode) ID() int8 {
	switch g {
	case Survival:
		return 0
	case Creative:
		return 1
	case Adventure:
		return 2
	case Spectator:
		return 3
	}
	return -1
}

// JoinGame is the static world description sent in the join packet.
type JoinGame struct {
	Hardcore            bool                 `json:"is_hardcore"`
	Gamemode            Gamemode             `json:"gamemode"`
	PreviousGamemode    Gamemode             `json:"previous_gamemode"`
	DimensionNames      []string             `json:"dimension_names"`
	DimensionCodec      world.DimensionCodec `json:"dimension_codec"`
	Dimension           world.DimensionType  `json:"dimension"`
	DimensionName       string               `json:"dimension_name"`
	HashedSeed          int64                `json:"hashed_seed"`
	MaxPlayers          int                  `json:"max_players"`
	ViewDistance        int                  `json:"view_distance"`
	SimulationDistance  int                  `json:"simulation_distance"`
	ReducedDebugInfo    bool                 `json:"reduced_debug_info"`
	EnableRespawnScreen bool                 `json:"enable_respawn_screen"`
	IsDebug             bool                 `json:"is_debug"`
	IsFlat              bool                 `json:"is_flat"`
}

// SetDefaults sets Config defaults to use with Viper.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("bind", "0.0.0.0:25565")
	v.SetDefault("online_mode", false)
	v.SetDefault("server_brand", "quarry")
	v.SetDefault("blocks_file", "blocks.json")
	v.SetDefault("block_entities_file", "block_entities.json")
	v.SetDefault("compression.threshold", 256)
	v.SetDefault("compression.level", -1) // zlib default level
	v.SetDefault("keep_alive_interval_millis", 1000)
}

// Load reads the config file v points at into a validated Config.
func Load(v *viper.Viper) (*Config, error) {
	SetDefaults(v)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	// Round-trip through JSON so the same tags drive the config file
	// and the status document.
	raw, err := json.Marshal(v.AllSettings())
	if err != nil {
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	var c Config
	if err = json.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if errs := c.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %w", errs[0])
	}
	return &c, nil
}

// Validate returns all problems that make the config unusable.
func (c *Config) Validate() (errs []error) {
	e := func(m string, args ...any) { errs = append(errs, fmt.Errorf(m, args...)) }
	if c == nil {
		e("config must not be nil")
		return
	}
	if _, _, err := net.SplitHostPort(c.Bind); err != nil {
		e("invalid bind address %q: %v", c.Bind, err)
	}
	if c.MapFile == "" {
		e("map_file must be set")
	}
	if c.JoinGame.Gamemode.ID() < 0 {
		e("unknown gamemode %q", c.JoinGame.Gamemode)
	}
	if c.JoinGame.PreviousGamemode != "" && c.JoinGame.PreviousGamemode.ID() < 0 {
		e("unknown previous gamemode %q", c.JoinGame.PreviousGamemode)
	}
	if c.Compression.Level < -1 || c.Compression.Level > 9 {
		e("compression level %d must be between -1 and 9", c.Compression.Level)
	}
	if c.KeepAliveIntervalMillis <= 0 {
		e("keep_alive_interval_millis must be positive")
	}
	return
}
