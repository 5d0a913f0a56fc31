package packet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/util/uuid"
)

// roundTrip encodes p, decodes the bytes into a fresh instance
// and requires structural equality plus full payload consumption.
func roundTrip(t *testing.T, p proto.Packet, fresh proto.Packet) {
	t.Helper()
	c := &proto.PacketContext{Protocol: proto.Supported.Protocol}
	buf := new(bytes.Buffer)
	require.NoError(t, p.Encode(c, buf))

	rd := bytes.NewReader(buf.Bytes())
	require.NoError(t, fresh.Decode(c, rd))
	require.Zero(t, rd.Len(), "decoder left %d bytes", rd.Len())
	require.Equal(t, p, fresh)
}

func TestHandshake(t *testing.T) {
	roundTrip(t, &Handshake{
		ProtocolVersion: 757,
		ServerAddress:   "play.example.org",
		Port:            25565,
		NextStatus:      LoginHandshakeIntent,
	}, &Handshake{})
}

func TestStatus(t *testing.T) {
	roundTrip(t, &StatusRequest{}, &StatusRequest{})
	roundTrip(t, &StatusResponse{Status: `{"description":{"text":"hi"}}`}, &StatusResponse{})
	roundTrip(t, &StatusPing{RandomID: -12345678}, &StatusPing{})
}

func TestLogin(t *testing.T) {
	roundTrip(t, &ServerLogin{Username: "bob"}, &ServerLogin{})
	roundTrip(t, &EncryptionRequest{
		ServerID:    "",
		PublicKey:   []byte{1, 2, 3, 4},
		VerifyToken: []byte{9, 8, 7, 6},
	}, &EncryptionRequest{})
	roundTrip(t, &EncryptionResponse{
		SharedSecret: bytes.Repeat([]byte{1}, 128),
		VerifyToken:  bytes.Repeat([]byte{2}, 128),
	}, &EncryptionResponse{})
	roundTrip(t, &ServerLoginSuccess{
		UUID:     uuid.OfflinePlayerUUID("bob"),
		Username: "bob",
	}, &ServerLoginSuccess{})
	roundTrip(t, &SetCompression{Threshold: 256}, &SetCompression{})
	roundTrip(t, &Disconnect{Reason: `{"text":"bye"}`}, &Disconnect{})
}

func TestServerLogin_RejectsLongUsername(t *testing.T) {
	c := &proto.PacketContext{}
	buf := new(bytes.Buffer)
	err := (&ServerLogin{Username: "this_name_is_way_too_long_to_be_valid"}).Encode(c, buf)
	require.Error(t, err)
}

func TestPlayMovement(t *testing.T) {
	roundTrip(t, &TeleportConfirm{TeleportID: 7}, &TeleportConfirm{})
	roundTrip(t, &PlayerPosition{X: 1.5, Y: 64, Z: -3.25, OnGround: true}, &PlayerPosition{})
	roundTrip(t, &PlayerPositionAndRotation{X: 1, Y: 2, Z: 3, Yaw: 90, Pitch: -45, OnGround: false}, &PlayerPositionAndRotation{})
	roundTrip(t, &PlayerRotation{Yaw: 180, Pitch: 10, OnGround: true}, &PlayerRotation{})
	roundTrip(t, &PlayerPositionAndLook{
		X: 0.5, Y: 65, Z: 0.5, Yaw: 0, Pitch: 0,
		Flags: 0, TeleportID: 1, Dismount: false,
	}, &PlayerPositionAndLook{})
	roundTrip(t, &UpdateViewPosition{ChunkX: -3, ChunkZ: 12}, &UpdateViewPosition{})
}

func TestKeepAliveAndSettings(t *testing.T) {
	roundTrip(t, &KeepAlive{RandomID: 1692787200}, &KeepAlive{})
	roundTrip(t, &ClientSettings{
		Locale:              "en_US",
		ViewDistance:        10,
		ChatMode:            0,
		ChatColors:          true,
		DisplayedSkinParts:  0x7F,
		MainHand:            1,
		EnableTextFiltering: false,
		AllowServerListings: true,
	}, &ClientSettings{})
}

func TestPluginMessage(t *testing.T) {
	msg := NewBrandMessage("quarry")
	roundTrip(t, msg, &PluginMessage{})
	require.Equal(t, BrandChannel, msg.Channel)
	// payload is a length-prefixed string
	require.Equal(t, append([]byte{6}, []byte("quarry")...), msg.Data)
}

func TestJoinGame(t *testing.T) {
	roundTrip(t, &JoinGame{
		EntityID:         1,
		Hardcore:         false,
		Gamemode:         3,
		PreviousGamemode: -1,
		DimensionNames:   []string{"minecraft:overworld"},
		DimensionCodec: nbt.Compound{
			"minecraft:dimension_type": nbt.Compound{"type": "minecraft:dimension_type"},
		},
		Dimension:           nbt.Compound{"height": int32(256), "min_y": int32(0)},
		DimensionName:       "minecraft:overworld",
		HashedSeed:          42,
		MaxPlayers:          20,
		ViewDistance:        10,
		SimulationDistance:  10,
		ReducedDebugInfo:    false,
		EnableRespawnScreen: true,
		IsDebug:             false,
		IsFlat:              true,
	}, &JoinGame{})
}

func TestBlockEntityData(t *testing.T) {
	roundTrip(t, &BlockEntityData{
		X: 100, Y: 64, Z: -200,
		Type: 7,
		Data: nbt.Compound{"Text1": `{"text":"hello"}`},
	}, &BlockEntityData{})
}

func TestChunkData(t *testing.T) {
	roundTrip(t, &ChunkData{
		ChunkX: -1, ChunkZ: 2,
		Heightmaps: nbt.Compound{
			"MOTION_BLOCKING": nbt.LongArray{0x0100804020100804, 0x0000000020100804},
		},
		Data: []byte{0, 0, 4, 1, 0, 1, 0},
		BlockEntities: []ChunkBlockEntity{
			{X: 3, Z: 5, Y: 64, Type: 7, Data: nbt.Compound{"id": "minecraft:sign"}},
		},
		Light: LightData{TrustEdges: true},
	}, &ChunkData{})
}

func TestUpdateLight(t *testing.T) {
	roundTrip(t, &UpdateLight{
		ChunkX: 1, ChunkZ: -1,
		Light: LightData{
			TrustEdges:   true,
			SkyLightMask: []int64{0b11},
			SkyLight:     [][]byte{bytes.Repeat([]byte{0xFF}, 2048), bytes.Repeat([]byte{0x0F}, 2048)},
		},
	}, &UpdateLight{})
}
