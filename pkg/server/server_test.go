package server

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-logr/logr"
	"github.com/stretchr/testify/require"

	"github.com/quarrymc/quarry/pkg/auth"
	"github.com/quarrymc/quarry/pkg/config"
	"github.com/quarrymc/quarry/pkg/event"
	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/codec"
	"github.com/quarrymc/quarry/pkg/proto/packet"
	"github.com/quarrymc/quarry/pkg/proto/state"
	"github.com/quarrymc/quarry/pkg/util/uuid"
	"github.com/quarrymc/quarry/pkg/world"
)

const blocksFixture = `{
	"minecraft:air": {"states": [{"id": 0, "default": true}]},
	"minecraft:stone": {"states": [{"id": 1, "default": true}]}
}`

const blockEntitiesFixture = `{"minecraft:sign": 7}`

// templateCompound is a one-section map: stone at section (0,0,0)
// with a sign block entity at (1,2,3).
func templateCompound() nbt.Compound {
	return nbt.Compound{
		"biome": "minecraft:plains",
		"block_entities": nbt.List{ElemType: nbt.TagCompound, Elems: []any{
			nbt.Compound{
				"id": "minecraft:sign",
				"x":  int32(1), "y": int32(2), "z": int32(3),
				"Text1": `{"text":"hi"}`,
			},
		}},
		"chunks": nbt.List{ElemType: nbt.TagCompound, Elems: []any{
			nbt.Compound{
				"pos": nbt.IntArray{0, 0, 0},
				"block_states": nbt.Compound{
					"palette": nbt.List{ElemType: nbt.TagCompound, Elems: []any{
						nbt.Compound{"Name": "minecraft:stone"},
					}},
					"data": make(nbt.LongArray, 256),
				},
			},
		}},
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()

	blocks := filepath.Join(dir, "blocks.json")
	require.NoError(t, os.WriteFile(blocks, []byte(blocksFixture), 0o600))
	entities := filepath.Join(dir, "block_entities.json")
	require.NoError(t, os.WriteFile(entities, []byte(blockEntitiesFixture), 0o600))

	mapFile := filepath.Join(dir, "map.nbt")
	f, err := os.Create(mapFile)
	require.NoError(t, err)
	require.NoError(t, nbt.WriteGzip(f, "", templateCompound()))
	require.NoError(t, f.Close())

	return &config.Config{
		Bind:              "127.0.0.1:0",
		ServerBrand:       "quarry",
		MapFile:           mapFile,
		BlocksFile:        blocks,
		BlockEntitiesFile: entities,
		SpawnPoint:        config.SpawnPoint{X: 8.5, Y: 17, Z: 8.5},
		Compression:       config.Compression{Threshold: -1, Level: -1},
		Status: config.Status{
			Version:     config.StatusVersion{Name: proto.Supported.Name, Protocol: int(proto.Supported.Protocol)},
			Players:     config.StatusPlayers{Max: 20},
			Description: json.RawMessage(`{"text":"test server"}`),
		},
		JoinGame: config.JoinGame{
			Gamemode:           config.Creative,
			DimensionNames:     []string{"minecraft:overworld"},
			Dimension:          world.DimensionType{Natural: true, Height: 256, LogicalHeight: 256},
			DimensionName:      "minecraft:overworld",
			MaxPlayers:         20,
			ViewDistance:       10,
			SimulationDistance: 10,
		},
		KeepAliveIntervalMillis: 50,
	}
}

type testClient struct {
	t   *testing.T
	c   net.Conn
	dec *codec.Decoder
	enc *codec.Encoder
}

func startTestServer(t *testing.T, mod func(*config.Config), opts Options) (*Server, *testClient) {
	t.Helper()
	cfg := testConfig(t)
	if mod != nil {
		mod(cfg)
	}
	s, err := New(cfg, opts)
	require.NoError(t, err)

	clientSide, serverSide := net.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	t.Cleanup(func() { _ = clientSide.Close() })
	go s.HandleConn(ctx, serverSide)

	return s, &testClient{
		t:   t,
		c:   clientSide,
		dec: codec.NewDecoder(clientSide, proto.ClientBound, logr.Discard()),
		enc: codec.NewEncoder(clientSide, proto.ServerBound, logr.Discard()),
	}
}

func (c *testClient) setState(s *state.Registry) {
	c.dec.SetState(s)
	c.enc.SetState(s)
}

func (c *testClient) writePacket(p proto.Packet) {
	c.t.Helper()
	require.NoError(c.t, c.enc.WritePacket(p))
}

func (c *testClient) readPacket() proto.Packet {
	c.t.Helper()
	pc, err := c.dec.Decode()
	require.NoError(c.t, err)
	require.True(c.t, pc.KnownPacket(), "received unknown packet id %s", pc.PacketID)
	return pc.Packet
}

func (c *testClient) handshake(nextStatus, protocol int) {
	c.t.Helper()
	c.writePacket(&packet.Handshake{
		ProtocolVersion: protocol,
		ServerAddress:   "localhost",
		Port:            25565,
		NextStatus:      nextStatus,
	})
}

func TestStatusSequence(t *testing.T) {
	s, c := startTestServer(t, nil, Options{})
	pings := make(chan *event.PingEvent, 1)
	event.Subscribe(s.Events(), 0, func(e *event.PingEvent) { pings <- e })

	c.handshake(packet.StatusHandshakeIntent, int(proto.Supported.Protocol))
	c.setState(state.Status)

	c.writePacket(&packet.StatusRequest{})
	resp, ok := c.readPacket().(*packet.StatusResponse)
	require.True(t, ok)
	require.Contains(t, resp.Status, `"protocol":757`)
	require.Contains(t, resp.Status, `"text":"test server"`)

	select {
	case ping := <-pings:
		require.Equal(t, resp.Status, ping.Status)
	case <-time.After(time.Second):
		t.Fatal("no ping event fired")
	}

	c.writePacket(&packet.StatusPing{RandomID: 42})
	pong, ok := c.readPacket().(*packet.StatusPing)
	require.True(t, ok)
	require.Equal(t, int64(42), pong.RandomID)

	// The server closes the connection after the pong.
	_, err := c.dec.Decode()
	require.Error(t, err)
}

func TestLogin_UnsupportedProtocol(t *testing.T) {
	_, c := startTestServer(t, nil, Options{})

	c.handshake(packet.LoginHandshakeIntent, 756)
	c.setState(state.Login)

	d, ok := c.readPacket().(*packet.Disconnect)
	require.True(t, ok)
	require.Contains(t, d.Reason, proto.Supported.Name)
}

func TestLoginOffline_PlayBootstrap(t *testing.T) {
	s, c := startTestServer(t, nil, Options{})
	logins := make(chan *event.LoginEvent, 1)
	event.Subscribe(s.Events(), 0, func(e *event.LoginEvent) { logins <- e })
	disconnects := make(chan *event.DisconnectEvent, 1)
	event.Subscribe(s.Events(), 0, func(e *event.DisconnectEvent) { disconnects <- e })

	c.handshake(packet.LoginHandshakeIntent, int(proto.Supported.Protocol))
	c.setState(state.Login)
	c.writePacket(&packet.ServerLogin{Username: "Steve"})

	success, ok := c.readPacket().(*packet.ServerLoginSuccess)
	require.True(t, ok)
	require.Equal(t, "Steve", success.Username)
	require.Equal(t, uuid.OfflinePlayerUUID("Steve"), success.UUID)

	select {
	case login := <-logins:
		require.Equal(t, "Steve", login.Username)
		require.False(t, login.OnlineMode)
	case <-time.After(time.Second):
		t.Fatal("no login event fired")
	}

	c.setState(state.Play)

	join, ok := c.readPacket().(*packet.JoinGame)
	require.True(t, ok)
	require.Equal(t, byte(1), join.Gamemode) // Creative
	require.Equal(t, int8(-1), join.PreviousGamemode)
	require.Equal(t, "minecraft:overworld", join.DimensionName)

	brand, ok := c.readPacket().(*packet.PluginMessage)
	require.True(t, ok)
	require.Equal(t, packet.BrandChannel, brand.Channel)

	tp1, ok := c.readPacket().(*packet.PlayerPositionAndLook)
	require.True(t, ok)
	require.Equal(t, 8.5, tp1.X)
	require.Equal(t, 0, tp1.TeleportID)
	c.writePacket(&packet.TeleportConfirm{TeleportID: tp1.TeleportID})

	chunk, ok := c.readPacket().(*packet.ChunkData)
	require.True(t, ok)
	require.Equal(t, int32(0), chunk.ChunkX)
	require.Equal(t, int32(0), chunk.ChunkZ)
	require.NotEmpty(t, chunk.Data)
	require.True(t, chunk.Light.TrustEdges)
	require.Len(t, chunk.BlockEntities, 1)
	require.Equal(t, 7, chunk.BlockEntities[0].Type)

	be, ok := c.readPacket().(*packet.BlockEntityData)
	require.True(t, ok)
	require.Equal(t, 1, be.X)
	require.Equal(t, 2, be.Y)
	require.Equal(t, 3, be.Z)
	require.Equal(t, 7, be.Type)
	require.Equal(t, `{"text":"hi"}`, be.Data["Text1"])

	view, ok := c.readPacket().(*packet.UpdateViewPosition)
	require.True(t, ok)
	require.Equal(t, 0, view.ChunkX)

	tp2, ok := c.readPacket().(*packet.PlayerPositionAndLook)
	require.True(t, ok)
	require.Equal(t, 1, tp2.TeleportID)

	// Echo the first keep alive and move a little; the connection
	// must stay open for the next keep alive.
	keepAlive, ok := c.readPacket().(*packet.KeepAlive)
	require.True(t, ok)
	c.writePacket(&packet.KeepAlive{RandomID: keepAlive.RandomID})
	c.writePacket(&packet.PlayerPosition{X: 9, Y: 17, Z: 9, OnGround: true})

	_, ok = c.readPacket().(*packet.KeepAlive)
	require.True(t, ok)

	require.NoError(t, c.c.Close())
	select {
	case d := <-disconnects:
		require.Equal(t, "Steve", d.Username)
	case <-time.After(time.Second):
		t.Fatal("no disconnect event fired")
	}
}

func TestPlay_KeepAliveTimeout(t *testing.T) {
	_, c := startTestServer(t, func(cfg *config.Config) {
		cfg.KeepAliveIntervalMillis = 20
	}, Options{})

	c.handshake(packet.LoginHandshakeIntent, int(proto.Supported.Protocol))
	c.setState(state.Login)
	c.writePacket(&packet.ServerLogin{Username: "Steve"})
	_, ok := c.readPacket().(*packet.ServerLoginSuccess)
	require.True(t, ok)
	c.setState(state.Play)

	// Read the bootstrap but never answer a keep alive.
	var sawKeepAlive bool
	for {
		p := c.readPacket()
		if _, ok := p.(*packet.KeepAlive); ok {
			sawKeepAlive = true
			continue
		}
		if d, ok := p.(*packet.Disconnect); ok {
			require.True(t, sawKeepAlive)
			require.Contains(t, d.Reason, "Timed out")
			return
		}
	}
}

func TestLoginOnline_InvalidVerifyToken(t *testing.T) {
	_, c := startTestServer(t, func(cfg *config.Config) {
		cfg.OnlineMode = true
	}, Options{})

	c.handshake(packet.LoginHandshakeIntent, int(proto.Supported.Protocol))
	c.setState(state.Login)
	c.writePacket(&packet.ServerLogin{Username: "Steve"})

	req, ok := c.readPacket().(*packet.EncryptionRequest)
	require.True(t, ok)
	pub := parsePublicKey(t, req.PublicKey)

	// Answer with a token the server never issued.
	badToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, []byte{0xde, 0xad, 0xbe, 0xef})
	require.NoError(t, err)
	secret := newSharedSecret(t)
	encryptedSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	require.NoError(t, err)
	c.writePacket(&packet.EncryptionResponse{SharedSecret: encryptedSecret, VerifyToken: badToken})

	// The disconnect must arrive unencrypted: a failed verify
	// token means no cipher was installed.
	d, ok := c.readPacket().(*packet.Disconnect)
	require.True(t, ok)
	require.Contains(t, d.Reason, "verify token")
}

func TestLoginOnline_FullFlow(t *testing.T) {
	profileID := uuid.New()
	sessions := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Steve", r.URL.Query().Get("username"))
		require.NotEmpty(t, r.URL.Query().Get("serverId"))
		_, _ = fmt.Fprintf(w, `{"id":%q,"name":"Steve"}`, profileID.Undashed())
	}))
	t.Cleanup(sessions.Close)
	baseURL, err := url.Parse(sessions.URL)
	require.NoError(t, err)
	authn, err := auth.New(auth.Options{HasJoinedURLFn: auth.CustomHasJoinedURL(baseURL)})
	require.NoError(t, err)

	_, c := startTestServer(t, func(cfg *config.Config) {
		cfg.OnlineMode = true
		cfg.Compression.Threshold = 64
	}, Options{Authenticator: authn})

	c.handshake(packet.LoginHandshakeIntent, int(proto.Supported.Protocol))
	c.setState(state.Login)
	c.writePacket(&packet.ServerLogin{Username: "Steve"})

	req, ok := c.readPacket().(*packet.EncryptionRequest)
	require.True(t, ok)
	pub := parsePublicKey(t, req.PublicKey)

	secret := newSharedSecret(t)
	encryptedSecret, err := rsa.EncryptPKCS1v15(rand.Reader, pub, secret)
	require.NoError(t, err)
	encryptedToken, err := rsa.EncryptPKCS1v15(rand.Reader, pub, req.VerifyToken)
	require.NoError(t, err)
	c.writePacket(&packet.EncryptionResponse{SharedSecret: encryptedSecret, VerifyToken: encryptedToken})

	// Everything from here on is encrypted.
	rd, err := codec.NewDecryptReader(c.c, secret)
	require.NoError(t, err)
	c.dec.SetReader(rd)
	wr, err := codec.NewEncryptWriter(c.c, secret)
	require.NoError(t, err)
	c.enc.SetWriter(wr)

	sc, ok := c.readPacket().(*packet.SetCompression)
	require.True(t, ok)
	require.Equal(t, 64, sc.Threshold)
	c.dec.SetCompressionThreshold(sc.Threshold)
	require.NoError(t, c.enc.SetCompression(sc.Threshold, -1))

	success, ok := c.readPacket().(*packet.ServerLoginSuccess)
	require.True(t, ok)
	require.Equal(t, "Steve", success.Username)
	require.Equal(t, profileID, success.UUID)

	// The play bootstrap arrives compressed and encrypted.
	c.setState(state.Play)
	join, ok := c.readPacket().(*packet.JoinGame)
	require.True(t, ok)
	require.Equal(t, "minecraft:overworld", join.DimensionName)
}

func parsePublicKey(t *testing.T, der []byte) *rsa.PublicKey {
	t.Helper()
	key, err := x509.ParsePKIXPublicKey(der)
	require.NoError(t, err)
	pub, ok := key.(*rsa.PublicKey)
	require.True(t, ok)
	return pub
}

func newSharedSecret(t *testing.T) []byte {
	t.Helper()
	secret := make([]byte, 16)
	_, err := rand.Read(secret)
	require.NoError(t, err)
	return secret
}
