package server

import (
	"sync"
	"time"

	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"github.com/quarrymc/quarry/pkg/event"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/packet"
	"github.com/quarrymc/quarry/pkg/util/uuid"
)

type playSessionHandler struct {
	conn     *conn
	s        *Server
	log      logr.Logger
	id       uuid.UUID
	username string

	// pendingKeepAlive is the id of the last keep alive sent,
	// zero when the client has answered it.
	pendingKeepAlive atomic.Int64

	mu         sync.Mutex // Protects following fields
	x, y, z    float64
	yaw, pitch float32

	nopSessionHandler
}

func newPlaySessionHandler(conn *conn, s *Server, id uuid.UUID, username string) sessionHandler {
	p := &playSessionHandler{
		conn:     conn,
		s:        s,
		log:      conn.log.WithName("playSession").WithValues("username", username),
		id:       id,
		username: username,
	}
	spawn := s.cfg.SpawnPoint
	p.x, p.y, p.z = spawn.X, spawn.Y, spawn.Z
	return p
}

func (p *playSessionHandler) activated() {
	go p.run()
}

// run sends the world to the client and then keeps the
// connection alive until it is closed.
func (p *playSessionHandler) run() {
	if err := p.sendJoin(); err != nil {
		p.log.V(1).Info("error sending join sequence", "err", err)
		return
	}
	p.keepAliveLoop()
}

func (p *playSessionHandler) sendJoin() error {
	cfg := p.s.cfg
	join := &packet.JoinGame{
		EntityID:            1,
		Hardcore:            cfg.JoinGame.Hardcore,
		Gamemode:            byte(cfg.JoinGame.Gamemode.ID()),
		PreviousGamemode:    cfg.JoinGame.PreviousGamemode.ID(),
		DimensionNames:      cfg.JoinGame.DimensionNames,
		DimensionCodec:      p.s.dimensionCodec,
		Dimension:           p.s.dimension,
		DimensionName:       cfg.JoinGame.DimensionName,
		HashedSeed:          cfg.JoinGame.HashedSeed,
		MaxPlayers:          cfg.JoinGame.MaxPlayers,
		ViewDistance:        cfg.JoinGame.ViewDistance,
		SimulationDistance:  cfg.JoinGame.SimulationDistance,
		ReducedDebugInfo:    cfg.JoinGame.ReducedDebugInfo,
		EnableRespawnScreen: cfg.JoinGame.EnableRespawnScreen,
		IsDebug:             cfg.JoinGame.IsDebug,
		IsFlat:              cfg.JoinGame.IsFlat,
	}
	if err := p.conn.WritePacket(join); err != nil {
		return err
	}
	if err := p.conn.WritePacket(packet.NewBrandMessage(cfg.ServerBrand)); err != nil {
		return err
	}

	// First teleport so the client does not fall
	// while the chunks are still arriving.
	if err := p.teleportToSpawn(0); err != nil {
		return err
	}

	for _, pc := range p.s.chunks {
		if err := p.conn.WritePacket(pc.data); err != nil {
			return err
		}
		for _, be := range pc.blockEntities {
			if err := p.conn.WritePacket(be); err != nil {
				return err
			}
		}
	}

	if err := p.conn.WritePacket(&packet.UpdateViewPosition{
		ChunkX: p.s.spawnChunkX,
		ChunkZ: p.s.spawnChunkZ,
	}); err != nil {
		return err
	}
	return p.teleportToSpawn(1)
}

func (p *playSessionHandler) teleportToSpawn(teleportID int) error {
	spawn := p.s.cfg.SpawnPoint
	return p.conn.WritePacket(&packet.PlayerPositionAndLook{
		X:          spawn.X,
		Y:          spawn.Y,
		Z:          spawn.Z,
		TeleportID: teleportID,
	})
}

func (p *playSessionHandler) keepAliveLoop() {
	interval := time.Duration(p.s.cfg.KeepAliveIntervalMillis) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.conn.Context().Done():
			return
		case <-ticker.C:
			if p.pendingKeepAlive.Load() != 0 {
				// The previous keep alive was never answered.
				_ = p.conn.closeWith(&packet.Disconnect{Reason: chatReason("Timed out.")})
				return
			}
			id := time.Now().Unix()
			p.pendingKeepAlive.Store(id)
			if err := p.conn.WritePacket(&packet.KeepAlive{RandomID: id}); err != nil {
				return
			}
		}
	}
}

func (p *playSessionHandler) handlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// The play state has many packets this server has no use for.
		return
	}
	switch typed := pc.Packet.(type) {
	case *packet.KeepAlive:
		p.handleKeepAlive(typed)
	case *packet.TeleportConfirm:
		p.log.V(1).Info("teleport confirmed", "teleportID", typed.TeleportID)
	case *packet.ClientSettings:
		p.log.V(1).Info("client settings",
			"locale", typed.Locale, "viewDistance", typed.ViewDistance)
	case *packet.PlayerPosition:
		p.setPosition(typed.X, typed.Y, typed.Z)
	case *packet.PlayerPositionAndRotation:
		p.setPosition(typed.X, typed.Y, typed.Z)
		p.setRotation(typed.Yaw, typed.Pitch)
	case *packet.PlayerRotation:
		p.setRotation(typed.Yaw, typed.Pitch)
	case *packet.PluginMessage:
		p.log.V(1).Info("plugin message", "channel", typed.Channel, "bytes", len(typed.Data))
	}
}

func (p *playSessionHandler) handleKeepAlive(k *packet.KeepAlive) {
	if !p.pendingKeepAlive.CompareAndSwap(k.RandomID, 0) {
		p.log.V(1).Info("unexpected keep alive id", "id", k.RandomID)
	}
}

func (p *playSessionHandler) setPosition(x, y, z float64) {
	p.mu.Lock()
	p.x, p.y, p.z = x, y, z
	p.mu.Unlock()
}

func (p *playSessionHandler) setRotation(yaw, pitch float32) {
	p.mu.Lock()
	p.yaw, p.pitch = yaw, pitch
	p.mu.Unlock()
}

func (p *playSessionHandler) disconnected() {
	p.s.events.Fire(&event.DisconnectEvent{
		Username:   p.username,
		ID:         p.id,
		RemoteAddr: p.conn.RemoteAddr(),
	})
	p.log.Info("player disconnected")
}
