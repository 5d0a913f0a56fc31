// Package server accepts client connections and drives them through
// the handshake, status, login and play states.
package server

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"

	"github.com/go-logr/logr"
	"golang.org/x/sync/errgroup"

	"github.com/quarrymc/quarry/pkg/auth"
	"github.com/quarrymc/quarry/pkg/config"
	"github.com/quarrymc/quarry/pkg/event"
	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto/packet"
	"github.com/quarrymc/quarry/pkg/registry"
	"github.com/quarrymc/quarry/pkg/world"
)

// Server is the game server. It owns the static world prepared at
// startup and serves every accepted connection.
type Server struct {
	cfg    *config.Config
	log    logr.Logger
	events event.Manager
	auth   auth.Authenticator

	// status is the pre-marshaled server list ping document.
	status string

	// dimensionCodec and dimension are the pre-built tag trees
	// sent in the join packet.
	dimensionCodec nbt.Compound
	dimension      nbt.Compound

	chunks                   []*preparedChunk
	spawnChunkX, spawnChunkZ int
}

// preparedChunk is one chunk column with its sections already
// serialized, ready to send to any number of joining players.
type preparedChunk struct {
	data          *packet.ChunkData
	blockEntities []*packet.BlockEntityData
}

// Options configure a Server beyond its config file.
type Options struct {
	// Log is the root logger. Discards if unset.
	Log logr.Logger
	// Authenticator used for online-mode logins.
	// One with a fresh keypair is created if unset.
	Authenticator auth.Authenticator
	// Events is the event manager the server fires its events on.
	// A new one is created if unset.
	Events event.Manager
}

// New creates a Server from a validated config, loading the id tables
// and the map template from the configured files.
func New(cfg *config.Config, opts Options) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config must not be nil")
	}

	status, err := cfg.Status.JSON()
	if err != nil {
		return nil, err
	}

	reg, err := registry.LoadFiles(cfg.BlocksFile, cfg.BlockEntitiesFile)
	if err != nil {
		return nil, fmt.Errorf("load registry: %w", err)
	}
	tmpl, err := world.LoadTemplate(cfg.MapFile)
	if err != nil {
		return nil, fmt.Errorf("load map template: %w", err)
	}
	chunks, err := prepareChunks(tmpl, reg)
	if err != nil {
		return nil, fmt.Errorf("prepare chunks: %w", err)
	}

	authn := opts.Authenticator
	if authn == nil {
		authn, err = auth.New(auth.Options{})
		if err != nil {
			return nil, fmt.Errorf("create authenticator: %w", err)
		}
	}
	events := opts.Events
	if events == nil {
		events = event.New()
	}

	return &Server{
		cfg:            cfg,
		log:            opts.Log,
		events:         events,
		auth:           authn,
		status:         status,
		dimensionCodec: cfg.JoinGame.DimensionCodec.ToNBT(),
		dimension:      cfg.JoinGame.Dimension.ToNBT(),
		chunks:         chunks,
		spawnChunkX:    int(math.Floor(cfg.SpawnPoint.X)) >> 4,
		spawnChunkZ:    int(math.Floor(cfg.SpawnPoint.Z)) >> 4,
	}, nil
}

// Events returns the event manager the server fires its events on.
func (s *Server) Events() event.Manager { return s.events }

// prepareChunks serializes every chunk column of the template once so
// joining players only replay the finished packets.
func prepareChunks(tmpl *world.MapTemplate, reg *registry.Registry) ([]*preparedChunk, error) {
	columns, err := tmpl.BuildChunks()
	if err != nil {
		return nil, err
	}
	heightmaps := world.Heightmaps()

	prepared := make([]*preparedChunk, 0, len(columns))
	for i := range columns {
		col := &columns[i]
		data, err := col.MarshalSections(reg)
		if err != nil {
			return nil, fmt.Errorf("chunk (%d,%d): %w", col.X, col.Z, err)
		}
		pc := &preparedChunk{data: &packet.ChunkData{
			ChunkX:     col.X,
			ChunkZ:     col.Z,
			Heightmaps: heightmaps,
			Data:       data,
			Light:      packet.LightData{TrustEdges: true},
		}}

		for _, be := range tmpl.BlockEntities {
			if be.X>>4 != col.X || be.Z>>4 != col.Z {
				continue
			}
			typeID, err := reg.BlockEntityID(be.ID)
			if err != nil {
				return nil, fmt.Errorf("block entity at (%d,%d,%d): %w", be.X, be.Y, be.Z, err)
			}
			pc.data.BlockEntities = append(pc.data.BlockEntities, packet.ChunkBlockEntity{
				X:    int8(be.X & 0xF),
				Z:    int8(be.Z & 0xF),
				Y:    int16(be.Y),
				Type: int(typeID),
				Data: be.Data,
			})
			pc.blockEntities = append(pc.blockEntities, &packet.BlockEntityData{
				X:    int(be.X),
				Y:    int(be.Y),
				Z:    int(be.Z),
				Type: int(typeID),
				Data: be.Data,
			})
		}
		prepared = append(prepared, pc)
	}
	return prepared, nil
}

// Start listens on the configured bind address and serves connections
// until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Bind)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.cfg.Bind, err)
	}
	s.log.Info("listening for connections", "addr", ln.Addr().String())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-ctx.Done()
		return ln.Close()
	})
	g.Go(func() error {
		for {
			c, err := ln.Accept()
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("accept: %w", err)
			}
			go s.HandleConn(ctx, c)
		}
	})
	if err = g.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// HandleConn serves a single client connection
// and blocks until it is closed.
func (s *Server) HandleConn(ctx context.Context, base net.Conn) {
	log := s.log.WithValues("remoteAddr", base.RemoteAddr().String())
	log.V(1).Info("new connection")
	s.events.Fire(&event.ConnectionEvent{RemoteAddr: base.RemoteAddr()})

	c := newConn(ctx, base, log)
	c.setSessionHandler(newHandshakeSessionHandler(c, s))
	c.readLoop()
}
