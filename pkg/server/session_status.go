package server

import (
	"github.com/go-logr/logr"

	"github.com/quarrymc/quarry/pkg/event"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/packet"
)

type statusSessionHandler struct {
	conn *conn
	s    *Server
	log  logr.Logger

	receivedRequest bool

	nopSessionHandler
}

func newStatusSessionHandler(conn *conn, s *Server) sessionHandler {
	return &statusSessionHandler{conn: conn, s: s, log: conn.log.WithName("statusSession")}
}

func (h *statusSessionHandler) activated() {
	h.log.V(1).Info("client requests status")
}

func (h *statusSessionHandler) handlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// What even is this?
		_ = h.conn.Close()
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.StatusRequest:
		h.handleStatusRequest()
	case *packet.StatusPing:
		h.handleStatusPing(p)
	default:
		// unexpected packet, simply close
		_ = h.conn.Close()
	}
}

func (h *statusSessionHandler) handleStatusRequest() {
	if h.receivedRequest {
		// Already sent response, the sequence is over.
		_ = h.conn.Close()
		return
	}
	h.receivedRequest = true

	if h.conn.WritePacket(&packet.StatusResponse{Status: h.s.status}) == nil {
		h.s.events.Fire(&event.PingEvent{
			RemoteAddr: h.conn.RemoteAddr(),
			Status:     h.s.status,
		})
	}
}

func (h *statusSessionHandler) handleStatusPing(p *packet.StatusPing) {
	// The sequence of one status request and one ping is done,
	// the client closes the connection after the pong anyways.
	defer func() { _ = h.conn.Close() }()
	if err := h.conn.WritePacket(p); err != nil {
		h.log.V(1).Info("error writing pong", "err", err)
	}
}
