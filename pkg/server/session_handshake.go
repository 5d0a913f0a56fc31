package server

import (
	"fmt"

	"github.com/go-logr/logr"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/packet"
	"github.com/quarrymc/quarry/pkg/proto/state"
)

type handshakeSessionHandler struct {
	conn *conn
	s    *Server
	log  logr.Logger

	nopSessionHandler
}

// newHandshakeSessionHandler returns a handler used for clients in the handshake state.
func newHandshakeSessionHandler(conn *conn, s *Server) sessionHandler {
	return &handshakeSessionHandler{conn: conn, s: s, log: conn.log.WithName("handshakeSession")}
}

func (h *handshakeSessionHandler) handlePacket(p *proto.PacketContext) {
	if !p.KnownPacket() {
		// Unknown packet received.
		// Better to close the connection.
		_ = h.conn.Close()
		return
	}
	switch typed := p.Packet.(type) {
	case *packet.Handshake:
		h.handleHandshake(typed)
	default:
		// Unknown packet received.
		// Better to close the connection.
		_ = h.conn.Close()
	}
}

func (h *handshakeSessionHandler) handleHandshake(handshake *packet.Handshake) {
	// The client sends the next wanted state in the Handshake packet.
	switch handshake.NextStatus {
	case packet.StatusHandshakeIntent:
		h.conn.SetState(state.Status)
		h.conn.setSessionHandler(newStatusSessionHandler(h.conn, h.s))
	case packet.LoginHandshakeIntent:
		// Client wants to join.
		h.conn.SetState(state.Login)
		if proto.Protocol(handshake.ProtocolVersion) != proto.Supported.Protocol {
			h.log.V(1).Info("client has unsupported protocol version, closing connection",
				"clientProtocol", handshake.ProtocolVersion)
			_ = h.conn.closeWith(&packet.Disconnect{Reason: chatReason(fmt.Sprintf(
				"This server only supports version %s.", proto.Supported.Name))})
			return
		}
		h.conn.setSessionHandler(newLoginSessionHandler(h.conn, h.s))
	default:
		h.log.V(1).Info("client provided invalid next status state, closing connection",
			"nextStatus", handshake.NextStatus)
		_ = h.conn.Close()
	}
}
