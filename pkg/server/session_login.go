package server

import (
	"net"

	"github.com/go-logr/logr"

	"github.com/quarrymc/quarry/pkg/event"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/packet"
	"github.com/quarrymc/quarry/pkg/proto/state"
	"github.com/quarrymc/quarry/pkg/util/uuid"
)

type loginSessionHandler struct {
	conn *conn
	s    *Server
	log  logr.Logger

	username    string
	verifyToken []byte

	nopSessionHandler
}

func newLoginSessionHandler(conn *conn, s *Server) sessionHandler {
	return &loginSessionHandler{conn: conn, s: s, log: conn.log.WithName("loginSession")}
}

func (l *loginSessionHandler) handlePacket(pc *proto.PacketContext) {
	if !pc.KnownPacket() {
		// Unknown packet in the login state is a protocol violation.
		_ = l.conn.Close()
		return
	}
	switch p := pc.Packet.(type) {
	case *packet.ServerLogin:
		l.handleServerLogin(p)
	case *packet.EncryptionResponse:
		l.handleEncryptionResponse(p)
	default:
		_ = l.conn.Close()
	}
}

func (l *loginSessionHandler) handleServerLogin(p *packet.ServerLogin) {
	if l.username != "" {
		// Login already started.
		_ = l.conn.Close()
		return
	}
	l.username = p.Username

	if !l.s.cfg.OnlineMode {
		// In offline mode the identity is derived from the username alone.
		l.finishLogin(uuid.OfflinePlayerUUID(p.Username), p.Username, false)
		return
	}

	// Online mode: negotiate encryption before asking the
	// session service whether this user has joined.
	token, err := l.s.auth.NewVerifyToken()
	if err != nil {
		l.log.Error(err, "error generating verify token")
		_ = l.conn.Close()
		return
	}
	l.verifyToken = token
	err = l.conn.WritePacket(&packet.EncryptionRequest{
		PublicKey:   l.s.auth.PublicKey(),
		VerifyToken: token,
	})
	if err != nil {
		l.log.V(1).Info("error sending encryption request", "err", err)
	}
}

func (l *loginSessionHandler) handleEncryptionResponse(p *packet.EncryptionResponse) {
	if l.username == "" || l.verifyToken == nil {
		// No encryption was requested, the client is well behind.
		_ = l.conn.Close()
		return
	}

	authn := l.s.auth
	valid, err := authn.Verify(p.VerifyToken, l.verifyToken)
	if err != nil || !valid {
		// The verify token did not come back intact, so the shared
		// secret cannot be trusted either. No cipher is installed.
		l.disconnect("Invalid verify token.")
		return
	}

	secret, err := authn.DecryptSharedSecret(p.SharedSecret)
	if err != nil {
		l.disconnect("Invalid shared secret.")
		return
	}
	if err = l.conn.enableEncryption(secret); err != nil {
		l.log.Error(err, "error enabling encryption")
		_ = l.conn.Close()
		return
	}

	serverID, err := authn.GenerateServerID(secret)
	if err != nil {
		l.disconnect("Error verifying your session.")
		return
	}

	userIP, _, _ := net.SplitHostPort(l.conn.RemoteAddr().String())
	resp, err := authn.AuthenticateJoin(l.conn.Context(), serverID, l.username, userIP)
	if err != nil {
		l.disconnect("Error verifying your session.")
		return
	}
	if !resp.OnlineMode() {
		// The session service has no join for this user.
		l.disconnect("Your session is invalid, restart your game.")
		return
	}
	profile, err := resp.GameProfile()
	if err != nil {
		l.disconnect("Error verifying your session.")
		return
	}
	l.finishLogin(profile.ID, profile.Name, true)
}

func (l *loginSessionHandler) finishLogin(id uuid.UUID, username string, onlineMode bool) {
	// Enable compression before the login success packet so the large
	// play-state packets already use the compressed frame format.
	if threshold := l.s.cfg.Compression.Threshold; threshold >= 0 {
		if err := l.conn.WritePacket(&packet.SetCompression{Threshold: threshold}); err != nil {
			return
		}
		if err := l.conn.setCompressionThreshold(threshold, l.s.cfg.Compression.Level); err != nil {
			l.log.Error(err, "error enabling compression")
			_ = l.conn.Close()
			return
		}
	}

	if l.conn.WritePacket(&packet.ServerLoginSuccess{UUID: id, Username: username}) != nil {
		return
	}
	l.log.Info("player logged in", "username", username, "id", id, "onlineMode", onlineMode)
	l.s.events.Fire(&event.LoginEvent{
		Username:   username,
		ID:         id,
		OnlineMode: onlineMode,
		RemoteAddr: l.conn.RemoteAddr(),
	})

	l.conn.SetState(state.Play)
	l.conn.setSessionHandler(newPlaySessionHandler(l.conn, l.s, id, username))
}

func (l *loginSessionHandler) disconnect(reason string) {
	_ = l.conn.closeWith(&packet.Disconnect{Reason: chatReason(reason)})
}
