package state

import (
	p "github.com/quarrymc/quarry/pkg/proto/packet"
)

// The connection states of the protocol.
var (
	Handshake = NewRegistry("Handshake")
	Status    = NewRegistry("Status")
	Login     = NewRegistry("Login")
	Play      = NewRegistry("Play")
)

func init() {
	Handshake.ServerBound.Register(&p.Handshake{}, 0x00)

	Status.ServerBound.Register(&p.StatusRequest{}, 0x00)
	Status.ServerBound.Register(&p.StatusPing{}, 0x01)
	Status.ClientBound.Register(&p.StatusResponse{}, 0x00)
	Status.ClientBound.Register(&p.StatusPing{}, 0x01)

	Login.ServerBound.Register(&p.ServerLogin{}, 0x00)
	Login.ServerBound.Register(&p.EncryptionResponse{}, 0x01)
	Login.ClientBound.Register(&p.Disconnect{}, 0x00)
	Login.ClientBound.Register(&p.EncryptionRequest{}, 0x01)
	Login.ClientBound.Register(&p.ServerLoginSuccess{}, 0x02)
	Login.ClientBound.Register(&p.SetCompression{}, 0x03)

	Play.ServerBound.Register(&p.TeleportConfirm{}, 0x00)
	Play.ServerBound.Register(&p.ClientSettings{}, 0x05)
	Play.ServerBound.Register(&p.PluginMessage{}, 0x0A)
	Play.ServerBound.Register(&p.KeepAlive{}, 0x0F)
	Play.ServerBound.Register(&p.PlayerPosition{}, 0x11)
	Play.ServerBound.Register(&p.PlayerPositionAndRotation{}, 0x12)
	Play.ServerBound.Register(&p.PlayerRotation{}, 0x13)

	Play.ClientBound.Register(&p.BlockEntityData{}, 0x0A)
	Play.ClientBound.Register(&p.PluginMessage{}, 0x18)
	Play.ClientBound.Register(&p.Disconnect{}, 0x1A)
	Play.ClientBound.Register(&p.KeepAlive{}, 0x21)
	Play.ClientBound.Register(&p.ChunkData{}, 0x22)
	Play.ClientBound.Register(&p.UpdateLight{}, 0x25)
	Play.ClientBound.Register(&p.JoinGame{}, 0x26)
	Play.ClientBound.Register(&p.PlayerPositionAndLook{}, 0x38)
	Play.ClientBound.Register(&p.UpdateViewPosition{}, 0x49)
}
