package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
	"github.com/quarrymc/quarry/pkg/util/uuid"
)

// ServerLogin starts the login phase with the player's claimed username.
type ServerLogin struct {
	Username string
}

const maxUsernameLen = 16

func (s *ServerLogin) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteStringMax(wr, s.Username, maxUsernameLen)
}

func (s *ServerLogin) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	return
}

// EncryptionRequest begins the encryption handshake for online-mode logins.
type EncryptionRequest struct {
	ServerID    string
	PublicKey   []byte // DER encoded RSA public key
	VerifyToken []byte
}

func (e *EncryptionRequest) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, e.ServerID)
	if err != nil {
		return err
	}
	err = util.WriteBytes(wr, e.PublicKey)
	if err != nil {
		return err
	}
	return util.WriteBytes(wr, e.VerifyToken)
}

func (e *EncryptionRequest) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	e.ServerID, err = util.ReadString(rd)
	if err != nil {
		return err
	}
	e.PublicKey, err = util.ReadBytes(rd)
	if err != nil {
		return err
	}
	e.VerifyToken, err = util.ReadBytes(rd)
	return
}

// EncryptionResponse answers an EncryptionRequest. Both fields
// are encrypted with the server's public key.
type EncryptionResponse struct {
	SharedSecret []byte
	VerifyToken  []byte
}

func (e *EncryptionResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteBytes(wr, e.SharedSecret)
	if err != nil {
		return err
	}
	return util.WriteBytes(wr, e.VerifyToken)
}

func (e *EncryptionResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	e.SharedSecret, err = util.ReadBytesLen(rd, 256)
	if err != nil {
		return err
	}
	e.VerifyToken, err = util.ReadBytesLen(rd, 128)
	return
}

// ServerLoginSuccess completes the login phase; the connection
// switches to the play state immediately after.
type ServerLoginSuccess struct {
	UUID     uuid.UUID
	Username string
}

func (s *ServerLoginSuccess) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteUUID(wr, s.UUID)
	if err != nil {
		return err
	}
	return util.WriteStringMax(wr, s.Username, maxUsernameLen)
}

func (s *ServerLoginSuccess) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.UUID, err = util.ReadUUID(rd)
	if err != nil {
		return err
	}
	s.Username, err = util.ReadStringMax(rd, maxUsernameLen)
	return
}

// SetCompression announces the compression threshold. All frames
// after this packet use the compressed frame format.
type SetCompression struct {
	Threshold int
}

func (s *SetCompression) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, s.Threshold)
}

func (s *SetCompression) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Threshold, err = util.ReadVarInt(rd)
	return
}

// Disconnect kicks the client with a JSON chat component reason.
type Disconnect struct {
	Reason string
}

func (d *Disconnect) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, d.Reason)
}

func (d *Disconnect) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	d.Reason, err = util.ReadString(rd)
	return
}

var (
	_ proto.Packet = (*ServerLogin)(nil)
	_ proto.Packet = (*EncryptionRequest)(nil)
	_ proto.Packet = (*EncryptionResponse)(nil)
	_ proto.Packet = (*ServerLoginSuccess)(nil)
	_ proto.Packet = (*SetCompression)(nil)
	_ proto.Packet = (*Disconnect)(nil)
)
