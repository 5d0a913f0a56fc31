package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// StatusRequest asks for the server list ping response.
type StatusRequest struct{}

func (s *StatusRequest) Encode(_ *proto.PacketContext, _ io.Writer) error { return nil }
func (s *StatusRequest) Decode(_ *proto.PacketContext, _ io.Reader) error { return nil }

// StatusResponse carries the server list ping response as a JSON document.
type StatusResponse struct {
	Status string
}

func (s *StatusResponse) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteString(wr, s.Status)
}

func (s *StatusResponse) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.Status, err = util.ReadString(rd)
	return
}

// StatusPing is echoed back unmodified as the ping's pong.
type StatusPing struct {
	RandomID int64
}

func (s *StatusPing) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, s.RandomID)
}

func (s *StatusPing) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	s.RandomID, err = util.ReadInt64(rd)
	return
}

var (
	_ proto.Packet = (*StatusRequest)(nil)
	_ proto.Packet = (*StatusResponse)(nil)
	_ proto.Packet = (*StatusPing)(nil)
)
