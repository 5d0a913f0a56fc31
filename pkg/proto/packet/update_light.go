package packet

import (
	"fmt"
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// UpdateLight refreshes a chunk column's light data.
type UpdateLight struct {
	ChunkX, ChunkZ int
	Light          LightData
}

func (u *UpdateLight) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, u.ChunkX); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, u.ChunkZ); err != nil {
		return err
	}
	return u.Light.encode(wr)
}

func (u *UpdateLight) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if u.ChunkX, err = util.ReadVarInt(rd); err != nil {
		return
	}
	if u.ChunkZ, err = util.ReadVarInt(rd); err != nil {
		return
	}
	return u.Light.decode(rd)
}

func errInvalidArrayLen(n int) error {
	return fmt.Errorf("invalid array length %d", n)
}

var _ proto.Packet = (*UpdateLight)(nil)
