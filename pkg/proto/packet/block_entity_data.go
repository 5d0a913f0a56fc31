package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// BlockEntityData sets the data of a single block entity,
// e.g. a sign's text.
type BlockEntityData struct {
	X, Y, Z int
	Type    int
	Data    nbt.Compound
}

func (b *BlockEntityData) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WritePosition(wr, b.X, b.Y, b.Z); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, b.Type); err != nil {
		return err
	}
	return nbt.Write(wr, "", b.Data)
}

func (b *BlockEntityData) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if b.X, b.Y, b.Z, err = util.ReadPosition(rd); err != nil {
		return
	}
	if b.Type, err = util.ReadVarInt(rd); err != nil {
		return
	}
	_, b.Data, err = nbt.Read(rd)
	return
}

var _ proto.Packet = (*BlockEntityData)(nil)
