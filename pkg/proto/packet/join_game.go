package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// JoinGame switches the client into the play state and describes
// the world it is joining. The dimension codec and dimension are
// structured data trees sent inline.
type JoinGame struct {
	EntityID            int32
	Hardcore            bool
	Gamemode            byte
	PreviousGamemode    int8 // -1 if no previous gamemode
	DimensionNames      []string
	DimensionCodec      nbt.Compound
	Dimension           nbt.Compound
	DimensionName       string
	HashedSeed          int64
	MaxPlayers          int
	ViewDistance        int
	SimulationDistance  int
	ReducedDebugInfo    bool
	EnableRespawnScreen bool
	IsDebug             bool
	IsFlat              bool
}

func (j *JoinGame) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteInt32(wr, j.EntityID); err != nil {
		return err
	}
	if err := util.WriteBool(wr, j.Hardcore); err != nil {
		return err
	}
	if err := util.WriteByte(wr, j.Gamemode); err != nil {
		return err
	}
	if err := util.WriteInt8(wr, j.PreviousGamemode); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, len(j.DimensionNames)); err != nil {
		return err
	}
	for _, name := range j.DimensionNames {
		if err := util.WriteString(wr, name); err != nil {
			return err
		}
	}
	if err := nbt.Write(wr, "", j.DimensionCodec); err != nil {
		return err
	}
	if err := nbt.Write(wr, "", j.Dimension); err != nil {
		return err
	}
	if err := util.WriteString(wr, j.DimensionName); err != nil {
		return err
	}
	if err := util.WriteInt64(wr, j.HashedSeed); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, j.MaxPlayers); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, j.ViewDistance); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, j.SimulationDistance); err != nil {
		return err
	}
	if err := util.WriteBool(wr, j.ReducedDebugInfo); err != nil {
		return err
	}
	if err := util.WriteBool(wr, j.EnableRespawnScreen); err != nil {
		return err
	}
	if err := util.WriteBool(wr, j.IsDebug); err != nil {
		return err
	}
	return util.WriteBool(wr, j.IsFlat)
}

func (j *JoinGame) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if j.EntityID, err = util.ReadInt32(rd); err != nil {
		return
	}
	if j.Hardcore, err = util.ReadBool(rd); err != nil {
		return
	}
	if j.Gamemode, err = util.ReadByte(rd); err != nil {
		return
	}
	if j.PreviousGamemode, err = util.ReadInt8(rd); err != nil {
		return
	}
	count, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	j.DimensionNames = make([]string, 0, count)
	for i := 0; i < count; i++ {
		name, err := util.ReadString(rd)
		if err != nil {
			return err
		}
		j.DimensionNames = append(j.DimensionNames, name)
	}
	if _, j.DimensionCodec, err = nbt.Read(rd); err != nil {
		return
	}
	if _, j.Dimension, err = nbt.Read(rd); err != nil {
		return
	}
	if j.DimensionName, err = util.ReadString(rd); err != nil {
		return
	}
	if j.HashedSeed, err = util.ReadInt64(rd); err != nil {
		return
	}
	if j.MaxPlayers, err = util.ReadVarInt(rd); err != nil {
		return
	}
	if j.ViewDistance, err = util.ReadVarInt(rd); err != nil {
		return
	}
	if j.SimulationDistance, err = util.ReadVarInt(rd); err != nil {
		return
	}
	if j.ReducedDebugInfo, err = util.ReadBool(rd); err != nil {
		return
	}
	if j.EnableRespawnScreen, err = util.ReadBool(rd); err != nil {
		return
	}
	if j.IsDebug, err = util.ReadBool(rd); err != nil {
		return
	}
	j.IsFlat, err = util.ReadBool(rd)
	return
}

var _ proto.Packet = (*JoinGame)(nil)
