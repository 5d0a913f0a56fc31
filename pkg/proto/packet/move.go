package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// TeleportConfirm acknowledges a teleport by its id.
type TeleportConfirm struct {
	TeleportID int
}

func (t *TeleportConfirm) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteVarInt(wr, t.TeleportID)
}

func (t *TeleportConfirm) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	t.TeleportID, err = util.ReadVarInt(rd)
	return
}

// PlayerPosition updates the player's position without rotation.
type PlayerPosition struct {
	X, Y, Z  float64
	OnGround bool
}

func (p *PlayerPosition) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := writeDoubles(wr, p.X, p.Y, p.Z); err != nil {
		return err
	}
	return util.WriteBool(wr, p.OnGround)
}

func (p *PlayerPosition) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if p.X, p.Y, p.Z, err = readDoubles(rd); err != nil {
		return
	}
	p.OnGround, err = util.ReadBool(rd)
	return
}

// PlayerPositionAndRotation updates both position and rotation.
type PlayerPositionAndRotation struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	OnGround   bool
}

func (p *PlayerPositionAndRotation) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := writeDoubles(wr, p.X, p.Y, p.Z); err != nil {
		return err
	}
	if err := util.WriteFloat32(wr, p.Yaw); err != nil {
		return err
	}
	if err := util.WriteFloat32(wr, p.Pitch); err != nil {
		return err
	}
	return util.WriteBool(wr, p.OnGround)
}

func (p *PlayerPositionAndRotation) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if p.X, p.Y, p.Z, err = readDoubles(rd); err != nil {
		return
	}
	if p.Yaw, err = util.ReadFloat32(rd); err != nil {
		return
	}
	if p.Pitch, err = util.ReadFloat32(rd); err != nil {
		return
	}
	p.OnGround, err = util.ReadBool(rd)
	return
}

// PlayerRotation updates the player's rotation only.
type PlayerRotation struct {
	Yaw, Pitch float32
	OnGround   bool
}

func (p *PlayerRotation) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteFloat32(wr, p.Yaw); err != nil {
		return err
	}
	if err := util.WriteFloat32(wr, p.Pitch); err != nil {
		return err
	}
	return util.WriteBool(wr, p.OnGround)
}

func (p *PlayerRotation) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if p.Yaw, err = util.ReadFloat32(rd); err != nil {
		return
	}
	if p.Pitch, err = util.ReadFloat32(rd); err != nil {
		return
	}
	p.OnGround, err = util.ReadBool(rd)
	return
}

// PlayerPositionAndLook teleports the client. The client must
// confirm the teleport id with a TeleportConfirm.
type PlayerPositionAndLook struct {
	X, Y, Z    float64
	Yaw, Pitch float32
	Flags      byte // relative coordinate bitmask
	TeleportID int
	Dismount   bool
}

func (p *PlayerPositionAndLook) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := writeDoubles(wr, p.X, p.Y, p.Z); err != nil {
		return err
	}
	if err := util.WriteFloat32(wr, p.Yaw); err != nil {
		return err
	}
	if err := util.WriteFloat32(wr, p.Pitch); err != nil {
		return err
	}
	if err := util.WriteByte(wr, p.Flags); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, p.TeleportID); err != nil {
		return err
	}
	return util.WriteBool(wr, p.Dismount)
}

func (p *PlayerPositionAndLook) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if p.X, p.Y, p.Z, err = readDoubles(rd); err != nil {
		return
	}
	if p.Yaw, err = util.ReadFloat32(rd); err != nil {
		return
	}
	if p.Pitch, err = util.ReadFloat32(rd); err != nil {
		return
	}
	if p.Flags, err = util.ReadByte(rd); err != nil {
		return
	}
	if p.TeleportID, err = util.ReadVarInt(rd); err != nil {
		return
	}
	p.Dismount, err = util.ReadBool(rd)
	return
}

// UpdateViewPosition recenters the client's loaded chunk area.
type UpdateViewPosition struct {
	ChunkX, ChunkZ int
}

func (u *UpdateViewPosition) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteVarInt(wr, u.ChunkX); err != nil {
		return err
	}
	return util.WriteVarInt(wr, u.ChunkZ)
}

func (u *UpdateViewPosition) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if u.ChunkX, err = util.ReadVarInt(rd); err != nil {
		return
	}
	u.ChunkZ, err = util.ReadVarInt(rd)
	return
}

func writeDoubles(wr io.Writer, vals ...float64) error {
	for _, v := range vals {
		if err := util.WriteFloat64(wr, v); err != nil {
			return err
		}
	}
	return nil
}

func readDoubles(rd io.Reader) (x, y, z float64, err error) {
	if x, err = util.ReadFloat64(rd); err != nil {
		return
	}
	if y, err = util.ReadFloat64(rd); err != nil {
		return
	}
	z, err = util.ReadFloat64(rd)
	return
}

var (
	_ proto.Packet = (*TeleportConfirm)(nil)
	_ proto.Packet = (*PlayerPosition)(nil)
	_ proto.Packet = (*PlayerPositionAndRotation)(nil)
	_ proto.Packet = (*PlayerRotation)(nil)
	_ proto.Packet = (*PlayerPositionAndLook)(nil)
	_ proto.Packet = (*UpdateViewPosition)(nil)
)
