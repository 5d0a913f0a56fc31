package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/nbt"
	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// ChunkData sends one full chunk column with its light data.
// Data holds the pre-serialized chunk sections.
type ChunkData struct {
	ChunkX, ChunkZ int32
	Heightmaps     nbt.Compound
	Data           []byte
	BlockEntities  []ChunkBlockEntity
	Light          LightData
}

// ChunkBlockEntity is a block entity embedded in a chunk packet.
// X and Z are coordinates relative to the chunk's origin.
type ChunkBlockEntity struct {
	X, Z int8
	Y    int16
	Type int
	Data nbt.Compound
}

// LightData is the light section shared by ChunkData and UpdateLight.
type LightData struct {
	TrustEdges          bool
	SkyLightMask        []int64
	BlockLightMask      []int64
	EmptySkyLightMask   []int64
	EmptyBlockLightMask []int64
	SkyLight            [][]byte // 2048 bytes per set mask bit
	BlockLight          [][]byte
}

func (c *ChunkData) Encode(_ *proto.PacketContext, wr io.Writer) error {
	if err := util.WriteInt32(wr, c.ChunkX); err != nil {
		return err
	}
	if err := util.WriteInt32(wr, c.ChunkZ); err != nil {
		return err
	}
	if err := nbt.Write(wr, "", c.Heightmaps); err != nil {
		return err
	}
	if err := util.WriteBytes(wr, c.Data); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, len(c.BlockEntities)); err != nil {
		return err
	}
	for _, be := range c.BlockEntities {
		if err := be.encode(wr); err != nil {
			return err
		}
	}
	return c.Light.encode(wr)
}

func (c *ChunkData) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	if c.ChunkX, err = util.ReadInt32(rd); err != nil {
		return
	}
	if c.ChunkZ, err = util.ReadInt32(rd); err != nil {
		return
	}
	if _, c.Heightmaps, err = nbt.Read(rd); err != nil {
		return
	}
	if c.Data, err = util.ReadBytesLen(rd, 1<<21); err != nil {
		return
	}
	count, err := util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	c.BlockEntities = make([]ChunkBlockEntity, count)
	for i := range c.BlockEntities {
		if err = c.BlockEntities[i].decode(rd); err != nil {
			return
		}
	}
	return c.Light.decode(rd)
}

func (b *ChunkBlockEntity) encode(wr io.Writer) error {
	// x and z packed into one byte
	if err := util.WriteByte(wr, byte(b.X<<4)|byte(b.Z&0xF)); err != nil {
		return err
	}
	if err := util.WriteInt16(wr, b.Y); err != nil {
		return err
	}
	if err := util.WriteVarInt(wr, b.Type); err != nil {
		return err
	}
	return nbt.Write(wr, "", b.Data)
}

func (b *ChunkBlockEntity) decode(rd io.Reader) (err error) {
	xz, err := util.ReadByte(rd)
	if err != nil {
		return
	}
	b.X, b.Z = int8(xz>>4), int8(xz&0xF)
	if b.Y, err = util.ReadInt16(rd); err != nil {
		return
	}
	if b.Type, err = util.ReadVarInt(rd); err != nil {
		return
	}
	_, b.Data, err = nbt.Read(rd)
	return
}

func (l *LightData) encode(wr io.Writer) error {
	if err := util.WriteBool(wr, l.TrustEdges); err != nil {
		return err
	}
	for _, mask := range [][]int64{
		l.SkyLightMask, l.BlockLightMask,
		l.EmptySkyLightMask, l.EmptyBlockLightMask,
	} {
		if err := writeLongArray(wr, mask); err != nil {
			return err
		}
	}
	if err := writeLightArrays(wr, l.SkyLight); err != nil {
		return err
	}
	return writeLightArrays(wr, l.BlockLight)
}

func (l *LightData) decode(rd io.Reader) (err error) {
	if l.TrustEdges, err = util.ReadBool(rd); err != nil {
		return
	}
	for _, mask := range []*[]int64{
		&l.SkyLightMask, &l.BlockLightMask,
		&l.EmptySkyLightMask, &l.EmptyBlockLightMask,
	} {
		if *mask, err = readLongArray(rd); err != nil {
			return
		}
	}
	if l.SkyLight, err = readLightArrays(rd); err != nil {
		return
	}
	l.BlockLight, err = readLightArrays(rd)
	return
}

func writeLongArray(wr io.Writer, a []int64) error {
	if err := util.WriteVarInt(wr, len(a)); err != nil {
		return err
	}
	for _, v := range a {
		if err := util.WriteInt64(wr, v); err != nil {
			return err
		}
	}
	return nil
}

func readLongArray(rd io.Reader) (a []int64, err error) {
	n, err := util.ReadVarInt(rd)
	if err != nil || n == 0 {
		return nil, err
	}
	if n < 0 || n > 4096 {
		return nil, errInvalidArrayLen(n)
	}
	a = make([]int64, n)
	for i := range a {
		if a[i], err = util.ReadInt64(rd); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func writeLightArrays(wr io.Writer, arrays [][]byte) error {
	if err := util.WriteVarInt(wr, len(arrays)); err != nil {
		return err
	}
	for _, a := range arrays {
		if err := util.WriteBytes(wr, a); err != nil {
			return err
		}
	}
	return nil
}

func readLightArrays(rd io.Reader) (arrays [][]byte, err error) {
	n, err := util.ReadVarInt(rd)
	if err != nil || n == 0 {
		return nil, err
	}
	if n < 0 || n > 4096 {
		return nil, errInvalidArrayLen(n)
	}
	arrays = make([][]byte, n)
	for i := range arrays {
		if arrays[i], err = util.ReadBytesLen(rd, 2048); err != nil {
			return nil, err
		}
	}
	return arrays, nil
}

var _ proto.Packet = (*ChunkData)(nil)
