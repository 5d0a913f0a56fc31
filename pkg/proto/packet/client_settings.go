package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// ClientSettings announces the client's locale and display options.
type ClientSettings struct {
	Locale              string
	ViewDistance        int8
	ChatMode            int
	ChatColors          bool
	DisplayedSkinParts  byte
	MainHand            int
	EnableTextFiltering bool
	AllowServerListings bool
}

func (c *ClientSettings) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteStringMax(wr, c.Locale, 16)
	if err != nil {
		return err
	}
	err = util.WriteInt8(wr, c.ViewDistance)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, c.ChatMode)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, c.ChatColors)
	if err != nil {
		return err
	}
	err = util.WriteByte(wr, c.DisplayedSkinParts)
	if err != nil {
		return err
	}
	err = util.WriteVarInt(wr, c.MainHand)
	if err != nil {
		return err
	}
	err = util.WriteBool(wr, c.EnableTextFiltering)
	if err != nil {
		return err
	}
	return util.WriteBool(wr, c.AllowServerListings)
}

func (c *ClientSettings) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	c.Locale, err = util.ReadStringMax(rd, 16)
	if err != nil {
		return err
	}
	c.ViewDistance, err = util.ReadInt8(rd)
	if err != nil {
		return err
	}
	c.ChatMode, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	c.ChatColors, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	c.DisplayedSkinParts, err = util.ReadByte(rd)
	if err != nil {
		return err
	}
	c.MainHand, err = util.ReadVarInt(rd)
	if err != nil {
		return err
	}
	c.EnableTextFiltering, err = util.ReadBool(rd)
	if err != nil {
		return err
	}
	c.AllowServerListings, err = util.ReadBool(rd)
	return
}

var _ proto.Packet = (*ClientSettings)(nil)
