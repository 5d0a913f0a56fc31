package packet

import (
	"bytes"
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// BrandChannel is the channel the server announces its brand on.
const BrandChannel = "minecraft:brand"

// PluginMessage is a custom payload on a named channel.
type PluginMessage struct {
	Channel string
	Data    []byte
}

func (p *PluginMessage) Encode(_ *proto.PacketContext, wr io.Writer) error {
	err := util.WriteString(wr, p.Channel)
	if err != nil {
		return err
	}
	return util.WriteRawBytes(wr, p.Data)
}

func (p *PluginMessage) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	p.Channel, err = util.ReadString(rd)
	if err != nil {
		return err
	}
	p.Data, err = util.ReadRawBytes(rd)
	return
}

// NewBrandMessage returns the brand announcement sent
// right after joining the game. The payload is a string
// with its own length prefix.
func NewBrandMessage(brand string) *PluginMessage {
	buf := new(bytes.Buffer)
	_ = util.WriteString(buf, brand)
	return &PluginMessage{Channel: BrandChannel, Data: buf.Bytes()}
}

var _ proto.Packet = (*PluginMessage)(nil)
