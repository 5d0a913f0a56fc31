package packet

import (
	"io"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/util"
)

// KeepAlive carries an id the client must echo back verbatim.
// Used in both directions during the play state.
type KeepAlive struct {
	RandomID int64
}

func (k *KeepAlive) Encode(_ *proto.PacketContext, wr io.Writer) error {
	return util.WriteInt64(wr, k.RandomID)
}

func (k *KeepAlive) Decode(_ *proto.PacketContext, rd io.Reader) (err error) {
	k.RandomID, err = util.ReadInt64(rd)
	return
}

var _ proto.Packet = (*KeepAlive)(nil)
