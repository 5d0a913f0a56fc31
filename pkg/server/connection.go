package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"

	"github.com/Tnze/go-mc/chat"
	"github.com/go-logr/logr"
	"go.uber.org/atomic"

	"github.com/quarrymc/quarry/pkg/proto"
	"github.com/quarrymc/quarry/pkg/proto/codec"
	"github.com/quarrymc/quarry/pkg/proto/state"
	"github.com/quarrymc/quarry/pkg/util/errs"
)

// sessionHandler handles the packets received on a connection.
//
// Since connections transition between states packets need to be handled
// differently, this behaviour is divided between sessions by session handlers.
type sessionHandler interface {
	handlePacket(pc *proto.PacketContext) // Called to handle incoming known or unknown packet.
	disconnected()                        // Called when the connection is closing, to teardown the session.

	activated()   // Called when the connection is now managed by this sessionHandler.
	deactivated() // Called when the connection is no longer managed by this sessionHandler.
}

// nopSessionHandler carries the no-op lifecycle hooks so a session
// handler only implements what it needs.
type nopSessionHandler struct{}

func (nopSessionHandler) handlePacket(*proto.PacketContext) {}
func (nopSessionHandler) disconnected()                     {}
func (nopSessionHandler) activated()                        {}
func (nopSessionHandler) deactivated()                      {}

// ErrClosedConn indicates a connection is already closed.
var ErrClosedConn = errors.New("connection is closed")

// conn is a single client connection.
// It is unusable after Close was called and must be recreated.
type conn struct {
	c   net.Conn    // underlying connection
	log logr.Logger // connection's own logger

	dec *codec.Decoder
	enc *codec.Encoder

	ctx             context.Context // is canceled when connection closed
	cancelCtx       context.CancelFunc
	closeOnce       sync.Once   // Makes sure the connection is closed once, while blocking proceeding calls.
	knownDisconnect atomic.Bool // Silences disconnect (any error is known)

	mu    sync.RWMutex    // Protects following fields
	state *state.Registry // Client state.

	sessionHandlerMu struct {
		sync.RWMutex
		sessionHandler // The current session handler.
	}
}

func newConn(ctx context.Context, base net.Conn, log logr.Logger) *conn {
	ctx, cancel := context.WithCancel(ctx)
	return &conn{
		c:         base,
		log:       log,
		ctx:       ctx,
		cancelCtx: cancel,
		dec:       codec.NewDecoder(base, proto.ServerBound, log.V(2)),
		enc:       codec.NewEncoder(base, proto.ClientBound, log.V(2)),
		state:     state.Handshake,
	}
}

// closed reports whether the connection is closed.
func (c *conn) closed() bool { return c.ctx.Err() != nil }

func (c *conn) Context() context.Context { return c.ctx }

// readLoop is the main goroutine of this connection and reads packets
// to pass them further to the current sessionHandler.
// close will be called on method return.
func (c *conn) readLoop() {
	// Make sure to close connection on return, if not already closed
	defer func() { _ = c.closeKnown(false) }()

	next := func() bool {
		pc, err := c.dec.Decode()
		if err != nil && !errors.Is(err, proto.ErrDecoderLeftBytes) {
			var silent *errs.SilentError
			if !errors.As(err, &silent) && !errs.IsConnClosedErr(err) {
				c.log.V(1).Info("error decoding next packet, closing connection", "err", err)
			}
			return false
		}

		// Handle packet by connection's session handler.
		c.sessionHandler().handlePacket(pc)
		return true
	}

	// Using two for loops to optimize for calling "defer, recover" less often
	// and be able to continue the loop in case of panic.

	cond := func() bool { return !c.closed() && next() }
	loop := func() (ok bool) {
		defer func() { // Catch any panics
			if r := recover(); r != nil {
				c.log.Error(nil, "recovered panic in packets read loop", "panic", r)
				ok = true // recovered, keep going
			}
		}()
		for cond() {
		}
		return false
	}

	for loop() {
	}
}

// WritePacket encodes and writes p to the underlying connection.
// The connection is closed on any error encountered.
func (c *conn) WritePacket(p proto.Packet) (err error) {
	if c.closed() {
		return ErrClosedConn
	}
	defer func() { c.closeOnWriteErr(err) }()
	return c.enc.WritePacket(p)
}

func (c *conn) closeOnWriteErr(err error) {
	if err == nil {
		return
	}
	_ = c.Close()
	if err == ErrClosedConn {
		return // Don't log this error
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && errs.IsConnClosedErr(opErr.Err) {
		return // Don't log this error
	}
	c.log.V(1).Info("error writing packet, closing connection", "err", err)
}

// Close closes the connection, if not already,
// and calls sessionHandler.disconnected.
// It is okay to call this method multiple times.
func (c *conn) Close() error {
	return c.closeKnown(true)
}

func (c *conn) closeKnown(markKnown bool) (err error) {
	alreadyClosed := true
	c.closeOnce.Do(func() {
		alreadyClosed = false
		if markKnown {
			c.knownDisconnect.Store(true)
		}

		c.cancelCtx()
		err = c.c.Close()

		if sh := c.sessionHandler(); sh != nil {
			sh.disconnected()
		}
	})
	if alreadyClosed {
		err = ErrClosedConn
	}
	return err
}

// closeWith closes the connection after writing the packet,
// marking the disconnect as server initiated.
func (c *conn) closeWith(p proto.Packet) error {
	if c.closed() {
		return ErrClosedConn
	}
	defer func() { _ = c.Close() }()
	c.knownDisconnect.Store(true)
	return c.WritePacket(p)
}

func (c *conn) RemoteAddr() net.Addr { return c.c.RemoteAddr() }

// State returns the current connection state.
func (c *conn) State() *state.Registry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// SetState switches the state of the connection's decoder and encoder.
func (c *conn) SetState(s *state.Registry) {
	c.mu.Lock()
	c.state = s
	c.dec.SetState(s)
	c.enc.SetState(s)
	c.mu.Unlock()
}

func (c *conn) sessionHandler() sessionHandler {
	c.sessionHandlerMu.RLock()
	defer c.sessionHandlerMu.RUnlock()
	return c.sessionHandlerMu.sessionHandler
}

// setSessionHandler sets the session handler for this connection and
// calls deactivated() on the old handler and activated() on the new one.
func (c *conn) setSessionHandler(handler sessionHandler) {
	c.sessionHandlerMu.Lock()
	defer c.sessionHandlerMu.Unlock()
	if c.sessionHandlerMu.sessionHandler != nil {
		c.sessionHandlerMu.sessionHandler.deactivated()
	}
	c.sessionHandlerMu.sessionHandler = handler
	handler.activated()
}

// setCompressionThreshold sets the compression threshold on the connection.
// The caller is responsible for sending packet.SetCompression beforehand.
func (c *conn) setCompressionThreshold(threshold, level int) error {
	c.log.V(1).Info("update compression", "threshold", threshold)
	c.dec.SetCompressionThreshold(threshold)
	return c.enc.SetCompression(threshold, level)
}

// enableEncryption takes the secret key negotiated between the client
// and the server to enable encryption on the connection.
func (c *conn) enableEncryption(secret []byte) error {
	rd, err := codec.NewDecryptReader(c.c, secret)
	if err != nil {
		return err
	}
	wr, err := codec.NewEncryptWriter(c.c, secret)
	if err != nil {
		return err
	}
	c.dec.SetReader(rd)
	c.enc.SetWriter(wr)
	return nil
}

// chatReason returns text as the JSON chat component
// carried by a disconnect packet.
func chatReason(text string) string {
	b, _ := json.Marshal(chat.Text(text))
	return string(b)
}
