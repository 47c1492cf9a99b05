// Package reflector implements the M17 reflector client protocol
// (§4.M): a small UDP state machine exchanging CONN/ACKN/NACK/PING/
// PONG/DISC datagrams plus framed M17 IP frames with a reflector
// server, modelled on the PEER-mode login/keepalive state machine of
// a DMR master client.
package reflector

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/m17-go/m17/pkg/address"
	"github.com/m17-go/m17/pkg/frame"
	"github.com/m17-go/m17/pkg/m17err"
)

// State is the connection lifecycle state of a Client.
type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateError
)

// String renders the state name for logging.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// 4-byte message prefixes, per §4.M.
var (
	prefixCONN = [4]byte{'C', 'O', 'N', 'N'}
	prefixACKN = [4]byte{'A', 'C', 'K', 'N'}
	prefixNACK = [4]byte{'N', 'A', 'C', 'K'}
	prefixPING = [4]byte{'P', 'I', 'N', 'G'}
	prefixPONG = [4]byte{'P', 'O', 'N', 'G'}
	prefixDISC = [4]byte{'D', 'I', 'S', 'C'}
)

// DefaultConnectTimeout is applied when Config.ConnectTimeout is zero.
const DefaultConnectTimeout = 5 * time.Second

// DefaultPollInterval governs how often the receive loop checks for
// context cancellation between ReadFromUDP calls.
const DefaultPollInterval = 100 * time.Millisecond

// Config configures a reflector Client.
type Config struct {
	Callsign       string
	Host           string
	Port           int
	Module         byte // A-Z
	ConnectTimeout time.Duration
	PollInterval   time.Duration
}

// FrameHandler receives M17 IP frames dispatched from the reflector.
type FrameHandler func(*frame.IPFrame)

// Client is a single-socket, stateful UDP client for one reflector
// connection. The receive loop and send_frame calls share one
// *net.UDPConn; UDP send/recv on one fd may be interleaved safely on
// POSIX, so no mutex guards the socket itself — only the state field
// is synchronized.
type Client struct {
	cfg Config

	srcAddr address.Address

	conn       *net.UDPConn
	serverAddr *net.UDPAddr

	stateMu sync.RWMutex
	state   State

	handlerMu sync.RWMutex
	handler   FrameHandler
}

// New constructs a Client for the given configuration. The module
// must be a single uppercase ASCII letter.
func New(cfg Config) (*Client, error) {
	if cfg.Module < 'A' || cfg.Module > 'Z' {
		return nil, fmt.Errorf("%w: module must be a single uppercase letter, got %q", m17err.ErrInvalidInput, cfg.Module)
	}
	srcAddr, err := address.Encode(cfg.Callsign)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = DefaultConnectTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Client{
		cfg:     cfg,
		srcAddr: srcAddr,
		state:   StateDisconnected,
	}, nil
}

// OnFrame sets the callback invoked for every received M17 IP frame.
func (c *Client) OnFrame(h FrameHandler) {
	c.handlerMu.Lock()
	c.handler = h
	c.handlerMu.Unlock()
}

// State reports the current connection state.
func (c *Client) State() State {
	c.stateMu.RLock()
	defer c.stateMu.RUnlock()
	return c.state
}

func (c *Client) setState(s State) {
	c.stateMu.Lock()
	c.state = s
	c.stateMu.Unlock()
}

// Connect dials the reflector, sends CONN, and blocks for ACKN/NACK
// (or the configured timeout). On success the receive loop is started
// in the background, scoped to ctx.
func (c *Client) Connect(ctx context.Context) error {
	serverAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%d", c.cfg.Host, c.cfg.Port))
	if err != nil {
		return fmt.Errorf("%w: resolve reflector address: %v", m17err.ErrConnection, err)
	}
	c.serverAddr = serverAddr

	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return fmt.Errorf("%w: open socket: %v", m17err.ErrConnection, err)
	}
	c.conn = conn

	c.setState(StateConnecting)

	if err := c.sendConn(); err != nil {
		conn.Close()
		c.setState(StateError)
		return err
	}

	if err := c.awaitAck(); err != nil {
		conn.Close()
		c.setState(StateError)
		return err
	}

	c.setState(StateConnected)
	go c.receiveLoop(ctx)
	return nil
}

func (c *Client) sendConn() error {
	msg := make([]byte, 0, 11)
	msg = append(msg, prefixCONN[:]...)
	addrBytes := c.srcAddr.Bytes()
	msg = append(msg, addrBytes[:]...)
	msg = append(msg, c.cfg.Module)
	_, err := c.conn.WriteToUDP(msg, c.serverAddr)
	if err != nil {
		return fmt.Errorf("%w: send CONN: %v", m17err.ErrConnection, err)
	}
	return nil
}

// awaitAck blocks on the socket until ACKN, NACK, or the connect
// timeout elapses. Any other datagram received while CONNECTING is
// ignored (but would be logged by a caller wrapping with a logger).
func (c *Client) awaitAck() error {
	deadline := time.Now().Add(c.cfg.ConnectTimeout)
	buf := make([]byte, 2048)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return fmt.Errorf("%w: timed out awaiting ACKN", m17err.ErrConnection)
		}
		c.conn.SetReadDeadline(time.Now().Add(remaining))
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				return fmt.Errorf("%w: timed out awaiting ACKN", m17err.ErrConnection)
			}
			return fmt.Errorf("%w: %v", m17err.ErrConnection, err)
		}
		if n < 4 {
			continue
		}
		switch {
		case matchesPrefix(buf[:4], prefixACKN):
			c.conn.SetReadDeadline(time.Time{})
			return nil
		case matchesPrefix(buf[:4], prefixNACK):
			return fmt.Errorf("%w: reflector refused connection (NACK)", m17err.ErrConnection)
		default:
			// unrelated datagram during the handshake window; ignored
		}
	}
}

// receiveLoop consumes datagrams until ctx is cancelled or the socket
// errors, classifying each by its 4-byte prefix before any further
// parsing, per §4.M.
func (c *Client) receiveLoop(ctx context.Context) {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PollInterval))
		n, _, err := c.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if c.State() != StateDisconnected {
				c.setState(StateError)
			}
			return
		}
		c.handleDatagram(buf[:n])
	}
}

func (c *Client) handleDatagram(data []byte) {
	if len(data) < 4 {
		return
	}
	switch {
	case matchesPrefix(data[:4], prefixPING):
		c.sendPong()
	case matchesPrefix(data[:4], prefixNACK):
		c.setState(StateError)
	case matchesPrefix(data[:4], frame.Magic):
		if len(data) != frame.IPSize {
			return
		}
		f, err := frame.IPFrameFromBytes(data)
		if err != nil {
			return
		}
		c.handlerMu.RLock()
		h := c.handler
		c.handlerMu.RUnlock()
		if h != nil {
			h(f)
		}
	default:
		// unknown prefix: logged and dropped by the caller
	}
}

func (c *Client) sendPong() {
	msg := make([]byte, 0, 10)
	msg = append(msg, prefixPONG[:]...)
	addrBytes := c.srcAddr.Bytes()
	msg = append(msg, addrBytes[:]...)
	c.conn.WriteToUDP(msg, c.serverAddr)
}

// SendFrame transmits an M17 IP frame to the reflector. Fails with
// ErrConnection wrapping NotConnected semantics when not CONNECTED.
func (c *Client) SendFrame(f *frame.IPFrame) error {
	if c.State() != StateConnected {
		return fmt.Errorf("%w: not connected", m17err.ErrConnection)
	}
	_, err := c.conn.WriteToUDP(f.ToBytes(), c.serverAddr)
	if err != nil {
		return fmt.Errorf("%w: send frame: %v", m17err.ErrConnection, err)
	}
	return nil
}

// Disconnect sends DISC and transitions to DISCONNECTED. It does not
// wait for acknowledgment; the reflector has no ACK for DISC.
func (c *Client) Disconnect() error {
	if c.conn == nil {
		c.setState(StateDisconnected)
		return nil
	}
	msg := make([]byte, 0, 10)
	msg = append(msg, prefixDISC[:]...)
	addrBytes := c.srcAddr.Bytes()
	msg = append(msg, addrBytes[:]...)
	_, err := c.conn.WriteToUDP(msg, c.serverAddr)
	c.setState(StateDisconnected)
	closeErr := c.conn.Close()
	if err != nil {
		return fmt.Errorf("%w: send DISC: %v", m17err.ErrConnection, err)
	}
	return closeErr
}

func matchesPrefix(data []byte, prefix [4]byte) bool {
	return data[0] == prefix[0] && data[1] == prefix[1] && data[2] == prefix[2] && data[3] == prefix[3]
}
