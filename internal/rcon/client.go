// Package rcon implements the single-owner command channel to the game
// server (spec.md §4.8, "C3"). There is no ecosystem client for this: the
// wire format is a private, length-prefixed TCP protocol specific to the
// game server's embedded command plugin, not the well-known Source RCON
// protocol, so this is hand-rolled net/encoding/binary rather than an
// imported client — the one place in this module where no pack dependency
// fits (see DESIGN.md).
//
// The client is structured the way the teacher's scheduler guards shared
// state: a single mutex serializes every command against one long-lived
// connection, because the game server's command plugin processes commands
// strictly in arrival order and a second concurrent command can corrupt the
// block-placement sequence mid-build (spec.md invariant R1).
package rcon

import (
	"bufio"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// ErrAuthFailed is returned by Dial when the shared secret is rejected.
var ErrAuthFailed = errors.New("rcon: authentication rejected")

const (
	maxFrameBytes = 1 << 20 // 1 MiB: generous headroom over any single build command
	authOK        = 0x01
	authRejected  = 0x00
)

// Client owns one TCP connection to the game server's command plugin and
// serializes every command sent over it.
type Client struct {
	addr         string
	password     string
	commandDelay time.Duration

	mu   sync.Mutex
	conn net.Conn
	r    *bufio.Reader
}

// Option configures a Client at construction time.
type Option func(*Client)

// WithCommandDelay overrides the default 50ms inter-command delay
// (spec.md §4.8's rate limit, meant to keep the plugin's command queue from
// backing up during a large building's block-placement burst).
func WithCommandDelay(d time.Duration) Option {
	return func(c *Client) { c.commandDelay = d }
}

// NewClient constructs a Client; call Dial before sending commands.
func NewClient(addr, password string, opts ...Option) *Client {
	c := &Client{addr: addr, password: password, commandDelay: 50 * time.Millisecond}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Dial opens the TCP connection and performs the auth handshake: the client
// sends the shared-secret password as a single frame, and the server
// replies with a one-byte status frame (authOK or authRejected).
func (c *Client) Dial(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", c.addr)
	if err != nil {
		return fmt.Errorf("rcon: dial %s: %w", c.addr, err)
	}

	c.conn = conn
	c.r = bufio.NewReader(conn)

	if err := writeFrame(conn, []byte(c.password)); err != nil {
		conn.Close()
		return fmt.Errorf("rcon: send auth frame: %w", err)
	}

	status, err := readFrame(c.r)
	if err != nil {
		conn.Close()
		return fmt.Errorf("rcon: read auth response: %w", err)
	}
	if len(status) != 1 || status[0] != authOK {
		conn.Close()
		return ErrAuthFailed
	}
	return nil
}

// Close releases the underlying connection.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// Command sends a single command line and returns the plugin's reply. The
// caller is charged commandDelay before the frame is sent, under the same
// lock, so concurrent callers serialize on the delay too — the plugin sees
// one command at a time, spaced out.
func (c *Client) Command(ctx context.Context, line string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commandLocked(ctx, line)
}

func (c *Client) commandLocked(ctx context.Context, line string) (string, error) {
	if c.commandDelay > 0 {
		select {
		case <-time.After(c.commandDelay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return c.commandLockedNoDelay(ctx, line)
}

// commandLockedNoDelay sends one frame and reads its reply without waiting
// out commandDelay first. Batch uses this directly for every line,
// the first included: the delay exists to keep a steady stream of individual
// Command calls (e.g. interactive use) from overrunning the plugin's
// command queue, but a Batch call is already one caller holding the lock
// for its entire duration, so there is no concurrent sender to pace
// against between its own lines.
func (c *Client) commandLockedNoDelay(ctx context.Context, line string) (string, error) {
	if c.conn == nil {
		return "", errors.New("rcon: not connected")
	}
	if err := writeFrame(c.conn, []byte(line)); err != nil {
		return "", fmt.Errorf("rcon: write command: %w", err)
	}
	reply, err := readFrame(c.r)
	if err != nil {
		return "", fmt.Errorf("rcon: read reply: %w", err)
	}
	return string(reply), nil
}

// Batch sends every line back-to-back over the single connection with no
// inter-command delay, stopping at the first error (spec.md §6: a bulk
// primitive that amortizes C3 latency for the hundred-command batches
// §4.6's block generators issue per building, rather than pacing each one
// out the way interactive Command calls are).
func (c *Client) Batch(ctx context.Context, lines []string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	replies := make([]string, 0, len(lines))
	for i, line := range lines {
		reply, err := c.commandLockedNoDelay(ctx, line)
		if err != nil {
			return replies, fmt.Errorf("rcon: batch command %d/%d: %w", i+1, len(lines), err)
		}
		replies = append(replies, reply)
	}
	return replies, nil
}

func writeFrame(w io.Writer, payload []byte) error {
	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(payload)))
	if _, err := w.Write(header[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

func readFrame(r *bufio.Reader) ([]byte, error) {
	var header [4]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(header[:])
	if n > maxFrameBytes {
		return nil, fmt.Errorf("rcon: frame of %d bytes exceeds limit", n)
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}
