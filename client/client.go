/*
Package client connects a demo to a GNU Rocket tracker.

Client is the session state machine: it performs the greeting handshake over
a caller-supplied connection, requests tracks by name, and on every
PollEvent call drains whatever frames the tracker has sent, mutating the
track store and surfacing row changes, pause state and save requests. The
model is single-threaded and cooperative: the store is mutated only inside
PollEvent, no goroutine reads the connection, and a drain that finds nothing
pending returns promptly. Reads poll with a short deadline, so an idle drain
parks for at most a millisecond.

Sync wraps a Client into the self-healing facade most demos want: it owns
the track store across any number of sessions, reconnects in the background
of the frame loop, maps between time and rows with a configurable BPM, and
persists the store when the tracker asks for it.

A session that hits any protocol error is dead: every later call returns the
same error, the connection is no longer trusted, and the track store is left
exactly as it was. The store itself survives disconnects; a fresh session on
the same store re-requests the known names and carries on.
*/
package client

import (
	"errors"
	"fmt"
	"io"
	"math"
	"net"
	"time"

	"github.com/vsariola/rocket"
	"github.com/vsariola/rocket/wire"
)

// Conn is the transport contract of a session: a byte stream whose reads can
// be given a deadline. net.Conn satisfies it, and so does net.Pipe in tests.
type Conn interface {
	io.ReadWriteCloser
	SetReadDeadline(t time.Time) error
}

var (
	// ErrHandshakeMismatch means the peer greeted with something else than
	// the protocol greeting. The connection attempt is over; it was not a
	// tracker.
	ErrHandshakeMismatch = errors.New("handshake mismatch")
	// ErrUnknownTrack means the tracker addressed a track index that was
	// never requested in this session. The two ends have desynchronized and
	// the session cannot continue.
	ErrUnknownTrack = errors.New("unknown track index")
	// ErrClosed is returned by every call after Close.
	ErrClosed = errors.New("session closed")
)

type (
	// Event is what a drain surfaces to the embedding application. Key
	// edits are not events; they are applied to the track store directly.
	Event interface {
		event()
	}

	// RowEvent reports that the tracker moved to another row, typically the
	// user scrubbing, and the application should seek.
	RowEvent struct {
		Row int
	}

	// PauseEvent reports that the tracker started or stopped playback. The
	// flag only concerns how the application advances time; frames keep
	// flowing either way.
	PauseEvent struct {
		Paused bool
	}

	// SaveEvent reports that the tracker asked the application to persist
	// its track store.
	SaveEvent struct{}
)

func (RowEvent) event()   {}
func (PauseEvent) event() {}
func (SaveEvent) event()  {}

// pollTimeout is how far in the future the read deadline of a drain is set.
// Data already buffered is returned immediately regardless; this is only how
// long an idle drain can park before the deadline fires.
const pollTimeout = time.Millisecond

// Client is one session with a tracker. It mutates the track store it was
// given, but the store outlives it: after the session dies the store holds
// everything learned so far and can be handed to a new Client.
type Client struct {
	conn    Conn
	enc     *wire.Encoder
	dec     *wire.Decoder
	tracks  *rocket.Tracks
	indexed []*rocket.Track
	row     int
	paused  bool
	closed  bool
	err     error
}

// Connect dials a tracker over TCP and performs the handshake.
func Connect(addr string, tracks *rocket.Tracks) (*Client, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, err
	}
	c, err := New(conn, tracks)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

// New performs the handshake over an established connection and returns the
// session. On handshake failure the connection is left for the caller to
// close, since the caller opened it.
func New(conn Conn, tracks *rocket.Tracks) (*Client, error) {
	c := &Client{
		conn:   conn,
		enc:    wire.NewEncoder(conn),
		dec:    wire.NewDecoder(conn),
		tracks: tracks,
	}
	if err := c.handshake(); err != nil {
		return nil, err
	}
	return c, nil
}

// handshake blocks until the server greeting arrives or the transport
// fails. The protocol has no handshake timeout; an unresponsive peer is cut
// short by closing the connection from another goroutine if the application
// needs that.
func (c *Client) handshake() error {
	if _, err := io.WriteString(c.conn, wire.ClientGreeting); err != nil {
		return fmt.Errorf("sending greeting: %w", err)
	}
	if err := c.conn.SetReadDeadline(time.Time{}); err != nil {
		return err
	}
	reply := make([]byte, len(wire.ServerGreeting))
	if _, err := io.ReadFull(c.conn, reply); err != nil {
		return fmt.Errorf("reading greeting: %w", err)
	}
	if string(reply) != wire.ServerGreeting {
		return fmt.Errorf("%w: got %q", ErrHandshakeMismatch, reply)
	}
	return nil
}

// GetTrack requests a track by name, creating it in the store if it is not
// there yet. The next sequential index is reserved for the name before the
// request goes out; the tracker assigns indices by request order, so frames
// addressing the index resolve to this track. Requesting the same name
// twice in one session returns the same track without another request.
func (c *Client) GetTrack(name string) (*rocket.Track, error) {
	if c.err != nil {
		return nil, c.err
	}
	for _, track := range c.indexed {
		if track.Name == name {
			return track, nil
		}
	}
	track := c.tracks.Ensure(name)
	c.indexed = append(c.indexed, track)
	if err := c.enc.Encode(wire.GetTrack{Name: name}); err != nil {
		return nil, c.fail(err)
	}
	return track, nil
}

// SetRow tells the tracker that the application moved to another row, so
// the editor view follows the demo.
func (c *Client) SetRow(row int) error {
	if c.err != nil {
		return c.err
	}
	if row < 0 || int64(row) > math.MaxUint32 {
		return fmt.Errorf("row %d does not fit the protocol", row)
	}
	if err := c.enc.Encode(wire.SetRow{Row: uint32(row)}); err != nil {
		return c.fail(err)
	}
	return nil
}

// PollEvent drains frames the tracker has sent. Key edits are applied to
// the store silently; the first frame that concerns the application is
// returned as an event. A nil event with a nil error means nothing is
// pending right now. After any returned error the session is dead and the
// store is exactly as the last successful call left it.
func (c *Client) PollEvent() (Event, error) {
	if c.err != nil {
		return nil, c.err
	}
	if err := c.conn.SetReadDeadline(time.Now().Add(pollTimeout)); err != nil {
		return nil, c.fail(err)
	}
	for {
		msg, ok, err := c.dec.Decode()
		if err != nil {
			return nil, c.fail(err)
		}
		if !ok {
			return nil, nil
		}
		switch m := msg.(type) {
		case wire.SetKey:
			track, err := c.indexedTrack(m.Track)
			if err != nil {
				return nil, c.fail(err)
			}
			track.SetKey(rocket.Key{Row: int(m.Row), Value: m.Value, Interpolation: m.Interpolation})
		case wire.DeleteKey:
			track, err := c.indexedTrack(m.Track)
			if err != nil {
				return nil, c.fail(err)
			}
			track.DeleteKey(int(m.Row))
		case wire.SetRow:
			c.row = int(m.Row)
			return RowEvent{Row: c.row}, nil
		case wire.Pause:
			c.paused = m.Paused
			return PauseEvent{Paused: m.Paused}, nil
		case wire.SaveTracks:
			return SaveEvent{}, nil
		default:
			return nil, c.fail(fmt.Errorf("tracker sent an unexpected %T frame", msg))
		}
	}
}

// Row returns the last row reported by the tracker.
func (c *Client) Row() int {
	return c.row
}

// Paused returns the pause flag last reported by the tracker.
func (c *Client) Paused() bool {
	return c.paused
}

// Close ends the session and closes the connection. Closing twice is a
// no-op. The track store is untouched.
func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.err == nil {
		c.err = ErrClosed
	}
	return c.conn.Close()
}

func (c *Client) indexedTrack(index uint32) (*rocket.Track, error) {
	if uint64(index) >= uint64(len(c.indexed)) {
		return nil, fmt.Errorf("%w: %d when %d tracks were requested", ErrUnknownTrack, index, len(c.indexed))
	}
	return c.indexed[index], nil
}

// fail marks the session dead with the first error that killed it.
func (c *Client) fail(err error) error {
	if c.err == nil {
		c.err = err
	}
	return c.err
}
