/*
Package wire implements the GNU Rocket wire protocol: the greetings exchanged
when a session starts and the command frames flowing between a demo and the
tracker. The codec is symmetric, so the same Encoder and Decoder serve both
ends; package client uses them for the demo side and the tests use them to
fake a tracker.

All integers and floats on the wire are big-endian. The command tags and
frame layouts come from the reference implementation and must not change, or
the demo stops understanding existing editors.
*/
package wire

import (
	"errors"

	"github.com/vsariola/rocket"
)

// Greetings are fixed protocol constants, named by the party that sends
// them. The session is only established after both have been exchanged.
const (
	ClientGreeting = "hello, synctracker!"
	ServerGreeting = "hello, demo!"
)

// Command tags. The values are the reference protocol's and double as the
// first byte of every frame.
const (
	cmdSetKey byte = iota
	cmdDeleteKey
	cmdGetTrack
	cmdSetRow
	cmdPause
	cmdSaveTracks
)

// maxTrackName bounds the name length accepted in a GetTrack frame, so a
// corrupt length field cannot drive allocations. Real track names are tens
// of bytes.
const maxTrackName = 1 << 16

var (
	// ErrUnknownCommand reports a command tag the protocol does not define.
	// The stream offers no way to skip an unknown frame, so this is fatal to
	// the session.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidInterpolation reports an interpolation byte outside the
	// defined kinds. Never clamped; the key is rejected and the session dies
	// before the store can be corrupted.
	ErrInvalidInterpolation = errors.New("invalid interpolation")
	// ErrNameTooLong reports a track name that does not fit a frame.
	ErrNameTooLong = errors.New("track name too long")
)

type (
	// Message is one decoded protocol frame. The concrete types below are
	// the full set of frames the protocol defines.
	Message interface {
		appendFrame(frame []byte) []byte
	}

	// SetKey sets or replaces the key of one track at one row. Sent by the
	// tracker.
	SetKey struct {
		Track         uint32
		Row           uint32
		Value         float32
		Interpolation rocket.Interpolation
	}

	// DeleteKey removes the key of one track at one row. Sent by the
	// tracker.
	DeleteKey struct {
		Track uint32
		Row   uint32
	}

	// GetTrack requests a track by name. Sent by the demo; the tracker
	// answers with SetKey frames for the track's keys. Track indices are
	// assigned by the order of these requests.
	GetTrack struct {
		Name string
	}

	// SetRow reports the current row. Sent by the tracker when the user
	// scrubs, and by the demo when its own time advances.
	SetRow struct {
		Row uint32
	}

	// Pause starts or stops playback. Sent by the tracker.
	Pause struct {
		Paused bool
	}

	// SaveTracks asks the demo to persist its track store. Sent by the
	// tracker.
	SaveTracks struct{}
)
