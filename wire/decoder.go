package wire

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/vsariola/rocket"
)

// Decoder reads protocol frames from a stream, resuming across arbitrary
// split points: when the stream runs dry in the middle of a frame, the bytes
// received so far are kept and the frame completes on a later call. This is
// what lets the session poll a connection with a short read deadline instead
// of parking a reader goroutine on it.
type Decoder struct {
	r     io.Reader
	frame []byte
	tmp   [64]byte
	err   error
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Decode returns the next complete frame. ok is false when the stream has no
// complete frame to offer right now and err is nil in that case; any partial
// frame stays buffered for the next call. Read errors whose Timeout method
// reports true are how a dry stream is recognized, matching the deadline
// errors of net.Conn. io.EOF means the peer closed the stream between
// frames; inside a frame it becomes io.ErrUnexpectedEOF. Decode errors are
// sticky: once the stream is unparseable every later call fails the same
// way.
func (d *Decoder) Decode() (msg Message, ok bool, err error) {
	if d.err != nil {
		return nil, false, d.err
	}
	msg, ok, err = d.decode()
	if err != nil {
		d.err = err
	}
	return msg, ok, err
}

func (d *Decoder) decode() (Message, bool, error) {
	for {
		want := 1
		if len(d.frame) > 0 {
			size, err := frameSize(d.frame)
			if err != nil {
				return nil, false, err
			}
			if len(d.frame) >= size {
				msg, err := parseFrame(d.frame[:size])
				if err != nil {
					return nil, false, err
				}
				d.frame = d.frame[:0]
				return msg, true, nil
			}
			want = size - len(d.frame)
		}
		if want > len(d.tmp) {
			want = len(d.tmp)
		}
		n, err := d.r.Read(d.tmp[:want])
		d.frame = append(d.frame, d.tmp[:n]...)
		if n > 0 || err == nil {
			// progress was made; if err persists it resurfaces on the
			// next read
			continue
		}
		if timeout, ok := err.(interface{ Timeout() bool }); ok && timeout.Timeout() {
			return nil, false, nil
		}
		if errors.Is(err, io.EOF) && len(d.frame) > 0 {
			err = io.ErrUnexpectedEOF
		}
		return nil, false, err
	}
}

// frameSize returns the total length of the frame that starts in buf. For
// GetTrack the length is only known once the name length field is in; until
// then the size of the fixed part is returned, which is enough to keep
// reading.
func frameSize(buf []byte) (int, error) {
	switch buf[0] {
	case cmdSetKey:
		return 14, nil
	case cmdDeleteKey:
		return 9, nil
	case cmdGetTrack:
		if len(buf) < 5 {
			return 5, nil
		}
		n := binary.BigEndian.Uint32(buf[1:5])
		if n > maxTrackName {
			return 0, fmt.Errorf("%w: %d bytes", ErrNameTooLong, n)
		}
		return 5 + int(n), nil
	case cmdSetRow:
		return 5, nil
	case cmdPause:
		return 2, nil
	case cmdSaveTracks:
		return 1, nil
	}
	return 0, fmt.Errorf("%w: %d", ErrUnknownCommand, buf[0])
}

func parseFrame(frame []byte) (Message, error) {
	switch frame[0] {
	case cmdSetKey:
		interpolation := rocket.Interpolation(frame[13])
		if !interpolation.Valid() {
			return nil, fmt.Errorf("%w: %d", ErrInvalidInterpolation, frame[13])
		}
		return SetKey{
			Track:         binary.BigEndian.Uint32(frame[1:5]),
			Row:           binary.BigEndian.Uint32(frame[5:9]),
			Value:         math.Float32frombits(binary.BigEndian.Uint32(frame[9:13])),
			Interpolation: interpolation,
		}, nil
	case cmdDeleteKey:
		return DeleteKey{
			Track: binary.BigEndian.Uint32(frame[1:5]),
			Row:   binary.BigEndian.Uint32(frame[5:9]),
		}, nil
	case cmdGetTrack:
		return GetTrack{Name: string(frame[5:])}, nil
	case cmdSetRow:
		return SetRow{Row: binary.BigEndian.Uint32(frame[1:5])}, nil
	case cmdPause:
		return Pause{Paused: frame[1] != 0}, nil
	case cmdSaveTracks:
		return SaveTracks{}, nil
	}
	return nil, fmt.Errorf("%w: %d", ErrUnknownCommand, frame[0])
}
