package wire

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
)

// Encoder writes protocol frames to a stream. Each message becomes exactly
// one Write call.
type Encoder struct {
	w   io.Writer
	buf []byte
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: w}
}

// Encode writes one message. Messages that do not fit the protocol, a SetKey
// with an invalid interpolation or a GetTrack with an oversized name, are
// rejected before anything is written.
func (e *Encoder) Encode(msg Message) error {
	switch m := msg.(type) {
	case SetKey:
		if !m.Interpolation.Valid() {
			return fmt.Errorf("%w: %d", ErrInvalidInterpolation, int(m.Interpolation))
		}
	case GetTrack:
		if len(m.Name) > maxTrackName {
			return fmt.Errorf("%w: %d bytes", ErrNameTooLong, len(m.Name))
		}
	}
	e.buf = msg.appendFrame(e.buf[:0])
	_, err := e.w.Write(e.buf)
	return err
}

func (m SetKey) appendFrame(frame []byte) []byte {
	frame = append(frame, cmdSetKey)
	frame = binary.BigEndian.AppendUint32(frame, m.Track)
	frame = binary.BigEndian.AppendUint32(frame, m.Row)
	frame = binary.BigEndian.AppendUint32(frame, math.Float32bits(m.Value))
	return append(frame, byte(m.Interpolation))
}

func (m DeleteKey) appendFrame(frame []byte) []byte {
	frame = append(frame, cmdDeleteKey)
	frame = binary.BigEndian.AppendUint32(frame, m.Track)
	return binary.BigEndian.AppendUint32(frame, m.Row)
}

func (m GetTrack) appendFrame(frame []byte) []byte {
	frame = append(frame, cmdGetTrack)
	frame = binary.BigEndian.AppendUint32(frame, uint32(len(m.Name)))
	return append(frame, m.Name...)
}

func (m SetRow) appendFrame(frame []byte) []byte {
	frame = append(frame, cmdSetRow)
	return binary.BigEndian.AppendUint32(frame, m.Row)
}

func (m Pause) appendFrame(frame []byte) []byte {
	flag := byte(0)
	if m.Paused {
		flag = 1
	}
	return append(frame, cmdPause, flag)
}

func (m SaveTracks) appendFrame(frame []byte) []byte {
	return append(frame, cmdSaveTracks)
}
