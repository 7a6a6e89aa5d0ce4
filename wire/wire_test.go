package wire_test

import (
	"bytes"
	"errors"
	"io"
	"reflect"
	"strings"
	"testing"

	"github.com/vsariola/rocket"
	"github.com/vsariola/rocket/wire"
)

type frameVector struct {
	name  string
	msg   wire.Message
	frame []byte
}

func frameVectors() []frameVector {
	return []frameVector{
		{"set key", wire.SetKey{Track: 1, Row: 2, Value: 3.5, Interpolation: rocket.Smooth},
			[]byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0x40, 0x60, 0x00, 0x00, 2}},
		{"delete key", wire.DeleteKey{Track: 1, Row: 0x1234},
			[]byte{1, 0, 0, 0, 1, 0, 0, 0x12, 0x34}},
		{"get track", wire.GetTrack{Name: "cam:fov"},
			[]byte{2, 0, 0, 0, 7, 'c', 'a', 'm', ':', 'f', 'o', 'v'}},
		{"set row", wire.SetRow{Row: 513},
			[]byte{3, 0, 0, 0x02, 0x01}},
		{"pause", wire.Pause{Paused: true},
			[]byte{4, 1}},
		{"resume", wire.Pause{Paused: false},
			[]byte{4, 0}},
		{"save tracks", wire.SaveTracks{},
			[]byte{5}},
	}
}

// scriptReader plays back chunks of a stream; a nil chunk makes the next
// read fail with a timeout, the way a drained connection does when its read
// deadline fires. After the script runs out every read times out.
type scriptReader struct {
	chunks [][]byte
}

type timeoutError struct{}

func (timeoutError) Error() string { return "fake timeout" }
func (timeoutError) Timeout() bool { return true }

func (r *scriptReader) Read(p []byte) (int, error) {
	if len(r.chunks) == 0 {
		return 0, timeoutError{}
	}
	chunk := r.chunks[0]
	if chunk == nil {
		r.chunks = r.chunks[1:]
		return 0, timeoutError{}
	}
	n := copy(p, chunk)
	if n == len(chunk) {
		r.chunks = r.chunks[1:]
	} else {
		r.chunks[0] = chunk[n:]
	}
	return n, nil
}

func TestEncoderFrames(t *testing.T) {
	for _, test := range frameVectors() {
		var buf bytes.Buffer
		if err := wire.NewEncoder(&buf).Encode(test.msg); err != nil {
			t.Fatalf("%s: Encode failed: %v", test.name, err)
		}
		if !bytes.Equal(buf.Bytes(), test.frame) {
			t.Errorf("%s: got different bytes than expected.\ngot:      % x\nexpected: % x", test.name, buf.Bytes(), test.frame)
		}
	}
}

func TestDecoderFrames(t *testing.T) {
	var stream bytes.Buffer
	for _, test := range frameVectors() {
		stream.Write(test.frame)
	}
	dec := wire.NewDecoder(&stream)
	for _, test := range frameVectors() {
		msg, ok, err := dec.Decode()
		if err != nil {
			t.Fatalf("%s: Decode failed: %v", test.name, err)
		}
		if !ok {
			t.Fatalf("%s: Decode returned no message", test.name)
		}
		if !reflect.DeepEqual(msg, test.msg) {
			t.Errorf("%s: got: %v expected: %v", test.name, msg, test.msg)
		}
	}
	if _, ok, err := dec.Decode(); ok || !errors.Is(err, io.EOF) {
		t.Fatalf("exhausted stream should report EOF, got: %v %v", ok, err)
	}
}

func TestDecoderResumesAtEverySplit(t *testing.T) {
	first := wire.SetKey{Track: 7, Row: 100, Value: -1.5, Interpolation: rocket.Ramp}
	second := wire.GetTrack{Name: "light:x"}
	var stream bytes.Buffer
	enc := wire.NewEncoder(&stream)
	if err := enc.Encode(first); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if err := enc.Encode(second); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	full := stream.Bytes()
	for split := 1; split < len(full); split++ {
		r := &scriptReader{chunks: [][]byte{full[:split], nil, full[split:]}}
		dec := wire.NewDecoder(r)
		var got []wire.Message
		for attempts := 0; len(got) < 2; attempts++ {
			if attempts > 10 {
				t.Fatalf("split %d: decoder made no progress", split)
			}
			msg, ok, err := dec.Decode()
			if err != nil {
				t.Fatalf("split %d: Decode failed: %v", split, err)
			}
			if ok {
				got = append(got, msg)
			}
		}
		expected := []wire.Message{first, second}
		if !reflect.DeepEqual(got, expected) {
			t.Fatalf("split %d: got: %v expected: %v", split, got, expected)
		}
	}
}

func TestDecoderReportsDryStream(t *testing.T) {
	r := &scriptReader{}
	dec := wire.NewDecoder(r)
	msg, ok, err := dec.Decode()
	if msg != nil || ok || err != nil {
		t.Fatalf("dry stream should yield nothing, got: %v %v %v", msg, ok, err)
	}
}

func TestDecoderRejectsUnknownCommand(t *testing.T) {
	dec := wire.NewDecoder(bytes.NewReader([]byte{6}))
	_, _, err := dec.Decode()
	if !errors.Is(err, wire.ErrUnknownCommand) {
		t.Fatalf("got: %v expected ErrUnknownCommand", err)
	}
	// the error is sticky: an unparseable stream stays dead
	_, _, err = dec.Decode()
	if !errors.Is(err, wire.ErrUnknownCommand) {
		t.Fatalf("second call got: %v expected ErrUnknownCommand", err)
	}
}

func TestDecoderRejectsInvalidInterpolation(t *testing.T) {
	frame := []byte{0, 0, 0, 0, 1, 0, 0, 0, 2, 0x40, 0x60, 0x00, 0x00, 4}
	dec := wire.NewDecoder(bytes.NewReader(frame))
	_, _, err := dec.Decode()
	if !errors.Is(err, wire.ErrInvalidInterpolation) {
		t.Fatalf("got: %v expected ErrInvalidInterpolation", err)
	}
}

func TestDecoderRejectsOversizedName(t *testing.T) {
	frame := []byte{2, 0x00, 0x02, 0x00, 0x00} // name of 131072 bytes
	dec := wire.NewDecoder(bytes.NewReader(frame))
	_, _, err := dec.Decode()
	if !errors.Is(err, wire.ErrNameTooLong) {
		t.Fatalf("got: %v expected ErrNameTooLong", err)
	}
}

func TestDecoderUnexpectedEOF(t *testing.T) {
	frame := frameVectors()[0].frame
	dec := wire.NewDecoder(bytes.NewReader(frame[:5]))
	_, _, err := dec.Decode()
	if !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("got: %v expected ErrUnexpectedEOF", err)
	}
}

func TestEncoderRejectsInvalidMessages(t *testing.T) {
	var buf bytes.Buffer
	enc := wire.NewEncoder(&buf)
	if err := enc.Encode(wire.SetKey{Interpolation: 9}); !errors.Is(err, wire.ErrInvalidInterpolation) {
		t.Fatalf("got: %v expected ErrInvalidInterpolation", err)
	}
	if err := enc.Encode(wire.GetTrack{Name: strings.Repeat("x", 1<<16+1)}); !errors.Is(err, wire.ErrNameTooLong) {
		t.Fatalf("got: %v expected ErrNameTooLong", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("rejected messages should write nothing, wrote % x", buf.Bytes())
	}
}
