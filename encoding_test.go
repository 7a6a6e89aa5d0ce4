package rocket_test

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/vsariola/rocket"
)

func testTracks() rocket.Tracks {
	var tracks rocket.Tracks
	fov := tracks.Ensure("cam:fov")
	fov.SetKey(rocket.Key{Row: 0, Value: 45, Interpolation: rocket.Linear})
	fov.SetKey(rocket.Key{Row: 16, Value: 90, Interpolation: rocket.Smooth})
	tracks.Ensure("flash")
	return tracks
}

func TestBinaryEncodingFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := (rocket.BinaryEncoding{}).Encode(&buf, testTracks()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	expected := []byte{
		'R', 'C', 'K', 'T', 1, // magic and version
		0, 0, 0, 2, // track count
		0, 0, 0, 7, 'c', 'a', 'm', ':', 'f', 'o', 'v',
		0, 0, 0, 2, // key count
		0, 0, 0, 0, 0x42, 0x34, 0x00, 0x00, 1, // row 0, 45.0, linear
		0, 0, 0, 16, 0x42, 0xb4, 0x00, 0x00, 2, // row 16, 90.0, smooth
		0, 0, 0, 5, 'f', 'l', 'a', 's', 'h',
		0, 0, 0, 0, // key count
	}
	if !bytes.Equal(buf.Bytes(), expected) {
		t.Fatalf("got different bytes than expected.\ngot:      % x\nexpected: % x", buf.Bytes(), expected)
	}
}

func TestBinaryEncodingRoundTrip(t *testing.T) {
	tracks := testTracks()
	var buf bytes.Buffer
	if err := (rocket.BinaryEncoding{}).Encode(&buf, tracks); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	first := append([]byte{}, buf.Bytes()...)
	decoded, err := rocket.BinaryEncoding{}.Decode(&buf)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if !reflect.DeepEqual(decoded, tracks) {
		t.Fatalf("got different tracks than expected. got: %v expected: %v", decoded, tracks)
	}
	var again bytes.Buffer
	if err := (rocket.BinaryEncoding{}).Encode(&again, decoded); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !bytes.Equal(again.Bytes(), first) {
		t.Fatalf("re-encoding the decoded tracks gave different bytes")
	}
}

func TestTextEncodingRoundTrip(t *testing.T) {
	tracks := testTracks()
	for _, flavor := range []rocket.TextEncoding{{JSON: false}, {JSON: true}} {
		var buf bytes.Buffer
		if err := flavor.Encode(&buf, tracks); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		first := append([]byte{}, buf.Bytes()...)
		// decoding does not depend on knowing which flavor wrote the file
		decoded, err := rocket.TextEncoding{JSON: !flavor.JSON}.Decode(&buf)
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if !reflect.DeepEqual(decoded, tracks) {
			t.Fatalf("got different tracks than expected. got: %v expected: %v", decoded, tracks)
		}
		var again bytes.Buffer
		if err := flavor.Encode(&again, decoded); err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !bytes.Equal(again.Bytes(), first) {
			t.Fatalf("re-encoding the decoded tracks gave different bytes")
		}
	}
}

func TestTextEncodingUsesInterpolationNames(t *testing.T) {
	var buf bytes.Buffer
	if err := (rocket.TextEncoding{}).Encode(&buf, testTracks()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	if !strings.Contains(buf.String(), "smooth") {
		t.Fatalf("expected the name of the interpolation in the output, got: %v", buf.String())
	}
}

func TestBinaryDecodeRejectsMalformed(t *testing.T) {
	var valid bytes.Buffer
	if err := (rocket.BinaryEncoding{}).Encode(&valid, testTracks()); err != nil {
		t.Fatalf("Encode failed: %v", err)
	}
	full := valid.Bytes()
	tests := []struct {
		name     string
		contents []byte
	}{
		{"empty file", nil},
		{"bad magic", append([]byte("JUNK"), full[4:]...)},
		{"future version", append([]byte("RCKT\x02"), full[5:]...)},
		{"truncated mid key", full[:len(full)-20]},
		{"trailing garbage", append(append([]byte{}, full...), 0)},
	}
	for _, test := range tests {
		tracks, err := rocket.BinaryEncoding{}.Decode(bytes.NewReader(test.contents))
		if err == nil {
			t.Errorf("%s: decode should have failed", test.name)
		}
		if tracks != nil {
			t.Errorf("%s: decode returned tracks along with the error: %v", test.name, tracks)
		}
	}
}

func TestTextDecodeRejectsMalformed(t *testing.T) {
	tests := []struct {
		name     string
		contents string
	}{
		{"not yaml or json", "\x00\x01\x02"},
		{"duplicate names", `[{"Name":"a","Keys":[]},{"Name":"a","Keys":[]}]`},
		{"unsorted rows", `[{"Name":"a","Keys":[{"Row":8,"Value":0,"Interpolation":"step"},{"Row":4,"Value":0,"Interpolation":"step"}]}]`},
		{"negative row", `[{"Name":"a","Keys":[{"Row":-1,"Value":0,"Interpolation":"step"}]}]`},
		{"unknown interpolation", `[{"Name":"a","Keys":[{"Row":0,"Value":0,"Interpolation":"cubic"}]}]`},
	}
	for _, test := range tests {
		tracks, err := rocket.TextEncoding{}.Decode(strings.NewReader(test.contents))
		if err == nil {
			t.Errorf("%s: decode should have failed", test.name)
		}
		if tracks != nil {
			t.Errorf("%s: decode returned tracks along with the error: %v", test.name, tracks)
		}
	}
}
