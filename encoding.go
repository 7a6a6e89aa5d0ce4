package rocket

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"

	"gopkg.in/yaml.v3"
)

type (
	// Encoding serializes a track store to a stream and back. Decoding is all
	// or nothing: a malformed stream yields an error and no tracks, never a
	// partially filled store.
	Encoding interface {
		Encode(w io.Writer, tracks Tracks) error
		Decode(r io.Reader) (Tracks, error)
	}

	// TextEncoding stores tracks in a human-inspectable form: YAML by
	// default, JSON when the JSON flag is set. Decoding accepts either, so a
	// file can be loaded without knowing which flavor wrote it.
	TextEncoding struct {
		JSON bool
	}

	// BinaryEncoding stores tracks in the compact form shipped with release
	// builds: a fixed header followed by length-prefixed tracks, everything
	// big-endian like the wire protocol.
	BinaryEncoding struct{}
)

const (
	binaryMagic   = "RCKT"
	binaryVersion = 1
)

// DetectEncoding returns the encoding that wrote the given serialized
// tracks, recognizing the binary format by its magic. Anything else is
// treated as text, whose decoder figures out the flavor on its own.
func DetectEncoding(contents []byte) Encoding {
	if bytes.HasPrefix(contents, []byte(binaryMagic)) {
		return BinaryEncoding{}
	}
	return TextEncoding{}
}

func (e TextEncoding) Encode(w io.Writer, tracks Tracks) error {
	if err := validateTracks(tracks); err != nil {
		return err
	}
	var contents []byte
	var err error
	if e.JSON {
		contents, err = json.Marshal(tracks)
	} else {
		contents, err = yaml.Marshal(tracks)
	}
	if err != nil {
		return fmt.Errorf("marshaling tracks failed: %w", err)
	}
	_, err = w.Write(contents)
	return err
}

func (e TextEncoding) Decode(r io.Reader) (Tracks, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var tracks Tracks
	if errJSON := json.Unmarshal(contents, &tracks); errJSON != nil {
		if errYaml := yaml.Unmarshal(contents, &tracks); errYaml != nil {
			return nil, fmt.Errorf("tracks could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := validateTracks(tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

func (e BinaryEncoding) Encode(w io.Writer, tracks Tracks) error {
	if err := validateTracks(tracks); err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(binaryMagic)
	buf.WriteByte(binaryVersion)
	binary.Write(&buf, binary.BigEndian, uint32(len(tracks)))
	for _, track := range tracks {
		if int64(len(track.Name)) > math.MaxUint32 {
			return fmt.Errorf("track name of %d bytes does not fit the format", len(track.Name))
		}
		binary.Write(&buf, binary.BigEndian, uint32(len(track.Name)))
		buf.WriteString(track.Name)
		binary.Write(&buf, binary.BigEndian, uint32(len(track.Keys)))
		for _, key := range track.Keys {
			if key.Row < 0 || int64(key.Row) > math.MaxUint32 {
				return fmt.Errorf("key row %d of track %q does not fit the format", key.Row, track.Name)
			}
			binary.Write(&buf, binary.BigEndian, uint32(key.Row))
			binary.Write(&buf, binary.BigEndian, key.Value)
			buf.WriteByte(byte(key.Interpolation))
		}
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func (e BinaryEncoding) Decode(r io.Reader) (Tracks, error) {
	contents, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	rd := bytes.NewReader(contents)
	var header [5]byte
	if _, err := io.ReadFull(rd, header[:]); err != nil {
		return nil, errors.New("not a rocket track file: header missing")
	}
	if string(header[:4]) != binaryMagic {
		return nil, errors.New("not a rocket track file: bad magic")
	}
	if header[4] != binaryVersion {
		return nil, fmt.Errorf("unsupported track file version %d", header[4])
	}
	var count uint32
	if err := binary.Read(rd, binary.BigEndian, &count); err != nil {
		return nil, errors.New("truncated track file: track count missing")
	}
	// Each track takes at least 8 bytes, so a count beyond that bound cannot
	// be the result of a valid encode and should not drive allocations.
	if int64(count) > int64(rd.Len())/8 {
		return nil, fmt.Errorf("truncated track file: %d tracks declared", count)
	}
	tracks := make(Tracks, 0, count)
	for ti := uint32(0); ti < count; ti++ {
		var nameLen uint32
		if err := binary.Read(rd, binary.BigEndian, &nameLen); err != nil {
			return nil, fmt.Errorf("truncated track file: name length of track %d missing", ti)
		}
		if int64(nameLen) > int64(rd.Len()) {
			return nil, fmt.Errorf("truncated track file: name of track %d cut short", ti)
		}
		name := make([]byte, nameLen)
		if _, err := io.ReadFull(rd, name); err != nil {
			return nil, fmt.Errorf("truncated track file: name of track %d cut short", ti)
		}
		var keyCount uint32
		if err := binary.Read(rd, binary.BigEndian, &keyCount); err != nil {
			return nil, fmt.Errorf("truncated track file: key count of track %q missing", name)
		}
		if int64(keyCount) > int64(rd.Len())/9 {
			return nil, fmt.Errorf("truncated track file: %d keys declared for track %q", keyCount, name)
		}
		track := &Track{Name: string(name)}
		if keyCount > 0 {
			track.Keys = make([]Key, 0, keyCount)
		}
		for ki := uint32(0); ki < keyCount; ki++ {
			var raw struct {
				Row           uint32
				Value         float32
				Interpolation byte
			}
			if err := binary.Read(rd, binary.BigEndian, &raw); err != nil {
				return nil, fmt.Errorf("truncated track file: key %d of track %q cut short", ki, name)
			}
			track.Keys = append(track.Keys, Key{
				Row:           int(raw.Row),
				Value:         raw.Value,
				Interpolation: Interpolation(raw.Interpolation),
			})
		}
		tracks = append(tracks, track)
	}
	if rd.Len() > 0 {
		return nil, fmt.Errorf("track file has %d trailing bytes", rd.Len())
	}
	if err := validateTracks(tracks); err != nil {
		return nil, err
	}
	return tracks, nil
}

// validateTracks checks the invariants both encodings rely on: names are
// unique, keys are sorted by strictly ascending non-negative rows, and every
// interpolation is one the protocol defines.
func validateTracks(tracks Tracks) error {
	names := make(map[string]bool, len(tracks))
	for _, track := range tracks {
		if track == nil {
			return errors.New("track store contains a null track")
		}
		if names[track.Name] {
			return fmt.Errorf("duplicate track name %q", track.Name)
		}
		names[track.Name] = true
		prevRow := -1
		for _, key := range track.Keys {
			if key.Row < 0 {
				return fmt.Errorf("track %q has a key at negative row %d", track.Name, key.Row)
			}
			if key.Row <= prevRow {
				return fmt.Errorf("track %q has unsorted or duplicate key rows around row %d", track.Name, key.Row)
			}
			if !key.Interpolation.Valid() {
				return fmt.Errorf("track %q has an invalid interpolation %d at row %d", track.Name, int(key.Interpolation), key.Row)
			}
			prevRow = key.Row
		}
	}
	return nil
}
