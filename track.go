package rocket

import "sort"

type (
	// Key is a single control point on a track: the value the track takes at
	// Row, and the interpolation governing the segment from Row up to the
	// next key.
	Key struct {
		Row           int
		Value         float32
		Interpolation Interpolation
	}

	// Track is a named sequence of keys, kept sorted by row with at most one
	// key per row. The zero value is an empty track, which evaluates to 0 at
	// every row. Tracks are identified by their case-sensitive name.
	Track struct {
		Name string
		Keys []Key `yaml:",flow,omitempty"`
	}
)

// index returns the position of the key at exactly row in t.Keys, and whether
// such a key exists. When it does not, the returned position is where a key
// at row would be inserted.
func (t *Track) index(row int) (int, bool) {
	i := sort.Search(len(t.Keys), func(i int) bool { return t.Keys[i].Row >= row })
	return i, i < len(t.Keys) && t.Keys[i].Row == row
}

// SetKey inserts key into the track, replacing any existing key at the same
// row.
func (t *Track) SetKey(key Key) {
	i, exists := t.index(key.Row)
	if exists {
		t.Keys[i] = key
		return
	}
	t.Keys = append(t.Keys, Key{})
	copy(t.Keys[i+1:], t.Keys[i:])
	t.Keys[i] = key
}

// DeleteKey removes the key at row. Deleting a row that has no key is a
// no-op.
func (t *Track) DeleteKey(row int) {
	if i, exists := t.index(row); exists {
		t.Keys = append(t.Keys[:i], t.Keys[i+1:]...)
	}
}

// Key returns the key at exactly row, if the track has one.
func (t *Track) Key(row int) (Key, bool) {
	i, exists := t.index(row)
	if !exists {
		return Key{}, false
	}
	return t.Keys[i], true
}

// Value evaluates the track at a fractional row position. Positions before
// the first key return the first key's value and positions at or after the
// last key return the last key's value, both regardless of interpolation;
// positions between two keys blend them with the earlier key's interpolation.
// An empty track evaluates to 0 everywhere.
func (t *Track) Value(row float64) float32 {
	if len(t.Keys) == 0 {
		return 0
	}
	if first := t.Keys[0]; row <= float64(first.Row) {
		return first.Value
	}
	if last := t.Keys[len(t.Keys)-1]; row >= float64(last.Row) {
		return last.Value
	}
	i := sort.Search(len(t.Keys), func(i int) bool { return float64(t.Keys[i].Row) > row })
	lower, upper := t.Keys[i-1], t.Keys[i]
	pos := (row - float64(lower.Row)) / (float64(upper.Row) - float64(lower.Row))
	weight := lower.Interpolation.Interpolate(pos)
	return lower.Value + float32(float64(upper.Value-lower.Value)*weight)
}

// LastRow returns the row of the last key, or -1 for an empty track.
func (t *Track) LastRow() int {
	if len(t.Keys) == 0 {
		return -1
	}
	return t.Keys[len(t.Keys)-1].Row
}

func (t *Track) Copy() Track {
	keys := make([]Key, len(t.Keys))
	copy(keys, t.Keys)
	return Track{Name: t.Name, Keys: keys}
}
