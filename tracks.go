package rocket

// Tracks is the track store of a production: all the tracks received from or
// loaded for one demo, in the order they were first requested. The order is
// significant only for serialization; lookups go by name. Tracks are kept by
// pointer so that a *Track handed out stays valid when the store grows.
type Tracks []*Track

// Track returns the named track, or nil if the store has no track by that
// name. Names are case-sensitive.
func (t Tracks) Track(name string) *Track {
	for _, track := range t {
		if track.Name == name {
			return track
		}
	}
	return nil
}

// Ensure returns the named track, appending a new empty track to the store if
// none exists yet.
func (t *Tracks) Ensure(name string) *Track {
	if track := t.Track(name); track != nil {
		return track
	}
	track := &Track{Name: name}
	*t = append(*t, track)
	return track
}

// Value evaluates the named track at a fractional row position. A missing
// track evaluates like an empty one, to 0.
func (t Tracks) Value(name string, row float64) float32 {
	track := t.Track(name)
	if track == nil {
		return 0
	}
	return track.Value(row)
}

// LastRow returns the largest key row over all tracks in the store, or -1 if
// no track has any keys.
func (t Tracks) LastRow() int {
	last := -1
	for _, track := range t {
		if r := track.LastRow(); r > last {
			last = r
		}
	}
	return last
}

func (t Tracks) Copy() Tracks {
	tracks := make(Tracks, len(t))
	for i, track := range t {
		c := track.Copy()
		tracks[i] = &c
	}
	return tracks
}
