/*
Package player plays back previously saved tracks without a tracker.

Release builds load the store a live session persisted, through any
rocket.Encoding, and query it by row exactly like the editing build queried
the live store. The player is read-only: it never mutates tracks and needs
no connection, which is the whole point of shipping one.
*/
package player

import (
	"io"

	"github.com/vsariola/rocket"
)

// Player answers value queries from a track store snapshot. It replaces the
// live session of the editing build; the caller supplies the row, typically
// computed from its music player position.
type Player struct {
	tracks map[string]*rocket.Track
}

// New builds a player from a track store. Lookups go through a map, as a
// player queries tracks by name every frame.
func New(tracks rocket.Tracks) *Player {
	m := make(map[string]*rocket.Track, len(tracks))
	for _, track := range tracks {
		m[track.Name] = track
	}
	return &Player{tracks: m}
}

// Load decodes a saved track store and builds a player from it.
func Load(r io.Reader, encoding rocket.Encoding) (*Player, error) {
	tracks, err := encoding.Decode(r)
	if err != nil {
		return nil, err
	}
	return New(tracks), nil
}

// Track returns the named track, or nil if the snapshot has no track by
// that name.
func (p *Player) Track(name string) *rocket.Track {
	return p.tracks[name]
}

// Value evaluates the named track at a fractional row position. A missing
// track evaluates to 0, like an empty one.
func (p *Player) Value(name string, row float64) float32 {
	track := p.tracks[name]
	if track == nil {
		return 0
	}
	return track.Value(row)
}

// LastRow returns the last row any track has a key on, or -1 if the
// snapshot holds no keys at all. Playback can stop once past it, as every
// value stays constant from there on.
func (p *Player) LastRow() int {
	last := -1
	for _, track := range p.tracks {
		if row := track.LastRow(); row > last {
			last = row
		}
	}
	return last
}
