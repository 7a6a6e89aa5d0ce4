package rocket_test

import (
	"testing"

	"github.com/vsariola/rocket"
)

func TestTracksEnsure(t *testing.T) {
	var tracks rocket.Tracks
	a := tracks.Ensure("cam:fov")
	b := tracks.Ensure("cam:fov")
	if a != b {
		t.Fatalf("Ensure created a second track for the same name")
	}
	tracks.Ensure("cam:FOV") // names are case-sensitive
	if len(tracks) != 2 {
		t.Fatalf("got %v tracks, expected 2", len(tracks))
	}
	if tracks.Track("cam:fov") != a {
		t.Fatalf("lookup did not return the ensured track")
	}
	if tracks.Track("nosuch") != nil {
		t.Fatalf("lookup of a missing track should return nil")
	}
}

func TestTracksPointersSurviveGrowth(t *testing.T) {
	var tracks rocket.Tracks
	first := tracks.Ensure("first")
	for i := 0; i < 100; i++ {
		tracks.Ensure(string(rune('a' + i%26)))
	}
	first.SetKey(rocket.Key{Row: 1, Value: 2})
	if got := tracks.Value("first", 1); got != 2 {
		t.Fatalf("track pointer stale after store growth, got: %v expected: 2", got)
	}
}

func TestTracksValue(t *testing.T) {
	var tracks rocket.Tracks
	tracks.Ensure("a").SetKey(rocket.Key{Row: 0, Value: 3, Interpolation: rocket.Step})
	if got := tracks.Value("a", 10); got != 3 {
		t.Fatalf("got: %v expected: 3", got)
	}
	if got := tracks.Value("missing", 10); got != 0 {
		t.Fatalf("missing track should evaluate to 0, got: %v", got)
	}
}

func TestTracksLastRow(t *testing.T) {
	var tracks rocket.Tracks
	if got := tracks.LastRow(); got != -1 {
		t.Fatalf("empty store last row: got: %v expected: -1", got)
	}
	tracks.Ensure("a").SetKey(rocket.Key{Row: 10})
	tracks.Ensure("b").SetKey(rocket.Key{Row: 25})
	tracks.Ensure("c")
	if got := tracks.LastRow(); got != 25 {
		t.Fatalf("last row: got: %v expected: 25", got)
	}
}

func TestTracksCopyIsDeep(t *testing.T) {
	var tracks rocket.Tracks
	tracks.Ensure("a").SetKey(rocket.Key{Row: 0, Value: 1})
	copied := tracks.Copy()
	copied.Track("a").SetKey(rocket.Key{Row: 0, Value: 99})
	copied.Ensure("b")
	if got := tracks.Value("a", 0); got != 1 {
		t.Fatalf("modifying the copy changed the original, got: %v expected: 1", got)
	}
	if len(tracks) != 1 {
		t.Fatalf("copy shares the track list with the original")
	}
}
