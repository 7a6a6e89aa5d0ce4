package client

import (
	"bytes"
	"errors"
	"log"
	"os"
	"time"

	"github.com/vsariola/rocket"
)

// DefaultAddr is where the reference trackers listen.
const DefaultAddr = "localhost:1338"

const (
	// DefaultRowsPerBeat is the track resolution demos conventionally use.
	DefaultRowsPerBeat = 8
	// ReconnectInterval is how long Sync waits between connection attempts.
	ReconnectInterval = time.Second
)

type (
	// SeekEvent asks the application to move its time source, typically the
	// music player position, because the tracker jumped to another row.
	SeekEvent struct {
		Time time.Duration
	}

	// NotConnectedEvent reports that a connection attempt just failed; it is
	// emitted at most once per ReconnectInterval. Values keep working from
	// the store and a later Poll retries the connection.
	NotConnectedEvent struct{}
)

func (SeekEvent) event()         {}
func (NotConnectedEvent) event() {}

// Sync is the self-healing facade over Client that most demos want. It owns
// a track store for the lifetime of the process, reconnects to the tracker
// at most once per ReconnectInterval, converts between time and rows using
// BPM and RowsPerBeat, and persists the store to SavePath when the tracker
// asks. Errors are logged with a "rocket:" prefix and demoted to
// disconnection, so the frame loop never has to unwind; previously learned
// keys keep answering Value calls while disconnected, and a reconnect
// re-requests every known track name to resynchronize indices.
//
// The exported fields may only be changed before the first Poll.
type Sync struct {
	BPM         float64         // beats per minute of the soundtrack
	RowsPerBeat int             // rows per beat, the track resolution
	SavePath    string          // where SaveTracks persists; empty logs and skips
	SaveAs      rocket.Encoding // encoding used for SavePath

	addr        string
	tracks      rocket.Tracks
	client      *Client
	lastAttempt time.Time
	row         float64
	sentRow     int
	paused      bool
}

// NewSync returns a disconnected Sync; the first Poll starts connecting.
// An empty addr means DefaultAddr.
func NewSync(addr string, bpm float64) *Sync {
	if addr == "" {
		addr = DefaultAddr
	}
	return &Sync{
		BPM:         bpm,
		RowsPerBeat: DefaultRowsPerBeat,
		SaveAs:      rocket.TextEncoding{},
		addr:        addr,
	}
}

// Poll drives the connection and returns the next event the application
// should react to, or nil when nothing is pending. Call it every frame,
// looping until nil. Track edits are applied to the store internally and
// save requests are handled internally; only seeking, pausing and the
// missing connection surface.
func (s *Sync) Poll() Event {
	for {
		if s.client == nil {
			if time.Since(s.lastAttempt) < ReconnectInterval {
				return nil
			}
			if !s.connect() {
				return NotConnectedEvent{}
			}
		}
		event, err := s.client.PollEvent()
		if err != nil {
			s.dropClient(err)
			continue
		}
		if event == nil {
			return nil
		}
		switch e := event.(type) {
		case RowEvent:
			s.row = float64(e.Row)
			return SeekEvent{Time: s.rowTime(s.row)}
		case PauseEvent:
			s.paused = e.Paused
			return e
		case SaveEvent:
			s.save()
		}
	}
}

// SetTime reports the current position of the application's time source.
// The integer row is pushed to the tracker only when it changed since the
// last push, so the editor follows the demo without being flooded.
func (s *Sync) SetTime(t time.Duration) {
	s.row = t.Seconds() * s.rowRate()
	row := int(s.row)
	if s.client == nil || row == s.sentRow {
		return
	}
	if err := s.client.SetRow(row); err != nil {
		s.dropClient(err)
		return
	}
	s.sentRow = row
}

// Value returns the named track's value at the position of the last SetTime
// or seek. The track is created and requested on first use; when there is
// no connection the stored keys answer, an empty track yielding 0.
func (s *Sync) Value(name string) float32 {
	return s.track(name).Value(s.row)
}

// Track returns the named track from the store, creating it and requesting
// it from the tracker on first use.
func (s *Sync) Track(name string) *rocket.Track {
	return s.track(name)
}

// LoadTracks seeds the store from a previously saved file, so that values
// are available before the first connection. It refuses to load while
// connected, because the session's track indices would no longer match the
// store.
func (s *Sync) LoadTracks(path string) error {
	if s.client != nil {
		return errors.New("cannot load tracks while connected")
	}
	contents, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	tracks, err := rocket.DetectEncoding(contents).Decode(bytes.NewReader(contents))
	if err != nil {
		return err
	}
	s.tracks = tracks
	return nil
}

// Row returns the current fractional row position.
func (s *Sync) Row() float64 {
	return s.row
}

// Paused returns the pause state last reported by the tracker.
func (s *Sync) Paused() bool {
	return s.paused
}

// Connected reports whether a tracker session is live right now.
func (s *Sync) Connected() bool {
	return s.client != nil
}

// Tracks exposes the store, for exporting or saving it outside the
// tracker-requested flow.
func (s *Sync) Tracks() rocket.Tracks {
	return s.tracks
}

// Close drops the connection, if any. The store stays usable.
func (s *Sync) Close() error {
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *Sync) connect() bool {
	s.lastAttempt = time.Now()
	log.Printf("rocket: connecting to %s", s.addr)
	client, err := Connect(s.addr, &s.tracks)
	if err != nil {
		log.Printf("rocket: %v", err)
		return false
	}
	s.client = client
	// resynchronize indices: the tracker numbers tracks by request order
	for _, track := range s.tracks {
		if _, err := s.client.GetTrack(track.Name); err != nil {
			s.dropClient(err)
			return false
		}
	}
	return true
}

func (s *Sync) track(name string) *rocket.Track {
	if s.client != nil {
		track, err := s.client.GetTrack(name)
		if err == nil {
			return track
		}
		s.dropClient(err)
	}
	return s.tracks.Ensure(name)
}

func (s *Sync) save() {
	if s.SavePath == "" {
		log.Printf("rocket: no save path configured, tracks not saved")
		return
	}
	f, err := os.Create(s.SavePath)
	if err != nil {
		log.Printf("rocket: %v", err)
		return
	}
	err = s.SaveAs.Encode(f, s.tracks)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Printf("rocket: saving tracks to %s: %v", s.SavePath, err)
		return
	}
	log.Printf("rocket: tracks saved to %s", s.SavePath)
}

func (s *Sync) dropClient(err error) {
	log.Printf("rocket: %v", err)
	s.client.Close()
	s.client = nil
}

func (s *Sync) rowRate() float64 {
	return s.BPM / 60 * float64(s.RowsPerBeat)
}

func (s *Sync) rowTime(row float64) time.Duration {
	return time.Duration(row / s.rowRate() * float64(time.Second))
}
