package main

import (
	"bytes"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/vsariola/rocket"
	"github.com/vsariola/rocket/client"
	"github.com/vsariola/rocket/player"
	"github.com/vsariola/rocket/version"
)

const sampleRate = 44100

var cpuprofile = flag.String("cpuprofile", "", "write cpu profile to `file`")
var address = flag.String("address", "", "tracker address, overriding the configuration")
var playFile = flag.String("play", "", "play the given track `file` standalone instead of connecting to a tracker")
var midiInput = flag.String("midi-input", "", "connect MIDI input to matching device name prefix, for jamming notes")
var versionFlag = flag.Bool("v", false, "print version")

func main() {
	flag.Parse()
	if *versionFlag {
		fmt.Println(version.VersionOrHash)
		os.Exit(0)
	}
	config := makeConfig()
	if config.YmlError != nil {
		log.Printf("rocket: user configuration ignored: %v", config.YmlError)
	}
	if *address != "" {
		config.Address = *address
	}
	if *cpuprofile != "" {
		f, err := os.Create(*cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		defer pprof.StopCPUProfile()
	}
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
	}
	otoContext, ready, err := oto.NewContext(op)
	if err != nil {
		log.Fatal("could not create oto context: ", err)
	}
	<-ready
	tone := newTone(sampleRate)
	audio := otoContext.NewPlayer(tone)
	defer audio.Close()
	audio.Play()
	if isFlagPassed("midi-input") {
		closeMIDI, err := openMIDIInput(*midiInput, tone)
		if err != nil {
			log.Printf("rocket: %v", err)
		} else {
			defer closeMIDI()
		}
	}
	interrupted := make(chan os.Signal, 1)
	signal.Notify(interrupted, os.Interrupt)
	if *playFile != "" {
		runPlayer(config, tone, interrupted)
	} else {
		runLive(config, tone, interrupted)
	}
}

// runLive drives the tone from a tracker connection, reconnecting as
// needed. The audio clock leads and the tracker follows, except when the
// tracker seeks or pauses.
func runLive(config Config, tone *tone, interrupted chan os.Signal) {
	s := client.NewSync(config.Address, config.BPM)
	if config.RowsPerBeat > 0 {
		s.RowsPerBeat = config.RowsPerBeat
	}
	s.SavePath = config.SavePath
	s.SaveAs = saveEncoding(config.SavePath)
	if config.SavePath != "" {
		if err := s.LoadTracks(config.SavePath); err == nil {
			log.Printf("rocket: loaded tracks from %s", config.SavePath)
		} else if !os.IsNotExist(err) {
			log.Printf("rocket: %v", err)
		}
	}
	defer s.Close()
	tone.SetRunning(true)
	for {
		select {
		case <-interrupted:
			return
		default:
		}
		for event := s.Poll(); event != nil; event = s.Poll() {
			switch e := event.(type) {
			case client.SeekEvent:
				tone.Seek(e.Time)
			case client.PauseEvent:
				tone.SetRunning(!e.Paused)
			case client.NotConnectedEvent:
				// keep playing from the stored keys
			}
		}
		if !s.Paused() {
			s.SetTime(tone.Time())
		}
		tone.Set(
			s.Value(config.Tracks.Note),
			s.Value(config.Tracks.Gain),
			s.Value(config.Tracks.Pan),
			s.Value(config.Tracks.Detune),
		)
		time.Sleep(10 * time.Millisecond)
	}
}

// runPlayer plays a saved track file without a tracker, stopping once past
// the last key.
func runPlayer(config Config, tone *tone, interrupted chan os.Signal) {
	contents, err := os.ReadFile(*playFile)
	if err != nil {
		log.Fatal("could not read track file: ", err)
	}
	p, err := player.Load(bytes.NewReader(contents), rocket.DetectEncoding(contents))
	if err != nil {
		log.Fatal("could not load tracks: ", err)
	}
	rowsPerBeat := config.RowsPerBeat
	if rowsPerBeat <= 0 {
		rowsPerBeat = client.DefaultRowsPerBeat
	}
	rate := config.BPM / 60 * float64(rowsPerBeat)
	lastRow := p.LastRow()
	tone.SetRunning(true)
	for {
		select {
		case <-interrupted:
			return
		default:
		}
		row := tone.Time().Seconds() * rate
		if row > float64(lastRow) {
			return
		}
		tone.Set(
			p.Value(config.Tracks.Note, row),
			p.Value(config.Tracks.Gain, row),
			p.Value(config.Tracks.Pan, row),
			p.Value(config.Tracks.Detune, row),
		)
		time.Sleep(10 * time.Millisecond)
	}
}

// saveEncoding picks the save format from the file extension, defaulting
// to YAML.
func saveEncoding(path string) rocket.Encoding {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".rkt":
		return rocket.BinaryEncoding{}
	case ".json":
		return rocket.TextEncoding{JSON: true}
	}
	return rocket.TextEncoding{}
}

func isFlagPassed(name string) bool {
	found := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}
