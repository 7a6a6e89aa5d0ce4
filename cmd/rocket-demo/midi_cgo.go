//go:build cgo

package main

import (
	"fmt"
	"strings"

	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
)

// openMIDIInput opens the first MIDI input whose name has the given prefix
// and routes its notes to the tone, so notes can be jammed while the
// tracker is paused. The returned closer releases the device and driver.
func openMIDIInput(namePrefix string, t *tone) (func(), error) {
	driver, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("no MIDI driver available: %v", err)
	}
	ins, err := driver.Ins()
	if err != nil {
		driver.Close()
		return nil, fmt.Errorf("could not list MIDI inputs: %v", err)
	}
	for _, in := range ins {
		if !strings.HasPrefix(in.String(), namePrefix) {
			continue
		}
		if err := in.Open(); err != nil {
			driver.Close()
			return nil, fmt.Errorf("opening MIDI input %v failed: %v", in, err)
		}
		stop, err := midi.ListenTo(in, func(msg midi.Message, timestampms int32) {
			var channel, key, velocity uint8
			switch {
			case msg.GetNoteOn(&channel, &key, &velocity):
				t.PressNote(key, velocity)
			case msg.GetNoteOff(&channel, &key, &velocity):
				t.ReleaseNote(key)
			}
		})
		if err != nil {
			in.Close()
			driver.Close()
			return nil, fmt.Errorf("listening to MIDI input %v failed: %v", in, err)
		}
		return func() {
			stop()
			in.Close()
			driver.Close()
		}, nil
	}
	driver.Close()
	return nil, fmt.Errorf("no MIDI input device found with prefix %q", namePrefix)
}
