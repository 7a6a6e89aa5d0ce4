//go:build !cgo

package main

import "errors"

// with no cgo, rtmidi is unavailable, so MIDI jamming is disabled
func openMIDIInput(namePrefix string, t *tone) (func(), error) {
	return nil, errors.New("MIDI input requires cgo")
}
