package rocket

import (
	"encoding/json"
	"fmt"
)

// Interpolation selects the curve used to blend a key into the following key.
// The numeric values are fixed by the Rocket protocol: they appear as single
// bytes both on the wire and in the binary track file format, so they must
// not be reordered.
type Interpolation byte

const (
	// Step holds the value of the key until the next key.
	Step Interpolation = iota
	// Linear blends linearly towards the next key.
	Linear
	// Smooth eases in and out towards the next key with a smoothstep curve.
	Smooth
	// Ramp accelerates quadratically towards the next key.
	Ramp
)

var interpolationNames = [...]string{"step", "linear", "smooth", "ramp"}

// Interpolate maps the normalized position t within a key segment to the
// weight of the following key. Every curve maps 0 to 0, so values are exact
// at key rows; every curve except Step maps 1 to 1 and is monotonic in
// between.
func (i Interpolation) Interpolate(t float64) float64 {
	switch i {
	case Linear:
		return t
	case Smooth:
		return t * t * (3 - 2*t)
	case Ramp:
		return t * t
	}
	return 0
}

// Valid reports whether i is one of the interpolation kinds defined by the
// protocol. Out of range values are never clamped; the codecs reject them.
func (i Interpolation) Valid() bool {
	return int(i) < len(interpolationNames)
}

func (i Interpolation) String() string {
	if !i.Valid() {
		return fmt.Sprintf("interpolation(%d)", int(i))
	}
	return interpolationNames[i]
}

func (i *Interpolation) parse(name string) error {
	for k, n := range interpolationNames {
		if n == name {
			*i = Interpolation(k)
			return nil
		}
	}
	return fmt.Errorf("unknown interpolation %q", name)
}

// MarshalYAML serializes the interpolation as its lower-case name, so track
// files stay readable and do not depend on the numeric protocol values.
func (i Interpolation) MarshalYAML() (interface{}, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid interpolation %d", int(i))
	}
	return interpolationNames[i], nil
}

func (i *Interpolation) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var name string
	if err := unmarshal(&name); err != nil {
		return err
	}
	return i.parse(name)
}

func (i Interpolation) MarshalJSON() ([]byte, error) {
	if !i.Valid() {
		return nil, fmt.Errorf("cannot marshal invalid interpolation %d", int(i))
	}
	return json.Marshal(interpolationNames[i])
}

func (i *Interpolation) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	return i.parse(name)
}
