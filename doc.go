/*
Package rocket contains the data model for GNU Rocket sync tracks.

A sync track is a named sequence of keys, each key giving the value of one
scalar parameter at one row (the musical time unit) together with the
interpolation used until the next key. Tracks are pure data: querying a value
at a fractional row performs the interpolation but no I/O, so the same track
content always yields the same values. A Tracks value is the track store of a
production, shared between the live editor session (package client), offline
playback (package player) and release-build code generation (package export).

The package also defines the Encoding interface and its two implementations,
used to persist a track store to a file: TextEncoding for a human-inspectable
YAML/JSON form and BinaryEncoding for a compact form shipped with releases.
*/
package rocket
