/*
Package export bakes a track store into source code for release builds.

Size-restricted intros do not ship a track file and a parser; they compile
the sync data in. Bake samples every track at every integer row into flat
float tables, and Exporter renders those tables through text templates into
a C header and a NASM include, one identifier per track derived from the
track name.
*/
package export

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/Masterminds/sprig"
	"github.com/viterin/vek/vek32"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/vsariola/rocket"
)

//go:embed templates/*
var templateFS embed.FS

type (
	// Baked is a track store sampled at every integer row from 0 to Rows-1.
	Baked struct {
		Rows   int
		Tracks []BakedTrack
	}

	// BakedTrack is one sampled track. Identifier is the track name turned
	// into source-code form, "cam:fov" becoming "CamFov"; templates prepend
	// their prefix to it, so a name starting with a digit stays valid.
	BakedTrack struct {
		Name       string
		Identifier string
		Values     []float32
		Min, Max   float32
	}

	// Macros is the data the templates render.
	Macros struct {
		Prefix string
		Baked
	}

	// Exporter renders baked tracks with the builtin templates. The output
	// extension of each template is its file name's extension.
	Exporter struct {
		Template *template.Template
		Prefix   string
	}
)

// Bake samples every track at integer rows 0..length-1. A length of zero or
// less means one row past the last key of the store, so nothing is cut off.
func Bake(tracks rocket.Tracks, length int) Baked {
	if length <= 0 {
		length = tracks.LastRow() + 1
	}
	caser := cases.Title(language.English)
	baked := Baked{Rows: length}
	for i, track := range tracks {
		values := make([]float32, length)
		for row := range values {
			values[row] = track.Value(float64(row))
		}
		bakedTrack := BakedTrack{
			Name:       track.Name,
			Identifier: identifier(caser, track.Name, i),
			Values:     values,
		}
		if length > 0 {
			bakedTrack.Min = vek32.Min(values)
			bakedTrack.Max = vek32.Max(values)
		}
		baked.Tracks = append(baked.Tracks, bakedTrack)
	}
	return baked
}

// identifier turns a track name into an UpperCamel word, title-casing the
// runs of letters and digits. Names with nothing usable fall back to the
// track's position in the store.
func identifier(caser cases.Caser, name string, index int) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	if len(parts) == 0 {
		return fmt.Sprintf("Track%d", index)
	}
	var b strings.Builder
	for _, part := range parts {
		b.WriteString(caser.String(part))
	}
	return b.String()
}

func NewMacros(prefix string, baked Baked) Macros {
	return Macros{Prefix: prefix, Baked: baked}
}

// Float formats a value so that both a C compiler and NASM read it as a
// floating point constant; NASM in particular stores "45" as an integer,
// so a decimal point is forced in.
func (Macros) Float(v float32) string {
	s := strconv.FormatFloat(float64(v), 'g', -1, 32)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// New returns an exporter using the builtin templates and the conventional
// "sync" identifier prefix.
func New() (*Exporter, error) {
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseFS(templateFS, "templates/*")
	if err != nil {
		return nil, fmt.Errorf("could not parse the builtin templates: %v", err)
	}
	return &Exporter{Template: tmpl, Prefix: "sync"}, nil
}

// NewFromTemplates returns an exporter using the templates in the given
// directory instead of the builtin ones. The directory must provide the
// same template names the builtin set has.
func NewFromTemplates(templateDirectory string) (*Exporter, error) {
	globPtrn := filepath.Join(templateDirectory, "*.*")
	tmpl, err := template.New("base").Funcs(sprig.TxtFuncMap()).ParseGlob(globPtrn)
	if err != nil {
		return nil, fmt.Errorf(`could not create template based on directory "%v": %v`, templateDirectory, err)
	}
	return &Exporter{Template: tmpl, Prefix: "sync"}, nil
}

// Sources bakes the store and renders every template, returning a map from
// file extension to the populated source.
func (e *Exporter) Sources(tracks rocket.Tracks, length int) (map[string]string, error) {
	baked := Bake(tracks, length)
	if baked.Rows == 0 {
		return nil, errors.New("no keys to export and no explicit length given")
	}
	templates := []string{"tracks.h", "tracks.inc"}
	macros := NewMacros(e.Prefix, baked)
	retmap := map[string]string{}
	for _, templateName := range templates {
		populatedTemplate, extension, err := e.compile(templateName, macros)
		if err != nil {
			return nil, fmt.Errorf(`could not execute template "%v": %v`, templateName, err)
		}
		retmap[extension] = populatedTemplate
	}
	return retmap, nil
}

func (e *Exporter) compile(templateName string, data interface{}) (string, string, error) {
	result := bytes.NewBufferString("")
	err := e.Template.ExecuteTemplate(result, templateName, data)
	extension := filepath.Ext(templateName)
	return result.String(), extension, err
}
