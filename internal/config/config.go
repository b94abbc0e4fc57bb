// Package config holds the picker options record and its file format.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"ffpopup/internal/layout"
)

// Highlights names the highlight groups the popups use.
type Highlights struct {
	Popup       string `yaml:"popup" toml:"popup" json:"popup" validate:"required"`
	Cursor      string `yaml:"cursor" toml:"cursor" json:"cursor" validate:"required"`
	Cursorline  string `yaml:"cursorline" toml:"cursorline" json:"cursorline" validate:"required"`
	Selected    string `yaml:"selected" toml:"selected" json:"selected" validate:"required"`
	Previewline string `yaml:"previewline" toml:"previewline" json:"previewline" validate:"required"`
}

// Params is the options record supplied at session start.
//
// Bounds are resolved in order: BoundsProvider, BoundsCallback (the id of a
// host callback returning {finder, preview}), Bounds, and finally the
// default layout for the screen size.
type Params struct {
	Bounds         *layout.Params  `yaml:"bounds,omitempty" toml:"bounds,omitempty" json:"bounds,omitempty"`
	BoundsCallback string          `yaml:"boundsCallback,omitempty" toml:"boundsCallback,omitempty" json:"boundsCallback,omitempty"`
	BoundsProvider layout.Provider `yaml:"-" toml:"-" json:"-"`

	ListerBorder  layout.Border `yaml:"listerBorder" toml:"listerBorder" json:"listerBorder"`
	FilterBorder  layout.Border `yaml:"filterBorder" toml:"filterBorder" json:"filterBorder"`
	PreviewBorder layout.Border `yaml:"previewBorder" toml:"previewBorder" json:"previewBorder"`

	FilterPosition string     `yaml:"filterPosition" toml:"filterPosition" json:"filterPosition" validate:"oneof=top bottom" jsonschema:"enum=top,enum=bottom"`
	Highlights     Highlights `yaml:"highlights" toml:"highlights" json:"highlights"`

	StartFilter bool   `yaml:"startFilter" toml:"startFilter" json:"startFilter"`
	DisplayTree bool   `yaml:"displayTree" toml:"displayTree" json:"displayTree"`
	Reversed    bool   `yaml:"reversed" toml:"reversed" json:"reversed"`
	HideCursor  bool   `yaml:"hideCursor" toml:"hideCursor" json:"hideCursor"`
	Prompt      string `yaml:"prompt" toml:"prompt" json:"prompt"`
	HandleCtrlC bool   `yaml:"handleCtrlC" toml:"handleCtrlC" json:"handleCtrlC"`

	// Host options.
	Scrolloff        int `yaml:"scrolloff" toml:"scrolloff" json:"scrolloff" validate:"gte=0"`
	SyntaxLimitChars int `yaml:"syntaxLimitChars,omitempty" toml:"syntaxLimitChars,omitempty" json:"syntaxLimitChars,omitempty" validate:"gte=0"`
}

// Default returns the built-in options.
func Default() Params {
	full := []int{1, 1, 1, 1}
	return Params{
		ListerBorder:   layout.Border{Mask: full},
		FilterBorder:   layout.Border{Mask: full},
		PreviewBorder:  layout.Border{Mask: full},
		FilterPosition: "top",
		Highlights: Highlights{
			Popup:       "Normal",
			Cursor:      "Cursor",
			Cursorline:  "Cursorline",
			Selected:    "Statement",
			Previewline: "Search",
		},
		Prompt: ">> ",
	}
}

// FilterOnTop reports whether the filter sits above the lister.
func (p Params) FilterOnTop() bool { return p.FilterPosition != "bottom" }

// LayoutOptions returns the options layout.Calc needs.
func (p Params) LayoutOptions() layout.Options {
	return layout.Options{
		ListerBorder:   p.ListerBorder,
		FilterBorder:   p.FilterBorder,
		PreviewBorder:  p.PreviewBorder,
		FilterOnTop:    p.FilterOnTop(),
		PopupHighlight: p.Highlights.Popup,
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks field constraints.
func (p Params) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	for name, b := range map[string]layout.Border{"listerBorder": p.ListerBorder, "filterBorder": p.FilterBorder, "previewBorder": p.PreviewBorder} {
		if len(b.Mask) > 4 {
			return fmt.Errorf("invalid config: %s.mask has %d entries, want at most 4", name, len(b.Mask))
		}
	}
	return nil
}

// Load reads path over the defaults. A missing file yields the defaults.
// Files ending in .toml are TOML, everything else YAML.
func Load(path string) (Params, error) {
	p := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return p, nil
	}
	if err != nil {
		return p, err
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		err = toml.Unmarshal(data, &p)
	} else {
		err = yaml.Unmarshal(data, &p)
	}
	if err != nil {
		return p, fmt.Errorf("parse %s: %w", path, err)
	}
	return p, p.Validate()
}

// Marshal renders p in the format implied by path.
func Marshal(path string, p Params) ([]byte, error) {
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return toml.Marshal(p)
	}
	return yaml.Marshal(p)
}

// Save writes p to path, creating the directory.
func Save(path string, p Params) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := Marshal(path, p)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Schema returns a JSON Schema for the config file.
func Schema() *jsonschema.Schema {
	r := jsonschema.Reflector{ExpandedStruct: true, DoNotReference: true}
	sch := r.Reflect(&Params{})
	sch.Title = "ffpopup config"
	return sch
}

// MarshalSchema indents the schema to JSON bytes.
func MarshalSchema(sch *jsonschema.Schema) ([]byte, error) {
	return json.MarshalIndent(sch, "", "  ")
}
