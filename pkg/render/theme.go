package render

import (
	"fmt"

	"gopkg.in/go-playground/colors.v1"

	"github.com/matzehuels/stateviz/pkg/errors"
)

// Theme holds the colours of a rendering. Colours are hex (#rrggbb, #rgb),
// rgb(...) or rgba(...) strings.
type Theme struct {
	Background string `json:"background" toml:"background"`
	State      string `json:"state" toml:"state"`
	Stroke     string `json:"stroke" toml:"stroke"`
	Text       string `json:"text" toml:"text"`
	Edge       string `json:"edge" toml:"edge"`
	Active     string `json:"active" toml:"active"`
}

// DefaultTheme returns the built-in light theme.
func DefaultTheme() Theme {
	return Theme{
		Background: "#ffffff",
		State:      "#f5f5f5",
		Stroke:     "#555555",
		Text:       "#222222",
		Edge:       "#777777",
		Active:     "#2f7de1",
	}
}

// Normalize fills empty colours from the default theme and converts every
// colour to hex. It fails with INVALID_THEME on an unparseable colour.
func (t *Theme) Normalize() error {
	def := DefaultTheme()
	fields := []struct {
		name string
		v    *string
		def  string
	}{
		{"background", &t.Background, def.Background},
		{"state", &t.State, def.State},
		{"stroke", &t.Stroke, def.Stroke},
		{"text", &t.Text, def.Text},
		{"edge", &t.Edge, def.Edge},
		{"active", &t.Active, def.Active},
	}
	for _, f := range fields {
		if *f.v == "" {
			*f.v = f.def
			continue
		}
		hex, err := toHex(*f.v)
		if err != nil {
			return errors.Wrap(errors.ErrCodeInvalidTheme, err, "theme %s colour %q", f.name, *f.v)
		}
		*f.v = hex
	}
	return nil
}

func toHex(s string) (string, error) {
	c, err := colors.Parse(s)
	if err != nil {
		return "", fmt.Errorf("parse colour: %w", err)
	}
	return c.ToHEX().String(), nil
}
