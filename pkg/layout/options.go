package layout

import (
	"slices"

	"github.com/matzehuels/stateviz/pkg/errors"
)

// Rank directions accepted by Graphviz.
const (
	RankDirTB = "TB"
	RankDirLR = "LR"
	RankDirBT = "BT"
	RankDirRL = "RL"
)

// DefaultRankDir is used when Options.RankDir is empty.
const DefaultRankDir = RankDirTB

// Options configures layout computation.
type Options struct {
	// RankDir is the main direction of the layout (TB, LR, BT or RL).
	RankDir string `json:"rankdir"`

	// Routing keeps the Graphviz edge routes. When false, Apply leaves edges
	// without sections and renderers fall back to straight routing.
	Routing bool `json:"routing"`
}

// ValidateAndSetDefaults fills in defaults and rejects unknown directions.
func (o *Options) ValidateAndSetDefaults() error {
	if o.RankDir == "" {
		o.RankDir = DefaultRankDir
	}
	if !slices.Contains([]string{RankDirTB, RankDirLR, RankDirBT, RankDirRL}, o.RankDir) {
		return errors.New(errors.ErrCodeInvalidInput, "invalid rankdir %q (want TB, LR, BT or RL)", o.RankDir)
	}
	return nil
}
