// Package segment turns a raw fluorescence intensity stack into a labeled
// set of nuclei. The pipeline is a fixed sequence of pure stages: intensity
// preprocessing, dual-threshold binarization, morphological cleanup,
// connected-component labeling, and object filtering. No stage keeps state
// between images.
package segment

import (
	"fmt"
	"math"
	"os"

	"github.com/carbocation/pfx"
	"gopkg.in/yaml.v3"
)

// Params holds every knob a segmentation run recognizes. One Params value
// applies uniformly to all images in a batch.
type Params struct {
	// Neighbourhood is the side of the local-threshold window, in samples.
	// Must be odd. Clamped per axis when it exceeds a stack dimension.
	Neighbourhood int `yaml:"neighbourhood"`

	// LocalOffset is subtracted from the local mean before comparison.
	LocalOffset float64 `yaml:"local_offset"`

	// MinRadius and MaxRadius bound the acceptable equivalent object
	// radius in voxels, both ends inclusive.
	MinRadius float64 `yaml:"min_radius"`
	MaxRadius float64 `yaml:"max_radius"`

	// MinZFraction is the smallest fraction of the stack depth an object
	// must span to be retained. Ignored for 2D stacks.
	MinZFraction float64 `yaml:"min_z_fraction"`

	// ClearBorders discards objects touching the XY boundary.
	ClearBorders bool `yaml:"clear_borders"`

	// Labeled selects per-object ID output instead of a binary mask.
	Labeled bool `yaml:"labeled"`

	// Compress enables deflate compression of the output TIFF.
	Compress bool `yaml:"compress"`

	// SingleSlice processes only the first Z plane of a 3D stack.
	SingleSlice bool `yaml:"single_slice"`
}

// DefaultParams returns the parameter values used when nothing is
// configured: a 101-wide neighbourhood, radius at least 10 voxels with no
// upper bound, a quarter of the stack depth, and border clearing on.
func DefaultParams() Params {
	return Params{
		Neighbourhood: 101,
		MinRadius:     10,
		MaxRadius:     math.Inf(1),
		MinZFraction:  0.25,
		ClearBorders:  true,
	}
}

// LoadParams reads a YAML parameter file over the defaults.
func LoadParams(path string) (Params, error) {
	p := DefaultParams()

	if _, err := os.Stat(path); err != nil {
		return p, pfx.Err(err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return p, pfx.Err(err)
	}

	if err := yaml.Unmarshal(raw, &p); err != nil {
		return p, pfx.Err(err)
	}

	return p, p.Validate()
}

// Validate rejects parameter combinations the pipeline cannot honor.
func (p Params) Validate() error {
	if p.Neighbourhood < 1 || p.Neighbourhood%2 == 0 {
		return fmt.Errorf("neighbourhood side must be a positive odd integer, got %d", p.Neighbourhood)
	}

	if p.MinRadius < 0 {
		return fmt.Errorf("minimum radius must not be negative, got %v", p.MinRadius)
	}

	if p.MaxRadius < p.MinRadius {
		return fmt.Errorf("radius interval [%v, %v] is empty", p.MinRadius, p.MaxRadius)
	}

	if p.MinZFraction < 0 || p.MinZFraction > 1 {
		return fmt.Errorf("minimum Z fraction must be within [0, 1], got %v", p.MinZFraction)
	}

	return nil
}
