package segment

import (
	"fmt"

	"github.com/biostacks/nucseg/stack"
	"gonum.org/v1/gonum/floats"
)

// Preprocess normalizes a freshly decoded stack for thresholding. Leading
// singleton axes (degenerate time or channel dimensions) are squeezed away,
// every sample is divided by the deconvolution rescaling factor, and in
// single-slice mode a 3D stack is reduced to its first Z plane. The stack
// is modified in place; the returned pointer is the one to keep using.
func Preprocess(s *stack.Stack, factor float64, singleSlice bool) (*stack.Stack, error) {
	if factor <= 0 {
		return nil, fmt.Errorf("rescaling factor must be positive, got %v", factor)
	}

	if err := s.Squeeze(3); err != nil {
		return nil, err
	}

	if singleSlice && s.NDim() == 3 {
		plane, err := s.Plane(0)
		if err != nil {
			return nil, err
		}

		s = plane
	}

	if _, err := s.Geometry(); err != nil {
		return nil, err
	}

	if factor != 1 {
		floats.Scale(1/factor, s.Data)
	}

	return s, nil
}
