// Package stack holds dense 2D and 3D image volumes in C order, along with
// the binary masks and label volumes that segmentation derives from them.
package stack

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
)

// Stack is an n-dimensional intensity volume. Samples are stored flat in C
// order, slowest axis first: for a 3D stack, index = (z*NY+y)*NX + x.
// Freshly decoded stacks may carry extra leading axes (a degenerate time or
// channel axis); Squeeze normalizes those away before segmentation.
type Stack struct {
	Dims []int
	Data []float64
}

// New allocates a zero-filled stack with the given dimensions.
func New(dims ...int) *Stack {
	n := 1
	for _, d := range dims {
		n *= d
	}

	return &Stack{Dims: append([]int{}, dims...), Data: make([]float64, n)}
}

func (s *Stack) NDim() int { return len(s.Dims) }

func (s *Stack) NSamples() int { return len(s.Data) }

// MinMax returns the smallest and largest sample values, or (0, 0) for an
// empty stack.
func (s *Stack) MinMax() (min, max float64) {
	if len(s.Data) == 0 {
		return 0, 0
	}

	return floats.Min(s.Data), floats.Max(s.Data)
}

// Squeeze drops leading singleton axes until at most target axes remain. If
// a leading axis holds more than one element the stack cannot be collapsed
// and a ShapeError is returned.
func (s *Stack) Squeeze(target int) error {
	for len(s.Dims) > target {
		if s.Dims[0] != 1 {
			return ShapeError{Dims: append([]int{}, s.Dims...), Target: target}
		}

		s.Dims = s.Dims[1:]
	}

	return nil
}

// Geometry resolves the stack's normalized shape. Only 2D and 3D stacks
// have a geometry; any other rank is a ShapeError.
func (s *Stack) Geometry() (Geometry, error) {
	switch len(s.Dims) {
	case 2:
		return Geometry{NDim: 2, NZ: 1, NY: s.Dims[0], NX: s.Dims[1]}, nil
	case 3:
		return Geometry{NDim: 3, NZ: s.Dims[0], NY: s.Dims[1], NX: s.Dims[2]}, nil
	}

	return Geometry{}, ShapeError{Dims: append([]int{}, s.Dims...), Target: 3}
}

// Plane copies one Z plane out of a 3D stack as a new 2D stack.
func (s *Stack) Plane(z int) (*Stack, error) {
	g, err := s.Geometry()
	if err != nil {
		return nil, err
	}

	if g.NDim != 3 || z < 0 || z >= g.NZ {
		return nil, fmt.Errorf("no plane %d in a stack of dims %v", z, s.Dims)
	}

	out := New(g.NY, g.NX)
	copy(out.Data, s.Data[z*g.NY*g.NX:(z+1)*g.NY*g.NX])

	return out, nil
}

// ShapeError reports a stack whose axes cannot be normalized to the
// supported dimensionality.
type ShapeError struct {
	Dims   []int
	Target int
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("stack of dims %v cannot be reduced to %dD", e.Dims, e.Target)
}
