package stack

// Geometry is the normalized shape of a 2D or 3D stack. A 2D stack is
// modeled as a single Z plane, so mask and label algorithms are written
// once and select behavior on NDim alone.
type Geometry struct {
	NZ   int
	NY   int
	NX   int
	NDim int
}

func (g Geometry) NSamples() int { return g.NZ * g.NY * g.NX }

// Index flattens (z, y, x) coordinates into a sample offset.
func (g Geometry) Index(z, y, x int) int { return (z*g.NY+y)*g.NX + x }

// Coords splits a flat sample offset back into (z, y, x).
func (g Geometry) Coords(i int) (z, y, x int) {
	x = i % g.NX
	i /= g.NX
	y = i % g.NY
	z = i / g.NY

	return
}
