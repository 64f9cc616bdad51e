package stack

// Mask is a binary foreground mask over a stack's geometry.
type Mask struct {
	Geometry
	Bits []bool
}

// NewMask allocates an all-background mask.
func NewMask(g Geometry) *Mask {
	return &Mask{Geometry: g, Bits: make([]bool, g.NSamples())}
}

// Count reports the number of foreground samples.
func (m *Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}

	return n
}

// Clone deep-copies the mask.
func (m *Mask) Clone() *Mask {
	out := NewMask(m.Geometry)
	copy(out.Bits, m.Bits)

	return out
}
