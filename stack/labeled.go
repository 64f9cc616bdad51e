package stack

// Labeled is an object-label volume over a stack's geometry: 0 is
// background, every positive ID one connected component. After filtering,
// surviving IDs are dense in 1..N.
type Labeled struct {
	Geometry
	Labels []int32
	N      int32
}

// NewLabeled allocates an all-background label volume.
func NewLabeled(g Geometry) *Labeled {
	return &Labeled{Geometry: g, Labels: make([]int32, g.NSamples())}
}

// Mask reduces the label volume to a binary foreground mask.
func (l *Labeled) Mask() *Mask {
	m := NewMask(l.Geometry)
	for i, v := range l.Labels {
		if v != 0 {
			m.Bits[i] = true
		}
	}

	return m
}
