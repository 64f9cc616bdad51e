package segment

import "github.com/biostacks/nucseg/stack"

// FillHoles flips every enclosed background region to foreground, in
// place. The complement is flooded from the stack's outer boundary using
// face connectivity (6 neighbours in 3D, 4 in 2D); background the flood
// never reaches is a hole. Nuclei with dim nucleolar cavities come back
// solid this way. 3D stacks additionally get a per-plane 2D fill, which
// closes cavities that open toward the axial faces of the volume.
func FillHoles(m *stack.Mask) {
	floodComplement(m)

	if m.NDim == 3 {
		for z := 0; z < m.NZ; z++ {
			floodComplement(planeView(m, z))
		}
	}
}

func floodComplement(m *stack.Mask) {
	g := m.Geometry
	reached := make([]bool, len(m.Bits))
	queue := make([]int, 0, 4*(g.NY+g.NX))

	push := func(i int) {
		if !m.Bits[i] && !reached[i] {
			reached[i] = true
			queue = append(queue, i)
		}
	}

	for z := 0; z < g.NZ; z++ {
		for y := 0; y < g.NY; y++ {
			for x := 0; x < g.NX; x++ {
				onBoundary := y == 0 || y == g.NY-1 || x == 0 || x == g.NX-1
				if g.NDim == 3 {
					onBoundary = onBoundary || z == 0 || z == g.NZ-1
				}

				if onBoundary {
					push(g.Index(z, y, x))
				}
			}
		}
	}

	for len(queue) > 0 {
		i := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		z, y, x := g.Coords(i)
		if x > 0 {
			push(i - 1)
		}
		if x < g.NX-1 {
			push(i + 1)
		}
		if y > 0 {
			push(i - g.NX)
		}
		if y < g.NY-1 {
			push(i + g.NX)
		}
		if g.NDim == 3 {
			if z > 0 {
				push(i - g.NY*g.NX)
			}
			if z < g.NZ-1 {
				push(i + g.NY*g.NX)
			}
		}
	}

	for i, b := range m.Bits {
		if !b && !reached[i] {
			m.Bits[i] = true
		}
	}
}

// planeView aliases one Z plane of a 3D mask as a 2D mask. Writes go
// through to the parent.
func planeView(m *stack.Mask, z int) *stack.Mask {
	n := m.NY * m.NX

	return &stack.Mask{
		Geometry: stack.Geometry{NDim: 2, NZ: 1, NY: m.NY, NX: m.NX},
		Bits:     m.Bits[z*n : (z+1)*n],
	}
}

// Close applies a morphological closing in place: dilation followed by
// erosion with a 3-wide box structuring element, cube in 3D and square in
// 2D. The box is separable, so each operation is one sweep per axis. The
// window truncates at the stack boundary, which keeps border objects from
// being eroded against the edge.
func Close(m *stack.Mask) {
	boxPass(m, true)
	boxPass(m, false)
}

func boxPass(m *stack.Mask, dilate bool) {
	tmp := make([]bool, len(m.Bits))

	axisPass(m, 0, 0, 1, dilate, tmp)
	axisPass(m, 0, 1, 0, dilate, tmp)
	if m.NDim == 3 {
		axisPass(m, 1, 0, 0, dilate, tmp)
	}
}

func axisPass(m *stack.Mask, dz, dy, dx int, dilate bool, tmp []bool) {
	g := m.Geometry

	for i := range m.Bits {
		z, y, x := g.Coords(i)
		v := m.Bits[i]

		if pz, py, px := z-dz, y-dy, x-dx; pz >= 0 && py >= 0 && px >= 0 {
			prev := m.Bits[g.Index(pz, py, px)]
			if dilate {
				v = v || prev
			} else {
				v = v && prev
			}
		}

		if nz, ny, nx := z+dz, y+dy, x+dx; nz < g.NZ && ny < g.NY && nx < g.NX {
			next := m.Bits[g.Index(nz, ny, nx)]
			if dilate {
				v = v || next
			} else {
				v = v && next
			}
		}

		tmp[i] = v
	}

	copy(m.Bits, tmp)
}
