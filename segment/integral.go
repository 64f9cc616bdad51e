package segment

import "github.com/biostacks/nucseg/stack"

// volumeTable is a summed volume table over a stack: sum[z][y][x] holds the
// total of every sample with coordinates strictly below (z, y, x), padded
// by a zero hyperplane on each low face. Any box sum then costs eight
// lookups. The classic 2D integral image is the NZ == 1 case, where the
// z == 0 terms vanish.
type volumeTable struct {
	g   stack.Geometry
	sum []float64
}

func newVolumeTable(s *stack.Stack, g stack.Geometry) *volumeTable {
	t := &volumeTable{g: g, sum: make([]float64, (g.NZ+1)*(g.NY+1)*(g.NX+1))}

	for z := 1; z <= g.NZ; z++ {
		for y := 1; y <= g.NY; y++ {
			rowSum := 0.0
			for x := 1; x <= g.NX; x++ {
				rowSum += s.Data[g.Index(z-1, y-1, x-1)]
				t.sum[t.at(z, y, x)] = rowSum +
					t.sum[t.at(z-1, y, x)] +
					t.sum[t.at(z, y-1, x)] -
					t.sum[t.at(z-1, y-1, x)]
			}
		}
	}

	return t
}

func (t *volumeTable) at(z, y, x int) int {
	return (z*(t.g.NY+1)+y)*(t.g.NX+1) + x
}

// boxSum totals the samples inside the inclusive box
// [z0,z1] x [y0,y1] x [x0,x1] in stack coordinates.
func (t *volumeTable) boxSum(z0, z1, y0, y1, x0, x1 int) float64 {
	return t.sum[t.at(z1+1, y1+1, x1+1)] -
		t.sum[t.at(z0, y1+1, x1+1)] -
		t.sum[t.at(z1+1, y0, x1+1)] -
		t.sum[t.at(z1+1, y1+1, x0)] +
		t.sum[t.at(z0, y0, x1+1)] +
		t.sum[t.at(z0, y1+1, x0)] +
		t.sum[t.at(z1+1, y0, x0)] -
		t.sum[t.at(z0, y0, x0)]
}

// mean averages the box window centered on (z, y, x) with the given half
// sides, truncating the window at the stack boundary.
func (t *volumeTable) mean(z, y, x, halfZ, halfY, halfX int) float64 {
	z0, z1 := clampRange(z-halfZ, z+halfZ, t.g.NZ)
	y0, y1 := clampRange(y-halfY, y+halfY, t.g.NY)
	x0, x1 := clampRange(x-halfX, x+halfX, t.g.NX)

	count := (z1 - z0 + 1) * (y1 - y0 + 1) * (x1 - x0 + 1)

	return t.boxSum(z0, z1, y0, y1, x0, x1) / float64(count)
}

func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n-1 {
		hi = n - 1
	}

	return lo, hi
}
