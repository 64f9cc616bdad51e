package segment

import (
	"github.com/biostacks/nucseg/stack"
	"github.com/theodesp/unionfind"
)

// Label assigns a positive integer ID to every maximal connected
// foreground region of the mask. Connectivity includes diagonals: 26
// neighbours in 3D, 8 in 2D. Final IDs are dense in 1..N, ordered by each
// object's first sample in raster order.
//
// Two raster passes: the first hands out provisional labels from already
// visited neighbours and records label equivalences, the second resolves
// the equivalences through a union-find and renumbers.
func Label(m *stack.Mask) *stack.Labeled {
	g := m.Geometry
	out := stack.NewLabeled(g)

	offsets := priorOffsets(g.NDim)
	provisional := make([]int32, len(m.Bits))

	type equivalence struct{ a, b int32 }
	var merges []equivalence

	var next int32 = 1
	for z := 0; z < g.NZ; z++ {
		for y := 0; y < g.NY; y++ {
			for x := 0; x < g.NX; x++ {
				i := g.Index(z, y, x)
				if !m.Bits[i] {
					continue
				}

				// The lowest label among visited neighbours wins; any
				// other neighbouring label merges with it.
				var lab int32
				for _, d := range offsets {
					nz, ny, nx := z+d[0], y+d[1], x+d[2]
					if nz < 0 || ny < 0 || ny >= g.NY || nx < 0 || nx >= g.NX {
						continue
					}

					nl := provisional[g.Index(nz, ny, nx)]
					if nl == 0 || nl == lab {
						continue
					}

					switch {
					case lab == 0:
						lab = nl
					case nl < lab:
						merges = append(merges, equivalence{nl, lab})
						lab = nl
					default:
						merges = append(merges, equivalence{lab, nl})
					}
				}

				if lab == 0 {
					lab = next
					next++
				}

				provisional[i] = lab
			}
		}
	}

	uf := unionfind.NewThreadSafeUnionFind(int(next))
	for _, e := range merges {
		uf.Union(int(e.a), int(e.b))
	}

	// Dense final IDs in order of first appearance of each root.
	dense := make(map[int32]int32)
	var n int32
	for i, pl := range provisional {
		if pl == 0 {
			continue
		}

		root := pl
		if r := uf.Root(int(pl)); r >= 0 {
			root = int32(r)
		}

		id, ok := dense[root]
		if !ok {
			n++
			id = n
			dense[root] = id
		}

		out.Labels[i] = id
	}
	out.N = n

	return out
}

// priorOffsets lists the neighbour offsets that precede a sample in raster
// order: 13 of the 26 cube neighbours in 3D, 4 of the 8 in 2D.
func priorOffsets(ndim int) [][3]int {
	var out [][3]int

	zs := []int{0}
	if ndim == 3 {
		zs = []int{-1, 0}
	}

	for _, dz := range zs {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dz == 0 && (dy > 0 || (dy == 0 && dx >= 0)) {
					continue
				}

				out = append(out, [3]int{dz, dy, dx})
			}
		}
	}

	return out
}
