package segment

import (
	"math"

	"github.com/biostacks/nucseg/stack"
)

// Object carries the per-label measurements the filters decide on.
type Object struct {
	ID     int32
	Voxels int

	// Radius is the equivalent radius of a circle (2D) or sphere (3D)
	// with the object's sample count.
	Radius float64

	ZMin int
	ZMax int

	CentroidY float64
	CentroidX float64

	TouchesXYBorder bool
}

// ZSpan is the number of Z planes the object's bounding extent covers.
func (o Object) ZSpan() int { return o.ZMax - o.ZMin + 1 }

// FilterResult reports what FilterObjects kept and why it removed the
// rest. Labeled aliases the filtered volume.
type FilterResult struct {
	Labeled *stack.Labeled

	Kept            []Object
	RemovedBySize   []Object
	RemovedByZSpan  []Object
	RemovedByBorder []Object
}

// FilterObjects measures every labeled object and discards those failing
// the configured criteria, mutating the volume in place. The passes run in
// fixed order: equivalent-radius interval first, minimum Z-span fraction
// second (3D only), XY border contact last. An object discarded by one
// pass is never reconsidered by a later one. Radius bounds are inclusive
// at both ends.
//
// Surviving labels are renumbered densely once at the end, in raster
// order. Background stays untouched, so running the filter on its own
// output changes nothing.
func FilterObjects(l *stack.Labeled, p Params) FilterResult {
	res := FilterResult{Labeled: l}

	objs := measure(l)
	drop := make([]bool, len(objs))

	for id := int32(1); id < int32(len(objs)); id++ {
		o := objs[id]
		if o.Voxels == 0 {
			continue
		}

		if o.Radius < p.MinRadius || o.Radius > p.MaxRadius {
			drop[id] = true
			res.RemovedBySize = append(res.RemovedBySize, o)
		}
	}

	if l.NDim == 3 {
		for id := int32(1); id < int32(len(objs)); id++ {
			o := objs[id]
			if o.Voxels == 0 || drop[id] {
				continue
			}

			if float64(o.ZSpan())/float64(l.NZ) < p.MinZFraction {
				drop[id] = true
				res.RemovedByZSpan = append(res.RemovedByZSpan, o)
			}
		}
	}

	if p.ClearBorders {
		for id := int32(1); id < int32(len(objs)); id++ {
			o := objs[id]
			if o.Voxels == 0 || drop[id] {
				continue
			}

			if o.TouchesXYBorder {
				drop[id] = true
				res.RemovedByBorder = append(res.RemovedByBorder, o)
			}
		}
	}

	// Zero the dropped labels and renumber survivors densely, in raster
	// order of first contact.
	renumber := make([]int32, len(objs))
	var n int32
	for i, id := range l.Labels {
		if id == 0 {
			continue
		}

		if drop[id] {
			l.Labels[i] = 0
			continue
		}

		if renumber[id] == 0 {
			n++
			renumber[id] = n
		}

		l.Labels[i] = renumber[id]
	}
	l.N = n

	for id := int32(1); id < int32(len(objs)); id++ {
		if objs[id].Voxels == 0 || drop[id] {
			continue
		}

		o := objs[id]
		o.ID = renumber[id]
		res.Kept = append(res.Kept, o)
	}

	return res
}

// measure collects per-label statistics in one raster sweep. The returned
// slice is indexed by label ID; entry 0 is unused.
func measure(l *stack.Labeled) []Object {
	g := l.Geometry
	objs := make([]Object, l.N+1)

	for i, id := range l.Labels {
		if id == 0 {
			continue
		}

		o := &objs[id]
		z, y, x := g.Coords(i)

		if o.Voxels == 0 {
			o.ID = id
			o.ZMin, o.ZMax = z, z
		}

		o.Voxels++
		if z < o.ZMin {
			o.ZMin = z
		}
		if z > o.ZMax {
			o.ZMax = z
		}

		o.CentroidY += float64(y)
		o.CentroidX += float64(x)

		if y == 0 || y == g.NY-1 || x == 0 || x == g.NX-1 {
			o.TouchesXYBorder = true
		}
	}

	for id := range objs {
		o := &objs[id]
		if o.Voxels == 0 {
			continue
		}

		o.CentroidY /= float64(o.Voxels)
		o.CentroidX /= float64(o.Voxels)
		o.Radius = equivalentRadius(o.Voxels, g.NDim)
	}

	return objs
}

// equivalentRadius inverts the area of a circle (2D) or the volume of a
// sphere (3D) at the given sample count.
func equivalentRadius(count, ndim int) float64 {
	if ndim == 2 {
		return math.Sqrt(float64(count) / math.Pi)
	}

	return math.Cbrt(3 * float64(count) / (4 * math.Pi))
}
