package segment

import (
	"math"
	"testing"

	"github.com/biostacks/nucseg/stack"
)

func filterOnly() Params {
	p := DefaultParams()
	p.MinRadius = 0
	p.MaxRadius = math.Inf(1)
	p.MinZFraction = 0
	p.ClearBorders = false

	return p
}

func TestRadiusFilterInclusiveLowerBound(t *testing.T) {
	m := squareMask(40)
	fillBox(m, 0, 0, 5, 14, 5, 14) // 100 samples
	fillBox(m, 0, 0, 20, 29, 20, 29)
	m.Bits[m.Index(0, 20, 20)] = false // 99 samples

	p := filterOnly()
	p.MinRadius = equivalentRadius(100, 2)

	res := FilterObjects(Label(m), p)

	if len(res.Kept) != 1 || len(res.RemovedBySize) != 1 {
		t.Fatalf("kept %d, removed %d; want 1 and 1", len(res.Kept), len(res.RemovedBySize))
	}
	if res.Kept[0].Voxels != 100 {
		t.Errorf("kept the %d-sample object, want the 100-sample one", res.Kept[0].Voxels)
	}
}

func TestRadiusFilterInclusiveUpperBound(t *testing.T) {
	m := squareMask(40)
	fillBox(m, 0, 0, 5, 14, 5, 14) // 100 samples
	fillBox(m, 0, 0, 20, 29, 20, 29)
	m.Bits[m.Index(0, 30, 20)] = true // 101 samples

	p := filterOnly()
	p.MaxRadius = equivalentRadius(100, 2)

	res := FilterObjects(Label(m), p)

	if len(res.Kept) != 1 || len(res.RemovedBySize) != 1 {
		t.Fatalf("kept %d, removed %d; want 1 and 1", len(res.Kept), len(res.RemovedBySize))
	}
	if res.Kept[0].Voxels != 100 {
		t.Errorf("kept the %d-sample object, want the 100-sample one", res.Kept[0].Voxels)
	}
}

func TestZSpanBoundary(t *testing.T) {
	// Depth 8 with a 0.25 minimum: two planes is exactly enough, one is
	// not.
	m := stack.NewMask(stack.Geometry{NDim: 3, NZ: 8, NY: 20, NX: 20})
	fillBox(m, 3, 4, 5, 8, 5, 8)
	fillBox(m, 3, 3, 5, 8, 12, 15)

	p := filterOnly()
	p.MinZFraction = 0.25

	res := FilterObjects(Label(m), p)

	if len(res.Kept) != 1 {
		t.Fatalf("kept %d objects, want 1", len(res.Kept))
	}
	if res.Kept[0].ZSpan() != 2 {
		t.Errorf("kept object spans %d planes, want 2", res.Kept[0].ZSpan())
	}
	if len(res.RemovedByZSpan) != 1 {
		t.Fatalf("removed %d objects by Z span, want 1", len(res.RemovedByZSpan))
	}
	if res.RemovedByZSpan[0].ZSpan() != 1 {
		t.Errorf("removed object spans %d planes, want 1", res.RemovedByZSpan[0].ZSpan())
	}
}

func TestZSpanSkippedIn2D(t *testing.T) {
	m := squareMask(20)
	fillBox(m, 0, 0, 5, 8, 5, 8)

	p := filterOnly()
	p.MinZFraction = 1.0

	if res := FilterObjects(Label(m), p); len(res.Kept) != 1 || len(res.RemovedByZSpan) != 0 {
		t.Errorf("2D stack hit the Z-span filter: kept %d, removed %d", len(res.Kept), len(res.RemovedByZSpan))
	}
}

func TestBorderClearing(t *testing.T) {
	build := func() *stack.Labeled {
		m := squareMask(20)
		fillBox(m, 0, 0, 5, 8, 0, 3)   // touches x == 0
		fillBox(m, 0, 0, 5, 8, 10, 13) // strictly interior
		fillBox(m, 0, 0, 16, 19, 10, 13)

		return Label(m)
	}

	p := filterOnly()
	p.ClearBorders = true

	res := FilterObjects(build(), p)
	if len(res.Kept) != 1 || len(res.RemovedByBorder) != 2 {
		t.Fatalf("kept %d, border-removed %d; want 1 and 2", len(res.Kept), len(res.RemovedByBorder))
	}
	if res.Kept[0].TouchesXYBorder {
		t.Error("kept object reports border contact")
	}

	p.ClearBorders = false
	if res := FilterObjects(build(), p); len(res.Kept) != 3 {
		t.Errorf("with border clearing off, kept %d objects, want 3", len(res.Kept))
	}
}

func TestFilterIdempotent(t *testing.T) {
	m := cubeMask(12)
	fillBox(m, 2, 9, 2, 6, 2, 6)
	fillBox(m, 2, 9, 2, 4, 8, 10)
	fillBox(m, 5, 5, 8, 10, 4, 5)
	fillBox(m, 2, 9, 8, 10, 0, 1) // border contact

	p := filterOnly()
	p.MinZFraction = 0.5
	p.ClearBorders = true

	l := Label(m)
	first := FilterObjects(l, p)

	labels := append([]int32{}, l.Labels...)
	n := l.N

	second := FilterObjects(l, p)

	if l.N != n {
		t.Fatalf("second run changed N from %d to %d", n, l.N)
	}
	if len(second.RemovedBySize)+len(second.RemovedByZSpan)+len(second.RemovedByBorder) != 0 {
		t.Fatal("second run removed objects from already-filtered output")
	}
	if len(second.Kept) != len(first.Kept) {
		t.Fatalf("second run kept %d objects, first kept %d", len(second.Kept), len(first.Kept))
	}

	for i := range labels {
		if l.Labels[i] != labels[i] {
			t.Fatalf("second run changed label at sample %d: %d != %d", i, l.Labels[i], labels[i])
		}
	}
}

func TestDenseRelabelAfterRemoval(t *testing.T) {
	m := squareMask(40)
	fillBox(m, 0, 0, 2, 6, 2, 6)   // 25 samples, kept
	fillBox(m, 0, 0, 10, 11, 2, 3) // 4 samples, removed
	fillBox(m, 0, 0, 20, 24, 2, 6) // 25 samples, kept

	p := filterOnly()
	p.MinRadius = equivalentRadius(25, 2)

	l := Label(m)
	res := FilterObjects(l, p)

	if l.N != 2 {
		t.Fatalf("N = %d after removal, want 2", l.N)
	}
	if got := l.Labels[l.Index(0, 3, 3)]; got != 1 {
		t.Errorf("first survivor labeled %d, want 1", got)
	}
	if got := l.Labels[l.Index(0, 22, 3)]; got != 2 {
		t.Errorf("second survivor labeled %d, want 2", got)
	}
	if len(res.Kept) != 2 || res.Kept[0].ID != 1 || res.Kept[1].ID != 2 {
		t.Errorf("kept IDs not dense: %+v", res.Kept)
	}
}
