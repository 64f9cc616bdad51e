package segment

import "testing"

func TestLabelSeparateObjects(t *testing.T) {
	m := squareMask(10)
	fillBox(m, 0, 0, 1, 2, 1, 2)
	fillBox(m, 0, 0, 6, 8, 6, 8)

	l := Label(m)

	if l.N != 2 {
		t.Fatalf("N = %d, want 2", l.N)
	}

	// Raster order: the upper-left blob is seen first.
	if got := l.Labels[l.Index(0, 1, 1)]; got != 1 {
		t.Errorf("first object labeled %d, want 1", got)
	}
	if got := l.Labels[l.Index(0, 7, 7)]; got != 2 {
		t.Errorf("second object labeled %d, want 2", got)
	}
}

func TestLabelDiagonalStaircase(t *testing.T) {
	// Diagonal contacts are adjacency under 8-connectivity.
	m := squareMask(6)
	for i := 0; i < 5; i++ {
		m.Bits[m.Index(0, i, i)] = true
	}

	l := Label(m)

	if l.N != 1 {
		t.Fatalf("staircase split into %d objects, want 1", l.N)
	}
}

func TestLabelCornerContact3D(t *testing.T) {
	// Two voxels sharing only a cube corner: one object under
	// 26-connectivity, two under face connectivity.
	m := cubeMask(4)
	m.Bits[m.Index(0, 0, 0)] = true
	m.Bits[m.Index(1, 1, 1)] = true

	l := Label(m)

	if l.N != 1 {
		t.Fatalf("corner-touching voxels split into %d objects, want 1", l.N)
	}
}

func TestLabelMergesUShape(t *testing.T) {
	// The two arms get distinct provisional labels that the bottom bar
	// forces together.
	m := squareMask(7)
	fillBox(m, 0, 0, 1, 4, 1, 1)
	fillBox(m, 0, 0, 1, 4, 5, 5)
	fillBox(m, 0, 0, 4, 4, 1, 5)

	l := Label(m)

	if l.N != 1 {
		t.Fatalf("U shape split into %d objects, want 1", l.N)
	}

	for i, id := range l.Labels {
		if m.Bits[i] && id != 1 {
			t.Fatalf("foreground sample %d labeled %d, want 1", i, id)
		}
		if !m.Bits[i] && id != 0 {
			t.Fatalf("background sample %d labeled %d", i, id)
		}
	}
}

func TestLabelIDsAreDense(t *testing.T) {
	m := cubeMask(10)
	fillBox(m, 1, 2, 1, 2, 1, 2)
	fillBox(m, 1, 2, 1, 2, 6, 7)
	fillBox(m, 6, 7, 6, 7, 6, 7)
	fillBox(m, 6, 7, 1, 2, 1, 2)

	l := Label(m)

	if l.N != 4 {
		t.Fatalf("N = %d, want 4", l.N)
	}

	seen := make(map[int32]bool)
	for _, id := range l.Labels {
		if id != 0 {
			seen[id] = true
		}
	}

	for id := int32(1); id <= l.N; id++ {
		if !seen[id] {
			t.Errorf("label %d missing from the volume", id)
		}
	}
	if len(seen) != int(l.N) {
		t.Errorf("%d distinct labels in the volume, want %d", len(seen), l.N)
	}
}
