package segment

import (
	"testing"

	"github.com/biostacks/nucseg/stack"
)

func cubeMask(n int) *stack.Mask {
	return stack.NewMask(stack.Geometry{NDim: 3, NZ: n, NY: n, NX: n})
}

func squareMask(n int) *stack.Mask {
	return stack.NewMask(stack.Geometry{NDim: 2, NZ: 1, NY: n, NX: n})
}

func fillBox(m *stack.Mask, z0, z1, y0, y1, x0, x1 int) {
	for z := z0; z <= z1; z++ {
		for y := y0; y <= y1; y++ {
			for x := x0; x <= x1; x++ {
				m.Bits[m.Index(z, y, x)] = true
			}
		}
	}
}

func TestFillHolesClosedCavity3D(t *testing.T) {
	m := cubeMask(7)
	fillBox(m, 1, 5, 1, 5, 1, 5)
	m.Bits[m.Index(3, 3, 3)] = false

	FillHoles(m)

	if !m.Bits[m.Index(3, 3, 3)] {
		t.Error("enclosed cavity not filled")
	}

	// Exterior background must survive the fill.
	if m.Bits[m.Index(0, 0, 0)] || m.Bits[m.Index(6, 3, 3)] {
		t.Error("exterior background was filled")
	}
}

func TestFillHolesRing2D(t *testing.T) {
	m := squareMask(9)
	fillBox(m, 0, 0, 2, 6, 2, 6)
	for y := 3; y <= 5; y++ {
		for x := 3; x <= 5; x++ {
			m.Bits[m.Index(0, y, x)] = false
		}
	}

	FillHoles(m)

	for y := 2; y <= 6; y++ {
		for x := 2; x <= 6; x++ {
			if !m.Bits[m.Index(0, y, x)] {
				t.Fatalf("(%d,%d) inside the ring not filled", y, x)
			}
		}
	}

	if m.Bits[m.Index(0, 0, 0)] || m.Bits[m.Index(0, 8, 8)] {
		t.Error("background outside the ring was filled")
	}
}

func TestFillHolesAxialTunnel(t *testing.T) {
	// A tunnel along Z is open at both axial faces, so the 3D fill leaves
	// it. The per-plane fill closes it: on every plane it is an enclosed
	// 2D hole.
	m := cubeMask(7)
	fillBox(m, 1, 5, 1, 5, 1, 5)
	for z := 1; z <= 5; z++ {
		m.Bits[m.Index(z, 3, 3)] = false
	}

	FillHoles(m)

	for z := 1; z <= 5; z++ {
		if !m.Bits[m.Index(z, 3, 3)] {
			t.Fatalf("axial tunnel at z=%d not closed by the per-plane fill", z)
		}
	}
}

func TestFillHolesLateralTunnelStaysOpen(t *testing.T) {
	// A tunnel along X reaches the lateral boundary in its own plane, so
	// neither the 3D fill nor the per-plane fill may close it.
	m := cubeMask(7)
	fillBox(m, 1, 5, 1, 5, 1, 5)
	for x := 0; x <= 6; x++ {
		m.Bits[m.Index(3, 3, x)] = false
	}

	FillHoles(m)

	for x := 0; x <= 6; x++ {
		if m.Bits[m.Index(3, 3, x)] {
			t.Fatalf("open lateral tunnel filled at x=%d", x)
		}
	}
}

// Hole-filling postcondition: no enclosed background component remains.
func TestFillHolesPostcondition(t *testing.T) {
	m := cubeMask(9)
	fillBox(m, 1, 7, 1, 7, 1, 7)
	m.Bits[m.Index(2, 2, 2)] = false
	m.Bits[m.Index(5, 5, 5)] = false
	m.Bits[m.Index(5, 5, 6)] = false

	FillHoles(m)

	// Re-filling must be a no-op: any change would mean an enclosed
	// background component survived the first fill.
	refilled := m.Clone()
	floodComplement(refilled)

	for i := range m.Bits {
		if refilled.Bits[i] != m.Bits[i] {
			t.Fatalf("sample %d is still an enclosed hole", i)
		}
	}

	for i := range m.Bits {
		z, y, x := m.Coords(i)
		interior := z >= 1 && z <= 7 && y >= 1 && y <= 7 && x >= 1 && x <= 7
		if m.Bits[i] != interior {
			t.Fatalf("(%d,%d,%d) = %v after fill, want %v", z, y, x, m.Bits[i], interior)
		}
	}
}

func TestCloseBridgesSmallGap(t *testing.T) {
	m := squareMask(11)
	m.Bits[m.Index(0, 5, 3)] = true
	m.Bits[m.Index(0, 5, 5)] = true

	Close(m)

	if !m.Bits[m.Index(0, 5, 4)] {
		t.Error("one-sample gap not bridged by closing")
	}
}

func TestCloseLeavesSolidBlockAlone(t *testing.T) {
	m := squareMask(10)
	fillBox(m, 0, 0, 2, 7, 2, 7)
	want := m.Clone()

	Close(m)

	for i := range m.Bits {
		if m.Bits[i] != want.Bits[i] {
			z, y, x := m.Coords(i)
			t.Fatalf("closing changed a solid block at (%d,%d,%d)", z, y, x)
		}
	}
}

func TestCloseKeepsIsolatedSample(t *testing.T) {
	m := cubeMask(7)
	m.Bits[m.Index(3, 3, 3)] = true

	Close(m)

	if !m.Bits[m.Index(3, 3, 3)] {
		t.Error("closing removed an isolated sample")
	}
	if got := m.Count(); got != 1 {
		t.Errorf("closing grew an isolated sample to %d samples", got)
	}
}
