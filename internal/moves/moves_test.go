// SPDX-License-Identifier: MIT
package moves

import (
	"testing"
	"time"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"simulated", Simulated, false},
		{"sim", Simulated, false},
		{"REAL", Real, false},
		{" real ", Real, false},
		{"autopilot", Simulated, true},
		{"", Simulated, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseMode(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestModeString(t *testing.T) {
	if Simulated.String() != "simulated" || Real.String() != "real" {
		t.Errorf("mode strings = %q/%q", Simulated, Real)
	}
	if got := Mode(9).String(); got != "MODE(9)" {
		t.Errorf("unknown mode string = %q", got)
	}
}

func TestMoveString(t *testing.T) {
	m := Move{Name: "quarter spin", Action: RotateCW, Param: 90}
	if got := m.String(); got != "quarter spin (cw 90)" {
		t.Errorf("String = %q", got)
	}
}

func TestPickRespectsModeTag(t *testing.T) {
	l := DefaultLibrary(NewRandomSelector(42))

	for range 50 {
		m, err := l.Pick(Simulated)
		if err != nil {
			t.Fatalf("Pick(Simulated): %v", err)
		}
		if m.Mode != Simulated {
			t.Fatalf("simulated pick returned %v-tagged move %q", m.Mode, m.Name)
		}
	}
	for range 50 {
		m, err := l.Pick(Real)
		if err != nil {
			t.Fatalf("Pick(Real): %v", err)
		}
		if m.Mode != Real {
			t.Fatalf("real pick returned %v-tagged move %q", m.Mode, m.Name)
		}
	}
}

func TestPickEmptyCatalog(t *testing.T) {
	l := NewLibrary(nil)
	if _, err := l.Pick(Real); err == nil {
		t.Error("expected error picking from an empty catalog")
	}
}

func TestRandomSelectorNeverRepeats(t *testing.T) {
	s := NewRandomSelector(7)

	const n = 5
	seen := make(map[int]bool)
	prev := -1
	for i := range 500 {
		idx := s.Next(Simulated, n)
		if idx < 0 || idx >= n {
			t.Fatalf("pick %d out of range: %d", i, idx)
		}
		if idx == prev {
			t.Fatalf("pick %d repeated index %d immediately", i, idx)
		}
		seen[idx] = true
		prev = idx
	}

	// Every entry should eventually appear.
	if len(seen) != n {
		t.Errorf("coverage = %d of %d entries after 500 picks", len(seen), n)
	}
}

func TestRandomSelectorSingleEntry(t *testing.T) {
	s := NewRandomSelector(7)
	for range 10 {
		if idx := s.Next(Real, 1); idx != 0 {
			t.Fatalf("single-entry pick = %d, want 0", idx)
		}
	}
}

func TestRandomSelectorPerModeState(t *testing.T) {
	s := NewRandomSelector(7)

	// Interleaved modes must not suppress each other's repeats.
	simPrev := -1
	hwPrev := -1
	for range 200 {
		sim := s.Next(Simulated, 4)
		hw := s.Next(Real, 4)
		if sim == simPrev {
			t.Fatal("simulated repeat")
		}
		if hw == hwPrev {
			t.Fatal("real repeat")
		}
		simPrev, hwPrev = sim, hw
	}
}

func TestRandomSelectorDeterministicWithSeed(t *testing.T) {
	run := func() []int {
		s := NewRandomSelector(1234)
		out := make([]int, 50)
		for i := range out {
			out[i] = s.Next(Simulated, 6)
		}
		return out
	}

	a := run()
	b := run()
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("seeded sequences diverge at pick %d: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestRoundRobinCycles(t *testing.T) {
	s := NewRoundRobinSelector()

	want := []int{0, 1, 2, 0, 1, 2, 0}
	for i, w := range want {
		if got := s.Next(Simulated, 3); got != w {
			t.Fatalf("pick %d = %d, want %d", i, got, w)
		}
	}
}

func TestDefaultCatalogs(t *testing.T) {
	l := DefaultLibrary(NewRoundRobinSelector())

	if l.Len(Simulated) == 0 || l.Len(Real) == 0 {
		t.Fatalf("catalog sizes = %d/%d, want both non-empty", l.Len(Simulated), l.Len(Real))
	}

	// Simulated moves must finish well inside the default 200ms beat
	// refractory interval.
	for _, m := range l.Catalog(Simulated) {
		if m.Duration <= 0 || m.Duration >= 200*time.Millisecond {
			t.Errorf("simulated move %q duration %v outside (0, 200ms)", m.Name, m.Duration)
		}
	}

	// Real moves must respect the hardware envelope.
	for _, m := range l.Catalog(Real) {
		switch m.Action {
		case RotateCW, RotateCCW:
			if m.Param < 1 || m.Param > 360 {
				t.Errorf("rotation %q param %d outside [1, 360]", m.Name, m.Param)
			}
		default:
			if m.Param < 20 || m.Param > 500 {
				t.Errorf("translation %q param %d outside [20, 500]", m.Name, m.Param)
			}
		}
	}
}

func TestCatalogReturnsCopy(t *testing.T) {
	l := DefaultLibrary(nil)

	catalog := l.Catalog(Real)
	original := catalog[0].Name
	catalog[0].Name = "tampered"

	if l.Catalog(Real)[0].Name != original {
		t.Error("mutating the returned catalog leaked into the library")
	}
}
