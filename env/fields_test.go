package env

import (
	"testing"
)

func newTestFields(t *testing.T, w, h int) *Fields {
	t.Helper()
	f, err := New(w, h, DefaultParams)
	if err != nil {
		t.Fatalf("New(%d, %d) failed: %v", w, h, err)
	}
	return f
}

func TestNewRejectsBadDimensions(t *testing.T) {
	if _, err := New(0, 10, DefaultParams); err == nil {
		t.Error("zero width should fail")
	}
	if _, err := New(10, -1, DefaultParams); err == nil {
		t.Error("negative height should fail")
	}
}

func TestCapacityInRange(t *testing.T) {
	f := newTestFields(t, 32, 32)
	for i, c := range f.Capacity {
		if c < 0 || c > 1 {
			t.Fatalf("capacity[%d] = %f outside [0,1]", i, c)
		}
	}
	// Noise should not be flat.
	min, max := f.Capacity[0], f.Capacity[0]
	for _, c := range f.Capacity {
		if c < min {
			min = c
		}
		if c > max {
			max = c
		}
	}
	if max-min < 0.05 {
		t.Errorf("capacity field nearly flat: span %f", max-min)
	}
}

func TestNutrientRegenAndDepletion(t *testing.T) {
	f := newTestFields(t, 8, 8)
	consumption := make([]float64, 64)

	// Deplete one occupied cell.
	idx := f.W*3 + 3
	consumption[idx] = 1.0
	before := f.Nutrients[idx]
	for i := 0; i < 20; i++ {
		f.StepNutrients(consumption)
	}
	if f.Nutrients[idx] >= before {
		t.Errorf("occupied cell did not deplete: %f -> %f", before, f.Nutrients[idx])
	}

	// Release it and let it regrow toward capacity.
	consumption[idx] = 0
	depleted := f.Nutrients[idx]
	for i := 0; i < 1000; i++ {
		f.StepNutrients(consumption)
	}
	if f.Nutrients[idx] <= depleted && f.Capacity[idx] > depleted {
		t.Errorf("unclaimed cell did not regrow: %f -> %f (cap %f)", depleted, f.Nutrients[idx], f.Capacity[idx])
	}
	if f.Nutrients[idx] > f.Capacity[idx]+1e-9 {
		t.Errorf("nutrients %f exceeded capacity %f", f.Nutrients[idx], f.Capacity[idx])
	}
}

func TestNutrientsNeverNegative(t *testing.T) {
	f := newTestFields(t, 4, 4)
	consumption := make([]float64, 16)
	for i := range consumption {
		consumption[i] = 5.0
	}
	for i := 0; i < 200; i++ {
		f.StepNutrients(consumption)
	}
	for i, v := range f.Nutrients {
		if v < 0 {
			t.Fatalf("nutrients[%d] = %f went negative", i, v)
		}
	}
}

func TestToxinEmissionSpillsAndDecays(t *testing.T) {
	f := newTestFields(t, 8, 8)
	idx := f.W*4 + 4
	f.EmitToxin(idx, 0.4)

	if f.Toxins[idx] <= 0 {
		t.Fatal("emission left no toxin at the source")
	}
	for _, n := range []int{idx + 1, idx - 1, idx + f.W, idx - f.W} {
		if f.Toxins[n] <= 0 {
			t.Errorf("no spill to neighbor %d", n)
		}
	}
	if f.Toxins[idx] <= f.Toxins[idx+1] {
		t.Error("source cell should hold more toxin than the spill")
	}

	level := f.Toxins[idx]
	f.DecayToxins()
	if f.Toxins[idx] >= level {
		t.Error("decay did not reduce toxin")
	}
	want := level * DefaultParams.ToxinDecay
	if diff := f.Toxins[idx] - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("decay not multiplicative: got %f, want %f", f.Toxins[idx], want)
	}
}

func TestToxinClamped(t *testing.T) {
	f := newTestFields(t, 4, 4)
	idx := f.W + 1
	for i := 0; i < 100; i++ {
		f.EmitToxin(idx, 0.5)
	}
	for i, v := range f.Toxins {
		if v < 0 || v > 1 {
			t.Fatalf("toxins[%d] = %f outside [0,1]", i, v)
		}
	}
}

func TestSignalDiffusionKeepsAttribution(t *testing.T) {
	f := newTestFields(t, 8, 8)
	idx := f.W*4 + 4
	f.EmitSignal(idx, 0.8, 3)

	for i := 0; i < 3; i++ {
		f.StepSignals()
	}

	s, owner := f.SignalAt(idx)
	if s <= 0 {
		t.Fatal("signal fully vanished after three steps")
	}
	if owner != 3 {
		t.Errorf("source cell attribution = %d, want 3", owner)
	}

	// Neighbors should have received attributed signal.
	ns, nOwner := f.SignalAt(idx + 1)
	if ns <= 0 {
		t.Error("no signal spread to neighbor")
	}
	if nOwner != 3 {
		t.Errorf("neighbor attribution = %d, want 3", nOwner)
	}
}

func TestSignalDecaysToZero(t *testing.T) {
	f := newTestFields(t, 6, 6)
	f.EmitSignal(10, 1.0, 2)
	for i := 0; i < 500; i++ {
		f.StepSignals()
	}
	for i, s := range f.Signals {
		if s > 0.01 {
			t.Fatalf("signal[%d] = %f did not decay away", i, s)
		}
	}
}

func BenchmarkStepSignals(b *testing.B) {
	f, _ := New(200, 150, DefaultParams)
	for i := 0; i < len(f.Signals); i += 37 {
		f.EmitSignal(i, 0.5, uint32(i%7+1))
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.StepSignals()
	}
}

func BenchmarkStepNutrients(b *testing.B) {
	f, _ := New(200, 150, DefaultParams)
	consumption := make([]float64, len(f.Nutrients))
	for i := range consumption {
		if i%3 == 0 {
			consumption[i] = 0.5
		}
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.StepNutrients(consumption)
	}
}
