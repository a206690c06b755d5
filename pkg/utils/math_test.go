package utils

import (
	"math"
	"testing"
)

func TestNormalizeL2(t *testing.T) {
	v := []float32{3, 4}
	NormalizeL2(v)
	norm := math.Sqrt(float64(v[0]*v[0] + v[1]*v[1]))
	if math.Abs(norm-1.0) > 1e-6 {
		t.Errorf("norm = %v, want 1", norm)
	}

	zero := []float32{0, 0}
	NormalizeL2(zero)
	if zero[0] != 0 || zero[1] != 0 {
		t.Error("zero vector should be unchanged")
	}
}

func TestSquaredL2Distance(t *testing.T) {
	a := []float32{1, 0}
	b := []float32{0, 1}
	if d := SquaredL2Distance(a, b); math.Abs(d-2.0) > 1e-6 {
		t.Errorf("distance = %v, want 2", d)
	}
	if d := SquaredL2Distance(a, a); d != 0 {
		t.Errorf("self distance = %v, want 0", d)
	}
}
