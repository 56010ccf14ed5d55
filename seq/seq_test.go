package seq

import (
	"math/rand"
	"testing"
)

func TestOrderingConsistency(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10000; i++ {
		a := Value(r.Uint32())
		b := Value(r.Uint32())
		if a == b {
			continue
		}
		lt := a.LessThan(b)
		gt := a.GreaterThan(b)
		if lt == gt {
			t.Fatalf("exactly one of LessThan/GreaterThan must hold for a=%d b=%d, got lt=%v gt=%v", a, b, lt, gt)
		}
		if a.LessThanEq(b) != (lt || a == b) {
			t.Fatalf("LessThanEq inconsistent for a=%d b=%d", a, b)
		}
		if a.GreaterThanEq(b) != (gt || a == b) {
			t.Fatalf("GreaterThanEq inconsistent for a=%d b=%d", a, b)
		}
	}
}

func TestWrapAround(t *testing.T) {
	var max Value = 0xFFFFFFFF
	if !max.LessThan(0) {
		t.Fatal("expected wraparound: max < 0")
	}
	if Value(0).GreaterThan(max) == false {
		t.Fatal("expected wraparound: 0 > max")
	}
}

func TestAddSub(t *testing.T) {
	v := Add(100, 50)
	if v != 150 {
		t.Fatalf("want 150 got %d", v)
	}
	if Sub(100, 150) != 50 {
		t.Fatalf("want 50 got %d", Sub(100, 150))
	}
}

func TestInWindow(t *testing.T) {
	nxt := Value(1000)
	wnd := Size(500)
	if !Value(1000).InWindow(nxt, wnd) {
		t.Fatal("lower bound should be in window")
	}
	if Value(1499).InWindow(nxt, wnd) == false {
		t.Fatal("highest in-window value should be in window")
	}
	if Value(1500).InWindow(nxt, wnd) {
		t.Fatal("value just past the window should not be in window")
	}
	if Value(999).InWindow(nxt, wnd) {
		t.Fatal("value just before the window should not be in window")
	}
	if Value(42).InWindow(nxt, 0) {
		t.Fatal("zero-size window should contain nothing")
	}
}
