package sets

import "testing"

func TestSetBasics(t *testing.T) {
	s := New("a", "b")
	if !s.Has("a") || !s.Has("b") {
		t.Fatal("seed values missing")
	}
	s.Add("c")
	if !s.Has("c") {
		t.Error("Add failed")
	}
	s.Delete("a")
	if s.Has("a") {
		t.Error("Delete failed")
	}
	if s.Len() != 2 {
		t.Errorf("Len = %d, want 2", s.Len())
	}
}

func TestSetContainsAll(t *testing.T) {
	big := New("a", "b", "c")
	small := New("a", "c")
	if !big.ContainsAll(small) {
		t.Error("expected big to contain all of small")
	}
	if small.ContainsAll(big) {
		t.Error("small must not contain all of big")
	}
	if !big.ContainsAll(New[string]()) {
		t.Error("every set contains the empty set")
	}
}

func TestSorted(t *testing.T) {
	s := New("c", "a", "b")
	got := Sorted(s)
	want := []string{"a", "b", "c"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted = %v, want %v", got, want)
		}
	}
}
