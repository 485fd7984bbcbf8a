package eventlog

import "testing"

func TestLogOrder(t *testing.T) {
	l := New[int]()
	for _, v := range []int{3, 1, 2} {
		l.Add(v)
	}

	if l.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", l.Len())
	}
	if l.At(0) != 3 || l.At(2) != 2 {
		t.Errorf("unexpected entries %v", l.Items())
	}

	var seen []int
	for i, v := range l.All() {
		if l.At(i) != v {
			t.Errorf("position %d: All yielded %d, At returned %d", i, v, l.At(i))
		}
		seen = append(seen, v)
	}
	if len(seen) != 3 || seen[0] != 3 || seen[1] != 1 || seen[2] != 2 {
		t.Errorf("expected insertion order, got %v", seen)
	}
}

func TestItemsIsCopy(t *testing.T) {
	l := New[string]()
	l.Add("a")
	items := l.Items()
	items[0] = "b"
	if l.At(0) != "a" {
		t.Errorf("Items must not alias the log")
	}
}
