package ident

import (
	"sort"
	"testing"
	"time"
)

func TestNewIDSortsWithinSameMillisecond(t *testing.T) {
	g := NewGenerator()
	at := time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)

	ids := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		id, err := g.NewID(at)
		if err != nil {
			t.Fatalf("NewID: %v", err)
		}
		ids = append(ids, id)
	}
	if !sort.StringsAreSorted(ids) {
		t.Fatalf("expected monotonic ids, got %v", ids)
	}
	if ids[0] == ids[1] {
		t.Fatalf("expected distinct ids")
	}

	got, err := Time(ids[0])
	if err != nil {
		t.Fatalf("Time: %v", err)
	}
	if !got.Equal(at) {
		t.Fatalf("Time = %s, want %s", got, at)
	}
}

func TestTimeRejectsGarbage(t *testing.T) {
	if _, err := Time("not-a-ulid"); err == nil {
		t.Fatalf("expected parse error")
	}
}
