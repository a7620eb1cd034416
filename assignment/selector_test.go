package assignment

import "testing"

func TestPickNext_NoPointerPicksFirstSorted(t *testing.T) {
	candidates := []Candidate{{ID: "c3"}, {ID: "c1"}, {ID: "c2"}}
	got := pickNext(candidates, "")
	if got.ID != "c1" {
		t.Fatalf("expected c1, got %s", got.ID)
	}
}

func TestPickNext_AdvancesPastLast(t *testing.T) {
	candidates := []Candidate{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	got := pickNext(candidates, "c2")
	if got.ID != "c3" {
		t.Fatalf("expected c3, got %s", got.ID)
	}
}

func TestPickNext_WrapsAround(t *testing.T) {
	candidates := []Candidate{{ID: "c1"}, {ID: "c2"}, {ID: "c3"}}
	got := pickNext(candidates, "c3")
	if got.ID != "c1" {
		t.Fatalf("expected wrap to c1, got %s", got.ID)
	}
}

func TestPickNext_LastCallerGoneResetsToFirst(t *testing.T) {
	candidates := []Candidate{{ID: "c1"}, {ID: "c2"}}
	got := pickNext(candidates, "c99")
	if got.ID != "c1" {
		t.Fatalf("expected reset to c1, got %s", got.ID)
	}
}

func TestCapFilter_DropsExhausted(t *testing.T) {
	candidates := []Candidate{
		{ID: "c1", DailyLimit: 2},
		{ID: "c2", DailyLimit: 0},
		{ID: "c3", DailyLimit: 1},
	}
	counts := map[string]int{"c1": 2, "c2": 100, "c3": 0}

	survivors := capFilter(candidates, counts)
	if len(survivors) != 2 {
		t.Fatalf("expected 2 survivors, got %d", len(survivors))
	}
	ids := map[string]bool{}
	for _, s := range survivors {
		ids[s.ID] = true
	}
	if !ids["c2"] || !ids["c3"] {
		t.Fatalf("expected c2 (unlimited) and c3 (under cap) to survive, got %v", survivors)
	}
}
