package zekta

import "testing"

func cmpAgainst(items []int, key int) func(i int) int {
	return func(i int) int {
		switch {
		case items[i] < key:
			return -1
		case items[i] > key:
			return 1
		default:
			return 0
		}
	}
}

func TestSearchLowerBoundAbsentKeys(t *testing.T) {
	items := []int{2, 4, 6, 8}

	tests := []struct {
		key  int
		want int
	}{
		{1, 0},
		{3, 1},
		{5, 2},
		{7, 3},
		{9, 4},
	}
	for _, tt := range tests {
		if got := searchLowerBound(len(items), cmpAgainst(items, tt.key)); got != tt.want {
			t.Errorf("searchLowerBound(key=%d) = %d, want %d", tt.key, got, tt.want)
		}
	}
}

func TestSearchLowerBoundEqualRun(t *testing.T) {
	items := []int{1, 5, 5, 5, 9}

	// Any index inside the equal run is a valid answer.
	got := searchLowerBound(len(items), cmpAgainst(items, 5))
	if got < 1 || got > 3 {
		t.Errorf("searchLowerBound(key=5) = %d, want index in [1,3]", got)
	}
}

func TestSearchLowerBoundEmpty(t *testing.T) {
	if got := searchLowerBound(0, func(int) int { t.Fatal("cmp called"); return 0 }); got != 0 {
		t.Errorf("expected 0, got %d", got)
	}
}
