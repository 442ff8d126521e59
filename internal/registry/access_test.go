package registry

import "testing"

func TestAccessible(t *testing.T) {
	tests := []struct {
		name      string
		public    bool
		publisher string
		caller    string
		entitled  bool
		want      bool
	}{
		{"public always readable", true, "owner", "", false, true},
		{"public readable by stranger", true, "owner", "stranger", false, true},
		{"private owner", false, "owner", "owner", false, true},
		{"private entitled", false, "owner", "stranger", true, true},
		{"private stranger", false, "owner", "stranger", false, false},
		{"private anonymous", false, "owner", "", false, false},
		{"empty publisher never matches anonymous", false, "", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Accessible(tt.public, tt.publisher, tt.caller, tt.entitled)
			if got != tt.want {
				t.Errorf("Accessible(%v, %q, %q, %v) = %v, want %v",
					tt.public, tt.publisher, tt.caller, tt.entitled, got, tt.want)
			}
		})
	}
}

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		name       string
		limit      int
		offset     int
		wantLimit  int
		wantOffset int
	}{
		{"defaults", 0, 0, 20, 0},
		{"negative", -5, -3, 20, 0},
		{"clamped high", 500, 10, 100, 10},
		{"passthrough", 25, 50, 25, 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			limit, offset := NormalizePage(tt.limit, tt.offset)
			if limit != tt.wantLimit || offset != tt.wantOffset {
				t.Errorf("NormalizePage(%d, %d) = (%d, %d), want (%d, %d)",
					tt.limit, tt.offset, limit, offset, tt.wantLimit, tt.wantOffset)
			}
		})
	}
}

// Pagination windows over a listing must be disjoint and cover every rank
// exactly once. The windowing arithmetic is what the handlers feed to the
// store; verify it produces non-overlapping page boundaries.
func TestPaginationWindowsDisjoint(t *testing.T) {
	const n = 57
	const pageSize = 10

	seen := make(map[int]bool)
	for offset := 0; offset < n; offset += pageSize {
		limit, off := NormalizePage(pageSize, offset)
		end := off + limit
		if end > n {
			end = n
		}
		for rank := off; rank < end; rank++ {
			if seen[rank] {
				t.Fatalf("rank %d covered twice", rank)
			}
			seen[rank] = true
		}
	}
	if len(seen) != n {
		t.Errorf("expected %d distinct ranks covered, got %d", n, len(seen))
	}
}
