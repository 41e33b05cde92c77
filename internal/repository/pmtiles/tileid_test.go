package pmtiles

import "testing"

func TestZxyToID(t *testing.T) {
	cases := []struct {
		z    uint8
		x, y uint32
		id   uint64
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 1},
		{1, 0, 1, 2},
		{1, 1, 1, 3},
		{1, 1, 0, 4},
		{2, 0, 0, 5},
	}

	for _, c := range cases {
		if got := ZxyToID(c.z, c.x, c.y); got != c.id {
			t.Errorf("ZxyToID(%d, %d, %d) = %d, want %d", c.z, c.x, c.y, got, c.id)
		}
	}
}

func TestZxyToIDDistinctWithinZoom(t *testing.T) {
	seen := make(map[uint64]bool)
	for x := uint32(0); x < 8; x++ {
		for y := uint32(0); y < 8; y++ {
			id := ZxyToID(3, x, y)
			if seen[id] {
				t.Fatalf("duplicate id %d at %d/%d", id, x, y)
			}
			seen[id] = true
		}
	}
}
