package pmtiles

import (
	"bytes"
	"encoding/binary"
	"fmt"
)

// entry maps a run of tile IDs to a byte span. RunLength zero marks a
// pointer into the leaf directory section instead of tile data.
type entry struct {
	TileID    uint64
	Offset    uint64
	Length    uint32
	RunLength uint32
}

// deserializeEntries decodes an uncompressed serialized directory: an
// entry count followed by four varint columns (delta-coded tile IDs, run
// lengths, lengths, offsets; a zero offset means contiguous with the
// previous entry).
func deserializeEntries(data []byte) ([]entry, error) {
	reader := bytes.NewReader(data)

	count, err := binary.ReadUvarint(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read entry count: %w", err)
	}

	entries := make([]entry, count)

	lastID := uint64(0)
	for i := range entries {
		delta, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read tile id: %w", err)
		}
		lastID += delta
		entries[i].TileID = lastID
	}

	for i := range entries {
		runLength, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read run length: %w", err)
		}
		entries[i].RunLength = uint32(runLength)
	}

	for i := range entries {
		length, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read length: %w", err)
		}
		entries[i].Length = uint32(length)
	}

	for i := range entries {
		offset, err := binary.ReadUvarint(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read offset: %w", err)
		}
		if offset == 0 && i > 0 {
			entries[i].Offset = entries[i-1].Offset + uint64(entries[i-1].Length)
		} else {
			entries[i].Offset = offset - 1
		}
	}

	return entries, nil
}

// findTile locates the entry covering a tile ID, honoring run lengths.
// A trailing leaf-pointer entry (run length zero) matches any ID at or
// past its own.
func findTile(entries []entry, tileID uint64) (entry, bool) {
	m := 0
	n := len(entries) - 1
	for m <= n {
		k := (n + m) >> 1
		cmp := int64(tileID) - int64(entries[k].TileID)
		if cmp > 0 {
			m = k + 1
		} else if cmp < 0 {
			n = k - 1
		} else {
			return entries[k], true
		}
	}

	// at this point, m > n
	if n >= 0 {
		if entries[n].RunLength == 0 {
			return entries[n], true
		}
		if tileID-entries[n].TileID < uint64(entries[n].RunLength) {
			return entries[n], true
		}
	}

	return entry{}, false
}
