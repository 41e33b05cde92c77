package cache

import (
	"context"
	"fmt"
)

type TileKey struct {
	Archive string
	Z       uint8
	X       uint32
	Y       uint32
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s/%d/%d/%d", k.Archive, k.Z, k.X, k.Y)
}

// TileCache holds decoded tile payloads. Entries are TTL-bounded so a
// replaced archive converges instead of serving stale tiles forever.
type TileCache interface {
	Get(ctx context.Context, key TileKey) ([]byte, bool, error)
	Set(ctx context.Context, key TileKey, data []byte) error
}
