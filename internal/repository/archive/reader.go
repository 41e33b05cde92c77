package archive

import "context"

// Compression codes as declared by the archive format.
const (
	CompressionUnknown uint8 = 0
	CompressionNone    uint8 = 1
	CompressionGzip    uint8 = 2
	CompressionBrotli  uint8 = 3
	CompressionZstd    uint8 = 4
)

// Tile type codes as declared by the archive format.
const (
	TileTypeUnknown uint8 = 0
	TileTypeMVT     uint8 = 1
	TileTypePNG     uint8 = 2
	TileTypeJPEG    uint8 = 3
	TileTypeWebP    uint8 = 4
	TileTypeAVIF    uint8 = 5
)

// Header is the archive-level metadata decoded once per cache lifetime.
// Coordinates are degrees.
type Header struct {
	TileType            uint8
	InternalCompression uint8
	MinZoom             uint8
	MaxZoom             uint8
	MinLon              float64
	MinLat              float64
	MaxLon              float64
	MaxLat              float64
	CenterZoom          uint8
	CenterLon           float64
	CenterLat           float64
}

// Reader is the read-side contract over one archive. Implementations own
// the byte-level format and any internal block caching; all three
// operations may issue range reads against the archive's Source.
type Reader interface {
	// GetHeader decodes the archive header, fetching it on first use.
	GetHeader(ctx context.Context) (Header, error)

	// GetMetadata returns the archive's embedded key-value metadata. It
	// may fail independently of GetHeader.
	GetMetadata(ctx context.Context) (map[string]any, error)

	// GetTile returns the decoded tile payload for a coordinate. A false
	// second return means the archive has no entry there, which is a
	// valid sparse outcome, not an error.
	GetTile(ctx context.Context, z uint8, x, y uint32) ([]byte, bool, error)

	// Refresh drops pinned state and refetches the header, recovering
	// from a detected stale read.
	Refresh(ctx context.Context) error
}
