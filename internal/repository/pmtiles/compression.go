package pmtiles

import (
	"bytes"
	"fmt"
	"io"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// decompress decodes a block per the archive's declared compression code.
func decompress(data []byte, compression uint8) ([]byte, error) {
	switch compression {
	case archive.CompressionNone, archive.CompressionUnknown:
		return data, nil
	case archive.CompressionGzip:
		reader, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader)
	case archive.CompressionZstd:
		reader, err := zstd.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		defer reader.Close()
		return io.ReadAll(reader.IOReadCloser())
	default:
		return nil, fmt.Errorf("unsupported compression code %d", compression)
	}
}
