package pmtiles

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/storage"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"golang.org/x/sync/singleflight"
)

// maxDirectoryDepth bounds root → leaf traversal. The format nests leaf
// directories at most one level below the root.
const maxDirectoryDepth = 3

type dirKey struct {
	etag   string
	offset uint64
	length uint64
}

// Reader serves header, metadata and tiles of one PMTiles archive over a
// storage.Source. The header ETag observed on first use is pinned and
// every later read is conditional on it, so all bytes contributing to a
// logical access come from the same object version.
//
// Decoded directories are cached for the life of the reader, keyed by the
// object version they were read from; population is deduplicated so
// concurrent cold requests share one fetch.
type Reader struct {
	source storage.Source
	logger logger.Logger

	group singleflight.Group

	mu     sync.RWMutex
	header *headerV3
	etag   string
	dirs   map[dirKey][]entry
}

var _ archive.Reader = (*Reader)(nil)

func NewReader(source storage.Source, l logger.Logger) *Reader {
	return &Reader{
		source: source,
		logger: l,
		dirs:   make(map[dirKey][]entry),
	}
}

func (r *Reader) GetHeader(ctx context.Context) (archive.Header, error) {
	hdr, _, err := r.ensureHeader(ctx)
	if err != nil {
		return archive.Header{}, err
	}

	return archive.Header{
		TileType:            hdr.TileType,
		InternalCompression: hdr.InternalCompression,
		MinZoom:             hdr.MinZoom,
		MaxZoom:             hdr.MaxZoom,
		MinLon:              float64(hdr.MinLonE7) / 10000000,
		MinLat:              float64(hdr.MinLatE7) / 10000000,
		MaxLon:              float64(hdr.MaxLonE7) / 10000000,
		MaxLat:              float64(hdr.MaxLatE7) / 10000000,
		CenterZoom:          hdr.CenterZoom,
		CenterLon:           float64(hdr.CenterLonE7) / 10000000,
		CenterLat:           float64(hdr.CenterLatE7) / 10000000,
	}, nil
}

func (r *Reader) GetMetadata(ctx context.Context) (map[string]any, error) {
	hdr, etag, err := r.ensureHeader(ctx)
	if err != nil {
		return nil, err
	}

	if hdr.MetadataLength == 0 {
		return map[string]any{}, nil
	}

	result, err := r.source.Fetch(ctx, storage.ByteRange{
		Offset: hdr.MetadataOffset,
		Length: hdr.MetadataLength,
	}, etag)
	if err != nil {
		return nil, err
	}

	raw, err := decompress(result.Data, hdr.InternalCompression)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress metadata: %w", err)
	}

	metadata := make(map[string]any)
	if err := json.Unmarshal(raw, &metadata); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}

	return metadata, nil
}

func (r *Reader) GetTile(ctx context.Context, z uint8, x, y uint32) ([]byte, bool, error) {
	hdr, etag, err := r.ensureHeader(ctx)
	if err != nil {
		return nil, false, err
	}

	if z < hdr.MinZoom || z > hdr.MaxZoom {
		return nil, false, nil
	}

	tileID := ZxyToID(z, x, y)

	offset := hdr.RootOffset
	length := hdr.RootLength
	for depth := 0; depth < maxDirectoryDepth; depth++ {
		entries, err := r.getDirectory(ctx, offset, length, hdr.InternalCompression, etag)
		if err != nil {
			return nil, false, err
		}

		e, ok := findTile(entries, tileID)
		if !ok {
			return nil, false, nil
		}

		if e.RunLength > 0 {
			result, err := r.source.Fetch(ctx, storage.ByteRange{
				Offset: hdr.TileDataOffset + e.Offset,
				Length: uint64(e.Length),
			}, etag)
			if err != nil {
				return nil, false, err
			}

			data, err := decompress(result.Data, hdr.TileCompression)
			if err != nil {
				return nil, false, fmt.Errorf("failed to decompress tile: %w", err)
			}

			return data, true, nil
		}

		offset = hdr.LeafDirectoryOffset + e.Offset
		length = uint64(e.Length)
	}

	return nil, false, fmt.Errorf("directory traversal exceeded depth %d", maxDirectoryDepth)
}

// Refresh drops the pinned ETag and directory cache, then refetches the
// header unconditionally. Used after a stale read to rebase the reader on
// the replaced object.
func (r *Reader) Refresh(ctx context.Context) error {
	_, err, _ := r.group.Do("refresh", func() (any, error) {
		result, err := r.source.Fetch(ctx, storage.ByteRange{Offset: 0, Length: headerSize}, "")
		if err != nil {
			return nil, err
		}

		hdr, err := parseHeader(result.Data)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.header = &hdr
		r.etag = result.ETag
		r.dirs = make(map[dirKey][]entry)
		r.mu.Unlock()

		return nil, nil
	})

	return err
}

// ensureHeader returns the decoded header plus the ETag it was read
// under, fetching it on first use. Callers must pass the returned ETag to
// every dependent read so a logical access never mixes object versions.
func (r *Reader) ensureHeader(ctx context.Context) (headerV3, string, error) {
	r.mu.RLock()
	if r.header != nil {
		hdr, etag := *r.header, r.etag
		r.mu.RUnlock()
		return hdr, etag, nil
	}
	r.mu.RUnlock()

	_, err, _ := r.group.Do("header", func() (any, error) {
		r.mu.RLock()
		populated := r.header != nil
		r.mu.RUnlock()
		if populated {
			return nil, nil
		}

		result, err := r.source.Fetch(ctx, storage.ByteRange{Offset: 0, Length: headerSize}, "")
		if err != nil {
			return nil, err
		}

		hdr, err := parseHeader(result.Data)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.header = &hdr
		r.etag = result.ETag
		r.mu.Unlock()

		r.logger.Debug("decoded archive header",
			"tile_type", hdr.TileType,
			"min_zoom", hdr.MinZoom,
			"max_zoom", hdr.MaxZoom,
			"etag", result.ETag,
		)

		return nil, nil
	})
	if err != nil {
		return headerV3{}, "", err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	return *r.header, r.etag, nil
}

// getDirectory returns a decoded directory block, fetching and caching it
// on first use. Only successful fetches commit to the cache. Cache keys
// carry the ETag the block was read under: a replacement archive can
// place a different directory at the same offsets, so an in-flight fetch
// racing Refresh must never leak old-version entries to readers pinned to
// the new version.
func (r *Reader) getDirectory(ctx context.Context, offset, length uint64, compression uint8, etag string) ([]entry, error) {
	key := dirKey{etag: etag, offset: offset, length: length}

	r.mu.RLock()
	entries, ok := r.dirs[key]
	r.mu.RUnlock()
	if ok {
		return entries, nil
	}

	result, err, _ := r.group.Do(fmt.Sprintf("dir:%s:%d:%d", etag, offset, length), func() (any, error) {
		r.mu.RLock()
		entries, ok := r.dirs[key]
		r.mu.RUnlock()
		if ok {
			return entries, nil
		}

		fetched, err := r.source.Fetch(ctx, storage.ByteRange{Offset: offset, Length: length}, etag)
		if err != nil {
			return nil, err
		}

		raw, err := decompress(fetched.Data, compression)
		if err != nil {
			return nil, fmt.Errorf("failed to decompress directory: %w", err)
		}

		entries, err = deserializeEntries(raw)
		if err != nil {
			return nil, fmt.Errorf("failed to decode directory: %w", err)
		}

		r.mu.Lock()
		r.dirs[key] = entries
		r.mu.Unlock()

		return entries, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]entry), nil
}
