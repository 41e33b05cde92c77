package storage

import (
	"context"
	"fmt"
	"sync"
)

// MemorySource serves ranges of an in-memory object. It honors the same
// conditional-read contract as S3Source, so tests can simulate an archive
// being replaced concurrently with an in-flight multi-step read.
type MemorySource struct {
	mu   sync.RWMutex
	data []byte
	etag string
}

var _ Source = (*MemorySource)(nil)

func NewMemorySource(data []byte, etag string) *MemorySource {
	return &MemorySource{data: data, etag: etag}
}

// Replace swaps the object content and identity, as an overwrite of the
// remote object would.
func (s *MemorySource) Replace(data []byte, etag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = data
	s.etag = etag
}

func (s *MemorySource) Fetch(ctx context.Context, rng ByteRange, expectedETag string) (*FetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.data == nil {
		return nil, ErrNotFound
	}
	if expectedETag != "" && expectedETag != s.etag {
		return nil, ErrStale
	}

	end := rng.Offset + rng.Length
	if rng.Offset > uint64(len(s.data)) {
		return nil, fmt.Errorf("%w: range out of bounds", ErrUnavailable)
	}
	if end > uint64(len(s.data)) {
		end = uint64(len(s.data))
	}

	data := make([]byte, end-rng.Offset)
	copy(data, s.data[rng.Offset:end])

	return &FetchResult{Data: data, ETag: s.etag}, nil
}
