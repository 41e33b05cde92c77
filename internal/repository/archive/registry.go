package archive

import (
	"sync"

	"golang.org/x/sync/singleflight"
)

// ReaderFactory constructs a Reader for a named archive. It must not
// perform I/O; first-use fetches happen inside the reader itself.
type ReaderFactory func(archiveName string) (Reader, error)

// Registry memoizes one Reader per archive name for the life of the
// process. It is a pure deduplicating memoizer, not an LRU: entries are
// never evicted, and any index-block caching lives inside the reader.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]Reader
	group   singleflight.Group
	factory ReaderFactory
}

func NewRegistry(factory ReaderFactory) *Registry {
	return &Registry{
		readers: make(map[string]Reader),
		factory: factory,
	}
}

// Resolve returns the reader bound to an archive name, constructing it on
// first reference. Concurrent resolutions of the same uncached name
// converge on one construction; losers observe the winner's outcome,
// including its failure. Failures are not memoized, so a later call
// retries construction.
func (r *Registry) Resolve(archiveName string) (Reader, error) {
	r.mu.RLock()
	reader, ok := r.readers[archiveName]
	r.mu.RUnlock()
	if ok {
		return reader, nil
	}

	result, err, _ := r.group.Do(archiveName, func() (any, error) {
		r.mu.RLock()
		reader, ok := r.readers[archiveName]
		r.mu.RUnlock()
		if ok {
			return reader, nil
		}

		reader, err := r.factory(archiveName)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.readers[archiveName] = reader
		r.mu.Unlock()

		return reader, nil
	})
	if err != nil {
		return nil, err
	}

	return result.(Reader), nil
}
