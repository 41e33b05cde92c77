package archive

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

type stubReader struct {
	name string
}

func (r *stubReader) GetHeader(ctx context.Context) (Header, error) { return Header{}, nil }
func (r *stubReader) GetMetadata(ctx context.Context) (map[string]any, error) {
	return nil, nil
}
func (r *stubReader) GetTile(ctx context.Context, z uint8, x, y uint32) ([]byte, bool, error) {
	return nil, false, nil
}
func (r *stubReader) Refresh(ctx context.Context) error { return nil }

func TestRegistryMemoizesPerName(t *testing.T) {
	var constructions atomic.Int32
	registry := NewRegistry(func(name string) (Reader, error) {
		constructions.Add(1)
		return &stubReader{name: name}, nil
	})

	first, err := registry.Resolve("world")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	second, err := registry.Resolve("world")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if first != second {
		t.Error("expected the same reader for repeated resolutions")
	}
	if got := constructions.Load(); got != 1 {
		t.Errorf("constructions = %d, want 1", got)
	}

	other, err := registry.Resolve("other")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if other == first {
		t.Error("expected a distinct reader per archive name")
	}
}

func TestRegistryDeduplicatesConcurrentResolutions(t *testing.T) {
	var constructions atomic.Int32
	registry := NewRegistry(func(name string) (Reader, error) {
		constructions.Add(1)
		time.Sleep(10 * time.Millisecond) // widen the race window
		return &stubReader{name: name}, nil
	})

	const callers = 32
	readers := make([]Reader, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			reader, err := registry.Resolve("world")
			if err != nil {
				t.Errorf("Resolve failed: %v", err)
				return
			}
			readers[i] = reader
		}(i)
	}
	wg.Wait()

	if got := constructions.Load(); got != 1 {
		t.Errorf("constructions = %d, want 1", got)
	}
	for i := 1; i < callers; i++ {
		if readers[i] != readers[0] {
			t.Fatal("concurrent resolutions observed different readers")
		}
	}
}

func TestRegistrySharesFailureWithoutMemoizingIt(t *testing.T) {
	boom := errors.New("boom")
	fail := true
	registry := NewRegistry(func(name string) (Reader, error) {
		if fail {
			return nil, boom
		}
		return &stubReader{name: name}, nil
	})

	if _, err := registry.Resolve("world"); !errors.Is(err, boom) {
		t.Fatalf("expected construction failure, got %v", err)
	}

	// Failure must not be cached; the next resolution retries.
	fail = false
	if _, err := registry.Resolve("world"); err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
}
