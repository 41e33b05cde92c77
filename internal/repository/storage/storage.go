package storage

import (
	"context"
	"errors"
	"time"
)

// ByteRange is a half-open byte span of the remote object.
type ByteRange struct {
	Offset uint64
	Length uint64
}

// FetchResult is the outcome of one remote range read. ETag identifies the
// object version the bytes were read from.
type FetchResult struct {
	Data         []byte
	ETag         string
	CacheControl string
	Expires      time.Time
}

var (
	// ErrNotFound: the archive object does not exist in the remote store.
	ErrNotFound = errors.New("archive not found")
	// ErrAccessDenied: the remote store refused the read. Surfaced with its
	// own status so operators can see the authorization problem.
	ErrAccessDenied = errors.New("access to archive denied")
	// ErrStale: a conditional read failed because the object was replaced
	// since the ETag was pinned. The composite access must be retried with
	// a fresh header, never served from mixed object versions.
	ErrStale = errors.New("archive changed mid-read")
	// ErrUnavailable: transport failure or timeout talking to the store.
	ErrUnavailable = errors.New("remote store unavailable")
)

// Source performs byte-range reads for a single named archive.
//
// When expectedETag is non-empty the read is conditional: the store must
// refuse it (ErrStale) if the object's current ETag differs. This is how
// multi-step reads over one logical archive detect concurrent replacement.
type Source interface {
	Fetch(ctx context.Context, rng ByteRange, expectedETag string) (*FetchResult, error)
}
