package usecase

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/cache"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/storage"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/routing"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"github.com/klauspost/compress/gzip"
)

type coord struct {
	z    uint8
	x, y uint32
}

type fakeReader struct {
	header      archive.Header
	headerErr   error
	metadata    map[string]any
	metadataErr error
	tiles       map[coord][]byte
	tileErrs    []error // popped per GetTile call

	headerCalls  int
	tileCalls    int
	refreshCalls int
}

func (r *fakeReader) GetHeader(ctx context.Context) (archive.Header, error) {
	r.headerCalls++
	return r.header, r.headerErr
}

func (r *fakeReader) GetMetadata(ctx context.Context) (map[string]any, error) {
	return r.metadata, r.metadataErr
}

func (r *fakeReader) GetTile(ctx context.Context, z uint8, x, y uint32) ([]byte, bool, error) {
	r.tileCalls++
	if len(r.tileErrs) > 0 {
		err := r.tileErrs[0]
		r.tileErrs = r.tileErrs[1:]
		if err != nil {
			return nil, false, err
		}
	}
	data, ok := r.tiles[coord{z, x, y}]
	return data, ok, nil
}

func (r *fakeReader) Refresh(ctx context.Context) error {
	r.refreshCalls++
	return nil
}

func vectorHeader() archive.Header {
	return archive.Header{
		TileType: archive.TileTypeMVT,
		MinZoom:  2,
		MaxZoom:  10,
		MinLon:   -180, MinLat: -85, MaxLon: 180, MaxLat: 85,
		CenterZoom: 5,
	}
}

func newTestUseCase(reader archive.Reader, tileCache cache.TileCache) (*TileServerUseCase, *int) {
	constructions := 0
	registry := archive.NewRegistry(func(name string) (archive.Reader, error) {
		constructions++
		return reader, nil
	})
	uc := NewTileServerUseCase(registry, tileCache, config.Serve{
		CORSOrigin:   "https://example.com",
		CacheControl: "public, max-age=86400",
	}, logger.NewNoOp())
	return uc, &constructions
}

func TestTileServed(t *testing.T) {
	reader := &fakeReader{
		header: vectorHeader(),
		tiles:  map[coord][]byte{{4, 3, 2}: []byte("vector bytes")},
	}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if !bytes.Equal(resp.Body, []byte("vector bytes")) {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.Headers["Content-Type"] != "application/x-protobuf" {
		t.Errorf("content type = %q", resp.Headers["Content-Type"])
	}
	if resp.Headers["Cache-Control"] != "public, max-age=86400" {
		t.Errorf("cache control = %q", resp.Headers["Cache-Control"])
	}
	if resp.Headers["Access-Control-Allow-Origin"] != "https://example.com" {
		t.Errorf("cors = %q", resp.Headers["Access-Control-Allow-Origin"])
	}
	if resp.Headers["ETag"] == "" {
		t.Error("expected an ETag")
	}
	if !resp.Binary {
		t.Error("tile responses must be flagged binary")
	}
}

func TestTileETagStableAcrossRequests(t *testing.T) {
	reader := &fakeReader{
		header: vectorHeader(),
		tiles:  map[coord][]byte{{4, 3, 2}: []byte("vector bytes")},
	}
	uc, _ := newTestUseCase(reader, nil)
	req := routing.TileRequest{Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt"}

	first := uc.Tile(context.Background(), req, false)
	second := uc.Tile(context.Background(), req, true) // encoding must not change the validator

	if first.Headers["ETag"] == "" || first.Headers["ETag"] != second.Headers["ETag"] {
		t.Errorf("etags differ: %q vs %q", first.Headers["ETag"], second.Headers["ETag"])
	}
}

func TestTileGzipEncoding(t *testing.T) {
	payload := []byte("vector bytes to be encoded")
	reader := &fakeReader{
		header: vectorHeader(),
		tiles:  map[coord][]byte{{4, 3, 2}: payload},
	}
	uc, _ := newTestUseCase(reader, nil)
	req := routing.TileRequest{Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt"}

	resp := uc.Tile(context.Background(), req, true)
	if resp.Headers["Content-Encoding"] != "gzip" {
		t.Fatalf("content encoding = %q, want gzip", resp.Headers["Content-Encoding"])
	}

	gz, err := gzip.NewReader(bytes.NewReader(resp.Body))
	if err != nil {
		t.Fatalf("body is not valid gzip: %v", err)
	}
	decoded, err := io.ReadAll(gz)
	if err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if !bytes.Equal(decoded, payload) {
		t.Errorf("decoded body = %q, want %q", decoded, payload)
	}

	plain := uc.Tile(context.Background(), req, false)
	if plain.Headers["Content-Encoding"] != "" {
		t.Errorf("uncompressed surface must not set Content-Encoding, got %q", plain.Headers["Content-Encoding"])
	}
	if !bytes.Equal(plain.Body, payload) {
		t.Errorf("uncompressed body = %q, want %q", plain.Body, payload)
	}
}

func TestTileZoomOutOfRange(t *testing.T) {
	reader := &fakeReader{header: vectorHeader()}
	uc, _ := newTestUseCase(reader, nil)

	for _, z := range []uint8{0, 1, 11} {
		resp := uc.Tile(context.Background(), routing.TileRequest{
			Archive: "world", Z: z, X: 0, Y: 0, Ext: "mvt",
		}, false)
		if resp.StatusCode != 404 {
			t.Errorf("z=%d: status = %d, want 404", z, resp.StatusCode)
		}
		if len(resp.Body) != 0 {
			t.Errorf("z=%d: expected empty body", z)
		}
	}
	if reader.tileCalls != 0 {
		t.Errorf("tile lookups = %d, want 0 for out-of-range zooms", reader.tileCalls)
	}
}

func TestTileVectorAcceptsLegacyAlias(t *testing.T) {
	reader := &fakeReader{
		header: vectorHeader(),
		tiles:  map[coord][]byte{{4, 3, 2}: []byte("vector bytes")},
	}
	uc, _ := newTestUseCase(reader, nil)

	canonical := uc.Tile(context.Background(), routing.TileRequest{Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt"}, false)
	alias := uc.Tile(context.Background(), routing.TileRequest{Archive: "world", Z: 4, X: 3, Y: 2, Ext: "pbf"}, false)

	if alias.StatusCode != 200 {
		t.Fatalf("pbf alias status = %d, want 200", alias.StatusCode)
	}
	if !bytes.Equal(alias.Body, canonical.Body) {
		t.Error("pbf alias must serve the same payload as the canonical extension")
	}
	if alias.Headers["ETag"] != canonical.Headers["ETag"] {
		t.Error("pbf alias must carry the same ETag as the canonical extension")
	}
}

func TestTileExtensionMismatch(t *testing.T) {
	reader := &fakeReader{header: vectorHeader()}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "png",
	}, false)

	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	body := string(resp.Body)
	if !strings.Contains(body, "png") || !strings.Contains(body, "mvt") {
		t.Errorf("message must name both extensions, got %q", body)
	}
	if reader.tileCalls != 0 {
		t.Error("extension mismatch must not trigger a tile lookup")
	}
}

func TestTileNonVectorExtensionIsStrict(t *testing.T) {
	header := vectorHeader()
	header.TileType = archive.TileTypePNG
	reader := &fakeReader{header: header}
	uc, _ := newTestUseCase(reader, nil)

	// pbf is a vector-only alias; it must not pass for raster archives.
	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "pbf",
	}, false)
	if resp.StatusCode != 400 {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestTileAbsentIsNoContent(t *testing.T) {
	reader := &fakeReader{header: vectorHeader()}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 204 {
		t.Fatalf("status = %d, want 204", resp.StatusCode)
	}
	if len(resp.Body) != 0 {
		t.Error("expected empty body for sparse outcome")
	}
}

func TestTileUnsupportedTileType(t *testing.T) {
	header := vectorHeader()
	header.TileType = 42
	reader := &fakeReader{header: header}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500", resp.StatusCode)
	}
}

func TestTileStaleRetriedOnce(t *testing.T) {
	reader := &fakeReader{
		header:   vectorHeader(),
		tiles:    map[coord][]byte{{4, 3, 2}: []byte("fresh bytes")},
		tileErrs: []error{storage.ErrStale},
	}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 200 {
		t.Fatalf("status = %d, want 200 after one retry", resp.StatusCode)
	}
	if reader.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want 1", reader.refreshCalls)
	}
	if !bytes.Equal(resp.Body, []byte("fresh bytes")) {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestTileSecondStalenessFails(t *testing.T) {
	reader := &fakeReader{
		header:   vectorHeader(),
		tiles:    map[coord][]byte{{4, 3, 2}: []byte("bytes")},
		tileErrs: []error{storage.ErrStale, storage.ErrStale},
	}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 500 {
		t.Fatalf("status = %d, want 500 after repeated staleness", resp.StatusCode)
	}
	if reader.refreshCalls != 1 {
		t.Errorf("refresh calls = %d, want exactly 1", reader.refreshCalls)
	}
}

func TestTileArchiveNotFound(t *testing.T) {
	reader := &fakeReader{headerErr: storage.ErrNotFound}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "missing", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 404 {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestTileAccessDeniedSurfaced(t *testing.T) {
	reader := &fakeReader{headerErr: storage.ErrAccessDenied}
	uc, _ := newTestUseCase(reader, nil)

	resp := uc.Tile(context.Background(), routing.TileRequest{
		Archive: "private", Z: 4, X: 3, Y: 2, Ext: "mvt",
	}, false)

	if resp.StatusCode != 403 {
		t.Fatalf("status = %d, want 403", resp.StatusCode)
	}
}

func TestServeInvalidPathIssuesNoReads(t *testing.T) {
	reader := &fakeReader{header: vectorHeader()}
	uc, constructions := newTestUseCase(reader, nil)

	resp := uc.Serve(context.Background(), "/not a path", "", false)

	if resp.StatusCode != 400 {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if *constructions != 0 {
		t.Error("invalid path must not construct a reader")
	}
	if reader.headerCalls != 0 {
		t.Error("invalid path must not issue remote reads")
	}
}

func TestTileHotCache(t *testing.T) {
	reader := &fakeReader{
		header: vectorHeader(),
		tiles:  map[coord][]byte{{4, 3, 2}: []byte("cached bytes")},
	}
	uc, _ := newTestUseCase(reader, cache.NewMemoryCache(0))
	req := routing.TileRequest{Archive: "world", Z: 4, X: 3, Y: 2, Ext: "mvt"}

	first := uc.Tile(context.Background(), req, false)
	second := uc.Tile(context.Background(), req, false)

	if first.StatusCode != 200 || second.StatusCode != 200 {
		t.Fatalf("statuses = %d, %d", first.StatusCode, second.StatusCode)
	}
	if reader.tileCalls != 1 {
		t.Errorf("tile lookups = %d, want 1 (second request served from cache)", reader.tileCalls)
	}
	if !bytes.Equal(first.Body, second.Body) {
		t.Error("cached response must match the original")
	}
	if first.Headers["ETag"] != second.Headers["ETag"] {
		t.Error("cached response must carry the same ETag")
	}
}
