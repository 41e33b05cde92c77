package usecase

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strconv"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/cache"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/storage"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/routing"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/metrics"
	"github.com/klauspost/compress/gzip"
)

// legacyVectorExt is accepted as an alias for the canonical vector tile
// extension.
const legacyVectorExt = "pbf"

type TileServerUseCase struct {
	registry       *archive.Registry
	tileCache      cache.TileCache // may be nil
	publicHostname string
	corsOrigin     string
	cacheControl   string
	logger         logger.Logger
}

func NewTileServerUseCase(registry *archive.Registry, tileCache cache.TileCache, cfg config.Serve, l logger.Logger) *TileServerUseCase {
	return &TileServerUseCase{
		registry:       registry,
		tileCache:      tileCache,
		publicHostname: cfg.PublicHostname,
		corsOrigin:     cfg.CORSOrigin,
		cacheControl:   cfg.CacheControl,
		logger:         l,
	}
}

// Serve routes one normalized request path. gzipBody marks requests that
// arrived through a transport that does not compress on its own; for
// those the tile body is gzip-encoded here instead of at the edge.
func (uc *TileServerUseCase) Serve(ctx context.Context, path, hostHint string, gzipBody bool) Response {
	intent := routing.Parse(path)

	switch intent.Kind {
	case routing.KindTile:
		resp := uc.Tile(ctx, intent.Tile, gzipBody)
		metrics.TileRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return resp
	case routing.KindMetadata:
		resp := uc.Metadata(ctx, intent.Metadata, hostHint)
		metrics.MetadataRequests.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()
		return resp
	default:
		return uc.message(400, "invalid path")
	}
}

// Tile serves one tile request. A stale archive read is retried exactly
// once with a refreshed header; a second staleness in the same request is
// surfaced as an upstream failure.
func (uc *TileServerUseCase) Tile(ctx context.Context, req routing.TileRequest, gzipBody bool) Response {
	reader, err := uc.registry.Resolve(req.Archive)
	if err != nil {
		return uc.failure(req.Archive, err)
	}

	resp, err := uc.tileOnce(ctx, reader, req, gzipBody)
	if errors.Is(err, storage.ErrStale) {
		metrics.StaleRetries.Inc()
		uc.logger.Warn("stale archive read, retrying with fresh header", "archive", req.Archive)

		if err = reader.Refresh(ctx); err == nil {
			resp, err = uc.tileOnce(ctx, reader, req, gzipBody)
		}
		if errors.Is(err, storage.ErrStale) {
			err = fmt.Errorf("%w: archive replaced repeatedly during read", storage.ErrUnavailable)
		}
	}
	if err != nil {
		return uc.failure(req.Archive, err)
	}

	return resp
}

func (uc *TileServerUseCase) tileOnce(ctx context.Context, reader archive.Reader, req routing.TileRequest, gzipBody bool) (Response, error) {
	header, err := reader.GetHeader(ctx)
	if err != nil {
		return Response{}, err
	}

	if req.Z < header.MinZoom || req.Z > header.MaxZoom {
		return Response{StatusCode: 404, Headers: uc.baseHeaders()}, nil
	}

	info, ok := archive.TileTypeOf(header.TileType)
	if !ok {
		// Data-integrity condition in the archive itself, not a client error.
		return uc.message(500, "archive declares an unsupported tile type"), nil
	}

	if req.Ext != info.Extension &&
		!(header.TileType == archive.TileTypeMVT && req.Ext == legacyVectorExt) {
		return uc.message(400, fmt.Sprintf(
			"requested extension .%s does not match archive tile extension .%s",
			req.Ext, info.Extension,
		)), nil
	}

	key := cache.TileKey{Archive: req.Archive, Z: req.Z, X: req.X, Y: req.Y}
	if uc.tileCache != nil {
		data, found, err := uc.tileCache.Get(ctx, key)
		if err != nil {
			uc.logger.Warn("tile cache get failed", "key", key.String(), "error", err)
		} else if found {
			metrics.TileCacheHits.Inc()
			return uc.tileResponse(data, info, gzipBody)
		}
		metrics.TileCacheMisses.Inc()
	}

	data, found, err := reader.GetTile(ctx, req.Z, req.X, req.Y)
	if err != nil {
		return Response{}, err
	}
	if !found {
		// Sparse archive, valid outcome.
		return Response{StatusCode: 204, Headers: uc.baseHeaders()}, nil
	}

	if uc.tileCache != nil {
		if err := uc.tileCache.Set(ctx, key, data); err != nil {
			uc.logger.Warn("tile cache set failed", "key", key.String(), "error", err)
		}
	}

	return uc.tileResponse(data, info, gzipBody)
}

func (uc *TileServerUseCase) tileResponse(data []byte, info archive.TileTypeInfo, gzipBody bool) (Response, error) {
	headers := uc.baseHeaders()
	headers["Content-Type"] = info.MimeType
	headers["Cache-Control"] = uc.cacheControl
	headers["ETag"] = fmt.Sprintf("\"%x\"", sha256.Sum256(data))

	body := data
	if gzipBody {
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write(data); err != nil {
			return Response{}, fmt.Errorf("failed to gzip tile body: %w", err)
		}
		if err := writer.Close(); err != nil {
			return Response{}, fmt.Errorf("failed to gzip tile body: %w", err)
		}
		body = buf.Bytes()
		headers["Content-Encoding"] = "gzip"
	}

	return Response{StatusCode: 200, Headers: headers, Body: body, Binary: true}, nil
}

func (uc *TileServerUseCase) baseHeaders() map[string]string {
	headers := map[string]string{}
	if uc.corsOrigin != "" {
		headers["Access-Control-Allow-Origin"] = uc.corsOrigin
	}
	return headers
}

func (uc *TileServerUseCase) message(status int, text string) Response {
	headers := uc.baseHeaders()
	headers["Content-Type"] = "text/plain"
	return Response{StatusCode: status, Headers: headers, Body: []byte(text)}
}

// failure maps upstream errors onto statuses. Access denial keeps its own
// status so operators can see the authorization problem through the
// proxy; everything else is a 500 with internals withheld.
func (uc *TileServerUseCase) failure(archiveName string, err error) Response {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return uc.message(404, "archive not found")
	case errors.Is(err, storage.ErrAccessDenied):
		uc.logger.Error("access to archive denied", "archive", archiveName, "error", err)
		return uc.message(403, "access to archive denied")
	default:
		uc.logger.Error("failed to serve request", "archive", archiveName, "error", err)
		return uc.message(500, "internal server error")
	}
}
