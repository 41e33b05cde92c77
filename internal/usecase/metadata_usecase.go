package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/storage"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/routing"
)

// passthroughFields are copied from the archive's embedded metadata into
// the TileJSON document when present.
var passthroughFields = []string{"name", "description", "attribution", "version", "vector_layers"}

// Metadata serves a TileJSON document for an archive. It needs a usable
// base URL: the configured public hostname, or failing that the
// forwarded-host header an edge layer supplies.
func (uc *TileServerUseCase) Metadata(ctx context.Context, req routing.MetadataRequest, hostHint string) Response {
	host := uc.publicHostname
	if host == "" {
		host = hostHint
	}
	if host == "" {
		return uc.message(501, "no public hostname configured and no forwarded host supplied")
	}

	reader, err := uc.registry.Resolve(req.Archive)
	if err != nil {
		return uc.failure(req.Archive, err)
	}

	header, err := reader.GetHeader(ctx)
	if err != nil {
		return uc.failure(req.Archive, err)
	}

	// Unlike the tile path, an unrecognized tile type degrades to a
	// generic extension here instead of failing the request.
	ext := "bin"
	if info, ok := archive.TileTypeOf(header.TileType); ok {
		ext = info.Extension
	}

	doc := map[string]any{
		"tilejson": "3.0.0",
		"scheme":   "xyz",
		"tiles":    []string{fmt.Sprintf("https://%s/%s/{z}/{x}/{y}.%s", host, req.Archive, ext)},
		"minzoom":  header.MinZoom,
		"maxzoom":  header.MaxZoom,
		"bounds":   []float64{header.MinLon, header.MinLat, header.MaxLon, header.MaxLat},
		"center":   []float64{header.CenterLon, header.CenterLat, float64(header.CenterZoom)},
	}

	for field, value := range uc.archiveMetadata(ctx, reader, req.Archive) {
		doc[field] = value
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return uc.failure(req.Archive, err)
	}

	headers := uc.baseHeaders()
	headers["Content-Type"] = "application/json"
	headers["Cache-Control"] = uc.cacheControl

	return Response{StatusCode: 200, Headers: headers, Body: body}
}

// archiveMetadata fetches the embedded metadata fields worth passing
// through. The fetch is best effort: a staleness is retried once behind a
// refresh, anything else degrades to an empty set.
func (uc *TileServerUseCase) archiveMetadata(ctx context.Context, reader archive.Reader, archiveName string) map[string]any {
	metadata, err := reader.GetMetadata(ctx)
	if errors.Is(err, storage.ErrStale) {
		if err = reader.Refresh(ctx); err == nil {
			metadata, err = reader.GetMetadata(ctx)
		}
	}
	if err != nil {
		uc.logger.Warn("failed to fetch archive metadata, continuing without",
			"archive", archiveName,
			"error", err,
		)
		return nil
	}

	fields := make(map[string]any)
	for _, field := range passthroughFields {
		if value, ok := metadata[field]; ok {
			fields[field] = value
		}
	}
	return fields
}
