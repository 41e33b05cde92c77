package app

import (
	"context"
	"fmt"

	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/archive"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/cache"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/pmtiles"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/repository/storage"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/internal/usecase"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/config"
	"github.com/ggaans/Accelerated-PMTiles-Lambda/pkg/logger"
)

// NewServeUseCase wires the read path shared by both entrypoints: an S3
// client, a per-archive source factory, the reader registry, and the
// optional decoded-tile cache.
func NewServeUseCase(ctx context.Context, cfg *config.Config, l logger.Logger) (*usecase.TileServerUseCase, error) {
	s3Client, err := storage.NewS3Client(ctx, cfg.S3)
	if err != nil {
		return nil, fmt.Errorf("failed to build S3 client: %w", err)
	}

	registry := archive.NewRegistry(func(archiveName string) (archive.Reader, error) {
		source := storage.NewS3Source(s3Client, cfg.S3.Bucket, cfg.Archive.KeyTemplate, archiveName, l)
		return pmtiles.NewReader(source, l), nil
	})

	tileCache, err := newTileCache(cfg.TileCache)
	if err != nil {
		return nil, err
	}

	return usecase.NewTileServerUseCase(registry, tileCache, cfg.Serve, l), nil
}

func newTileCache(cfg config.TileCache) (cache.TileCache, error) {
	switch cfg.Kind {
	case "none":
		return nil, nil
	case "memory":
		return cache.NewMemoryCache(cfg.TTL), nil
	case "redis":
		return cache.NewRedisCache(cfg.RedisAddr, cfg.TTL)
	default:
		return nil, fmt.Errorf("unknown tile cache kind %q", cfg.Kind)
	}
}
