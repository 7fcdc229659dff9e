package cli

import (
	"context"
	"fmt"

	"github.com/relayrun/enact/internal/resource"
	"github.com/relayrun/enact/internal/store"
	"github.com/relayrun/enact/pkg/miniobackend"
)

// OpenStore constructs the store.Store named by cfg, optionally layering
// an LRU cache over the backend when cfg.CacheSize is positive.
func OpenStore(ctx context.Context, cfg StoreConfig) (*store.Store, error) {
	backend, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.CacheSize > 0 {
		cached, err := store.NewCachedBackend(backend, cfg.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("cli: wrap backend with cache: %w", err)
		}
		backend = cached
	}
	return store.New(backend, resource.Default), nil
}

func openBackend(ctx context.Context, cfg StoreConfig) (store.Backend, error) {
	switch cfg.Backend {
	case "", "memory":
		return store.NewMemoryBackend(), nil
	case "file":
		if cfg.Path == "" {
			return nil, NewExitError(ExitCommandError, "store.path is required for the file backend")
		}
		return store.NewFileBackend(cfg.Path)
	case "postgres":
		if cfg.DSN == "" {
			return nil, NewExitError(ExitCommandError, "store.dsn is required for the postgres backend")
		}
		return store.NewPgBackend(ctx, cfg.DSN)
	case "minio":
		if cfg.MinioEndpoint == "" || cfg.MinioBucket == "" {
			return nil, NewExitError(ExitCommandError, "store.minio_endpoint and store.minio_bucket are required for the minio backend")
		}
		return miniobackend.New(miniobackend.Config{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("unknown store backend %q", cfg.Backend))
	}
}
