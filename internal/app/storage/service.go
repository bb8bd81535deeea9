/*
Package storage stores uploaded avatar images for the development server.

Two implementations exist: an S3-compatible bucket for setups that have one,
and an in-memory store so the server stays zero-setup without it. The factory
picks based on configuration.
*/
package storage

import (
	"context"
	"io"
)

// ServiceConfig holds the settings for the S3-backed implementation.
type ServiceConfig struct {
	S3BucketName      string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// BlobStore persists avatar images and hands back the URL to reference them
// by in user profiles.
type BlobStore interface {
	// Put stores body under key and returns the URL the avatar is reachable at.
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)

	// Open returns the stored blob and its content type. Implementations whose
	// Put URLs point at external storage may still serve through Open; the
	// in-memory store depends on it.
	Open(ctx context.Context, key string) (io.ReadCloser, string, error)
}

// NewBlobStore selects the implementation: S3-compatible storage when a
// bucket is configured, otherwise in-memory.
func NewBlobStore(cfg ServiceConfig) (BlobStore, error) {
	if cfg.S3BucketName == "" {
		return newMemoryStore(), nil
	}
	return newS3Store(cfg)
}
