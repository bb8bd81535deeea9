package handler

import (
	"parley/internal/app/storage"
	"parley/internal/app/store"
	"parley/internal/configs"
)

// AppDeps bundles what every handler needs: configuration, the in-memory
// data store, and the avatar blob store.
type AppDeps struct {
	Config *configs.ServerConfig
	Store  *store.Store
	Blobs  storage.BlobStore
}
