package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sync"
)

// memoryStore holds avatar blobs in process memory. Its URLs are
// server-relative; the handler serving GET /avatar/{key} resolves them.
type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string]memoryBlob
}

type memoryBlob struct {
	data        []byte
	contentType string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{blobs: make(map[string]memoryBlob)}
}

func (m *memoryStore) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.blobs[key] = memoryBlob{data: data, contentType: contentType}
	m.mu.Unlock()

	return "/avatar/" + key, nil
}

func (m *memoryStore) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	m.mu.RLock()
	blob, ok := m.blobs[key]
	m.mu.RUnlock()

	if !ok {
		return nil, "", errors.New("file not found")
	}
	return io.NopCloser(bytes.NewReader(blob.data)), blob.contentType, nil
}
