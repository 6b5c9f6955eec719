package blob

import (
	"context"
	"errors"
	"sync"
)

// ErrObjectNotFound is returned by Delete for a key that was never stored.
var ErrObjectNotFound = errors.New("blob not found")

// Store writes and removes objects by key. Put returns the public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
}

// Object is a stored blob as seen by [Memory].
type Object struct {
	ContentType string
	Data        []byte
}

// Memory is an in-process Store.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string]Object
}

// NewMemory returns an empty Memory store whose URLs start with baseURL.
func NewMemory(baseURL string) *Memory {
	return &Memory{baseURL: baseURL, objects: map[string]Object{}}
}

func (m *Memory) Put(_ context.Context, key, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	m.objects[key] = Object{ContentType: contentType, Data: cp}
	return m.baseURL + "/" + key, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.objects[key]; !ok {
		return ErrObjectNotFound
	}
	delete(m.objects, key)
	return nil
}

// Get returns the object stored under key.
func (m *Memory) Get(key string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[key]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
