package storage

import (
	"bytes"
	"context"
	"io"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/JaimeStill/herbarium/pkg/lifecycle"
)

// DefaultMemoryEndpoint is the base URL of in-memory containers when none is configured.
const DefaultMemoryEndpoint = "memory://local"

type memoryObject struct {
	data        []byte
	contentType string
	modified    time.Time
}

// Memory is an in-process System for local development and tests.
// Signed URLs carry a fake expiry query and are never verified.
type Memory struct {
	locator
	mu      sync.RWMutex
	objects map[string]memoryObject
	now     func() time.Time
}

// NewMemory creates an empty in-memory container. An empty endpoint uses
// DefaultMemoryEndpoint.
func NewMemory(endpoint, container string) *Memory {
	if endpoint == "" {
		endpoint = DefaultMemoryEndpoint
	}
	loc, err := newLocator(container, endpoint)
	if err != nil {
		loc, _ = newLocator(container, DefaultMemoryEndpoint)
	}

	return &Memory{
		locator: loc,
		objects: make(map[string]memoryObject),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for LastModified.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// Keys returns the sorted keys currently stored.
func (m *Memory) Keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func (m *Memory) Start(lc *lifecycle.Coordinator) error {
	return nil
}

func (m *Memory) SignedURL(_ context.Context, key string, expiry time.Duration) (string, error) {
	if err := validateKey(key); err != nil {
		return "", err
	}
	return m.URL(key) + "?se=" + m.now().Add(expiry).UTC().Format(time.RFC3339), nil
}

func (m *Memory) Upload(_ context.Context, key string, reader io.Reader, _ int64, contentType string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return classify("upload", key, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = memoryObject{data: data, contentType: contentType, modified: m.now()}
	return nil
}

func (m *Memory) Download(_ context.Context, key string) (*Blob, error) {
	if err := validateKey(key); err != nil {
		return nil, err
	}

	m.mu.RLock()
	obj, ok := m.objects[key]
	m.mu.RUnlock()

	if !ok {
		return nil, notFound("download", key)
	}

	return &Blob{
		Body:          io.NopCloser(bytes.NewReader(slices.Clone(obj.data))),
		ContentType:   obj.contentType,
		ContentLength: int64(len(obj.data)),
	}, nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	if err := validateKey(key); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[key]; !ok {
		return notFound("delete", key)
	}
	delete(m.objects, key)
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *Memory) List(_ context.Context, prefix string) ([]ObjectInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	objects := make([]ObjectInfo, 0, len(m.objects))
	for k, obj := range m.objects {
		if strings.HasPrefix(k, prefix) {
			objects = append(objects, ObjectInfo{
				Key:          k,
				Size:         int64(len(obj.data)),
				LastModified: obj.modified,
			})
		}
	}

	slices.SortFunc(objects, func(a, b ObjectInfo) int {
		return strings.Compare(a.Key, b.Key)
	})
	return objects, nil
}

func (m *Memory) Ping(context.Context) error {
	return nil
}
