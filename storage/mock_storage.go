package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MockStorage implements the Storage interface for but just holds the data in memory.
type MockStorage struct {
	Data map[string][]byte

	lock sync.Mutex
}

// MockStorage creates a new mock storage.
func NewMockStorage() *MockStorage {
	return &MockStorage{
		Data: make(map[string][]byte),
	}
}

// Write stores a copy of the data for the key. TTL is ignored.
func (s *MockStorage) Write(ctx context.Context, key string, body []byte, options *Options) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.Data[key] = append([]byte(nil), body...)
	return nil
}

// Read returns the data stored for the key.
func (s *MockStorage) Read(ctx context.Context, key string) ([]byte, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	result, exists := s.Data[key]
	if !exists {
		return nil, ErrNotFound
	}
	return append([]byte(nil), result...), nil
}

// Remove removes the data stored for the key.
func (s *MockStorage) Remove(ctx context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	_, exists := s.Data[key]
	if !exists {
		return ErrNotFound
	}
	delete(s.Data, key)
	return nil
}

func (s *MockStorage) List(ctx context.Context, path string) ([]string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	result := make([]string, 0)
	for key := range s.Data {
		if !strings.HasPrefix(key, path) {
			continue
		}

		result = append(result, key)
	}

	sort.Strings(result)
	return result, nil
}
