package storage

import "sync"

// FakeImageStore keeps uploads in memory, for tests.
type FakeImageStore struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func NewFakeImageStore() *FakeImageStore {
	return &FakeImageStore{objects: make(map[string][]byte)}
}

func (s *FakeImageStore) Upload(key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	return "fake://" + key, nil
}

func (s *FakeImageStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Has reports whether an object is stored under key.
func (s *FakeImageStore) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[key]
	return ok
}
