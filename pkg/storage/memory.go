package storage

import (
	cmap "github.com/orcaman/concurrent-map/v2"
)

// MemoryStore keeps results in process memory. Suitable for development
// and single-instance deployments; data is lost on restart.
type MemoryStore struct {
	results cmap.ConcurrentMap[string, Result]
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{results: cmap.New[Result]()}
}

// Put stores a result, replacing any previous result with the same job id.
func (s *MemoryStore) Put(r Result) error {
	s.results.Set(r.JobID, r)
	return nil
}

// Get returns the result for a job id, and whether it exists.
func (s *MemoryStore) Get(jobID string) (Result, bool, error) {
	r, ok := s.results.Get(jobID)
	return r, ok, nil
}
