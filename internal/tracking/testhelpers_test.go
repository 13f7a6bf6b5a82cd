package tracking

import (
	"context"
	"errors"
	"sync"
)

type memStore struct {
	mu       sync.Mutex
	projects map[string]ProjectConfig
	err      error
	lookups  int
}

func newMemStore(configs ...ProjectConfig) *memStore {
	s := &memStore{projects: make(map[string]ProjectConfig)}
	for _, pc := range configs {
		s.projects[pc.Token().String()] = pc
	}
	return s
}

func (s *memStore) LookupProject(_ context.Context, realmID, projectID string) (ProjectConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lookups++
	if s.err != nil {
		return ProjectConfig{}, s.err
	}
	pc, ok := s.projects[realmID+"."+projectID]
	if !ok {
		return ProjectConfig{}, ErrNotFound
	}
	return pc, nil
}

func (s *memStore) lookupCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lookups
}

type recordingLog struct {
	mu     sync.Mutex
	events []Event
	err    error
}

func (l *recordingLog) AppendEvent(_ context.Context, ev Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return l.err
	}
	l.events = append(l.events, ev)
	return nil
}

func (l *recordingLog) appended() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event(nil), l.events...)
}

var errStoreDown = errors.New("store down")

func testConfig(realmID, projectID string, flags FeatureFlags, origins ...string) ProjectConfig {
	return ProjectConfig{
		Realm: Realm{ID: realmID},
		Project: Project{
			ID:             projectID,
			RealmID:        realmID,
			AllowedOrigins: origins,
			Flags:          flags,
		},
	}
}
