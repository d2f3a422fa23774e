package settings

import (
	"context"
	"sync"
)

// Memory is an in-process Store used by tests and by `localtest` runs that
// have no MongoDB at hand. Same upsert semantics as Mongo: last write wins.
type Memory struct {
	mu   sync.Mutex
	docs map[int64]Settings
}

func NewMemory() *Memory {
	return &Memory{docs: make(map[int64]Settings)}
}

func (m *Memory) Get(_ context.Context, userID int64) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.docs[userID]; ok {
		return s.normalize()
	}
	return Defaults(userID)
}

func (m *Memory) update(userID int64, fn func(*Settings)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.docs[userID]
	if !ok {
		s = Settings{UserID: userID}
	}
	fn(&s)
	m.docs[userID] = s
	return nil
}

func (m *Memory) SetQuality(_ context.Context, userID int64, q Quality) error {
	return m.update(userID, func(s *Settings) { s.Quality = q })
}

func (m *Memory) SetCustomName(_ context.Context, userID int64, name string) error {
	return m.update(userID, func(s *Settings) { s.CustomName = name })
}

func (m *Memory) ClearCustomName(_ context.Context, userID int64) error {
	return m.update(userID, func(s *Settings) { s.CustomName = "" })
}

func (m *Memory) SetThumbnail(_ context.Context, userID int64, fileID string) error {
	return m.update(userID, func(s *Settings) { s.Thumbnail = fileID })
}

func (m *Memory) ClearThumbnail(_ context.Context, userID int64) error {
	return m.update(userID, func(s *Settings) { s.Thumbnail = "" })
}
