package tracking

import (
	"context"
	"sync"

	"pixeltrack/api/models"
)

// memVisitors mimics the visitors table: the (pixel, session) pair is unique
// and RecordReturn increments under the same lock the insert takes.
type memVisitors struct {
	mu        sync.Mutex
	rows      map[string]*models.Visitor
	bySession map[string]string
	pixels    map[string]bool
	// staleReads makes FindBySession miss, as a read that raced an insert would.
	staleReads bool
}

func newMemVisitors(pixelIDs ...string) *memVisitors {
	m := &memVisitors{
		rows:      map[string]*models.Visitor{},
		bySession: map[string]string{},
		pixels:    map[string]bool{},
	}
	for _, id := range pixelIDs {
		m.pixels[id] = true
	}
	return m
}

func sessionKey(pixelID, sessionID string) string {
	return pixelID + "/" + sessionID
}

func (m *memVisitors) FindBySession(_ context.Context, pixelID, sessionID string) (*models.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.staleReads {
		return nil, models.ErrNotFound
	}
	id, ok := m.bySession[sessionKey(pixelID, sessionID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	v := *m.rows[id]
	return &v, nil
}

func (m *memVisitors) Create(_ context.Context, v *models.Visitor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.pixels[v.PixelID] {
		return models.ErrReferentialIntegrity
	}
	if v.SessionID != nil {
		key := sessionKey(v.PixelID, *v.SessionID)
		if _, ok := m.bySession[key]; ok {
			return models.ErrAlreadyExists
		}
		m.bySession[key] = v.ID
	}
	row := *v
	m.rows[v.ID] = &row
	return nil
}

func (m *memVisitors) RecordReturn(_ context.Context, pixelID, sessionID string) (*models.Visitor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.bySession[sessionKey(pixelID, sessionID)]
	if !ok {
		return nil, models.ErrNotFound
	}
	row := m.rows[id]
	row.VisitCount++
	row.IsNewVisitor = false
	v := *row
	return &v, nil
}

func (m *memVisitors) all() []models.Visitor {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Visitor, 0, len(m.rows))
	for _, v := range m.rows {
		out = append(out, *v)
	}
	return out
}

func floatPtr(f float64) *float64 { return &f }

type memPageViews struct {
	mu       sync.Mutex
	rows     []models.PageView
	visitors *memVisitors
}

func (m *memPageViews) Create(_ context.Context, pv *models.PageView) error {
	if m.visitors != nil {
		m.visitors.mu.Lock()
		_, ok := m.visitors.rows[pv.VisitorID]
		m.visitors.mu.Unlock()
		if !ok {
			return models.ErrReferentialIntegrity
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = append(m.rows, *pv)
	return nil
}

type stubEnricher struct {
	mu    sync.Mutex
	calls int
	out   models.Enrichment
}

func (s *stubEnricher) Enrich(context.Context, string, string) models.Enrichment {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.out
}

func (s *stubEnricher) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}
