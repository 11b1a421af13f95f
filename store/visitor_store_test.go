package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pixeltrack/api/database"
	"pixeltrack/api/models"
	"pixeltrack/api/store"
)

var visitorCols = []string{
	"id", "pixel_id", "session_id", "ip_address", "user_agent", "country", "region", "city",
	"latitude", "longitude", "device", "browser", "os", "referrer", "landing_page",
	"is_new_visitor", "visit_count", "created_at",
}

const (
	testPixelID   = "5f0c7c52-3b7e-4c43-9d55-2f3b1a6c9a10"
	testVisitorID = "0b8f7a4e-6a55-4a5e-8f7b-1a0e4d2c3b99"
)

func TestVisitorStore_FindBySession(t *testing.T) {
	db, mock := newMockDB(t)
	s := store.NewVisitorStore(db)
	created := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT (.+) FROM visitors WHERE pixel_id = \\$1 AND session_id = \\$2").
		WithArgs(testPixelID, "sess-a").
		WillReturnRows(sqlmock.NewRows(visitorCols).AddRow(
			testVisitorID, testPixelID, "sess-a", "8.8.8.8", "curl", "Canada", nil, nil,
			43.6, -79.4, "desktop", "Unknown", "Unknown", nil, "https://example.com/",
			true, 1, created,
		))

	v, err := s.FindBySession(context.Background(), testPixelID, "sess-a")
	require.NoError(t, err)

	assert.Equal(t, testVisitorID, v.ID)
	require.NotNil(t, v.SessionID)
	assert.Equal(t, "sess-a", *v.SessionID)
	require.NotNil(t, v.Country)
	assert.Equal(t, "Canada", *v.Country)
	assert.Nil(t, v.Region)
	require.NotNil(t, v.Latitude)
	assert.InDelta(t, 43.6, *v.Latitude, 0.001)
	assert.True(t, v.IsNewVisitor)
	assert.Equal(t, 1, v.VisitCount)
}

func TestVisitorStore_FindBySessionNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	s := store.NewVisitorStore(db)

	mock.ExpectQuery("SELECT (.+) FROM visitors").
		WithArgs(testPixelID, "sess-missing").
		WillReturnRows(sqlmock.NewRows(visitorCols))

	_, err := s.FindBySession(context.Background(), testPixelID, "sess-missing")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVisitorStore_Create(t *testing.T) {
	session := "sess-a"
	v := &models.Visitor{
		ID:           testVisitorID,
		PixelID:      testPixelID,
		SessionID:    &session,
		IsNewVisitor: true,
		VisitCount:   1,
		CreatedAt:    time.Now().UTC(),
	}

	t.Run("inserts row", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO visitors").
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, store.NewVisitorStore(db).Create(context.Background(), v))
	})

	t.Run("session already claimed", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO visitors").
			WillReturnError(&pq.Error{Code: "23505", Constraint: database.VisitorsPixelSessionKey})

		err := store.NewVisitorStore(db).Create(context.Background(), v)
		assert.ErrorIs(t, err, models.ErrAlreadyExists)
	})

	t.Run("unknown pixel", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO visitors").
			WillReturnError(&pq.Error{Code: "23503", Constraint: "visitors_pixel_id_fkey"})

		err := store.NewVisitorStore(db).Create(context.Background(), v)
		assert.ErrorIs(t, err, models.ErrReferentialIntegrity)
	})

	t.Run("connection failure", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec("INSERT INTO visitors").
			WillReturnError(errors.New("connection refused"))

		err := store.NewVisitorStore(db).Create(context.Background(), v)
		require.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrAlreadyExists)
		assert.NotErrorIs(t, err, models.ErrReferentialIntegrity)
	})
}

func TestVisitorStore_RecordReturn(t *testing.T) {
	db, mock := newMockDB(t)
	s := store.NewVisitorStore(db)

	mock.ExpectQuery("UPDATE visitors SET visit_count = visit_count \\+ 1, is_new_visitor = FALSE").
		WithArgs(testPixelID, "sess-a").
		WillReturnRows(sqlmock.NewRows(visitorCols).AddRow(
			testVisitorID, testPixelID, "sess-a", nil, nil, nil, nil, nil,
			nil, nil, nil, nil, nil, nil, nil,
			false, 3, time.Now(),
		))

	v, err := s.RecordReturn(context.Background(), testPixelID, "sess-a")
	require.NoError(t, err)
	assert.False(t, v.IsNewVisitor)
	assert.Equal(t, 3, v.VisitCount)
	assert.Nil(t, v.Country)
}

func TestVisitorStore_RecordReturnNotFound(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("UPDATE visitors").
		WithArgs(testPixelID, "sess-gone").
		WillReturnRows(sqlmock.NewRows(visitorCols))

	_, err := store.NewVisitorStore(db).RecordReturn(context.Background(), testPixelID, "sess-gone")
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestVisitorStore_ListByPixel(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT (.+) FROM visitors WHERE pixel_id = \\$1 ORDER BY created_at DESC LIMIT \\$2").
		WithArgs(testPixelID, 50).
		WillReturnRows(sqlmock.NewRows(visitorCols).
			AddRow("v2", testPixelID, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, true, 1, time.Now()).
			AddRow("v1", testPixelID, "s", nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, nil, false, 4, time.Now()))

	visitors, err := store.NewVisitorStore(db).ListByPixel(context.Background(), testPixelID, 50)
	require.NoError(t, err)
	require.Len(t, visitors, 2)
	assert.Equal(t, "v2", visitors[0].ID)
	assert.Nil(t, visitors[0].SessionID)
	assert.Equal(t, 4, visitors[1].VisitCount)
}
