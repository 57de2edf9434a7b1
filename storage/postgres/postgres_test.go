package postgres

import (
	"errors"
	"os"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/venuehall/venuesite/storage"
	"github.com/venuehall/venuesite/storage/storagetest"
)

var eventColumns = []string{"id", "name", "event_date", "event_time", "planner", "description", "image", "created_at"}

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(db), mock
}

func TestListOrdersByPosition(t *testing.T) {
	s, mock := newMockStore(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta(selectEvents + ` ORDER BY position, id`)).
		WillReturnRows(sqlmock.NewRows(eventColumns).
			AddRow("01A", "Gala", "2026-05-01", "19:00", "Ops", "", "/a.png", created).
			AddRow("01B", "Expo", "2026-06-01", "10:00", "Ops", "Trade expo", "/b.png", created))

	got, err := s.List(t.Context())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Gala", got[0].Name)
	assert.Equal(t, "Trade expo", got[1].Description)
	assert.Equal(t, created, got[0].CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetNotFound(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectQuery(regexp.QuoteMeta(selectEvents + ` WHERE id = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows(eventColumns))

	_, err := s.Get(t.Context(), "missing")
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateAssignsID(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectExec("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), "Gala", "2026-05-01", "19:00", "Ops", "", "/a.png", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ev, err := s.Create(t.Context(), storage.EventFields{
		Name: "Gala", Date: "2026-05-01", Time: "19:00", Planner: "Ops", Image: "/a.png",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, ev.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllCommits(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM events").WillReturnResult(sqlmock.NewResult(0, 5))
	mock.ExpectExec("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), 1, "A", "d", "t", "p", "", "/a.png", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO events").
		WithArgs(sqlmock.AnyArg(), 2, "B", "d", "t", "p", "", "/b.png", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	got, err := s.ReplaceAll(t.Context(), []storage.EventFields{
		{Name: "A", Date: "d", Time: "t", Planner: "p", Image: "/a.png"},
		{Name: "B", Date: "d", Time: "t", Planner: "p", Image: "/b.png"},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.NotEqual(t, got[0].ID, got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReplaceAllRollsBackOnError(t *testing.T) {
	s, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM events").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO events").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	_, err := s.ReplaceAll(t.Context(), []storage.EventFields{{Name: "A"}})
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestPostgresStore runs the shared suite against a live database when
// VENUE_TEST_POSTGRES_DSN is set.
func TestPostgresStore(t *testing.T) {
	dsn := os.Getenv("VENUE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("VENUE_TEST_POSTGRES_DSN not set; skipping PostgreSQL tests")
	}
	storagetest.Run(t, func(t *testing.T) storage.EventStore {
		s, err := Open(t.Context(), dsn)
		require.NoError(t, err)
		_, err = s.db.ExecContext(t.Context(), `DELETE FROM events`)
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		return s
	})
}
