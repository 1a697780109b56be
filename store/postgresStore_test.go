package store

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PrayerWall/models"
)

// newMockStore wires a PostgresStore onto a sqlmock connection.
func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create sqlmock: %v", err)
	}

	s := NewPostgresStore(goqu.New("postgres", db))
	return s, mock, func() { db.Close() }
}

func commentColumns() []string {
	return []string{"comment_id", "author", "comment_text", "datetime_create"}
}

func prayerColumns() []string {
	return []string{"prayer_request_id", "name", "request_text", "is_anonymous", "status", "datetime_create", "datetime_update"}
}

func TestPostgresStoreCreateComment(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("INSERT").WillReturnRows(
		sqlmock.NewRows(commentColumns()).AddRow(7, "Amy", "Hello", now),
	)

	comment, err := s.CreateComment(context.Background(), models.CommentCreate{Author: "Amy", Text: "Hello"})
	require.NoError(t, err)

	assert.Equal(t, "7", comment.ID)
	assert.Equal(t, "Amy", comment.Author)
	assert.Equal(t, "Hello", comment.Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreateCommentValidation(t *testing.T) {
	s, _, cleanup := newMockStore(t)
	defer cleanup()

	_, err := s.CreateComment(context.Background(), models.CommentCreate{Author: "Amy"})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPostgresStoreGetComment(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		mockRows bool
	}{
		{name: "found", id: "3", mockRows: true},
		{name: "not found", id: "999"},
		{name: "non-numeric id never hits the database", id: "abc"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, mock, cleanup := newMockStore(t)
			defer cleanup()

			if tt.id != "abc" {
				rows := sqlmock.NewRows(commentColumns())
				if tt.mockRows {
					rows.AddRow(3, "Amy", "Hello", time.Now())
				}
				mock.ExpectQuery("SELECT").WillReturnRows(rows)
			}

			comment, err := s.GetComment(context.Background(), tt.id)

			if tt.mockRows {
				require.NoError(t, err)
				assert.Equal(t, tt.id, comment.ID)
			} else {
				assert.ErrorIs(t, err, ErrNotFound)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestPostgresStoreListComments(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(commentColumns()).
			AddRow(2, "Amy", "newer", now).
			AddRow(1, "Ben", "older", now.Add(-time.Minute)),
	)

	comments, err := s.ListComments(context.Background(), models.LiveFeedLimit)
	require.NoError(t, err)
	require.Len(t, comments, 2)

	assert.Equal(t, "2", comments[0].ID)
	assert.Equal(t, "1", comments[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDeleteComment(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery("DELETE").WillReturnRows(
		sqlmock.NewRows(commentColumns()).AddRow(5, "Amy", "gone", time.Now()),
	)

	deleted, err := s.DeleteComment(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "5", deleted.ID)

	mock.ExpectQuery("DELETE").WillReturnRows(sqlmock.NewRows(commentColumns()))

	_, err = s.DeleteComment(context.Background(), "5")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCreatePrayerRequest(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery("INSERT").WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(12, "Anonymous", "Please pray", true, "pending", now, now),
	)

	prayer, err := s.CreatePrayerRequest(context.Background(), models.PrayerRequestCreate{
		Name:        "Sarah M.",
		Request:     "Please pray",
		IsAnonymous: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "12", prayer.ID)
	assert.Equal(t, "Anonymous", prayer.Name)
	assert.Equal(t, models.StatusPending, prayer.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdatePrayerRequest(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()

	// Locked fetch of the existing record, then the patch write, all in one
	// transaction.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(4, "Sarah M.", "Original", false, "pending", now.Add(-time.Hour), now.Add(-time.Hour)),
	)
	mock.ExpectQuery("UPDATE").WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(4, "Sarah M.", "Original", false, "answered", now.Add(-time.Hour), now),
	)
	mock.ExpectCommit()

	status := models.StatusAnswered
	prayer, err := s.UpdatePrayerRequest(context.Background(), "4", models.PrayerRequestUpdate{Status: &status})
	require.NoError(t, err)

	assert.Equal(t, models.StatusAnswered, prayer.Status)
	assert.Equal(t, "Sarah M.", prayer.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// The patch is a read-modify-write, so the read has to lock the row for the
// duration of the transaction or two concurrent patches can clobber each
// other's fields.
func TestPostgresStoreUpdatePrayerRequestLocksRow(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT (.+) FOR UPDATE`).WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(4, "Sarah M.", "Original", false, "pending", now, now),
	)
	mock.ExpectQuery("UPDATE").WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(4, "Sarah M.", "Updated", false, "pending", now, now),
	)
	mock.ExpectCommit()

	text := "Updated"
	_, err := s.UpdatePrayerRequest(context.Background(), "4", models.PrayerRequestUpdate{Request: &text})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdatePrayerRequestNotFound(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(sqlmock.NewRows(prayerColumns()))
	mock.ExpectRollback()

	status := models.StatusAnswered
	_, err := s.UpdatePrayerRequest(context.Background(), "4", models.PrayerRequestUpdate{Status: &status})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreUpdatePrayerRequestRejectsEmptyText(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows(prayerColumns()).
			AddRow(4, "Sarah M.", "Original", false, "pending", now, now),
	)
	mock.ExpectRollback()

	empty := ""
	_, err := s.UpdatePrayerRequest(context.Background(), "4", models.PrayerRequestUpdate{Request: &empty})

	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreCountPrayerRequests(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT`).WillReturnRows(
		sqlmock.NewRows([]string{"count"}).AddRow(37),
	)

	count, err := s.CountPrayerRequests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(37), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreDeleteAllPrayerRequests(t *testing.T) {
	s, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectExec("DELETE").WillReturnResult(sqlmock.NewResult(0, 4))

	count, err := s.DeleteAllPrayerRequests(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
