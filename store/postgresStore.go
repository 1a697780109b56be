package store

import (
	"context"
	"strconv"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/PrayerWall/models"
)

// DefaultQueryTimeout bounds every individual query against Postgres so a
// slow database degrades one request instead of hanging it forever.
const DefaultQueryTimeout = 5 * time.Second

// PostgresStore is the durable backend. Serial primary keys are rendered as
// plain strings before leaving the store so callers see the same id shape
// the fallback backend produces.
type PostgresStore struct {
	db      *goqu.Database
	timeout time.Duration
}

func NewPostgresStore(db *goqu.Database) *PostgresStore {
	return &PostgresStore{db: db, timeout: DefaultQueryTimeout}
}

func (s *PostgresStore) Durable() bool { return true }

func (s *PostgresStore) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// parseID maps the public string id back to the serial key. A malformed id
// cannot name any row, so it reads as not found rather than a bad request.
func parseID(id string) (int64, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

type commentRow struct {
	Comment_ID      int64     `db:"comment_id"`
	Author          string    `db:"author"`
	Comment_Text    string    `db:"comment_text"`
	Datetime_Create time.Time `db:"datetime_create"`
}

func (r commentRow) toModel() models.Comment {
	return models.Comment{
		ID:        strconv.FormatInt(r.Comment_ID, 10),
		Author:    r.Author,
		Text:      r.Comment_Text,
		Timestamp: r.Datetime_Create,
	}
}

type prayerRequestRow struct {
	Prayer_Request_ID int64     `db:"prayer_request_id"`
	Name              string    `db:"name"`
	Request_Text      string    `db:"request_text"`
	Is_Anonymous      bool      `db:"is_anonymous"`
	Status            string    `db:"status"`
	Datetime_Create   time.Time `db:"datetime_create"`
	Datetime_Update   time.Time `db:"datetime_update"`
}

func (r prayerRequestRow) toModel() models.PrayerRequest {
	return models.PrayerRequest{
		ID:          strconv.FormatInt(r.Prayer_Request_ID, 10),
		Name:        r.Name,
		Request:     r.Request_Text,
		IsAnonymous: r.Is_Anonymous,
		Status:      models.Status(r.Status),
		CreatedAt:   r.Datetime_Create,
		UpdatedAt:   r.Datetime_Update,
	}
}

func (s *PostgresStore) CreateComment(ctx context.Context, in models.CommentCreate) (models.Comment, error) {
	in.Normalize()
	if err := validateComment(in); err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	insert := s.db.Insert("comment").
		Rows(goqu.Record{
			"author":       in.Author,
			"comment_text": in.Text,
		}).
		Returning("comment_id", "author", "comment_text", "datetime_create")

	var row commentRow
	found, err := insert.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return models.Comment{}, err
	}
	if !found {
		return models.Comment{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) GetComment(ctx context.Context, id string) (models.Comment, error) {
	commentID, err := parseID(id)
	if err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row commentRow
	found, err := s.db.From("comment").
		Where(goqu.C("comment_id").Eq(commentID)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return models.Comment{}, err
	}
	if !found {
		return models.Comment{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListComments(ctx context.Context, limit int) ([]models.Comment, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	query := s.db.From("comment").
		Order(goqu.C("datetime_create").Desc(), goqu.C("comment_id").Desc())
	if limit > 0 {
		query = query.Limit(uint(limit))
	}

	var rows []commentRow
	if err := query.ScanStructsContext(ctx, &rows); err != nil {
		return nil, err
	}

	comments := make([]models.Comment, len(rows))
	for i, row := range rows {
		comments[i] = row.toModel()
	}
	return comments, nil
}

func (s *PostgresStore) DeleteComment(ctx context.Context, id string) (models.Comment, error) {
	commentID, err := parseID(id)
	if err != nil {
		return models.Comment{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	del := s.db.Delete("comment").
		Where(goqu.C("comment_id").Eq(commentID)).
		Returning("comment_id", "author", "comment_text", "datetime_create")

	var row commentRow
	found, err := del.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return models.Comment{}, err
	}
	if !found {
		return models.Comment{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) CreatePrayerRequest(ctx context.Context, in models.PrayerRequestCreate) (models.PrayerRequest, error) {
	in.Normalize()
	if err := validatePrayerRequestText(in.Request); err != nil {
		return models.PrayerRequest{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	insert := s.db.Insert("prayer_request").
		Rows(goqu.Record{
			"name":         in.Name,
			"request_text": in.Request,
			"is_anonymous": in.IsAnonymous,
			"status":       string(models.StatusPending),
		}).
		Returning("prayer_request_id", "name", "request_text", "is_anonymous", "status", "datetime_create", "datetime_update")

	var row prayerRequestRow
	found, err := insert.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return models.PrayerRequest{}, err
	}
	if !found {
		return models.PrayerRequest{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) GetPrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error) {
	prayerID, err := parseID(id)
	if err != nil {
		return models.PrayerRequest{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var row prayerRequestRow
	found, err := s.db.From("prayer_request").
		Where(goqu.C("prayer_request_id").Eq(prayerID)).
		ScanStructContext(ctx, &row)
	if err != nil {
		return models.PrayerRequest{}, err
	}
	if !found {
		return models.PrayerRequest{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) ListPrayerRequests(ctx context.Context) ([]models.PrayerRequest, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	var rows []prayerRequestRow
	err := s.db.From("prayer_request").
		Order(goqu.C("datetime_create").Desc(), goqu.C("prayer_request_id").Desc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, err
	}

	prayers := make([]models.PrayerRequest, len(rows))
	for i, row := range rows {
		prayers[i] = row.toModel()
	}
	return prayers, nil
}

func (s *PostgresStore) CountPrayerRequests(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	return s.db.From("prayer_request").CountContext(ctx)
}

func (s *PostgresStore) UpdatePrayerRequest(ctx context.Context, id string, patch models.PrayerRequestUpdate) (models.PrayerRequest, error) {
	prayerID, err := parseID(id)
	if err != nil {
		return models.PrayerRequest{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	// The read-modify-write runs in one transaction with the row locked, so
	// concurrent patches against the same request serialize instead of
	// writing back stale values for each other's fields.
	var row prayerRequestRow
	err = s.db.WithTx(func(tx *goqu.TxDatabase) error {
		var existing prayerRequestRow
		found, err := tx.From("prayer_request").
			Where(goqu.C("prayer_request_id").Eq(prayerID)).
			ForUpdate(exp.Wait).
			ScanStructContext(ctx, &existing)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}

		updated := patch.Apply(existing.toModel())
		if err := validatePrayerRequestText(updated.Request); err != nil {
			return err
		}
		if err := validateStatus(updated.Status); err != nil {
			return err
		}

		update := tx.Update("prayer_request").
			Set(goqu.Record{
				"name":            updated.Name,
				"request_text":    updated.Request,
				"is_anonymous":    updated.IsAnonymous,
				"status":          string(updated.Status),
				"datetime_update": goqu.L("NOW()"),
			}).
			Where(goqu.C("prayer_request_id").Eq(prayerID)).
			Returning("prayer_request_id", "name", "request_text", "is_anonymous", "status", "datetime_create", "datetime_update")

		found, err = update.Executor().ScanStructContext(ctx, &row)
		if err != nil {
			return err
		}
		if !found {
			return ErrNotFound
		}
		return nil
	})
	if err != nil {
		return models.PrayerRequest{}, err
	}
	return row.toModel(), nil
}

func (s *PostgresStore) DeletePrayerRequest(ctx context.Context, id string) (models.PrayerRequest, error) {
	prayerID, err := parseID(id)
	if err != nil {
		return models.PrayerRequest{}, err
	}

	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	del := s.db.Delete("prayer_request").
		Where(goqu.C("prayer_request_id").Eq(prayerID)).
		Returning("prayer_request_id", "name", "request_text", "is_anonymous", "status", "datetime_create", "datetime_update")

	var row prayerRequestRow
	found, err := del.Executor().ScanStructContext(ctx, &row)
	if err != nil {
		return models.PrayerRequest{}, err
	}
	if !found {
		return models.PrayerRequest{}, ErrNotFound
	}
	return row.toModel(), nil
}

func (s *PostgresStore) DeleteAllPrayerRequests(ctx context.Context) (int64, error) {
	ctx, cancel := s.opCtx(ctx)
	defer cancel()

	result, err := s.db.Delete("prayer_request").Executor().ExecContext(ctx)
	if err != nil {
		return 0, err
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return count, nil
}
