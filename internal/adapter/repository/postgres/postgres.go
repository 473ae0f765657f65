// Package postgres implements the URL store on top of PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/vadimbarashkov/shortlink/internal/entity"
)

const uniqueViolationErrCode = "23505"

func isUniqueViolationError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.SQLState() == uniqueViolationErrCode
}

const urlColumns = `short_code, original_url, clicks, created_at, is_custom`

type urlDB struct {
	ShortCode   string    `db:"short_code"`
	OriginalURL string    `db:"original_url"`
	Clicks      int64     `db:"clicks"`
	CreatedAt   time.Time `db:"created_at"`
	IsCustom    bool      `db:"is_custom"`
}

func (u *urlDB) toEntity() *entity.URL {
	return &entity.URL{
		ShortCode:   u.ShortCode,
		OriginalURL: u.OriginalURL,
		Clicks:      u.Clicks,
		CreatedAt:   u.CreatedAt,
		IsCustom:    u.IsCustom,
	}
}

type URLRepository struct {
	db *sqlx.DB
}

func NewURLRepository(db *sqlx.DB) *URLRepository {
	return &URLRepository{db: db}
}

// InsertIfAbsent inserts url unless its short code is taken. The primary key
// constraint makes the check and the insert a single atomic step.
func (r *URLRepository) InsertIfAbsent(ctx context.Context, url *entity.URL) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.InsertIfAbsent"
	const query = `INSERT INTO urls(short_code, original_url, created_at, is_custom)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + urlColumns

	var rec urlDB

	err := r.db.GetContext(ctx, &rec, query, url.ShortCode, url.OriginalURL, url.CreatedAt, url.IsCustom)
	if err != nil {
		if isUniqueViolationError(err) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrShortCodeExists)
		}

		return nil, fmt.Errorf("%s: failed to insert into urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return rec.toEntity(), nil
}

func (r *URLRepository) Get(ctx context.Context, shortCode string) (*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.Get"
	const query = `SELECT ` + urlColumns + ` FROM urls WHERE short_code = $1`

	var rec urlDB

	if err := r.db.GetContext(ctx, &rec, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return nil, fmt.Errorf("%s: failed to get row from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return rec.toEntity(), nil
}

// IncrementClicks bumps the click counter in a single statement so concurrent
// redirects never lose an update.
func (r *URLRepository) IncrementClicks(ctx context.Context, shortCode string) (int64, error) {
	const op = "adapter.repository.postgres.URLRepository.IncrementClicks"
	const query = `UPDATE urls SET clicks = clicks + 1 WHERE short_code = $1 RETURNING clicks`

	var clicks int64

	if err := r.db.GetContext(ctx, &clicks, query, shortCode); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
		}

		return 0, fmt.Errorf("%s: failed to update urls table row: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	return clicks, nil
}

func (r *URLRepository) Delete(ctx context.Context, shortCode string) error {
	const op = "adapter.repository.postgres.URLRepository.Delete"
	const query = `DELETE FROM urls WHERE short_code = $1`

	res, err := r.db.ExecContext(ctx, query, shortCode)
	if err != nil {
		return fmt.Errorf("%s: failed to delete from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: failed to get number of affected rows: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	if rowsAffected != 1 {
		return fmt.Errorf("%s: %w", op, entity.ErrURLNotFound)
	}

	return nil
}

// ListAll returns the newest URLs first. A non-positive limit returns every row.
func (r *URLRepository) ListAll(ctx context.Context, limit int) ([]*entity.URL, error) {
	const op = "adapter.repository.postgres.URLRepository.ListAll"

	query := `SELECT ` + urlColumns + ` FROM urls ORDER BY created_at DESC, short_code`
	args := []any{}

	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	var recs []urlDB

	if err := r.db.SelectContext(ctx, &recs, query, args...); err != nil {
		return nil, fmt.Errorf("%s: failed to select from urls table: %w: %w", op, entity.ErrStoreUnavailable, err)
	}

	urls := make([]*entity.URL, 0, len(recs))
	for i := range recs {
		urls = append(urls, recs[i].toEntity())
	}

	return urls, nil
}
