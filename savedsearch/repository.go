package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const searchColumns = `id, user_id, name, query, location, property_type, price_min, price_max, size_min, size_max, email_alerts, active, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, s SavedSearch) (SavedSearch, error) {
	query := `
		INSERT INTO saved_searches (user_id, name, query, location, property_type, price_min, price_max, size_min, size_max, email_alerts, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING ` + searchColumns

	row := r.pool.QueryRow(ctx, query,
		s.UserID,
		s.Name,
		s.Query,
		s.Location,
		s.PropertyType,
		s.PriceMin,
		s.PriceMax,
		s.SizeMin,
		s.SizeMax,
		s.EmailAlerts,
		s.Active,
	)
	created, err := scanSearch(row)
	if err != nil {
		return SavedSearch{}, fmt.Errorf("savedsearch: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (SavedSearch, error) {
	query := `SELECT ` + searchColumns + ` FROM saved_searches WHERE id = $1`

	s, err := scanSearch(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedSearch{}, ErrNotFound
		}
		return SavedSearch{}, fmt.Errorf("savedsearch: get by id: %w", err)
	}
	return s, nil
}

func (r *PGRepository) Update(ctx context.Context, s SavedSearch) (SavedSearch, error) {
	query := `
		UPDATE saved_searches
		SET name = $2,
		    query = $3,
		    location = $4,
		    property_type = $5,
		    price_min = $6,
		    price_max = $7,
		    size_min = $8,
		    size_max = $9,
		    email_alerts = $10,
		    active = $11,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + searchColumns

	row := r.pool.QueryRow(ctx, query,
		s.ID,
		s.Name,
		s.Query,
		s.Location,
		s.PropertyType,
		s.PriceMin,
		s.PriceMax,
		s.SizeMin,
		s.SizeMax,
		s.EmailAlerts,
		s.Active,
	)
	updated, err := scanSearch(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return SavedSearch{}, ErrNotFound
		}
		return SavedSearch{}, fmt.Errorf("savedsearch: update: %w", err)
	}
	return updated, nil
}

func (r *PGRepository) Delete(ctx context.Context, id, userID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM saved_searches WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("savedsearch: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) ListByUser(ctx context.Context, userID string, filters ListFilters) ([]SavedSearch, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"user_id = $1"}
	args := []any{userID}
	if filters.Active != nil {
		where = append(where, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filters.Active)
	}
	whereClause := " WHERE " + strings.Join(where, " AND ")

	query := fmt.Sprintf(`SELECT %s FROM saved_searches%s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`,
		searchColumns, whereClause, filters.PageSize, (filters.Page-1)*filters.PageSize)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("savedsearch: list: %w", err)
	}
	defer rows.Close()

	searches := []SavedSearch{}
	for rows.Next() {
		s, err := scanSearch(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("savedsearch: scan: %w", err)
		}
		searches = append(searches, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("savedsearch: iterate: %w", err)
	}

	var total int
	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM saved_searches%s", whereClause)
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("savedsearch: count: %w", err)
	}
	return searches, total, nil
}

func scanSearch(row pgx.Row) (SavedSearch, error) {
	var s SavedSearch
	err := row.Scan(
		&s.ID,
		&s.UserID,
		&s.Name,
		&s.Query,
		&s.Location,
		&s.PropertyType,
		&s.PriceMin,
		&s.PriceMax,
		&s.SizeMin,
		&s.SizeMax,
		&s.EmailAlerts,
		&s.Active,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}
