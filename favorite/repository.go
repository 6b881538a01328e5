package favorite

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"landmarket/listing"
)

// PGRepository implements Repository backed by PostgreSQL. The unique
// index on (user_id, land_id) is the idempotency authority.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Add(ctx context.Context, userID, landID string) (Favorite, bool, error) {
	query := `
		INSERT INTO favorites (user_id, land_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, land_id) DO NOTHING
		RETURNING created_at
	`

	fav := Favorite{UserID: userID, LandID: landID}
	err := r.pool.QueryRow(ctx, query, userID, landID).Scan(&fav.CreatedAt)
	if err == nil {
		return fav, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Favorite{}, false, fmt.Errorf("favorite: add: %w", err)
	}

	// conflict: hand back the row that already holds the save
	query = `SELECT created_at FROM favorites WHERE user_id = $1 AND land_id = $2`
	if err := r.pool.QueryRow(ctx, query, userID, landID).Scan(&fav.CreatedAt); err != nil {
		return Favorite{}, false, fmt.Errorf("favorite: fetch existing: %w", err)
	}
	return fav, false, nil
}

func (r *PGRepository) Remove(ctx context.Context, userID, landID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM favorites WHERE user_id = $1 AND land_id = $2`, userID, landID)
	if err != nil {
		return false, fmt.Errorf("favorite: remove: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *PGRepository) List(ctx context.Context, userID string, page, pageSize int) ([]Entry, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.owner_id, l.title, l.description, l.price, l.size_acres, l.location, l.address, l.property_type, l.status, l.admin_notes, l.created_at, l.updated_at, f.created_at
		FROM favorites f
		JOIN lands l ON l.id = f.land_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC, l.id ASC
		LIMIT %d OFFSET %d
	`, pageSize, (page-1)*pageSize)

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, 0, fmt.Errorf("favorite: list: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		var e Entry
		if err := rows.Scan(
			&e.Land.ID,
			&e.Land.OwnerID,
			&e.Land.Title,
			&e.Land.Description,
			&e.Land.Price,
			&e.Land.SizeAcres,
			&e.Land.Location,
			&e.Land.Address,
			&e.Land.PropertyType,
			&e.Land.Status,
			&e.Land.AdminNotes,
			&e.Land.CreatedAt,
			&e.Land.UpdatedAt,
			&e.SavedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("favorite: scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("favorite: iterate: %w", err)
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("favorite: count: %w", err)
	}

	return entries, total, nil
}

func (r *PGRepository) IsFavorited(ctx context.Context, userID, landID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM favorites WHERE user_id = $1 AND land_id = $2)`
	if err := r.pool.QueryRow(ctx, query, userID, landID).Scan(&exists); err != nil {
		return false, fmt.Errorf("favorite: check: %w", err)
	}
	return exists, nil
}

func (r *PGRepository) CountForLand(ctx context.Context, landID string) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM favorites WHERE land_id = $1`, landID).Scan(&count); err != nil {
		return 0, fmt.Errorf("favorite: count for land: %w", err)
	}
	return count, nil
}

func (r *PGRepository) GetListing(ctx context.Context, landID string) (LandRef, error) {
	query := `SELECT id, owner_id, title, status FROM lands WHERE id = $1`

	var (
		land   LandRef
		status listing.Status
	)
	err := r.pool.QueryRow(ctx, query, landID).Scan(&land.ID, &land.OwnerID, &land.Title, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LandRef{}, listing.ErrNotFound
		}
		return LandRef{}, fmt.Errorf("favorite: get listing: %w", err)
	}
	land.Visible = status == listing.StatusApproved
	return land, nil
}
