package listing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository defines the data access required by the listing service.
// Mutating methods that participate in a lifecycle transition take the
// caller's transaction so the precondition check and the write commit or
// roll back together.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, land Land) (Land, error)
	GetByID(ctx context.Context, id string) (Land, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Land, error)
	UpdateFields(ctx context.Context, tx pgx.Tx, land Land) (Land, error)
	UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, adminNotes string) (Land, error)
	Delete(ctx context.Context, id, ownerID string) error

	Search(ctx context.Context, filters Filters) ([]Land, int, error)
	ListByOwner(ctx context.Context, filters OwnerFilters) ([]Land, int, error)
	ListForModeration(ctx context.Context, filters ModerationFilters) ([]Land, int, error)
	StatusCounts(ctx context.Context, ownerID string) (map[Status]int, error)

	AddImage(ctx context.Context, tx pgx.Tx, img Image) (Image, error)
	ListImages(ctx context.Context, landID string) ([]Image, error)
	CountImages(ctx context.Context, tx pgx.Tx, landID string) (int, error)
	DeleteImage(ctx context.Context, tx pgx.Tx, landID, imageID string) error
	SetPrimaryImage(ctx context.Context, tx pgx.Tx, landID, imageID string) error
	NormalizePrimary(ctx context.Context, tx pgx.Tx, landID string) error
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const landColumns = `id, owner_id, title, description, price, size_acres, location, address, property_type, status, admin_notes, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, land Land) (Land, error) {
	query := `
		INSERT INTO lands (owner_id, title, description, price, size_acres, location, address, property_type, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + landColumns

	row := tx.QueryRow(ctx, query,
		land.OwnerID,
		land.Title,
		land.Description,
		land.Price,
		land.SizeAcres,
		land.Location,
		land.Address,
		land.PropertyType,
		land.Status,
	)
	created, err := scanLand(row)
	if err != nil {
		return Land{}, fmt.Errorf("listing: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Land, error) {
	query := `SELECT ` + landColumns + ` FROM lands WHERE id = $1`

	land, err := scanLand(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Land{}, ErrNotFound
		}
		return Land{}, fmt.Errorf("listing: get by id: %w", err)
	}

	images, err := r.ListImages(ctx, id)
	if err != nil {
		return Land{}, err
	}
	land.Images = images
	return land, nil
}

// GetForUpdate locks the listing row for the duration of the transaction
// so concurrent transitions serialize.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Land, error) {
	query := `SELECT ` + landColumns + ` FROM lands WHERE id = $1 FOR UPDATE`

	land, err := scanLand(tx.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Land{}, ErrNotFound
		}
		return Land{}, fmt.Errorf("listing: get for update: %w", err)
	}
	return land, nil
}

func (r *PGRepository) UpdateFields(ctx context.Context, tx pgx.Tx, land Land) (Land, error) {
	query := `
		UPDATE lands
		SET title = $2,
		    description = $3,
		    price = $4,
		    size_acres = $5,
		    location = $6,
		    address = $7,
		    property_type = $8,
		    status = $9,
		    admin_notes = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + landColumns

	row := tx.QueryRow(ctx, query,
		land.ID,
		land.Title,
		land.Description,
		land.Price,
		land.SizeAcres,
		land.Location,
		land.Address,
		land.PropertyType,
		land.Status,
		land.AdminNotes,
	)
	updated, err := scanLand(row)
	if err != nil {
		return Land{}, fmt.Errorf("listing: update fields: %w", err)
	}
	return updated, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, tx pgx.Tx, id string, status Status, adminNotes string) (Land, error) {
	query := `
		UPDATE lands
		SET status = $2,
		    admin_notes = $3,
		    updated_at = now()
		WHERE id = $1
		RETURNING ` + landColumns

	land, err := scanLand(tx.QueryRow(ctx, query, id, status, adminNotes))
	if err != nil {
		return Land{}, fmt.Errorf("listing: update status: %w", err)
	}
	return land, nil
}

// Delete removes the listing; images, inquiries, and favorites cascade
// away at the storage layer.
func (r *PGRepository) Delete(ctx context.Context, id, ownerID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM lands WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("listing: delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PGRepository) Search(ctx context.Context, filters Filters) ([]Land, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"status = 'approved'"}
	args := []any{}

	if q := strings.TrimSpace(filters.Query); q != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+q+"%")
	}
	if loc := strings.TrimSpace(filters.Location); loc != "" {
		where = append(where, fmt.Sprintf("location ILIKE $%d", len(args)+1))
		args = append(args, "%"+loc+"%")
	}
	if len(filters.PropertyTypes) > 0 {
		types := make([]string, 0, len(filters.PropertyTypes))
		for _, t := range filters.PropertyTypes {
			types = append(types, string(t))
		}
		where = append(where, fmt.Sprintf("property_type = ANY($%d)", len(args)+1))
		args = append(args, types)
	}
	if filters.PriceMin > 0 {
		where = append(where, fmt.Sprintf("price >= $%d", len(args)+1))
		args = append(args, filters.PriceMin)
	}
	if filters.PriceMax > 0 {
		where = append(where, fmt.Sprintf("price <= $%d", len(args)+1))
		args = append(args, filters.PriceMax)
	}
	if filters.SizeMin > 0 {
		where = append(where, fmt.Sprintf("size_acres >= $%d", len(args)+1))
		args = append(args, filters.SizeMin)
	}
	if filters.SizeMax > 0 {
		where = append(where, fmt.Sprintf("size_acres <= $%d", len(args)+1))
		args = append(args, filters.SizeMax)
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")
	orderClause := orderBy(filters.SortBy, filters.Descending)

	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM lands%s%s LIMIT %d OFFSET %d`, landColumns, whereClause, orderClause, limit, offset)
	list, err := r.queryLands(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing: search: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lands%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listing: count search: %w", err)
	}

	return list, total, nil
}

func (r *PGRepository) ListByOwner(ctx context.Context, filters OwnerFilters) ([]Land, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"owner_id = $1"}
	args := []any{filters.OwnerID}

	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+q+"%")
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")
	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM lands%s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, landColumns, whereClause, limit, offset)
	list, err := r.queryLands(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing: list by owner: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lands%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listing: count by owner: %w", err)
	}

	return list, total, nil
}

func (r *PGRepository) ListForModeration(ctx context.Context, filters ModerationFilters) ([]Land, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	where := []string{"1=1"}
	args := []any{}

	if filters.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filters.Status)
	}
	if q := strings.TrimSpace(filters.Query); q != "" {
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d OR location ILIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, "%"+q+"%")
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")
	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`SELECT %s FROM lands%s ORDER BY created_at DESC, id ASC LIMIT %d OFFSET %d`, landColumns, whereClause, limit, offset)
	list, err := r.queryLands(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("listing: list for moderation: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM lands%s", whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("listing: count for moderation: %w", err)
	}

	return list, total, nil
}

// StatusCounts aggregates per-status listing counts, optionally scoped to
// one owner. Backs the seller and admin dashboards.
func (r *PGRepository) StatusCounts(ctx context.Context, ownerID string) (map[Status]int, error) {
	query := `SELECT status, COUNT(*) FROM lands`
	args := []any{}
	if ownerID != "" {
		query += ` WHERE owner_id = $1`
		args = append(args, ownerID)
	}
	query += ` GROUP BY status`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing: status counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[Status]int)
	for rows.Next() {
		var (
			status Status
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("listing: scan status count: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate status counts: %w", err)
	}
	return counts, nil
}

const imageColumns = `id, land_id, ref, alt_text, is_primary, position, created_at`

func (r *PGRepository) AddImage(ctx context.Context, tx pgx.Tx, img Image) (Image, error) {
	query := `
		INSERT INTO land_images (land_id, ref, alt_text, is_primary, position)
		VALUES ($1, $2, $3, $4, COALESCE(NULLIF($5, 0), (SELECT COALESCE(MAX(position), 0) + 1 FROM land_images WHERE land_id = $1)))
		RETURNING ` + imageColumns

	row := tx.QueryRow(ctx, query, img.LandID, img.Ref, img.AltText, img.IsPrimary, img.Position)
	created, err := scanImage(row)
	if err != nil {
		return Image{}, fmt.Errorf("listing: insert image: %w", err)
	}
	return created, nil
}

func (r *PGRepository) ListImages(ctx context.Context, landID string) ([]Image, error) {
	query := `SELECT ` + imageColumns + ` FROM land_images WHERE land_id = $1 ORDER BY position, created_at DESC`

	rows, err := r.pool.Query(ctx, query, landID)
	if err != nil {
		return nil, fmt.Errorf("listing: list images: %w", err)
	}
	defer rows.Close()

	images := []Image{}
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("listing: scan image: %w", err)
		}
		images = append(images, img)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing: iterate images: %w", err)
	}
	return images, nil
}

func (r *PGRepository) CountImages(ctx context.Context, tx pgx.Tx, landID string) (int, error) {
	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM land_images WHERE land_id = $1`, landID).Scan(&count); err != nil {
		return 0, fmt.Errorf("listing: count images: %w", err)
	}
	return count, nil
}

func (r *PGRepository) DeleteImage(ctx context.Context, tx pgx.Tx, landID, imageID string) error {
	tag, err := tx.Exec(ctx, `DELETE FROM land_images WHERE id = $1 AND land_id = $2`, imageID, landID)
	if err != nil {
		return fmt.Errorf("listing: delete image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// SetPrimaryImage promotes imageID and demotes its siblings. The EXISTS
// gate keeps a bogus id from demoting the gallery to zero primaries.
func (r *PGRepository) SetPrimaryImage(ctx context.Context, tx pgx.Tx, landID, imageID string) error {
	const query = `
		UPDATE land_images
		SET is_primary = (id = $1)
		WHERE land_id = $2
		  AND EXISTS (SELECT 1 FROM land_images WHERE id = $1 AND land_id = $2)
	`
	tag, err := tx.Exec(ctx, query, imageID, landID)
	if err != nil {
		return fmt.Errorf("listing: set primary image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrImageNotFound
	}
	return nil
}

// NormalizePrimary repairs the exactly-one-primary invariant: if several
// images are flagged the lowest-positioned one wins, and if none are the
// first image is promoted. No-op for listings without images.
func (r *PGRepository) NormalizePrimary(ctx context.Context, tx pgx.Tx, landID string) error {
	const query = `
		UPDATE land_images
		SET is_primary = (id = keeper.id)
		FROM (
			SELECT id
			FROM land_images
			WHERE land_id = $1
			ORDER BY is_primary DESC, position, created_at DESC
			LIMIT 1
		) AS keeper
		WHERE land_images.land_id = $1
	`
	if _, err := tx.Exec(ctx, query, landID); err != nil {
		return fmt.Errorf("listing: normalize primary image: %w", err)
	}
	return nil
}

func (r *PGRepository) queryLands(ctx context.Context, query string, args ...any) ([]Land, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := []Land{}
	for rows.Next() {
		land, err := scanLand(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, land)
	}
	return list, rows.Err()
}

// orderBy maps the sort contract to SQL. The id tie-break keeps paging
// deterministic when primary keys collide.
func orderBy(key SortKey, descending bool) string {
	column := "created_at"
	switch key {
	case SortByPrice:
		column = "price"
	case SortBySize:
		column = "size_acres"
	case SortByCreated:
		column = "created_at"
	}
	direction := "ASC"
	if descending {
		direction = "DESC"
	}
	return fmt.Sprintf(" ORDER BY %s %s, id ASC", column, direction)
}

func scanLand(row pgx.Row) (Land, error) {
	var land Land
	return land, row.Scan(
		&land.ID,
		&land.OwnerID,
		&land.Title,
		&land.Description,
		&land.Price,
		&land.SizeAcres,
		&land.Location,
		&land.Address,
		&land.PropertyType,
		&land.Status,
		&land.AdminNotes,
		&land.CreatedAt,
		&land.UpdatedAt,
	)
}

func scanImage(row pgx.Row) (Image, error) {
	var img Image
	return img, row.Scan(
		&img.ID,
		&img.LandID,
		&img.Ref,
		&img.AltText,
		&img.IsPrimary,
		&img.Position,
		&img.CreatedAt,
	)
}
