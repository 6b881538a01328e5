package inquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"landmarket/listing"
)

var (
	// ErrNotFound is returned when no inquiry row matches.
	ErrNotFound = errors.New("inquiry: not found")
	// ErrAlreadyResponded is returned when the seller's single response
	// slot is already taken.
	ErrAlreadyResponded = errors.New("inquiry: already responded")
)

// Repository defines the data access required by the inquiry service.
type Repository interface {
	Create(ctx context.Context, tx pgx.Tx, inq Inquiry) (Inquiry, error)
	GetByID(ctx context.Context, id string) (Inquiry, LandRef, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Inquiry, LandRef, error)
	GetListing(ctx context.Context, tx pgx.Tx, landID string) (LandRef, error)
	HasRecent(ctx context.Context, tx pgx.Tx, buyerID, landID string, since time.Time) (bool, error)
	Respond(ctx context.Context, tx pgx.Tx, id, response string) (Inquiry, error)
	MarkRead(ctx context.Context, id string) (Inquiry, error)
	ListForSeller(ctx context.Context, sellerID string, filters Filters) ([]Inquiry, int, error)
	ListForBuyer(ctx context.Context, buyerID string, filters Filters) ([]Inquiry, int, error)
	UnreadCountForSeller(ctx context.Context, sellerID string) (int, error)
}

// PGRepository implements Repository backed by PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const inquiryColumns = `i.id, i.land_id, i.buyer_id, i.subject, i.message, i.contact_phone, i.seller_response, i.responded_at, i.read_at, i.created_at`

func (r *PGRepository) Create(ctx context.Context, tx pgx.Tx, inq Inquiry) (Inquiry, error) {
	query := `
		INSERT INTO inquiries (land_id, buyer_id, subject, message, contact_phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, land_id, buyer_id, subject, message, contact_phone, seller_response, responded_at, read_at, created_at
	`

	created, err := scanInquiry(tx.QueryRow(ctx, query, inq.LandID, inq.BuyerID, inq.Subject, inq.Message, inq.ContactPhone))
	if err != nil {
		return Inquiry{}, fmt.Errorf("inquiry: insert: %w", err)
	}
	return created, nil
}

func (r *PGRepository) GetByID(ctx context.Context, id string) (Inquiry, LandRef, error) {
	return r.get(ctx, r.pool, id, false)
}

// GetForUpdate locks the inquiry row so concurrent responses serialize.
func (r *PGRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (Inquiry, LandRef, error) {
	return r.get(ctx, tx, id, true)
}

type queryRower interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *PGRepository) get(ctx context.Context, q queryRower, id string, forUpdate bool) (Inquiry, LandRef, error) {
	query := `
		SELECT ` + inquiryColumns + `, l.id, l.owner_id, l.title, l.status
		FROM inquiries i
		JOIN lands l ON l.id = i.land_id
		WHERE i.id = $1
	`
	if forUpdate {
		query += ` FOR UPDATE OF i`
	}

	var (
		inq    Inquiry
		land   LandRef
		status listing.Status
	)
	err := q.QueryRow(ctx, query, id).Scan(
		&inq.ID,
		&inq.LandID,
		&inq.BuyerID,
		&inq.Subject,
		&inq.Message,
		&inq.ContactPhone,
		&inq.SellerResponse,
		&inq.RespondedAt,
		&inq.ReadAt,
		&inq.CreatedAt,
		&land.ID,
		&land.OwnerID,
		&land.Title,
		&status,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inquiry{}, LandRef{}, ErrNotFound
		}
		return Inquiry{}, LandRef{}, fmt.Errorf("inquiry: get: %w", err)
	}
	land.Visible = status == listing.StatusApproved
	return inq, land, nil
}

func (r *PGRepository) GetListing(ctx context.Context, tx pgx.Tx, landID string) (LandRef, error) {
	query := `SELECT id, owner_id, title, status FROM lands WHERE id = $1`

	var (
		land   LandRef
		status listing.Status
	)
	err := tx.QueryRow(ctx, query, landID).Scan(&land.ID, &land.OwnerID, &land.Title, &status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return LandRef{}, listing.ErrNotFound
		}
		return LandRef{}, fmt.Errorf("inquiry: get listing: %w", err)
	}
	land.Visible = status == listing.StatusApproved
	return land, nil
}

func (r *PGRepository) HasRecent(ctx context.Context, tx pgx.Tx, buyerID, landID string, since time.Time) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM inquiries WHERE buyer_id = $1 AND land_id = $2 AND created_at >= $3)`

	var exists bool
	if err := tx.QueryRow(ctx, query, buyerID, landID, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("inquiry: check recent: %w", err)
	}
	return exists, nil
}

// Respond fills the single response slot. The conditional update is the
// authority: a row that already has a response is left untouched even if
// two responders race past the service check.
func (r *PGRepository) Respond(ctx context.Context, tx pgx.Tx, id, response string) (Inquiry, error) {
	query := `
		UPDATE inquiries i
		SET seller_response = $2,
		    responded_at = now(),
		    read_at = COALESCE(read_at, now())
		WHERE i.id = $1 AND i.seller_response IS NULL
		RETURNING i.id, i.land_id, i.buyer_id, i.subject, i.message, i.contact_phone, i.seller_response, i.responded_at, i.read_at, i.created_at
	`

	updated, err := scanInquiry(tx.QueryRow(ctx, query, id, response))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// distinguish missing from already-responded
			var exists bool
			if checkErr := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM inquiries WHERE id = $1)`, id).Scan(&exists); checkErr != nil {
				return Inquiry{}, fmt.Errorf("inquiry: respond: %w", checkErr)
			}
			if exists {
				return Inquiry{}, ErrAlreadyResponded
			}
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, fmt.Errorf("inquiry: respond: %w", err)
	}
	return updated, nil
}

// MarkRead is idempotent: re-reading keeps the original timestamp.
func (r *PGRepository) MarkRead(ctx context.Context, id string) (Inquiry, error) {
	query := `
		UPDATE inquiries i
		SET read_at = COALESCE(read_at, now())
		WHERE i.id = $1
		RETURNING i.id, i.land_id, i.buyer_id, i.subject, i.message, i.contact_phone, i.seller_response, i.responded_at, i.read_at, i.created_at
	`

	updated, err := scanInquiry(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Inquiry{}, ErrNotFound
		}
		return Inquiry{}, fmt.Errorf("inquiry: mark read: %w", err)
	}
	return updated, nil
}

func (r *PGRepository) ListForSeller(ctx context.Context, sellerID string, filters Filters) ([]Inquiry, int, error) {
	where := []string{"l.owner_id = $1"}
	args := []any{sellerID}
	return r.list(ctx, where, args, filters)
}

func (r *PGRepository) ListForBuyer(ctx context.Context, buyerID string, filters Filters) ([]Inquiry, int, error) {
	where := []string{"i.buyer_id = $1"}
	args := []any{buyerID}
	return r.list(ctx, where, args, filters)
}

func (r *PGRepository) list(ctx context.Context, where []string, args []any, filters Filters) ([]Inquiry, int, error) {
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}
	if filters.OnlyUnread {
		where = append(where, "i.read_at IS NULL")
	}
	if filters.OnlyUnanswered {
		where = append(where, "i.seller_response IS NULL")
	}

	whereClause := " WHERE " + strings.Join(where, " AND ")
	limit := filters.PageSize
	offset := (filters.Page - 1) * filters.PageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM inquiries i
		JOIN lands l ON l.id = i.land_id
		%s
		ORDER BY i.created_at DESC, i.id ASC
		LIMIT %d OFFSET %d
	`, inquiryColumns, whereClause, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("inquiry: list: %w", err)
	}
	defer rows.Close()

	list := []Inquiry{}
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("inquiry: scan: %w", err)
		}
		list = append(list, inq)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("inquiry: iterate: %w", err)
	}

	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM inquiries i JOIN lands l ON l.id = i.land_id%s`, whereClause)
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("inquiry: count: %w", err)
	}

	return list, total, nil
}

func (r *PGRepository) UnreadCountForSeller(ctx context.Context, sellerID string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM inquiries i
		JOIN lands l ON l.id = i.land_id
		WHERE l.owner_id = $1 AND i.read_at IS NULL
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, sellerID).Scan(&count); err != nil {
		return 0, fmt.Errorf("inquiry: unread count: %w", err)
	}
	return count, nil
}

func scanInquiry(row pgx.Row) (Inquiry, error) {
	var inq Inquiry
	return inq, row.Scan(
		&inq.ID,
		&inq.LandID,
		&inq.BuyerID,
		&inq.Subject,
		&inq.Message,
		&inq.ContactPhone,
		&inq.SellerResponse,
		&inq.RespondedAt,
		&inq.ReadAt,
		&inq.CreatedAt,
	)
}
