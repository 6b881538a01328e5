package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Lister keeps a stream of fresh draft listings flowing for one seller.
func Lister(ctx context.Context, pool *pgxpool.Pool, sellerID string, stop <-chan struct{}) error {
	types := []string{"residential", "commercial", "agricultural", "recreational"}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		var landID string
		err := pool.QueryRow(ctx, `
			INSERT INTO lands (owner_id, title, description, price, size_acres, location, property_type, status)
			VALUES ($1, $2, 'stress listing with enough descriptive text', $3, $4, 'Stressville', $5, 'draft')
			RETURNING id
		`, sellerID, fmt.Sprintf("Stress plot %d", rand.Int63()), 10000+rand.Intn(500000), 1+rand.Intn(200), types[rand.Intn(len(types))]).Scan(&landID)
		if err != nil {
			return fmt.Errorf("lister insert: %w", err)
		}
		// first image primary, sometimes a second that is not
		for i := 0; i <= rand.Intn(2); i++ {
			_, err = pool.Exec(ctx, `
				INSERT INTO land_images (land_id, ref, is_primary, position)
				VALUES ($1, $2, $3, $4)
			`, landID, fmt.Sprintf("media/stress-%d.jpg", rand.Int63()), i == 0, i+1)
			if err != nil {
				return fmt.Errorf("lister image insert: %w", err)
			}
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Submitter flips draft and rejected listings to pending, clearing notes the
// way a resubmission does.
func Submitter(ctx context.Context, pool *pgxpool.Pool, sellerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var landID string
		err = tx.QueryRow(ctx, `
			SELECT id FROM lands
			WHERE owner_id = $1 AND status IN ('draft', 'rejected')
			LIMIT 1 FOR UPDATE SKIP LOCKED
		`, sellerID).Scan(&landID)
		if err == nil {
			_, err = tx.Exec(ctx, `UPDATE lands SET status = 'pending', admin_notes = '', updated_at = NOW() WHERE id = $1`, landID)
		}
		if err == nil {
			_ = tx.Commit(ctx)
		} else {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("submitter: %w", err)
			}
		}
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// Moderator races other moderators over the pending queue, approving most
// listings and rejecting the rest with notes.
func Moderator(ctx context.Context, pool *pgxpool.Pool, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var landID string
		err = tx.QueryRow(ctx, `SELECT id FROM lands WHERE status = 'pending' LIMIT 1 FOR UPDATE SKIP LOCKED`).Scan(&landID)
		if err == nil {
			if rand.Intn(4) == 0 {
				_, err = tx.Exec(ctx, `UPDATE lands SET status = 'rejected', admin_notes = 'needs a survey document', updated_at = NOW() WHERE id = $1`, landID)
			} else {
				_, err = tx.Exec(ctx, `UPDATE lands SET status = 'approved', admin_notes = '', updated_at = NOW() WHERE id = $1`, landID)
			}
		}
		if err == nil {
			_ = tx.Commit(ctx)
		} else {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("moderator: %w", err)
			}
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// Editor applies price edits to approved listings, which demote the listing
// back to pending with cleared notes.
func Editor(ctx context.Context, pool *pgxpool.Pool, sellerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var landID string
		err = tx.QueryRow(ctx, `
			SELECT id FROM lands
			WHERE owner_id = $1 AND status = 'approved'
			LIMIT 1 FOR UPDATE SKIP LOCKED
		`, sellerID).Scan(&landID)
		if err == nil {
			_, err = tx.Exec(ctx, `
				UPDATE lands
				SET price = price + 1000, status = 'pending', admin_notes = '', updated_at = NOW()
				WHERE id = $1
			`, landID)
		}
		if err == nil {
			_ = tx.Commit(ctx)
		} else {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("editor: %w", err)
			}
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}

// Inquirer sends inquiries about approved listings, skipping listings the
// buyer already asked about recently.
func Inquirer(ctx context.Context, pool *pgxpool.Pool, buyerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO inquiries (land_id, buyer_id, message)
			SELECT l.id, $1, 'Is the boundary fenced and surveyed?'
			FROM lands l
			WHERE l.status = 'approved' AND l.owner_id <> $1
			  AND NOT EXISTS (
			      SELECT 1 FROM inquiries i
			      WHERE i.buyer_id = $1 AND i.land_id = l.id AND i.created_at >= NOW() - interval '24 hours'
			  )
			ORDER BY random() LIMIT 1
		`, buyerID)
		if err != nil {
			return fmt.Errorf("inquirer insert: %w", err)
		}
		time.Sleep(time.Duration(25+rand.Intn(50)) * time.Millisecond)
	}
}

// Responder races other responders for the single response slot of
// unanswered inquiries.
func Responder(ctx context.Context, pool *pgxpool.Pool, sellerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `
			UPDATE inquiries i
			SET seller_response = 'Yes, the paperwork is in order.',
			    responded_at = NOW(),
			    read_at = COALESCE(i.read_at, NOW())
			FROM lands l
			WHERE l.id = i.land_id AND l.owner_id = $1 AND i.seller_response IS NULL
			  AND i.id = (
			      SELECT i2.id FROM inquiries i2
			      JOIN lands l2 ON l2.id = i2.land_id
			      WHERE l2.owner_id = $1 AND i2.seller_response IS NULL
			      ORDER BY i2.created_at LIMIT 1
			  )
		`, sellerID)
		if err != nil {
			return fmt.Errorf("responder update: %w", err)
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// Favoriter saves and unsaves random approved listings; the conflict clause
// absorbs concurrent duplicate saves.
func Favoriter(ctx context.Context, pool *pgxpool.Pool, buyerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `
			INSERT INTO favorites (user_id, land_id)
			SELECT $1, id FROM lands WHERE status = 'approved' ORDER BY random() LIMIT 1
			ON CONFLICT (user_id, land_id) DO NOTHING
		`, buyerID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				// listing deleted between select and insert
			} else {
				return fmt.Errorf("favoriter insert: %w", err)
			}
		}
		if rand.Intn(5) == 0 {
			_, _ = pool.Exec(ctx, `
				DELETE FROM favorites WHERE user_id = $1 AND land_id IN (
					SELECT land_id FROM favorites WHERE user_id = $1 ORDER BY random() LIMIT 1
				)
			`, buyerID)
		}
		time.Sleep(time.Duration(30+rand.Intn(60)) * time.Millisecond)
	}
}

// Closer marks the occasional approved listing sold.
func Closer(ctx context.Context, pool *pgxpool.Pool, sellerID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		var landID string
		err = tx.QueryRow(ctx, `
			SELECT id FROM lands
			WHERE owner_id = $1 AND status = 'approved'
			LIMIT 1 FOR UPDATE SKIP LOCKED
		`, sellerID).Scan(&landID)
		if err == nil {
			_, err = tx.Exec(ctx, `UPDATE lands SET status = 'sold', updated_at = NOW() WHERE id = $1`, landID)
		}
		if err == nil {
			_ = tx.Commit(ctx)
		} else {
			_ = tx.Rollback(ctx)
			if !errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("closer: %w", err)
			}
		}
		time.Sleep(time.Duration(150+rand.Intn(150)) * time.Millisecond)
	}
}
