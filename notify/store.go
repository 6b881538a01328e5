package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound signals that no notification row matched.
var ErrNotFound = errors.New("notify: notification not found")

// Notification is a persisted feed entry.
type Notification struct {
	ID          string
	RecipientID string
	SenderID    *string
	Kind        EventKind
	Title       string
	Message     string
	Payload     []byte
	IsRead      bool
	CreatedAt   time.Time
	ReadAt      *time.Time
}

// Store is a Notifier that persists notifications for the in-app feed.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Notify renders and inserts the notification row.
func (s *Store) Notify(ctx context.Context, recipientID string, kind EventKind, payload map[string]any) error {
	if recipientID == "" {
		return fmt.Errorf("notify: missing recipient")
	}

	title, message := render(kind, payload)

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("notify: marshal payload: %w", err)
	}

	var sender any
	if v, ok := payload["sender_id"].(string); ok && v != "" {
		sender = v
	}

	const insertSQL = `
		INSERT INTO notifications (recipient_id, sender_id, kind, title, message, payload)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	if _, err := s.pool.Exec(ctx, insertSQL, recipientID, sender, kind, title, message, body); err != nil {
		return fmt.Errorf("notify: insert: %w", err)
	}
	return nil
}

// List returns the recipient's feed, newest first.
func (s *Store) List(ctx context.Context, recipientID string, onlyUnread bool, limit int) ([]Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	query := `
		SELECT id, recipient_id, sender_id, kind, title, message, payload, is_read, created_at, read_at
		FROM notifications
		WHERE recipient_id = $1
	`
	if onlyUnread {
		query += " AND NOT is_read"
	}
	query += " ORDER BY created_at DESC, id DESC LIMIT $2"

	rows, err := s.pool.Query(ctx, query, recipientID, limit)
	if err != nil {
		return nil, fmt.Errorf("notify: list: %w", err)
	}
	defer rows.Close()

	out := []Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, fmt.Errorf("notify: scan: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("notify: iterate: %w", err)
	}
	return out, nil
}

// UnreadCount returns the number of unread notifications for a recipient.
func (s *Store) UnreadCount(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT is_read`,
		recipientID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("notify: unread count: %w", err)
	}
	return count, nil
}

// MarkRead flags one notification as read. Repeat calls are no-ops.
func (s *Store) MarkRead(ctx context.Context, recipientID, notificationID string) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = COALESCE(read_at, now())
		WHERE id = $1 AND recipient_id = $2
	`, notificationID, recipientID)
	if err != nil {
		return fmt.Errorf("notify: mark read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead flags every unread notification for the recipient.
func (s *Store) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET is_read = TRUE, read_at = now()
		WHERE recipient_id = $1 AND NOT is_read
	`, recipientID)
	if err != nil {
		return fmt.Errorf("notify: mark all read: %w", err)
	}
	return nil
}

func scanNotification(row pgx.Row) (Notification, error) {
	var n Notification
	return n, row.Scan(
		&n.ID,
		&n.RecipientID,
		&n.SenderID,
		&n.Kind,
		&n.Title,
		&n.Message,
		&n.Payload,
		&n.IsRead,
		&n.CreatedAt,
		&n.ReadAt,
	)
}

func render(kind EventKind, payload map[string]any) (title, message string) {
	listing, _ := payload["title"].(string)

	switch kind {
	case KindListingApproved:
		title = fmt.Sprintf("Listing approved: %s", listing)
		message = fmt.Sprintf("Your property listing %q has been approved and is now live.", listing)
	case KindListingRejected:
		title = fmt.Sprintf("Listing rejected: %s", listing)
		message = fmt.Sprintf("Your property listing %q has been rejected.", listing)
		if reason, _ := payload["admin_notes"].(string); reason != "" {
			message += fmt.Sprintf(" Reason: %s", reason)
		}
	case KindListingPending:
		title = fmt.Sprintf("New listing pending approval: %s", listing)
		message = fmt.Sprintf("A property listing %q is waiting for review.", listing)
	case KindNewInquiry:
		title = fmt.Sprintf("New inquiry about %s", listing)
		message = fmt.Sprintf("A buyer sent an inquiry about your property %q.", listing)
		if subject, _ := payload["subject"].(string); subject != "" {
			message += fmt.Sprintf(" Subject: %s", subject)
		}
	case KindInquiryResponded:
		title = fmt.Sprintf("Response to your inquiry about %s", listing)
		message = fmt.Sprintf("The seller responded to your inquiry about %q.", listing)
	case KindPropertyFavorited:
		title = fmt.Sprintf("Someone favorited your property: %s", listing)
		message = fmt.Sprintf("A buyer added your property %q to their favorites.", listing)
	case KindWelcome:
		title = "Welcome to LandMarket!"
		message = "Your account is ready."
	default:
		title = string(kind)
		message = string(kind)
	}
	return title, message
}
