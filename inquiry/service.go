package inquiry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
	"landmarket/notify"
)

var (
	// ErrSelfInquiry is returned when a user inquires about their own listing.
	ErrSelfInquiry = errors.New("inquiry: cannot inquire about own listing")
	// ErrDuplicateInquiry is returned when the same buyer already asked
	// about the same listing inside the cooldown window.
	ErrDuplicateInquiry = errors.New("inquiry: duplicate within cooldown window")
	// ErrEmptyMessage is returned for blank inquiry messages.
	ErrEmptyMessage = errors.New("inquiry: message required")
	// ErrResponseTooShort is returned when a seller response is under the minimum length.
	ErrResponseTooShort = errors.New("inquiry: response must be at least 10 characters")
)

// duplicateWindow is the cooldown between inquiries from one buyer about
// one listing.
const duplicateWindow = 24 * time.Hour

const minResponseLen = 10

// TxBeginner abstracts pgxpool.Pool for testability.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type Service struct {
	pool     TxBeginner
	repo     Repository
	notifier notify.Notifier
	now      func() time.Time
}

func NewService(pool TxBeginner, repo Repository, notifier notify.Notifier) *Service {
	return &Service{
		pool:     pool,
		repo:     repo,
		notifier: notifier,
		now:      time.Now,
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

type CreateParams struct {
	LandID       string
	Subject      string
	Message      string
	ContactPhone *string
}

type ListResult struct {
	Items []Inquiry
	Total int
}

// Create routes a buyer's question to the listing's seller. Listings that
// are not publicly visible cannot be inquired about, nor can one's own.
func (s *Service) Create(ctx context.Context, actor *identity.User, params CreateParams) (Inquiry, error) {
	if err := access.Require(actor, access.ActionCreateInquiry, access.Resource{}); err != nil {
		return Inquiry{}, err
	}

	message := strings.TrimSpace(params.Message)
	if message == "" {
		return Inquiry{}, ErrEmptyMessage
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Inquiry{}, fmt.Errorf("inquiry: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	land, err := s.repo.GetListing(ctx, tx, params.LandID)
	if err != nil {
		return Inquiry{}, err
	}
	if land.OwnerID == actor.ID {
		return Inquiry{}, ErrSelfInquiry
	}
	if !land.Visible {
		return Inquiry{}, listing.ErrListingUnavailable
	}

	recent, err := s.repo.HasRecent(ctx, tx, actor.ID, params.LandID, s.now().Add(-duplicateWindow))
	if err != nil {
		return Inquiry{}, err
	}
	if recent {
		return Inquiry{}, ErrDuplicateInquiry
	}

	created, err := s.repo.Create(ctx, tx, Inquiry{
		LandID:       params.LandID,
		BuyerID:      actor.ID,
		Subject:      strings.TrimSpace(params.Subject),
		Message:      message,
		ContactPhone: params.ContactPhone,
	})
	if err != nil {
		return Inquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Inquiry{}, fmt.Errorf("inquiry: commit tx: %w", err)
	}

	s.send(ctx, land.OwnerID, notify.KindNewInquiry, map[string]any{
		"inquiry_id": created.ID,
		"land_id":    land.ID,
		"title":      land.Title,
		"subject":    created.Subject,
		"sender_id":  actor.ID,
	})
	return created, nil
}

// Respond records the seller's single response to an inquiry.
func (s *Service) Respond(ctx context.Context, actor *identity.User, id, response string) (Inquiry, error) {
	response = strings.TrimSpace(response)
	if len(response) < minResponseLen {
		return Inquiry{}, ErrResponseTooShort
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return Inquiry{}, fmt.Errorf("inquiry: begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	inq, land, err := s.repo.GetForUpdate(ctx, tx, id)
	if err != nil {
		return Inquiry{}, err
	}
	if err := access.Require(actor, access.ActionRespondInquiry, access.Resource{OwnerID: land.OwnerID}); err != nil {
		return Inquiry{}, err
	}
	if inq.Responded() {
		return Inquiry{}, ErrAlreadyResponded
	}

	updated, err := s.repo.Respond(ctx, tx, id, response)
	if err != nil {
		return Inquiry{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return Inquiry{}, fmt.Errorf("inquiry: commit tx: %w", err)
	}

	s.send(ctx, updated.BuyerID, notify.KindInquiryResponded, map[string]any{
		"inquiry_id": updated.ID,
		"land_id":    land.ID,
		"title":      land.Title,
		"sender_id":  actor.ID,
	})
	return updated, nil
}

// Get returns one inquiry to either side of the conversation.
func (s *Service) Get(ctx context.Context, actor *identity.User, id string) (Inquiry, error) {
	inq, land, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID, ActorSideID: inq.BuyerID}
	if err := access.Require(actor, access.ActionReadInquiry, res); err != nil {
		return Inquiry{}, err
	}
	return inq, nil
}

// MarkRead flags an inquiry as seen by the seller. Idempotent.
func (s *Service) MarkRead(ctx context.Context, actor *identity.User, id string) (Inquiry, error) {
	_, land, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Inquiry{}, err
	}
	res := access.Resource{OwnerID: land.OwnerID}
	if err := access.Require(actor, access.ActionReadInquiry, res); err != nil {
		return Inquiry{}, err
	}
	return s.repo.MarkRead(ctx, id)
}

// Inbox lists inquiries across the seller's listings, newest first.
func (s *Service) Inbox(ctx context.Context, actor *identity.User, filters Filters) (ListResult, error) {
	res := access.Resource{}
	if actor != nil {
		res.OwnerID = actor.ID
	}
	if err := access.Require(actor, access.ActionReadInquiry, res); err != nil {
		return ListResult{}, err
	}

	items, total, err := s.repo.ListForSeller(ctx, actor.ID, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// Sent lists the buyer's own inquiries, newest first.
func (s *Service) Sent(ctx context.Context, actor *identity.User, filters Filters) (ListResult, error) {
	res := access.Resource{}
	if actor != nil {
		res.ActorSideID = actor.ID
	}
	if err := access.Require(actor, access.ActionReadInquiry, res); err != nil {
		return ListResult{}, err
	}

	items, total, err := s.repo.ListForBuyer(ctx, actor.ID, filters)
	if err != nil {
		return ListResult{}, err
	}
	return ListResult{Items: items, Total: total}, nil
}

// UnreadCount backs the seller's inbox badge.
func (s *Service) UnreadCount(ctx context.Context, actor *identity.User) (int, error) {
	res := access.Resource{}
	if actor != nil {
		res.OwnerID = actor.ID
	}
	if err := access.Require(actor, access.ActionReadInquiry, res); err != nil {
		return 0, err
	}
	return s.repo.UnreadCountForSeller(ctx, actor.ID)
}

func (s *Service) send(ctx context.Context, recipientID string, kind notify.EventKind, payload map[string]any) {
	if s.notifier == nil {
		return
	}
	// Post-commit and best effort: a failed notification never undoes the
	// inquiry it describes.
	_ = s.notifier.Notify(ctx, recipientID, kind, payload)
}
