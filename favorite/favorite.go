// Package favorite is the buyer's saved-listings store. Adds and removes
// are idempotent; uniqueness is enforced with a storage-level constraint
// rather than a read-check-write sequence.
package favorite

import (
	"context"
	"time"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
	"landmarket/notify"
)

// Favorite marks one listing as saved by one buyer.
type Favorite struct {
	UserID    string
	LandID    string
	CreatedAt time.Time
}

// Entry is a saved listing together with when it was saved.
type Entry struct {
	Land    listing.Land
	SavedAt time.Time
}

// LandRef is the slice of the listing a favorite decision needs.
type LandRef struct {
	ID      string
	OwnerID string
	Title   string
	Visible bool
}

// Repository defines the data access required by the favorite service.
type Repository interface {
	Add(ctx context.Context, userID, landID string) (Favorite, bool, error)
	Remove(ctx context.Context, userID, landID string) (bool, error)
	List(ctx context.Context, userID string, page, pageSize int) ([]Entry, int, error)
	IsFavorited(ctx context.Context, userID, landID string) (bool, error)
	CountForLand(ctx context.Context, landID string) (int, error)
	GetListing(ctx context.Context, landID string) (LandRef, error)
}

type Service struct {
	repo     Repository
	notifier notify.Notifier
}

func NewService(repo Repository, notifier notify.Notifier) *Service {
	return &Service{repo: repo, notifier: notifier}
}

// Add saves a listing for the actor. Saving twice is a no-op that hands
// back the existing row; the bool reports whether this call added it.
func (s *Service) Add(ctx context.Context, actor *identity.User, landID string) (Favorite, bool, error) {
	if err := access.Require(actor, access.ActionAddFavorite, access.Resource{}); err != nil {
		return Favorite{}, false, err
	}

	land, err := s.repo.GetListing(ctx, landID)
	if err != nil {
		return Favorite{}, false, err
	}
	if !land.Visible {
		return Favorite{}, false, listing.ErrListingUnavailable
	}

	fav, added, err := s.repo.Add(ctx, actor.ID, landID)
	if err != nil {
		return Favorite{}, false, err
	}

	if added && s.notifier != nil {
		// best effort, never fails the save
		_ = s.notifier.Notify(ctx, land.OwnerID, notify.KindPropertyFavorited, map[string]any{
			"land_id":   land.ID,
			"title":     land.Title,
			"sender_id": actor.ID,
		})
	}
	return fav, added, nil
}

// Remove drops a saved listing. Removing a listing that was never saved
// is a no-op, not an error.
func (s *Service) Remove(ctx context.Context, actor *identity.User, landID string) (bool, error) {
	if err := access.Require(actor, access.ActionRemoveFavorite, access.Resource{}); err != nil {
		return false, err
	}
	return s.repo.Remove(ctx, actor.ID, landID)
}

// List returns the actor's saved listings, most recently saved first.
// Listings that lost visibility after being saved are still listed.
func (s *Service) List(ctx context.Context, actor *identity.User, page, pageSize int) ([]Entry, int, error) {
	if err := access.Require(actor, access.ActionListFavorites, access.Resource{}); err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, actor.ID, page, pageSize)
}

// IsFavorited reports whether the actor saved the listing.
func (s *Service) IsFavorited(ctx context.Context, actor *identity.User, landID string) (bool, error) {
	if err := access.Require(actor, access.ActionListFavorites, access.Resource{}); err != nil {
		return false, err
	}
	return s.repo.IsFavorited(ctx, actor.ID, landID)
}
