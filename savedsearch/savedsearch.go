// Package savedsearch stores buyer-owned named filter sets over the
// public listing search, so a buyer can re-run a search without
// re-entering the criteria.
package savedsearch

import (
	"context"
	"errors"
	"strings"
	"time"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
)

const maxNameLen = 100

var (
	// ErrNotFound is returned when no saved search row exists for the identifier.
	ErrNotFound = errors.New("savedsearch: not found")
	// ErrNameRequired is returned for a blank or overlong search name.
	ErrNameRequired = errors.New("savedsearch: name is required")
	// ErrBadPropertyType is returned for an unknown property type filter.
	ErrBadPropertyType = errors.New("savedsearch: unknown property type")
)

// SavedSearch is one named criteria set. Zero-valued numeric bounds and
// blank strings mean "no constraint", matching the search contract.
type SavedSearch struct {
	ID           string
	UserID       string
	Name         string
	Query        string
	Location     string
	PropertyType listing.PropertyType
	PriceMin     float64
	PriceMax     float64
	SizeMin      float64
	SizeMax      float64
	EmailAlerts  bool
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Filters expresses the saved criteria as a live search query.
func (s SavedSearch) Filters() listing.Filters {
	f := listing.Filters{
		Query:    s.Query,
		Location: s.Location,
		PriceMin: s.PriceMin,
		PriceMax: s.PriceMax,
		SizeMin:  s.SizeMin,
		SizeMax:  s.SizeMax,
	}
	if s.PropertyType != "" {
		f.PropertyTypes = []listing.PropertyType{s.PropertyType}
	}
	return f
}

// ListFilters narrows a buyer's saved search list.
type ListFilters struct {
	Active   *bool
	Page     int
	PageSize int
}

// Repository defines the data access required by the saved search service.
type Repository interface {
	Create(ctx context.Context, s SavedSearch) (SavedSearch, error)
	GetByID(ctx context.Context, id string) (SavedSearch, error)
	Update(ctx context.Context, s SavedSearch) (SavedSearch, error)
	Delete(ctx context.Context, id, userID string) error
	ListByUser(ctx context.Context, userID string, filters ListFilters) ([]SavedSearch, int, error)
}

// Searcher runs a saved criteria set against the listing catalog.
type Searcher interface {
	Search(ctx context.Context, filters listing.Filters) (listing.ListResult, error)
}

type Service struct {
	repo     Repository
	searcher Searcher
}

func NewService(repo Repository, searcher Searcher) *Service {
	return &Service{repo: repo, searcher: searcher}
}

// Params is the full criteria set; create and update both replace the
// stored row with it.
type Params struct {
	Name         string
	Query        string
	Location     string
	PropertyType listing.PropertyType
	PriceMin     float64
	PriceMax     float64
	SizeMin      float64
	SizeMax      float64
	EmailAlerts  bool
}

// Create stores a new active saved search owned by the actor.
func (s *Service) Create(ctx context.Context, actor *identity.User, params Params) (SavedSearch, error) {
	if err := requireOwn(actor, ""); err != nil {
		return SavedSearch{}, err
	}

	search := SavedSearch{UserID: actor.ID, Active: true, EmailAlerts: params.EmailAlerts}
	if err := apply(&search, params); err != nil {
		return SavedSearch{}, err
	}
	return s.repo.Create(ctx, search)
}

// Get returns one saved search; only its owner may read it.
func (s *Service) Get(ctx context.Context, actor *identity.User, id string) (SavedSearch, error) {
	search, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return SavedSearch{}, err
	}
	if err := requireOwn(actor, search.UserID); err != nil {
		return SavedSearch{}, err
	}
	return search, nil
}

// Update replaces the stored criteria; the active flag is untouched.
func (s *Service) Update(ctx context.Context, actor *identity.User, id string, params Params) (SavedSearch, error) {
	search, err := s.Get(ctx, actor, id)
	if err != nil {
		return SavedSearch{}, err
	}

	search.EmailAlerts = params.EmailAlerts
	if err := apply(&search, params); err != nil {
		return SavedSearch{}, err
	}
	return s.repo.Update(ctx, search)
}

// Toggle flips the active flag; inactive searches keep their criteria
// but drop out of the default list view.
func (s *Service) Toggle(ctx context.Context, actor *identity.User, id string) (SavedSearch, error) {
	search, err := s.Get(ctx, actor, id)
	if err != nil {
		return SavedSearch{}, err
	}

	search.Active = !search.Active
	return s.repo.Update(ctx, search)
}

// Delete removes the saved search.
func (s *Service) Delete(ctx context.Context, actor *identity.User, id string) error {
	search, err := s.Get(ctx, actor, id)
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, search.ID, search.UserID)
}

// List returns the actor's saved searches, newest first.
func (s *Service) List(ctx context.Context, actor *identity.User, filters ListFilters) ([]SavedSearch, int, error) {
	if err := requireOwn(actor, ""); err != nil {
		return nil, 0, err
	}
	return s.repo.ListByUser(ctx, actor.ID, filters)
}

// Results runs the saved criteria against the live catalog.
func (s *Service) Results(ctx context.Context, actor *identity.User, id string) (listing.ListResult, error) {
	search, err := s.Get(ctx, actor, id)
	if err != nil {
		return listing.ListResult{}, err
	}
	return s.searcher.Search(ctx, search.Filters())
}

// requireOwn authorizes the actor against the owning buyer; a blank
// owner means the record is the actor's own (create, list).
func requireOwn(actor *identity.User, ownerID string) error {
	res := access.Resource{ActorSideID: ownerID}
	if ownerID == "" && actor != nil {
		res.ActorSideID = actor.ID
	}
	return access.Require(actor, access.ActionManageSavedSearch, res)
}

func apply(search *SavedSearch, params Params) error {
	name := strings.TrimSpace(params.Name)
	if name == "" || len(name) > maxNameLen {
		return ErrNameRequired
	}
	if params.PropertyType != "" && !listing.ValidPropertyType(params.PropertyType) {
		return ErrBadPropertyType
	}

	search.Name = name
	search.Query = strings.TrimSpace(params.Query)
	search.Location = strings.TrimSpace(params.Location)
	search.PropertyType = params.PropertyType
	search.PriceMin = params.PriceMin
	search.PriceMax = params.PriceMax
	search.SizeMin = params.SizeMin
	search.SizeMax = params.SizeMax
	return nil
}
