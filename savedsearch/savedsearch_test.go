package savedsearch

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
)

func TestCreateRequiresName(t *testing.T) {
	svc, _, _ := newTestService()
	buyer := testBuyer("buyer-1")

	_, err := svc.Create(context.Background(), buyer, Params{Name: "   "})
	if !errors.Is(err, ErrNameRequired) {
		t.Fatalf("expected ErrNameRequired, got %v", err)
	}

	_, err = svc.Create(context.Background(), buyer, Params{Name: "Cheap farmland", PropertyType: "castle"})
	if !errors.Is(err, ErrBadPropertyType) {
		t.Fatalf("expected ErrBadPropertyType, got %v", err)
	}
}

func TestCreateDeniedForSeller(t *testing.T) {
	svc, _, _ := newTestService()
	seller := &identity.User{ID: "seller-1", Role: identity.RoleSeller, Active: true}

	_, err := svc.Create(context.Background(), seller, Params{Name: "Cheap farmland"})
	var accessErr *access.Error
	if !errors.As(err, &accessErr) {
		t.Fatalf("expected access error, got %v", err)
	}
	if accessErr.Reason != access.ReasonWrongRole {
		t.Errorf("expected WrongRole, got %s", accessErr.Reason)
	}
}

func TestOwnershipEnforced(t *testing.T) {
	svc, _, _ := newTestService()
	owner := testBuyer("buyer-1")
	rival := testBuyer("buyer-2")

	created, err := svc.Create(context.Background(), owner, Params{Name: "Cheap farmland"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	var accessErr *access.Error
	if _, err := svc.Get(context.Background(), rival, created.ID); !errors.As(err, &accessErr) || accessErr.Reason != access.ReasonNotOwner {
		t.Errorf("expected NotOwner on get, got %v", err)
	}
	if _, err := svc.Update(context.Background(), rival, created.ID, Params{Name: "Mine now"}); !errors.As(err, &accessErr) || accessErr.Reason != access.ReasonNotOwner {
		t.Errorf("expected NotOwner on update, got %v", err)
	}
	if err := svc.Delete(context.Background(), rival, created.ID); !errors.As(err, &accessErr) || accessErr.Reason != access.ReasonNotOwner {
		t.Errorf("expected NotOwner on delete, got %v", err)
	}

	if _, err := svc.Get(context.Background(), owner, created.ID); err != nil {
		t.Errorf("owner get: %v", err)
	}
}

func TestToggleFlipsActive(t *testing.T) {
	svc, _, _ := newTestService()
	buyer := testBuyer("buyer-1")

	created, err := svc.Create(context.Background(), buyer, Params{Name: "Cheap farmland"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !created.Active {
		t.Fatalf("expected new search active")
	}

	toggled, err := svc.Toggle(context.Background(), buyer, created.ID)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if toggled.Active {
		t.Errorf("expected toggle to deactivate")
	}
	if toggled.Name != "Cheap farmland" {
		t.Errorf("expected criteria untouched, got %q", toggled.Name)
	}

	back, err := svc.Toggle(context.Background(), buyer, created.ID)
	if err != nil {
		t.Fatalf("toggle back: %v", err)
	}
	if !back.Active {
		t.Errorf("expected second toggle to reactivate")
	}
}

func TestResultsRunSavedCriteria(t *testing.T) {
	svc, _, searcher := newTestService()
	buyer := testBuyer("buyer-1")

	created, err := svc.Create(context.Background(), buyer, Params{
		Name:         "Cheap farmland",
		Query:        "river",
		Location:     "Oregon",
		PropertyType: listing.PropertyAgricultural,
		PriceMax:     100000,
		SizeMin:      5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Results(context.Background(), buyer, created.ID); err != nil {
		t.Fatalf("results: %v", err)
	}

	got := searcher.last
	if got.Query != "river" || got.Location != "Oregon" || got.PriceMax != 100000 || got.SizeMin != 5 {
		t.Errorf("expected saved criteria passed through, got %+v", got)
	}
	if len(got.PropertyTypes) != 1 || got.PropertyTypes[0] != listing.PropertyAgricultural {
		t.Errorf("expected agricultural filter, got %v", got.PropertyTypes)
	}
}

func TestListFiltersByActive(t *testing.T) {
	svc, _, _ := newTestService()
	buyer := testBuyer("buyer-1")

	first, err := svc.Create(context.Background(), buyer, Params{Name: "Cheap farmland"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Create(context.Background(), buyer, Params{Name: "Lakeside lots"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Toggle(context.Background(), buyer, first.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	all, total, err := svc.List(context.Background(), buyer, ListFilters{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("expected 2 searches, got %d (total %d)", len(all), total)
	}

	active := true
	onlyActive, total, err := svc.List(context.Background(), buyer, ListFilters{Active: &active})
	if err != nil {
		t.Fatalf("list active: %v", err)
	}
	if total != 1 || len(onlyActive) != 1 || onlyActive[0].Name != "Lakeside lots" {
		t.Fatalf("expected only the active search, got %+v", onlyActive)
	}
}

func newTestService() (*Service, *fakeRepository, *fakeSearcher) {
	repo := newFakeRepository()
	searcher := &fakeSearcher{}
	return NewService(repo, searcher), repo, searcher
}

func testBuyer(id string) *identity.User {
	return &identity.User{ID: id, Role: identity.RoleBuyer, Active: true}
}

type fakeSearcher struct {
	last listing.Filters
}

func (f *fakeSearcher) Search(ctx context.Context, filters listing.Filters) (listing.ListResult, error) {
	f.last = filters
	return listing.ListResult{}, nil
}

type fakeRepository struct {
	seq      int
	searches map[string]SavedSearch
	order    []string
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{searches: make(map[string]SavedSearch)}
}

func (f *fakeRepository) Create(ctx context.Context, s SavedSearch) (SavedSearch, error) {
	f.seq++
	s.ID = fmt.Sprintf("search-%d", f.seq)
	s.CreatedAt = time.Now()
	s.UpdatedAt = s.CreatedAt
	f.searches[s.ID] = s
	f.order = append(f.order, s.ID)
	return s, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id string) (SavedSearch, error) {
	s, ok := f.searches[id]
	if !ok {
		return SavedSearch{}, ErrNotFound
	}
	return s, nil
}

func (f *fakeRepository) Update(ctx context.Context, s SavedSearch) (SavedSearch, error) {
	stored, ok := f.searches[s.ID]
	if !ok {
		return SavedSearch{}, ErrNotFound
	}
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = time.Now()
	f.searches[s.ID] = s
	return s, nil
}

func (f *fakeRepository) Delete(ctx context.Context, id, userID string) error {
	s, ok := f.searches[id]
	if !ok || s.UserID != userID {
		return ErrNotFound
	}
	delete(f.searches, id)
	return nil
}

func (f *fakeRepository) ListByUser(ctx context.Context, userID string, filters ListFilters) ([]SavedSearch, int, error) {
	out := []SavedSearch{}
	for i := len(f.order) - 1; i >= 0; i-- {
		s, ok := f.searches[f.order[i]]
		if !ok || s.UserID != userID {
			continue
		}
		if filters.Active != nil && s.Active != *filters.Active {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}
