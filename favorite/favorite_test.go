package favorite

import (
	"context"
	"errors"
	"testing"
	"time"

	"landmarket/access"
	"landmarket/identity"
	"landmarket/listing"
	"landmarket/notify"
)

func TestAddIsIdempotent(t *testing.T) {
	svc, repo, recorder := newTestService()
	repo.addLand(LandRef{ID: "land-1", OwnerID: "seller-1", Title: "Sunny riverside plot", Visible: true})
	buyer := testBuyer("buyer-1")

	fav, added, err := svc.Add(context.Background(), buyer, "land-1")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if !added {
		t.Errorf("expected first add to report true")
	}

	repeat, again, err := svc.Add(context.Background(), buyer, "land-1")
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if again {
		t.Errorf("expected repeated add to be a no-op")
	}
	if repeat.LandID != "land-1" || !repeat.CreatedAt.Equal(fav.CreatedAt) {
		t.Errorf("expected repeated add to return the existing row, got %+v want %+v", repeat, fav)
	}

	// only the first add notifies the seller
	if len(recorder.Events) != 1 {
		t.Fatalf("expected one notification, got %d", len(recorder.Events))
	}
	if recorder.Events[0].RecipientID != "seller-1" || recorder.Events[0].Kind != notify.KindPropertyFavorited {
		t.Errorf("expected seller notified of favorite, got %+v", recorder.Events[0])
	}
}

func TestAddRequiresVisibleListing(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addLand(LandRef{ID: "land-1", OwnerID: "seller-1", Visible: false})
	buyer := testBuyer("buyer-1")

	if _, _, err := svc.Add(context.Background(), buyer, "land-1"); !errors.Is(err, listing.ErrListingUnavailable) {
		t.Fatalf("expected ErrListingUnavailable, got %v", err)
	}
	if _, _, err := svc.Add(context.Background(), buyer, "land-404"); !errors.Is(err, listing.ErrNotFound) {
		t.Fatalf("expected listing.ErrNotFound, got %v", err)
	}
}

func TestAddDeniedForSeller(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addLand(LandRef{ID: "land-1", OwnerID: "seller-1", Visible: true})
	seller := &identity.User{ID: "seller-2", Role: identity.RoleSeller, Active: true}

	_, _, err := svc.Add(context.Background(), seller, "land-1")
	var accessErr *access.Error
	if !errors.As(err, &accessErr) {
		t.Fatalf("expected access error, got %v", err)
	}
	if accessErr.Reason != access.ReasonWrongRole {
		t.Errorf("expected WrongRole, got %s", accessErr.Reason)
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addLand(LandRef{ID: "land-1", OwnerID: "seller-1", Visible: true})
	buyer := testBuyer("buyer-1")

	if _, _, err := svc.Add(context.Background(), buyer, "land-1"); err != nil {
		t.Fatalf("add: %v", err)
	}

	removed, err := svc.Remove(context.Background(), buyer, "land-1")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if !removed {
		t.Errorf("expected remove to report true")
	}

	again, err := svc.Remove(context.Background(), buyer, "land-1")
	if err != nil {
		t.Fatalf("second remove: %v", err)
	}
	if again {
		t.Errorf("expected repeated remove to be a no-op")
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, repo, _ := newTestService()
	repo.addLand(LandRef{ID: "land-1", OwnerID: "seller-1", Visible: true})
	repo.addLand(LandRef{ID: "land-2", OwnerID: "seller-1", Visible: true})
	buyer := testBuyer("buyer-1")

	if _, _, err := svc.Add(context.Background(), buyer, "land-1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, _, err := svc.Add(context.Background(), buyer, "land-2"); err != nil {
		t.Fatalf("add: %v", err)
	}

	entries, total, err := svc.List(context.Background(), buyer, 1, 20)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if total != 2 || len(entries) != 2 {
		t.Fatalf("expected 2 favorites, got %d (total %d)", len(entries), total)
	}
	if entries[0].Land.ID != "land-2" {
		t.Errorf("expected most recently saved listing first, got %s", entries[0].Land.ID)
	}

	ok, err := svc.IsFavorited(context.Background(), buyer, "land-1")
	if err != nil || !ok {
		t.Errorf("expected land-1 favorited, got %v err %v", ok, err)
	}
}

func newTestService() (*Service, *fakeRepository, *notify.Recorder) {
	repo := newFakeRepository()
	recorder := &notify.Recorder{}
	return NewService(repo, recorder), repo, recorder
}

func testBuyer(id string) *identity.User {
	return &identity.User{ID: id, Role: identity.RoleBuyer, Active: true}
}

type favKey struct {
	userID string
	landID string
}

type fakeRepository struct {
	lands     map[string]LandRef
	favorites map[favKey]time.Time
	order     []favKey
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		lands:     make(map[string]LandRef),
		favorites: make(map[favKey]time.Time),
	}
}

func (f *fakeRepository) addLand(land LandRef) {
	f.lands[land.ID] = land
}

func (f *fakeRepository) Add(ctx context.Context, userID, landID string) (Favorite, bool, error) {
	key := favKey{userID, landID}
	if savedAt, ok := f.favorites[key]; ok {
		return Favorite{UserID: userID, LandID: landID, CreatedAt: savedAt}, false, nil
	}
	now := time.Now()
	f.favorites[key] = now
	f.order = append(f.order, key)
	return Favorite{UserID: userID, LandID: landID, CreatedAt: now}, true, nil
}

func (f *fakeRepository) Remove(ctx context.Context, userID, landID string) (bool, error) {
	key := favKey{userID, landID}
	if _, ok := f.favorites[key]; !ok {
		return false, nil
	}
	delete(f.favorites, key)
	return true, nil
}

func (f *fakeRepository) List(ctx context.Context, userID string, page, pageSize int) ([]Entry, int, error) {
	entries := []Entry{}
	for i := len(f.order) - 1; i >= 0; i-- {
		key := f.order[i]
		savedAt, ok := f.favorites[key]
		if !ok || key.userID != userID {
			continue
		}
		land := f.lands[key.landID]
		entries = append(entries, Entry{
			Land:    listing.Land{ID: land.ID, OwnerID: land.OwnerID, Title: land.Title},
			SavedAt: savedAt,
		})
	}
	return entries, len(entries), nil
}

func (f *fakeRepository) IsFavorited(ctx context.Context, userID, landID string) (bool, error) {
	_, ok := f.favorites[favKey{userID, landID}]
	return ok, nil
}

func (f *fakeRepository) CountForLand(ctx context.Context, landID string) (int, error) {
	count := 0
	for key := range f.favorites {
		if key.landID == landID {
			count++
		}
	}
	return count, nil
}

func (f *fakeRepository) GetListing(ctx context.Context, landID string) (LandRef, error) {
	land, ok := f.lands[landID]
	if !ok {
		return LandRef{}, listing.ErrNotFound
	}
	return land, nil
}
