package listing

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TestSearch_Integration connects to a real PostgreSQL via DATABASE_URL and
// verifies the search SQL: visibility, filters, ordering, and pagination.
func TestSearch_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	if !tableExists(ctx, t, pool, "lands") || !tableExists(ctx, t, pool, "users") {
		t.Skip("database schema missing; apply files under migrations/ first")
	}

	// Seed a seller and a fixture of listings. The marker makes the rows of
	// this run distinguishable so cleanup is exact even on shared databases.
	marker := fmt.Sprintf("itest-search-%d", time.Now().UnixNano())

	var ownerID string
	if err := pool.QueryRow(ctx,
		`INSERT INTO users (email, full_name, password_hash, role) VALUES ($1, 'Search Fixture', 'x', 'seller') RETURNING id`,
		marker+"@example.com",
	).Scan(&ownerID); err != nil {
		t.Fatalf("seed seller: %v", err)
	}

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM lands WHERE owner_id = $1`, ownerID)
		pool.Exec(ctx2, `DELETE FROM users WHERE id = $1`, ownerID)
	})

	base := time.Now().UTC().Truncate(time.Second)
	fixture := []struct {
		title        string
		price        float64
		size         float64
		location     string
		propertyType string
		status       string
		createdAt    time.Time
	}{
		{marker + " north field", 80000, 40, "Polk County", "agricultural", "approved", base.Add(-4 * time.Hour)},
		{marker + " south field", 95000, 55, "Polk County", "agricultural", "approved", base.Add(-3 * time.Hour)},
		{marker + " orchard", 150000, 20, "Yamhill County", "agricultural", "approved", base.Add(-2 * time.Hour)},
		{marker + " storefront lot", 250000, 1.5, "Salem", "commercial", "approved", base.Add(-2 * time.Hour)},
		{marker + " cabin site", 60000, 10, "Detroit Lake", "recreational", "draft", base.Add(-1 * time.Hour)},
	}

	ids := make([]string, len(fixture))
	for i, f := range fixture {
		if err := pool.QueryRow(ctx, `
			INSERT INTO lands (owner_id, title, description, price, size_acres, location, property_type, status, created_at)
			VALUES ($1, $2, 'integration fixture row', $3, $4, $5, $6, $7, $8)
			RETURNING id
		`, ownerID, f.title, f.price, f.size, f.location, f.propertyType, f.status, f.createdAt).Scan(&ids[i]); err != nil {
			t.Fatalf("seed land %d: %v", i, err)
		}
	}

	repo := NewRepository(pool)

	// Drafts never surface: only the 4 approved rows are discoverable.
	results, total, err := repo.Search(ctx, Filters{Query: marker, SortBy: SortByCreated, Descending: true, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("search all: %v", err)
	}
	if total != 4 {
		t.Fatalf("expected 4 visible listings, got %d", total)
	}
	for _, land := range results {
		if land.Status != StatusApproved {
			t.Fatalf("non-approved listing %q leaked into search", land.Title)
		}
	}

	// Property type filter.
	_, total, err = repo.Search(ctx, Filters{Query: marker, PropertyTypes: []PropertyType{PropertyAgricultural}, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("search agricultural: %v", err)
	}
	if total != 3 {
		t.Fatalf("expected 3 agricultural listings, got %d", total)
	}

	// Price ceiling.
	results, total, err = repo.Search(ctx, Filters{Query: marker, PriceMax: 100000, SortBy: SortByPrice, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("search by price: %v", err)
	}
	if total != 2 {
		t.Fatalf("expected 2 listings at or under 100000, got %d", total)
	}
	if len(results) == 2 && results[0].Price > results[1].Price {
		t.Fatalf("expected ascending price order, got %v then %v", results[0].Price, results[1].Price)
	}

	// Two rows share a created_at; the id tie-break keeps the order stable
	// across repeated queries.
	first, _, err := repo.Search(ctx, Filters{Query: marker, SortBy: SortByCreated, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("search ordered (first): %v", err)
	}
	second, _, err := repo.Search(ctx, Filters{Query: marker, SortBy: SortByCreated, Page: 1, PageSize: 20})
	if err != nil {
		t.Fatalf("search ordered (second): %v", err)
	}
	if len(first) != len(second) {
		t.Fatalf("result size changed between identical queries: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].ID != second[i].ID {
			t.Fatalf("ordering unstable at position %d: %s vs %s", i, first[i].ID, second[i].ID)
		}
	}

	// Pagination covers the full set without overlap.
	pageOne, total, err := repo.Search(ctx, Filters{Query: marker, SortBy: SortByCreated, Descending: true, Page: 1, PageSize: 3})
	if err != nil {
		t.Fatalf("search page 1: %v", err)
	}
	pageTwo, _, err := repo.Search(ctx, Filters{Query: marker, SortBy: SortByCreated, Descending: true, Page: 2, PageSize: 3})
	if err != nil {
		t.Fatalf("search page 2: %v", err)
	}
	if total != 4 || len(pageOne) != 3 || len(pageTwo) != 1 {
		t.Fatalf("unexpected pagination shape: total=%d page1=%d page2=%d", total, len(pageOne), len(pageTwo))
	}
	seen := map[string]bool{}
	for _, land := range append(pageOne, pageTwo...) {
		if seen[land.ID] {
			t.Fatalf("listing %s appeared on both pages", land.ID)
		}
		seen[land.ID] = true
	}
}

func tableExists(ctx context.Context, t *testing.T, pool *pgxpool.Pool, name string) bool {
	t.Helper()
	var exists bool
	err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)`, name).Scan(&exists)
	if err != nil {
		t.Fatalf("check table %s: %v", name, err)
	}
	return exists
}
