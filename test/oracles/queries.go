package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_status_domain",
			SQL: `SELECT id, status FROM lands
                  WHERE status NOT IN ('draft','pending','approved','rejected','sold')`,
		},
		{
			Name: "O2_pending_notes_cleared",
			SQL: `SELECT id, admin_notes FROM lands
                  WHERE status = 'pending' AND admin_notes <> ''`,
		},
		{
			Name: "O3_single_response",
			SQL: `SELECT id FROM inquiries
                  WHERE (seller_response IS NULL) <> (responded_at IS NULL)`,
		},
		{
			Name: "O4_no_self_inquiry",
			SQL: `SELECT i.id FROM inquiries i
                  JOIN lands l ON l.id = i.land_id
                  WHERE i.buyer_id = l.owner_id`,
		},
		{
			Name: "O5_inquiry_duplicate_window",
			SQL: `SELECT buyer_id, land_id, COUNT(*) FROM inquiries
                  WHERE created_at >= NOW() - interval '24 hours'
                  GROUP BY buyer_id, land_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O6_one_primary_image",
			SQL: `SELECT land_id, COUNT(*) FILTER (WHERE is_primary) FROM land_images
                  GROUP BY land_id
                  HAVING COUNT(*) FILTER (WHERE is_primary) <> 1`,
		},
		{
			Name: "O7_favorite_orphans",
			SQL: `SELECT f.user_id, f.land_id FROM favorites f
                  LEFT JOIN lands l ON l.id = f.land_id
                  WHERE l.id IS NULL`,
		},
		{
			Name: "O8_favorite_unique_guard",
			SQL: `SELECT 'missing_favorites_pkey' AS detail
                  WHERE NOT EXISTS (
                      SELECT 1 FROM pg_constraint
                      WHERE conname = 'favorites_pkey' AND contype = 'p'
                  )`,
		},
		{
			Name: "O9_read_before_created",
			SQL: `SELECT id FROM inquiries WHERE read_at IS NOT NULL AND read_at < created_at`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
