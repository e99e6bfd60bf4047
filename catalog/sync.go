// Package catalog pulls read-only product data from the external catalog
// API and upserts it into the products table. The sync is one-way and has
// no consistency coupling to the ledger.
package catalog

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
)

// apiProduct mirrors the FakeStore-shaped feed.
type apiProduct struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Image       string          `json:"image"`
	Rating      struct {
		Rate decimal.Decimal `json:"rate"`
	} `json:"rating"`
}

// Syncer fetches and stores catalog products.
type Syncer struct {
	db     *sql.DB
	url    string
	markup decimal.Decimal
	client *http.Client
}

// NewSyncer returns a Syncer for the given feed URL. markup multiplies the
// cash price to derive the installment price for products first seen.
func NewSyncer(db *sql.DB, url string, markup decimal.Decimal) *Syncer {
	return &Syncer{
		db:     db,
		url:    url,
		markup: markup,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// Sync pulls the feed and upserts every product keyed by its external id.
// Updates refresh title, description, cash price, image and rating; the
// stored installment price is kept, matching how it was fixed at first sync.
// Returns the number of products written.
func (s *Syncer) Sync(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return 0, fmt.Errorf("building catalog request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("fetching catalog: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("catalog API returned %s", resp.Status)
	}

	var products []apiProduct
	if err := json.NewDecoder(resp.Body).Decode(&products); err != nil {
		return 0, fmt.Errorf("decoding catalog: %w", err)
	}

	count := 0
	for _, p := range products {
		installment := p.Price.Mul(s.markup).Round(2)
		_, err := s.db.ExecContext(ctx, `INSERT INTO products (api_id, title, description, price_cash, price_installment, category, image_url, rating)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(api_id) DO UPDATE SET
				title = excluded.title,
				description = excluded.description,
				price_cash = excluded.price_cash,
				image_url = excluded.image_url,
				rating = excluded.rating,
				updated_at = CURRENT_TIMESTAMP`,
			p.ID, p.Title, p.Description, p.Price, installment, p.Category, p.Image, p.Rating.Rate)
		if err != nil {
			return count, fmt.Errorf("upserting product %d: %w", p.ID, err)
		}
		count++
	}

	slog.Info("catalog sync complete", "products", count)
	return count, nil
}
