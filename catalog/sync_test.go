package catalog

import (
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/galaxybank/backoffice/db"
)

const feedPage = `[
	{"id": 1, "title": "Backpack", "price": 109.95, "description": "A backpack", "category": "gear",
	 "image": "https://example.com/1.png", "rating": {"rate": 3.9, "count": 120}},
	{"id": 2, "title": "T-Shirt", "price": 22.30, "description": "A shirt", "category": "clothing",
	 "image": "https://example.com/2.png", "rating": {"rate": 4.1, "count": 259}}
]`

func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := db.Open(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.Migrate(database))
	return database
}

func TestSyncUpsertsProducts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(feedPage))
	}))
	defer srv.Close()

	database := newTestDB(t)
	s := NewSyncer(database, srv.URL, decimal.RequireFromString("1.10"))

	count, err := s.Sync(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	var title, cash, installment string
	require.NoError(t, database.QueryRow(
		`SELECT title, price_cash, price_installment FROM products WHERE api_id = 1`).
		Scan(&title, &cash, &installment))
	assert.Equal(t, "Backpack", title)
	assert.Equal(t, "109.95", cash)
	// 109.95 x 1.10 rounded to 2 places.
	assert.Equal(t, "120.95", installment)
}

func TestSyncKeepsInstallmentPriceOnUpdate(t *testing.T) {
	payload := feedPage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	database := newTestDB(t)
	s := NewSyncer(database, srv.URL, decimal.RequireFromString("1.10"))

	_, err := s.Sync(context.Background())
	require.NoError(t, err)

	// The feed's cash price moves; the stored installment price was fixed at
	// first sync and must not be recomputed.
	payload = `[{"id": 1, "title": "Backpack", "price": 200, "description": "A backpack",
		"category": "gear", "image": "https://example.com/1.png", "rating": {"rate": 3.9}}]`
	_, err = s.Sync(context.Background())
	require.NoError(t, err)

	var cash, installment string
	require.NoError(t, database.QueryRow(
		`SELECT price_cash, price_installment FROM products WHERE api_id = 1`).
		Scan(&cash, &installment))
	assert.Equal(t, "200", cash)
	assert.Equal(t, "120.95", installment)
}

func TestSyncFeedFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	database := newTestDB(t)
	s := NewSyncer(database, srv.URL, decimal.RequireFromString("1.10"))

	_, err := s.Sync(context.Background())
	assert.Error(t, err)
}
