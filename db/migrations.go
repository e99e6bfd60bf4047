package db

import (
	"database/sql"
	"fmt"
	"log/slog"
)

// Migrate runs all table creation statements. Safe to call multiple times
// due to IF NOT EXISTS clauses.
func Migrate(db *sql.DB) error {
	slog.Info("running database migrations")

	for _, stmt := range migrations {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w\nstatement: %s", err, stmt)
		}
	}

	slog.Info("database migrations complete")
	return nil
}

// Monetary columns are TEXT holding exact decimal strings; they are never
// computed in SQL, only read and written inside engine transactions.
var migrations = []string{
	// Accounts: balance plus revolving credit limit state
	`CREATE TABLE IF NOT EXISTS accounts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		balance TEXT NOT NULL DEFAULT '0',
		credit_limit TEXT NOT NULL DEFAULT '0',
		credit_approved INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	// Credit limit requests, one pending per account at most
	`CREATE TABLE IF NOT EXISTS credit_requests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		requested_amount TEXT NOT NULL,
		monthly_income TEXT NOT NULL,
		occupation TEXT NOT NULL DEFAULT '',
		justification TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'approved', 'rejected', 'cancelled')),
		evaluator TEXT,
		evaluator_notes TEXT,
		evaluated_at DATETIME,
		approved_amount TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS idx_credit_requests_pending
		ON credit_requests(account_id) WHERE status = 'pending'`,

	// Append-only history of limit-affecting events
	`CREATE TABLE IF NOT EXISTS credit_ledger (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		op TEXT NOT NULL CHECK(op IN ('usage', 'payment', 'adjustment')),
		amount TEXT NOT NULL,
		limit_before TEXT NOT NULL,
		limit_after TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		purchase_id INTEGER,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
		FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_credit_ledger_account ON credit_ledger(account_id)`,

	// Paired transfer history rows, cross-linked via related_id
	`CREATE TABLE IF NOT EXISTS transfer_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		kind TEXT NOT NULL CHECK(kind IN ('transferencia_enviada', 'transferencia_recebida')),
		amount TEXT NOT NULL,
		note TEXT,
		counterparty_id INTEGER NOT NULL,
		related_id INTEGER,
		reference TEXT NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
		FOREIGN KEY (counterparty_id) REFERENCES accounts(id) ON DELETE CASCADE,
		FOREIGN KEY (related_id) REFERENCES transfer_history(id) ON DELETE SET NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_transfer_history_account ON transfer_history(account_id)`,

	// Read-only catalog data synced from the external product API
	`CREATE TABLE IF NOT EXISTS products (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		api_id INTEGER UNIQUE,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		price_cash TEXT NOT NULL,
		price_installment TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		rating TEXT NOT NULL DEFAULT '0',
		active INTEGER NOT NULL DEFAULT 1,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE TABLE IF NOT EXISTS cart_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL CHECK(quantity > 0),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, product_id),
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE CASCADE
	)`,

	// Settled carts; immutable except status
	`CREATE TABLE IF NOT EXISTS purchases (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		total TEXT NOT NULL,
		method TEXT NOT NULL CHECK(method IN ('saldo', 'credito')),
		installments INTEGER NOT NULL DEFAULT 1 CHECK(installments >= 1),
		status TEXT NOT NULL DEFAULT 'approved' CHECK(status IN ('approved', 'delivered', 'cancelled')),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`,

	`CREATE TABLE IF NOT EXISTS purchase_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		purchase_id INTEGER NOT NULL,
		product_id INTEGER NOT NULL,
		quantity INTEGER NOT NULL CHECK(quantity > 0),
		unit_price TEXT NOT NULL,
		total TEXT NOT NULL,
		FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE,
		FOREIGN KEY (product_id) REFERENCES products(id) ON DELETE RESTRICT
	)`,
	`CREATE INDEX IF NOT EXISTS idx_purchase_items_purchase ON purchase_items(purchase_id)`,

	// One invoice per account per reference month
	`CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		account_id INTEGER NOT NULL,
		reference_month DATE NOT NULL,
		due_date DATE NOT NULL,
		total TEXT NOT NULL DEFAULT '0',
		paid TEXT NOT NULL DEFAULT '0',
		late_interest TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'open' CHECK(status IN ('open', 'closed', 'paid', 'overdue', 'cancelled')),
		paid_at DATETIME,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(account_id, reference_month),
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status)`,

	`CREATE TABLE IF NOT EXISTS invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL,
		purchase_id INTEGER NOT NULL,
		installment_no INTEGER NOT NULL DEFAULT 1,
		installment_total INTEGER NOT NULL DEFAULT 1,
		amount TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE,
		FOREIGN KEY (purchase_id) REFERENCES purchases(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id)`,

	// Scheduled (pending) and applied invoice payments
	`CREATE TABLE IF NOT EXISTS invoice_payments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL,
		line_item_id INTEGER,
		amount TEXT NOT NULL,
		method TEXT NOT NULL DEFAULT 'saldo',
		due_date DATE,
		paid INTEGER NOT NULL DEFAULT 0,
		paid_at DATETIME,
		notes TEXT,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (invoice_id) REFERENCES invoices(id) ON DELETE CASCADE,
		FOREIGN KEY (line_item_id) REFERENCES invoice_items(id) ON DELETE CASCADE
	)`,
	`CREATE INDEX IF NOT EXISTS idx_invoice_payments_invoice ON invoice_payments(invoice_id)`,

	// Per-account invoice due day (1-28)
	`CREATE TABLE IF NOT EXISTS invoice_settings (
		account_id INTEGER PRIMARY KEY,
		due_day INTEGER NOT NULL DEFAULT 10 CHECK(due_day BETWEEN 1 AND 28),
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY (account_id) REFERENCES accounts(id) ON DELETE CASCADE
	)`,
}
