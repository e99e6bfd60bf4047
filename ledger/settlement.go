package ledger

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/galaxybank/backoffice/models"
)

// Checkout settles the account's cart: it prices every line with the cash
// price (saldo) or installment price (credito), validates funds or approved
// limit before any write, then in one transaction creates the purchase and
// its items, debits balance or limit, fans installments across the next N
// monthly invoices and clears the cart.
func (e *Engine) Checkout(accountID int, method models.PaymentMethod, installments int) (models.Purchase, error) {
	var purchase models.Purchase
	err := e.withTx("checkout", func(tx *sql.Tx) error {
		if installments < 1 {
			installments = 1
		}

		acc, err := getAccountTx(tx, accountID)
		if err != nil {
			return err
		}

		lines, err := cartLinesTx(tx, accountID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return fmt.Errorf("cart is empty: %w", ErrInvalidState)
		}

		total := decimal.Zero
		for i := range lines {
			price := lines[i].priceCash
			if method == models.PayCredit {
				price = lines[i].priceInstallment
			}
			lines[i].unitPrice = price
			lines[i].total = price.Mul(decimal.NewFromInt(int64(lines[i].quantity)))
			total = total.Add(lines[i].total)
		}

		switch method {
		case models.PayBalance:
			if total.GreaterThan(acc.Balance) {
				return ErrInsufficientFunds
			}
		case models.PayCredit:
			if !acc.CreditApproved {
				return ErrCreditNotApproved
			}
			if total.GreaterThan(acc.CreditLimit) {
				return ErrInsufficientCreditLimit
			}
		default:
			return fmt.Errorf("unknown payment method %q: %w", method, ErrInvalidState)
		}

		res, err := tx.Exec(`INSERT INTO purchases (account_id, total, method, installments) VALUES (?, ?, ?, ?)`,
			accountID, total, method, installments)
		if err != nil {
			return fmt.Errorf("creating purchase: %w", err)
		}
		purchaseID64, _ := res.LastInsertId()
		purchaseID := int(purchaseID64)

		for _, l := range lines {
			if _, err := tx.Exec(`INSERT INTO purchase_items (purchase_id, product_id, quantity, unit_price, total)
				VALUES (?, ?, ?, ?, ?)`,
				purchaseID, l.productID, l.quantity, l.unitPrice, l.total); err != nil {
				return fmt.Errorf("creating purchase item: %w", err)
			}
		}

		switch method {
		case models.PayBalance:
			if err := debitBalanceTx(tx, accountID, total); err != nil {
				return err
			}
		case models.PayCredit:
			desc := fmt.Sprintf("purchase #%d", purchaseID)
			if err := debitCreditLimitTx(tx, accountID, total, desc, &purchaseID); err != nil {
				return err
			}
			if installments > 1 {
				if err := e.scheduleInstallmentsTx(tx, accountID, purchaseID, total, installments); err != nil {
					return err
				}
			}
		}

		if _, err := tx.Exec(`DELETE FROM cart_items WHERE account_id = ?`, accountID); err != nil {
			return fmt.Errorf("clearing cart: %w", err)
		}

		purchase, err = getPurchaseTx(tx, purchaseID)
		return err
	})
	return purchase, err
}

// scheduleInstallmentsTx fans the purchase total across the next n monthly
// invoices, starting with the current month. The per-installment value is
// total/n rounded to 2 places; the final installment absorbs the remainder
// so the line items always sum to the purchase total exactly.
func (e *Engine) scheduleInstallmentsTx(tx *sql.Tx, accountID, purchaseID int, total models.Money, n int) error {
	per := total.DivRound(decimal.NewFromInt(int64(n)), models.MoneyPlaces)
	last := total.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))

	month := firstOfMonth(e.today())
	for i := 0; i < n; i++ {
		value := per
		if i == n-1 {
			value = last
		}
		inv, err := e.getOrCreateInvoiceTx(tx, accountID, addMonths(month, i))
		if err != nil {
			return err
		}
		desc := fmt.Sprintf("purchase #%d - installment %d/%d", purchaseID, i+1, n)
		if err := addInstallmentTx(tx, inv, purchaseID, i+1, n, value, desc); err != nil {
			return err
		}
	}
	return nil
}

type cartLine struct {
	productID        int
	quantity         int
	priceCash        models.Money
	priceInstallment models.Money
	unitPrice        models.Money
	total            models.Money
}

func cartLinesTx(tx *sql.Tx, accountID int) ([]cartLine, error) {
	rows, err := tx.Query(`SELECT c.product_id, c.quantity, p.price_cash, p.price_installment
		FROM cart_items c
		JOIN products p ON c.product_id = p.id
		WHERE c.account_id = ? AND p.active = 1
		ORDER BY c.id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []cartLine
	for rows.Next() {
		var l cartLine
		if err := rows.Scan(&l.productID, &l.quantity, &l.priceCash, &l.priceInstallment); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

const purchaseSelectQuery = `SELECT id, account_id, total, method, installments, status, created_at FROM purchases`

func scanPurchase(scanner interface{ Scan(...any) error }) (models.Purchase, error) {
	var p models.Purchase
	err := scanner.Scan(&p.ID, &p.AccountID, &p.Total, &p.Method, &p.Installments, &p.Status, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return p, fmt.Errorf("purchase: %w", ErrNotFound)
	}
	return p, err
}

func getPurchaseTx(tx *sql.Tx, id int) (models.Purchase, error) {
	return scanPurchase(tx.QueryRow(purchaseSelectQuery+" WHERE id = ?", id))
}

// GetPurchase loads a purchase and its items.
func (e *Engine) GetPurchase(id int) (models.Purchase, error) {
	p, err := scanPurchase(e.db.QueryRow(purchaseSelectQuery+" WHERE id = ?", id))
	if err != nil {
		return p, err
	}

	rows, err := e.db.Query(`SELECT i.id, i.purchase_id, i.product_id, i.quantity, i.unit_price, i.total, p.title
		FROM purchase_items i
		LEFT JOIN products p ON i.product_id = p.id
		WHERE i.purchase_id = ? ORDER BY i.id`, id)
	if err != nil {
		return p, err
	}
	defer rows.Close()

	for rows.Next() {
		var it models.PurchaseItem
		if err := rows.Scan(&it.ID, &it.PurchaseID, &it.ProductID, &it.Quantity, &it.UnitPrice, &it.Total, &it.Title); err != nil {
			return p, err
		}
		p.Items = append(p.Items, it)
	}
	return p, rows.Err()
}

// ListPurchases returns an account's purchases, newest first.
func (e *Engine) ListPurchases(accountID int) ([]models.Purchase, error) {
	rows, err := e.db.Query(purchaseSelectQuery+" WHERE account_id = ? ORDER BY created_at DESC, id DESC", accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []models.Purchase
	for rows.Next() {
		p, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}
