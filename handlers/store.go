package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/galaxybank/backoffice/models"
)

// ListProducts lists active catalog products
// @Summary      List products
// @Description  Active products, optionally filtered by category or title search.
// @Tags         store
// @Produce      json
// @Param        category  query     string  false  "Filter by category"
// @Param        search    query     string  false  "Search by title"
// @Success      200       {object}  Response{data=[]models.Product}
// @Router       /products [get]
// @Security     BasicAuth
func ListProducts(w http.ResponseWriter, r *http.Request) {
	query := `SELECT id, api_id, title, description, price_cash, price_installment, category, image_url, rating, active, created_at, updated_at
		FROM products WHERE active = 1`
	var args []any
	if category := r.URL.Query().Get("category"); category != "" {
		query += " AND category = ?"
		args = append(args, category)
	}
	if search := r.URL.Query().Get("search"); search != "" {
		query += " AND title LIKE ?"
		args = append(args, "%"+search+"%")
	}
	query += " ORDER BY title"

	rows, err := DB.Query(query, args...)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.APIID, &p.Title, &p.Description, &p.PriceCash, &p.PriceInstallment,
			&p.Category, &p.ImageURL, &p.Rating, &p.Active, &p.CreatedAt, &p.UpdatedAt); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		products = append(products, p)
	}
	if products == nil {
		products = []models.Product{}
	}
	writeJSON(w, http.StatusOK, products)
}

// GetProduct retrieves a single product by ID
// @Summary      Get product
// @Tags         store
// @Produce      json
// @Param        id   path      int  true  "Product ID"
// @Success      200  {object}  Response{data=models.Product}
// @Failure      404  {object}  Response{error=string}
// @Router       /products/{id} [get]
// @Security     BasicAuth
func GetProduct(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	var p models.Product
	err := DB.QueryRow(`SELECT id, api_id, title, description, price_cash, price_installment, category, image_url, rating, active, created_at, updated_at
		FROM products WHERE id = ?`, id).
		Scan(&p.ID, &p.APIID, &p.Title, &p.Description, &p.PriceCash, &p.PriceInstallment,
			&p.Category, &p.ImageURL, &p.Rating, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// AddCartItem adds a product to an account's cart
// @Summary      Add cart item
// @Description  Add a product to the cart; adding the same product again bumps the quantity.
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        item  body      models.CartItemInput  true  "Cart item"
// @Success      201   {object}  Response{data=models.CartItem}
// @Failure      400   {object}  Response{error=string}
// @Router       /cart [post]
// @Security     BasicAuth
func AddCartItem(w http.ResponseWriter, r *http.Request) {
	var input models.CartItemInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if _, err := Engine.GetAccount(input.AccountID); err != nil {
		writeLedgerError(w, err)
		return
	}
	var exists int
	if err := DB.QueryRow(`SELECT COUNT(*) FROM products WHERE id = ? AND active = 1`, input.ProductID).Scan(&exists); err != nil || exists == 0 {
		writeError(w, http.StatusNotFound, "product not found")
		return
	}

	_, err := DB.Exec(`INSERT INTO cart_items (account_id, product_id, quantity) VALUES (?, ?, ?)
		ON CONFLICT(account_id, product_id) DO UPDATE SET quantity = quantity + excluded.quantity`,
		input.AccountID, input.ProductID, input.Quantity)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	var item models.CartItem
	err = DB.QueryRow(`SELECT c.id, c.account_id, c.product_id, c.quantity, c.created_at, p.title, p.price_cash
		FROM cart_items c JOIN products p ON c.product_id = p.id
		WHERE c.account_id = ? AND c.product_id = ?`, input.AccountID, input.ProductID).
		Scan(&item.ID, &item.AccountID, &item.ProductID, &item.Quantity, &item.CreatedAt, &item.Title, &item.PriceCash)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

// ListCartItems lists an account's cart
// @Summary      List cart items
// @Tags         store
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=[]models.CartItem}
// @Router       /accounts/{id}/cart [get]
// @Security     BasicAuth
func ListCartItems(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	rows, err := DB.Query(`SELECT c.id, c.account_id, c.product_id, c.quantity, c.created_at, p.title, p.price_cash
		FROM cart_items c JOIN products p ON c.product_id = p.id
		WHERE c.account_id = ? ORDER BY c.id`, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	defer rows.Close()

	var items []models.CartItem
	for rows.Next() {
		var it models.CartItem
		if err := rows.Scan(&it.ID, &it.AccountID, &it.ProductID, &it.Quantity, &it.CreatedAt, &it.Title, &it.PriceCash); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		items = append(items, it)
	}
	if items == nil {
		items = []models.CartItem{}
	}
	writeJSON(w, http.StatusOK, items)
}

// RemoveCartItem removes a cart line
// @Summary      Remove cart item
// @Tags         store
// @Produce      json
// @Param        id   path      int  true  "Cart item ID"
// @Success      200  {object}  Response{data=map[string]string}
// @Failure      404  {object}  Response{error=string}
// @Router       /cart/{id} [delete]
// @Security     BasicAuth
func RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	res, err := DB.Exec(`DELETE FROM cart_items WHERE id = ?`, id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if n, _ := res.RowsAffected(); n == 0 {
		writeError(w, http.StatusNotFound, "cart item not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// Checkout settles the account's cart
// @Summary      Checkout
// @Description  Settle the cart against balance (saldo) or approved credit limit (credito), optionally in installments.
// @Tags         store
// @Accept       json
// @Produce      json
// @Param        checkout  body      models.CheckoutInput  true  "Checkout contents"
// @Success      201       {object}  Response{data=models.Purchase}
// @Failure      400       {object}  Response{error=string}
// @Failure      409       {object}  Response{error=string}
// @Router       /checkout [post]
// @Security     BasicAuth
func Checkout(w http.ResponseWriter, r *http.Request) {
	var input models.CheckoutInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if msg := input.Validate(); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	purchase, err := Engine.Checkout(input.AccountID, input.Method, input.Installments)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, purchase)
}

// GetPurchase retrieves a purchase with its items
// @Summary      Get purchase
// @Tags         store
// @Produce      json
// @Param        id   path      int  true  "Purchase ID"
// @Success      200  {object}  Response{data=models.Purchase}
// @Failure      404  {object}  Response{error=string}
// @Router       /purchases/{id} [get]
// @Security     BasicAuth
func GetPurchase(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	purchase, err := Engine.GetPurchase(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, purchase)
}

// ListPurchases lists an account's purchases
// @Summary      List purchases
// @Tags         store
// @Produce      json
// @Param        id   path      int  true  "Account ID"
// @Success      200  {object}  Response{data=[]models.Purchase}
// @Router       /accounts/{id}/purchases [get]
// @Security     BasicAuth
func ListPurchases(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(chi.URLParam(r, "id"))
	purchases, err := Engine.ListPurchases(id)
	if err != nil {
		writeLedgerError(w, err)
		return
	}
	if purchases == nil {
		purchases = []models.Purchase{}
	}
	writeJSON(w, http.StatusOK, purchases)
}
