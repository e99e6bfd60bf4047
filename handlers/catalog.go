package handlers

import "net/http"

// SyncCatalog pulls the external product feed
// @Summary      Sync catalog
// @Description  Fetch the product feed and upsert every product; the installment price
// @Description  is fixed at first sync and kept on updates.
// @Tags         store
// @Produce      json
// @Success      200  {object}  Response{data=map[string]int}
// @Failure      502  {object}  Response{error=string}
// @Router       /catalog/sync [post]
// @Security     BasicAuth
func SyncCatalog(w http.ResponseWriter, r *http.Request) {
	count, err := Catalog.Sync(r.Context())
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": count})
}
