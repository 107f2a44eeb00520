package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/sirupsen/logrus"
)

const (
	codeMethodNotAllowed   = "method_not_allowed"
	codeNotFound           = "not_found"
	codeInvalidRequestBody = "invalid_request_body"
	codeNameRequired       = "name_required"
	codeInvalidPrice       = "invalid_price"
	codeInvalidStock       = "invalid_stock"
	codeInvalidQuantity    = "invalid_quantity"
	codeInsufficientStock  = "insufficient_stock"
	codeProductNotFound    = "product_not_found"
	codeClientNotFound     = "client_not_found"
	codeOrderNotFound      = "order_not_found"
	codeProductInUse       = "product_in_use"
	codeClientHasOrders    = "client_has_orders"
	codeInternalError      = "internal_error"
)

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

type stockDetails struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	Requested   int    `json:"requested"`
	Available   int    `json:"available"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	writeJSON(w, status, errorResponse{Error: msg, Code: code, Details: details})
}

var errorTable = []struct {
	err    error
	status int
	code   string
}{
	{errBadBody, http.StatusBadRequest, codeInvalidRequestBody},
	{errClientRequired, http.StatusBadRequest, codeInvalidRequestBody},
	{orders.ErrNameRequired, http.StatusBadRequest, codeNameRequired},
	{orders.ErrInvalidPrice, http.StatusBadRequest, codeInvalidPrice},
	{orders.ErrInvalidStock, http.StatusBadRequest, codeInvalidStock},
	{orders.ErrInvalidQuantity, http.StatusBadRequest, codeInvalidQuantity},
	{orders.ErrInsufficientStock, http.StatusConflict, codeInsufficientStock},
	{orders.ErrProductNotFound, http.StatusNotFound, codeProductNotFound},
	{orders.ErrClientNotFound, http.StatusNotFound, codeClientNotFound},
	{orders.ErrOrderNotFound, http.StatusNotFound, codeOrderNotFound},
	{orders.ErrProductInUse, http.StatusConflict, codeProductInUse},
	{orders.ErrClientHasOrders, http.StatusConflict, codeClientHasOrders},
}

// writeServiceError maps domain errors to a status; anything unknown is logged
// and reported as a generic 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *logrus.Logger, err error) {
	var stockErr *orders.InsufficientStockError
	if errors.As(err, &stockErr) {
		writeError(w, http.StatusConflict, codeInsufficientStock, err.Error(), stockDetails{
			ProductID:   stockErr.ProductID,
			ProductName: stockErr.ProductName,
			Requested:   stockErr.Requested,
			Available:   stockErr.Available,
		})
		return
	}
	for _, e := range errorTable {
		if errors.Is(err, e.err) {
			writeError(w, e.status, e.code, err.Error(), nil)
			return
		}
	}
	logger.WithError(err).WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	}).Error("request failed")
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error", nil)
}
