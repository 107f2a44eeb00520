package httpx

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/shopspring/decimal"
)

func TestProductsHandler_Create(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		contentType    string
		body           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{
			name:           "json success",
			contentType:    "application/json",
			body:           `{"name":"Pen","price":"9.25","stock":10}`,
			expectedStatus: http.StatusCreated,
			expectedSubstr: `"name":"Pen"`,
		},
		{
			name:           "form success",
			contentType:    "application/x-www-form-urlencoded",
			body:           "name=Pen&price=9.25&stock=10",
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid json",
			contentType:    "application/json",
			body:           `{"name":`,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_request_body"`,
		},
		{
			name:           "form stock not a number",
			contentType:    "application/x-www-form-urlencoded",
			body:           "name=Pen&price=1&stock=ten",
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_request_body"`,
		},
		{
			name:           "name required",
			contentType:    "application/json",
			body:           `{"name":"  ","price":"1","stock":1}`,
			serviceErr:     orders.ErrNameRequired,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"name_required"`,
		},
		{
			name:           "negative stock",
			contentType:    "application/json",
			body:           `{"name":"Pen","price":"1","stock":-1}`,
			serviceErr:     orders.ErrInvalidStock,
			expectedStatus: http.StatusBadRequest,
			expectedSubstr: `"code":"invalid_stock"`,
		},
		{
			name:           "internal error",
			contentType:    "application/json",
			body:           `{"name":"Pen","price":"1","stock":1}`,
			serviceErr:     errors.New("boom"),
			expectedStatus: http.StatusInternalServerError,
			expectedSubstr: `"error":"internal error"`,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubProductService{
				product: orders.Product{ID: testProductID, Name: "Pen", Price: decimal.RequireFromString("9.25"), Stock: 10},
				err:     tt.serviceErr,
			}
			h := &ProductsHandler{Service: svc, Logger: quietLogger()}
			router := newTestRouter(h.Register)

			req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", tt.contentType)
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d (%s)", tt.expectedStatus, rec.Code, rec.Body.String())
			}
			if tt.expectedSubstr != "" && !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestProductsHandler_CreateFormFields(t *testing.T) {
	t.Parallel()

	svc := &stubProductService{}
	h := &ProductsHandler{Service: svc, Logger: quietLogger()}
	router := newTestRouter(h.Register)

	req := httptest.NewRequest(http.MethodPost, "/products", strings.NewReader("name=Pen&price=2.50&stock=7"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if svc.gotInput.Name != "Pen" || svc.gotInput.Stock != 7 {
		t.Fatalf("unexpected input %+v", svc.gotInput)
	}
	if !svc.gotInput.Price.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("expected price 2.5, got %s", svc.gotInput.Price)
	}
}

func TestProductsHandler_UpdateRejectsStockField(t *testing.T) {
	t.Parallel()

	svc := &stubProductService{}
	h := &ProductsHandler{Service: svc, Logger: quietLogger()}
	router := newTestRouter(h.Register)

	req := httptest.NewRequest(http.MethodPut, "/products/"+testProductID, strings.NewReader(`{"name":"Pen","price":"1","stock":99}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if svc.gotID != "" {
		t.Fatalf("service should not be called, got id %q", svc.gotID)
	}
}

func TestProductsHandler_Update(t *testing.T) {
	t.Parallel()

	svc := &stubProductService{product: orders.Product{ID: testProductID, Name: "Marker"}}
	h := &ProductsHandler{Service: svc, Logger: quietLogger()}
	router := newTestRouter(h.Register)

	req := httptest.NewRequest(http.MethodPut, "/products/"+testProductID, strings.NewReader(`{"name":"Marker","price":"3"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.gotID != testProductID || svc.gotUpdate.Name != "Marker" {
		t.Fatalf("unexpected call id=%q update=%+v", svc.gotID, svc.gotUpdate)
	}
}

func TestProductsHandler_Get(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		serviceErr     error
		expectedStatus int
		expectedSubstr string
	}{
		{"found", "/products/" + testProductID, nil, http.StatusOK, `"id":"` + testProductID + `"`},
		{"not a uuid", "/products/abc", nil, http.StatusNotFound, `"code":"product_not_found"`},
		{"missing", "/products/" + testProductID, orders.ErrProductNotFound, http.StatusNotFound, `"code":"product_not_found"`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubProductService{product: orders.Product{ID: testProductID, Name: "Pen"}, err: tt.serviceErr}
			h := &ProductsHandler{Service: svc, Logger: quietLogger()}
			router := newTestRouter(h.Register)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
			if !strings.Contains(rec.Body.String(), tt.expectedSubstr) {
				t.Fatalf("expected response to contain %q, got %q", tt.expectedSubstr, rec.Body.String())
			}
		})
	}
}

func TestProductsHandler_ListInStock(t *testing.T) {
	t.Parallel()

	svc := &stubProductService{products: []orders.Product{}}
	h := &ProductsHandler{Service: svc, Logger: quietLogger()}
	router := newTestRouter(h.Register)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products?in_stock=true", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !svc.inStockOnly {
		t.Fatal("expected in_stock filter to reach the service")
	}
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Fatalf("expected empty list, got %q", rec.Body.String())
	}
}

func TestProductsHandler_Delete(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		serviceErr     error
		expectedStatus int
	}{
		{"deleted", nil, http.StatusNoContent},
		{"in use", orders.ErrProductInUse, http.StatusConflict},
		{"missing", orders.ErrProductNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := &stubProductService{err: tt.serviceErr}
			h := &ProductsHandler{Service: svc, Logger: quietLogger()}
			router := newTestRouter(h.Register)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/products/"+testProductID, nil))

			if rec.Code != tt.expectedStatus {
				t.Fatalf("expected status %d, got %d", tt.expectedStatus, rec.Code)
			}
		})
	}
}
