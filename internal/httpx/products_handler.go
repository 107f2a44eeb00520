package httpx

import (
	"context"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type ProductService interface {
	ListProducts(ctx context.Context, inStockOnly bool) ([]orders.Product, error)
	GetProduct(ctx context.Context, id string) (orders.Product, error)
	CreateProduct(ctx context.Context, in orders.ProductInput) (orders.Product, error)
	UpdateProduct(ctx context.Context, id string, in orders.ProductUpdate) (orders.Product, error)
	DeleteProduct(ctx context.Context, id string) error
}

type ProductsHandler struct {
	Service ProductService
	Logger  *logrus.Logger
}

func (h *ProductsHandler) Register(r chi.Router) {
	r.Get("/products", h.list)
	r.Post("/products", h.create)
	r.Get("/products/{id}", h.get)
	r.Put("/products/{id}", h.update)
	r.Delete("/products/{id}", h.delete)
}

func (h *ProductsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	inStock := r.URL.Query().Get("in_stock") == "true"
	ps, err := h.Service.ListProducts(ctx, inStock)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *ProductsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrProductNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Service.GetProduct(ctx, id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeProductInput(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.CreateProduct(ctx, in)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

func (h *ProductsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrProductNotFound)
		return
	}
	in, err := decodeProductUpdate(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	p, err := h.Service.UpdateProduct(ctx, id, in)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *ProductsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrProductNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.DeleteProduct(ctx, id); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
