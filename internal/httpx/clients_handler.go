package httpx

import (
	"context"
	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"
	"net/http"
	"time"
)

type ClientService interface {
	ListClients(ctx context.Context) ([]orders.Client, error)
	GetClient(ctx context.Context, id string) (orders.Client, error)
	CreateClient(ctx context.Context, in orders.ClientInput) (orders.Client, error)
	UpdateClient(ctx context.Context, id string, in orders.ClientInput) (orders.Client, error)
	DeleteClient(ctx context.Context, id string) error
}

type ClientsHandler struct {
	Service ClientService
	Logger  *logrus.Logger
}

func (h *ClientsHandler) Register(r chi.Router) {
	r.Get("/clients", h.list)
	r.Post("/clients", h.create)
	r.Get("/clients/{id}", h.get)
	r.Put("/clients/{id}", h.update)
	r.Delete("/clients/{id}", h.delete)
}

func (h *ClientsHandler) list(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	cs, err := h.Service.ListClients(ctx)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, cs)
}

func (h *ClientsHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrClientNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	c, err := h.Service.GetClient(ctx, id)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ClientsHandler) create(w http.ResponseWriter, r *http.Request) {
	in, err := decodeClientInput(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Service.CreateClient(ctx, in)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *ClientsHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrClientNotFound)
		return
	}
	in, err := decodeClientInput(r)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	c, err := h.Service.UpdateClient(ctx, id, in)
	if err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (h *ClientsHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeServiceError(w, r, h.Logger, orders.ErrClientNotFound)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := h.Service.DeleteClient(ctx, id); err != nil {
		writeServiceError(w, r, h.Logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
