package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/ariefcatur/go-stock-orders/internal/orders"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const productFieldPrefix = "product_"

var (
	errBadBody        = errors.New("invalid request body")
	errClientRequired = errors.New("client_id is required")
)

func isForm(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded")
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errBadBody
	}
	return nil
}

// pathID returns the {id} URL param when it is a valid UUID.
func pathID(r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", false
	}
	return id, true
}

// Form kosong dianggap 0, sama seperti form HTML lama.

func formDecimal(v string) (decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, errBadBody
	}
	return d, nil
}

func formInt(v string) (int, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, errBadBody
	}
	return i, nil
}

func decodeProductInput(r *http.Request) (orders.ProductInput, error) {
	var in orders.ProductInput
	if !isForm(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, errBadBody
	}
	var err error
	in.Name = r.PostForm.Get("name")
	if in.Price, err = formDecimal(r.PostForm.Get("price")); err != nil {
		return in, err
	}
	if in.Stock, err = formInt(r.PostForm.Get("stock")); err != nil {
		return in, err
	}
	return in, nil
}

func decodeProductUpdate(r *http.Request) (orders.ProductUpdate, error) {
	var in orders.ProductUpdate
	if !isForm(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, errBadBody
	}
	var err error
	in.Name = r.PostForm.Get("name")
	in.Price, err = formDecimal(r.PostForm.Get("price"))
	return in, err
}

func decodeClientInput(r *http.Request) (orders.ClientInput, error) {
	var in orders.ClientInput
	if !isForm(r) {
		return in, decodeJSON(r, &in)
	}
	if err := r.ParseForm(); err != nil {
		return in, errBadBody
	}
	in.Name = r.PostForm.Get("name")
	in.Email = r.PostForm.Get("email")
	return in, nil
}

// decodeCreateOrder accepts JSON ({"client_id", "items": [...]}) or a form
// with client_id and one product_<id>=<qty> field per product.
func decodeCreateOrder(r *http.Request) (orders.CreateOrderInput, error) {
	var in orders.CreateOrderInput
	if !isForm(r) {
		if err := decodeJSON(r, &in); err != nil {
			return in, err
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return in, errBadBody
		}
		in.ClientID = strings.TrimSpace(r.PostForm.Get("client_id"))

		keys := make([]string, 0, len(r.PostForm))
		for k := range r.PostForm {
			if strings.HasPrefix(k, productFieldPrefix) {
				keys = append(keys, k)
			}
		}
		sort.Strings(keys)
		for _, k := range keys {
			qty, err := formInt(r.PostForm.Get(k))
			if err != nil {
				return in, err
			}
			in.Items = append(in.Items, orders.LineInput{
				ProductID: strings.TrimPrefix(k, productFieldPrefix),
				Quantity:  qty,
			})
		}
	}

	if in.ClientID == "" {
		return in, errClientRequired
	}
	if _, err := uuid.Parse(in.ClientID); err != nil {
		return in, orders.ErrClientNotFound
	}
	for _, it := range in.Items {
		if _, err := uuid.Parse(it.ProductID); err != nil {
			return in, orders.ErrProductNotFound
		}
	}
	return in, nil
}
