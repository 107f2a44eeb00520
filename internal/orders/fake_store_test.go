package orders

import (
	"context"
	"sort"
	"sync"
)

type fakeTxKey struct{}

// fakeStore keeps everything in maps. WithTx runs transactions one at a
// time, snapshots the maps and restores them when fn fails, which is enough
// to observe rollback and key-claim behaviour.
type fakeStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	products map[string]Product
	clients  map[string]Client
	orders   map[string]Order

	failInsertOrder error
	missClaims      int // ClaimIdempotencyKey pura-pura tidak menemukan key sebanyak ini
	txCount         int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products: map[string]Product{},
		clients:  map[string]Client{},
		orders:   map[string]Order{},
	}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(fakeTxKey{}) != nil {
		return fn(ctx)
	}
	f.txMu.Lock()
	defer f.txMu.Unlock()

	f.mu.Lock()
	f.txCount++
	products, clients, orders := f.snapshot()
	f.mu.Unlock()

	if err := fn(context.WithValue(ctx, fakeTxKey{}, true)); err != nil {
		f.mu.Lock()
		f.products, f.clients, f.orders = products, clients, orders
		f.mu.Unlock()
		return err
	}
	return nil
}

func (f *fakeStore) snapshot() (map[string]Product, map[string]Client, map[string]Order) {
	products := make(map[string]Product, len(f.products))
	for k, v := range f.products {
		products[k] = v
	}
	clients := make(map[string]Client, len(f.clients))
	for k, v := range f.clients {
		clients[k] = v
	}
	orders := make(map[string]Order, len(f.orders))
	for k, v := range f.orders {
		v.Items = append([]OrderItem(nil), v.Items...)
		orders[k] = v
	}
	return products, clients, orders
}

func (f *fakeStore) Counts(_ context.Context) (Counts, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Counts{Products: len(f.products), Clients: len(f.clients), Orders: len(f.orders)}, nil
}

func (f *fakeStore) ListProducts(_ context.Context, inStockOnly bool) ([]Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Product{}
	for _, p := range f.products {
		if inStockOnly && p.Stock <= 0 {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetProduct(_ context.Context, id string) (Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (f *fakeStore) LockProduct(ctx context.Context, id string) (Product, error) {
	return f.GetProduct(ctx, id)
}

func (f *fakeStore) InsertProduct(_ context.Context, p Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[p.ID] = p
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, p Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.products[p.ID]
	if !ok {
		return ErrProductNotFound
	}
	cur.Name, cur.Price, cur.UpdatedAt = p.Name, p.Price, p.UpdatedAt
	f.products[p.ID] = cur
	return nil
}

func (f *fakeStore) DeleteProduct(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.products[id]; !ok {
		return ErrProductNotFound
	}
	for _, o := range f.orders {
		for _, it := range o.Items {
			if it.ProductID == id {
				return ErrProductInUse
			}
		}
	}
	delete(f.products, id)
	return nil
}

func (f *fakeStore) AddStock(_ context.Context, productID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return 0, ErrProductNotFound
	}
	if p.Stock+delta < 0 {
		return 0, ErrInsufficientStock
	}
	p.Stock += delta
	f.products[productID] = p
	return p.Stock, nil
}

func (f *fakeStore) ListClients(_ context.Context) ([]Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Client{}
	for _, c := range f.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeStore) GetClient(_ context.Context, id string) (Client, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.clients[id]
	if !ok {
		return Client{}, ErrClientNotFound
	}
	return c, nil
}

func (f *fakeStore) InsertClient(_ context.Context, c Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clients[c.ID] = c
	return nil
}

func (f *fakeStore) UpdateClient(_ context.Context, c Client) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[c.ID]; !ok {
		return ErrClientNotFound
	}
	f.clients[c.ID] = c
	return nil
}

func (f *fakeStore) DeleteClient(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[id]; !ok {
		return ErrClientNotFound
	}
	for _, o := range f.orders {
		if o.ClientID == id {
			return ErrClientHasOrders
		}
	}
	delete(f.clients, id)
	return nil
}

func (f *fakeStore) ListOrders(_ context.Context) ([]Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []Order{}
	for _, o := range f.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeStore) GetOrder(_ context.Context, id string) (Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return Order{}, ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeStore) LockOrder(ctx context.Context, id string) (Order, error) {
	return f.GetOrder(ctx, id)
}

func (f *fakeStore) ClaimIdempotencyKey(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.missClaims > 0 {
		f.missClaims--
		return "", false, nil
	}
	for _, o := range f.orders {
		if o.IdempotencyKey == key {
			return o.ID, true, nil
		}
	}
	return "", false, nil
}

func (f *fakeStore) InsertOrder(_ context.Context, o Order) error {
	if f.failInsertOrder != nil {
		return f.failInsertOrder
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if o.IdempotencyKey != "" {
		for _, other := range f.orders {
			if other.IdempotencyKey == o.IdempotencyKey {
				return errIdempotencyKeyTaken
			}
		}
	}
	o.Items = append([]OrderItem(nil), o.Items...)
	f.orders[o.ID] = o
	return nil
}

func (f *fakeStore) DeleteOrder(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.orders[id]; !ok {
		return ErrOrderNotFound
	}
	delete(f.orders, id)
	return nil
}

type publishedEvent struct {
	topic     string
	key       string
	eventType string
	env       Envelope
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) PublishJSON(topic string, key []byte, eventType string, v any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	env, _ := v.(Envelope)
	p.events = append(p.events, publishedEvent{topic: topic, key: string(key), eventType: eventType, env: env})
}

func (p *recordingPublisher) topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.topic)
	}
	return out
}
