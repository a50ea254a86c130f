package order

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/MikeMC777/checkout-saga/internal/events"
)

type memRepo struct {
	mu        sync.Mutex
	nextID    int64
	nextItem  int64
	orders    map[int64]*Order
	createErr error
}

func newMemRepo() *memRepo { return &memRepo{orders: map[int64]*Order{}} }

func clone(o *Order) Order {
	cp := *o
	cp.Items = append([]Item(nil), o.Items...)
	return cp
}

func (r *memRepo) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	o.ID = r.nextID
	o.CreatedAt = time.Now()
	o.UpdatedAt = o.CreatedAt
	for i := range o.Items {
		r.nextItem++
		o.Items[i].ID = r.nextItem
		o.Items[i].OrderID = o.ID
	}
	cp := clone(o)
	r.orders[o.ID] = &cp
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (*Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := clone(o)
	return &cp, nil
}

func (r *memRepo) filter(keep func(*Order) bool) []Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []Order{}
	for _, o := range r.orders {
		if keep(o) {
			out = append(out, clone(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *memRepo) ListByUser(_ context.Context, userID int64) ([]Order, error) {
	return r.filter(func(o *Order) bool { return o.UserID == userID }), nil
}

func (r *memRepo) List(context.Context) ([]Order, error) {
	return r.filter(func(*Order) bool { return true }), nil
}

func (r *memRepo) UpdateStatus(_ context.Context, id int64, from, to Status) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrNotPlaced
	}
	o.Status = to
	return nil
}

// put stores a ready-made order, bypassing the saga.
func (r *memRepo) put(o Order) int64 {
	if o.Status == "" {
		o.Status = StatusPlaced
	}
	if err := r.Create(context.Background(), &o); err != nil {
		panic(err)
	}
	return o.ID
}

type fakeCustomers struct {
	mu      sync.Mutex
	items   map[int64]*Customer
	getErr  error
	markErr error
	marked  []int64
}

func newFakeCustomers(cs ...Customer) *fakeCustomers {
	f := &fakeCustomers{items: map[int64]*Customer{}}
	for i := range cs {
		c := cs[i]
		f.items[c.ID] = &c
	}
	return f
}

func (f *fakeCustomers) GetCustomer(_ context.Context, id int64) (*Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	c, ok := f.items[id]
	if !ok {
		return nil, fmt.Errorf("customer %d: %w", id, ErrRemoteNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCustomers) MarkDiscountAvailed(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.marked = append(f.marked, id)
	if f.markErr != nil {
		return f.markErr
	}
	c, ok := f.items[id]
	if !ok {
		return ErrRemoteNotFound
	}
	c.DiscountAvailed = true
	return nil
}

func (f *fakeCustomers) availed(id int64) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.items[id].DiscountAvailed
}

type credit struct {
	UserID int64
	Amount int64
}

type fakeWallets struct {
	mu         sync.Mutex
	balances   map[int64]int64
	credits    []credit
	balanceErr error
	debitErr   error
	// creditErr fails credits for the listed users.
	creditErr map[int64]error
}

func newFakeWallets(balances map[int64]int64) *fakeWallets {
	return &fakeWallets{balances: balances, creditErr: map[int64]error{}}
}

func (f *fakeWallets) Balance(_ context.Context, userID int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.balanceErr != nil {
		return 0, f.balanceErr
	}
	b, ok := f.balances[userID]
	if !ok {
		return 0, ErrRemoteNotFound
	}
	return b, nil
}

func (f *fakeWallets) Debit(_ context.Context, userID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.debitErr != nil {
		return f.debitErr
	}
	if f.balances[userID] < amount {
		return fmt.Errorf("insufficient funds: %w", ErrRemoteRejected)
	}
	f.balances[userID] -= amount
	return nil
}

func (f *fakeWallets) Credit(_ context.Context, userID, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.creditErr[userID]; err != nil {
		return err
	}
	f.balances[userID] += amount
	f.credits = append(f.credits, credit{userID, amount})
	return nil
}

func (f *fakeWallets) balance(userID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID]
}

func (f *fakeWallets) creditLog() []credit {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]credit(nil), f.credits...)
}

type fakeInventory struct {
	mu       sync.Mutex
	products map[int64]*ProductDTO
	fetchErr error
	// beforeDecrement runs ahead of every decrement, outside the lock.
	beforeDecrement func(productID int64)
	incErr          error
	block           bool
	// lostReply applies decrements but reports them as unreachable.
	lostReply bool
}

func newFakeInventory(ps ...ProductDTO) *fakeInventory {
	f := &fakeInventory{products: map[int64]*ProductDTO{}}
	for i := range ps {
		p := ps[i]
		f.products[p.ID] = &p
	}
	return f
}

func (f *fakeInventory) FetchProduct(ctx context.Context, id int64) (*ProductDTO, error) {
	if f.block {
		<-ctx.Done()
		return nil, fmt.Errorf("%v: %w", ctx.Err(), ErrRemoteUnavailable)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	p, ok := f.products[id]
	if !ok {
		return nil, ErrRemoteNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeInventory) DecrementStock(_ context.Context, id int64, qty int) error {
	if f.beforeDecrement != nil {
		f.beforeDecrement(id)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok || p.Stock < qty {
		return fmt.Errorf("product %d: %w", id, ErrRemoteRejected)
	}
	p.Stock -= qty
	if f.lostReply {
		return fmt.Errorf("reply lost: %w", ErrRemoteUnavailable)
	}
	return nil
}

func (f *fakeInventory) IncrementStock(_ context.Context, id int64, qty int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.incErr != nil {
		return f.incErr
	}
	p, ok := f.products[id]
	if !ok {
		return ErrRemoteNotFound
	}
	p.Stock += qty
	return nil
}

func (f *fakeInventory) setStock(id int64, stock int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.products[id].Stock = stock
}

func (f *fakeInventory) stock(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.products[id].Stock
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, payload.(events.OrderEvent))
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

var errBoom = errors.New("boom")
