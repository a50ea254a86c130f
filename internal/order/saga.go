package order

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/checkout-saga/internal/events"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
)

type Customer struct {
	ID              int64
	DiscountAvailed bool
}

type CustomerDirectory interface {
	GetCustomer(ctx context.Context, id int64) (*Customer, error)
	MarkDiscountAvailed(ctx context.Context, id int64) error
}

type WalletLedger interface {
	Balance(ctx context.Context, userID int64) (int64, error)
	// Debit is conditional on the balance covering amount.
	Debit(ctx context.Context, userID, amount int64) error
	Credit(ctx context.Context, userID, amount int64) error
}

type Inventory interface {
	FetchProduct(ctx context.Context, id int64) (*ProductDTO, error)
	// DecrementStock is conditional on the stock covering qty.
	DecrementStock(ctx context.Context, productID int64, qty int) error
	IncrementStock(ctx context.Context, productID int64, qty int) error
}

type Options struct {
	// CallTimeout bounds every outbound call. A timeout fails the step.
	CallTimeout time.Duration
	// StrictStock aborts and compensates a placement whose stock decrement
	// or persistence fails. When false, a failed decrement is only logged.
	StrictStock bool
}

type Deps struct {
	Repo      Repository
	Customers CustomerDirectory
	Wallets   WalletLedger
	Inventory Inventory
	Events    events.Publisher
	Metrics   *metrics.SagaMetrics
}

// Service runs order placement and the cancellation paths against the
// customer, wallet and product services. It holds no locks; concurrent
// safety comes from the conditional debit and decrement on the other side.
type Service struct {
	repo      Repository
	customers CustomerDirectory
	wallets   WalletLedger
	inventory Inventory
	events    events.Publisher
	metrics   *metrics.SagaMetrics
	opts      Options
}

func NewService(d Deps, opts Options) *Service {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 3 * time.Second
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	return &Service{
		repo:      d.Repo,
		customers: d.Customers,
		wallets:   d.Wallets,
		inventory: d.Inventory,
		events:    d.Events,
		metrics:   d.Metrics,
		opts:      opts,
	}
}

func (s *Service) call(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.opts.CallTimeout)
	defer cancel()
	return fn(ctx)
}

func (s *Service) Get(ctx context.Context, id int64) (*Order, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Order, error) {
	return s.repo.ListByUser(ctx, userID)
}

func (s *Service) List(ctx context.Context) ([]Order, error) {
	return s.repo.List(ctx)
}

// Place runs the placement saga: customer lookup, quantity check, pricing,
// balance check, debit, stock decrements, discount flag, persistence.
func (s *Service) Place(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	o, err := s.place(ctx, req)
	s.metrics.Outcome("place", outcomeOf(err))
	return o, err
}

func (s *Service) place(ctx context.Context, req CreateOrderRequest) (*Order, error) {
	cust, err := s.lookupCustomer(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if len(req.Items) == 0 {
		return nil, ErrNoItems
	}
	for _, it := range req.Items {
		if it.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	cost, err := s.price(ctx, req.Items, cust.DiscountAvailed)
	if err != nil {
		return nil, err
	}
	total := cost.Truncate(0).IntPart()

	balance, err := s.balance(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	// The balance must cover the exact cost, not the truncated amount debited.
	if decimal.NewFromInt(balance).LessThan(cost) {
		log.Printf("[saga] op=place user=%d step=balance balance=%d cost=%s insufficient", req.UserID, balance, cost)
		return nil, ErrInsufficientFunds
	}

	if err := s.debit(ctx, req.UserID, total); err != nil {
		return nil, err
	}

	// Past this point the wallet is debited; compensations must outlive
	// the caller's context.
	ctx = context.WithoutCancel(ctx)

	decremented, err := s.decrementAll(ctx, req.UserID, req.Items)
	if err != nil {
		s.compensatePlacement(ctx, req.UserID, total, decremented)
		return nil, err
	}

	if !cust.DiscountAvailed {
		err := s.call(ctx, func(ctx context.Context) error { return s.customers.MarkDiscountAvailed(ctx, req.UserID) })
		if err != nil {
			log.Printf("[saga] op=place user=%d step=discount err=%v (ignored)", req.UserID, err)
		}
	}

	o := &Order{UserID: req.UserID, Status: StatusPlaced, TotalPrice: total, Items: toItems(req.Items)}
	if err := s.repo.Create(ctx, o); err != nil {
		log.Printf("[saga] op=place user=%d step=persist err=%v", req.UserID, err)
		if s.opts.StrictStock {
			s.compensatePlacement(ctx, req.UserID, total, decremented)
		}
		return nil, fmt.Errorf("persist order: %w", err)
	}

	log.Printf("[saga] op=place user=%d order=%d total=%d placed", o.UserID, o.ID, o.TotalPrice)
	s.publish(ctx, events.OrderPlaced, o)
	return o, nil
}

func (s *Service) lookupCustomer(ctx context.Context, userID int64) (*Customer, error) {
	var c *Customer
	err := s.call(ctx, func(ctx context.Context) (err error) {
		c, err = s.customers.GetCustomer(ctx, userID)
		return err
	})
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, ErrRemoteNotFound):
		log.Printf("[saga] op=place user=%d step=customer not found", userID)
		return nil, ErrCustomerNotFound
	default:
		log.Printf("[saga] op=place user=%d step=customer unreachable err=%v", userID, err)
		return nil, fmt.Errorf("%w: %v", ErrCustomerUnavailable, err)
	}
}

// price checks every item against a stock snapshot and computes the total.
// The snapshot does not reserve anything.
func (s *Service) price(ctx context.Context, items []CreateOrderItem, discountAvailed bool) (decimal.Decimal, error) {
	lines := make([]Line, 0, len(items))
	for _, it := range items {
		var p *ProductDTO
		err := s.call(ctx, func(ctx context.Context) (err error) {
			p, err = s.inventory.FetchProduct(ctx, it.ProductID)
			return err
		})
		switch {
		case errors.Is(err, ErrRemoteNotFound):
			log.Printf("[saga] op=place step=price product=%d not found", it.ProductID)
			return decimal.Zero, ErrProductUnavailable
		case err != nil:
			log.Printf("[saga] op=place step=price product=%d unreachable err=%v", it.ProductID, err)
			return decimal.Zero, fmt.Errorf("%w: %v", ErrInventoryUnavailable, err)
		}
		if p.Stock < it.Quantity {
			log.Printf("[saga] op=place step=price product=%d stock=%d want=%d", it.ProductID, p.Stock, it.Quantity)
			return decimal.Zero, ErrProductUnavailable
		}
		lines = append(lines, Line{UnitPrice: p.Price, Quantity: it.Quantity})
	}
	return Cost(lines, discountAvailed), nil
}

// balance treats a missing wallet as an empty one.
func (s *Service) balance(ctx context.Context, userID int64) (int64, error) {
	var b int64
	err := s.call(ctx, func(ctx context.Context) (err error) {
		b, err = s.wallets.Balance(ctx, userID)
		return err
	})
	switch {
	case err == nil:
		return b, nil
	case errors.Is(err, ErrRemoteNotFound):
		return 0, nil
	default:
		log.Printf("[saga] op=place user=%d step=balance unreachable err=%v", userID, err)
		return 0, fmt.Errorf("%w: %v", ErrWalletUnavailable, err)
	}
}

func (s *Service) debit(ctx context.Context, userID, amount int64) error {
	err := s.call(ctx, func(ctx context.Context) error { return s.wallets.Debit(ctx, userID, amount) })
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrRemoteRejected):
		// The balance was drained between the check and the debit.
		log.Printf("[saga] op=place user=%d step=debit amount=%d rejected err=%v", userID, amount, err)
		return ErrInsufficientFunds
	default:
		// A timeout leaves the debit outcome unknown; nothing is compensated.
		log.Printf("[saga] op=place user=%d step=debit amount=%d failed err=%v", userID, amount, err)
		return fmt.Errorf("%w: %v", ErrPaymentFailed, err)
	}
}

// decrementAll returns the items whose decrement succeeded. In lenient mode
// failures are logged and skipped, so the error is always nil.
func (s *Service) decrementAll(ctx context.Context, userID int64, items []CreateOrderItem) ([]Item, error) {
	done := make([]Item, 0, len(items))
	for _, it := range items {
		err := s.call(ctx, func(ctx context.Context) error {
			return s.inventory.DecrementStock(ctx, it.ProductID, it.Quantity)
		})
		if err == nil {
			done = append(done, Item{ProductID: it.ProductID, Quantity: it.Quantity})
			continue
		}
		if !s.opts.StrictStock {
			log.Printf("[saga] op=place user=%d step=decrement product=%d qty=%d err=%v (lenient, ignored)",
				userID, it.ProductID, it.Quantity, err)
			continue
		}
		// A timed-out decrement may still have been applied upstream. It is not
		// in done, so compensation does not restock it.
		log.Printf("[saga] op=place user=%d step=decrement product=%d qty=%d err=%v", userID, it.ProductID, it.Quantity, err)
		return done, fmt.Errorf("%w: product %d: %v", ErrStockUpdateFailed, it.ProductID, err)
	}
	return done, nil
}

// compensatePlacement refunds the debit and puts back the stock that was
// taken. The discount flag is left as is.
func (s *Service) compensatePlacement(ctx context.Context, userID, amount int64, decremented []Item) {
	err := s.call(ctx, func(ctx context.Context) error { return s.wallets.Credit(ctx, userID, amount) })
	s.metrics.Compensation("refund", err)
	if err != nil {
		log.Printf("[saga] op=place user=%d step=compensate-refund amount=%d err=%v", userID, amount, err)
	}
	s.restock(ctx, "place", decremented)
}

// restock increments stock for each item and returns the number of failures.
func (s *Service) restock(ctx context.Context, op string, items []Item) int {
	failed := 0
	for _, it := range items {
		err := s.call(ctx, func(ctx context.Context) error {
			return s.inventory.IncrementStock(ctx, it.ProductID, it.Quantity)
		})
		s.metrics.Compensation("restock", err)
		if err != nil {
			failed++
			log.Printf("[saga] op=%s step=restock product=%d qty=%d err=%v", op, it.ProductID, it.Quantity, err)
		}
	}
	return failed
}

// UpdateStatus accepts only DELIVERED as a target, for a placed order whose
// id matches the path.
func (s *Service) UpdateStatus(ctx context.Context, id int64, req StatusUpdateRequest) (*Order, error) {
	o, err := s.deliver(ctx, id, req)
	s.metrics.Outcome("deliver", outcomeOf(err))
	return o, err
}

func (s *Service) deliver(ctx context.Context, id int64, req StatusUpdateRequest) (*Order, error) {
	if int64(req.OrderID) != id {
		return nil, ErrOrderIDMismatch
	}
	if req.Status != StatusDelivered {
		return nil, ErrUnsupportedStatus
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Transition(StatusDelivered); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusPlaced, StatusDelivered); err != nil {
		return nil, err
	}
	s.publish(ctx, events.OrderDelivered, o)
	return o, nil
}

// Cancel marks a placed order cancelled, then refunds it and restores its
// stock. The order stays cancelled when the refund fails; the returned
// error wraps ErrRefundFailed in that case.
func (s *Service) Cancel(ctx context.Context, id int64) (*Order, error) {
	o, err := s.cancel(ctx, id)
	s.metrics.Outcome("cancel", outcomeOf(err))
	return o, err
}

func (s *Service) cancel(ctx context.Context, id int64) (*Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := o.Transition(StatusCancelled); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, StatusPlaced, StatusCancelled); err != nil {
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	refundErr := s.call(ctx, func(ctx context.Context) error { return s.wallets.Credit(ctx, o.UserID, o.TotalPrice) })
	s.metrics.Compensation("refund", refundErr)
	if refundErr != nil {
		log.Printf("[saga] op=cancel order=%d user=%d step=refund amount=%d err=%v", o.ID, o.UserID, o.TotalPrice, refundErr)
	}
	s.restock(ctx, "cancel", o.Items)
	s.publish(ctx, events.OrderCancelled, o)

	if refundErr != nil {
		return o, fmt.Errorf("%w: %v", ErrRefundFailed, refundErr)
	}
	return o, nil
}

// CancelUser cancels every placed order of one user and refunds their sum
// with a single credit. ErrNotFound means the user has no orders at all,
// ErrNothingToCancel that none of them is placed.
func (s *Service) CancelUser(ctx context.Context, userID int64) (*CancelSummary, error) {
	sum, err := s.cancelUser(ctx, userID)
	s.metrics.Outcome("cancel_user", outcomeOf(err))
	return sum, err
}

func (s *Service) cancelUser(ctx context.Context, userID int64) (*CancelSummary, error) {
	orders, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, ErrNotFound
	}

	ctx = context.WithoutCancel(ctx)
	cancelled, refunds, items := s.cancelPlaced(ctx, "cancel_user", orders)
	if len(cancelled) == 0 {
		return nil, ErrNothingToCancel
	}
	return s.settle(ctx, "cancel_user", cancelled, refunds, items), nil
}

// CancelAll cancels every placed order in the system. Each user gets one
// credit for the sum of their orders. Failed credits are logged and
// reported in the summary; the sweep itself always succeeds.
func (s *Service) CancelAll(ctx context.Context) (*CancelSummary, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		s.metrics.Outcome("cancel_all", outcomeOf(err))
		return nil, err
	}

	ctx = context.WithoutCancel(ctx)
	cancelled, refunds, items := s.cancelPlaced(ctx, "cancel_all", orders)
	sum := s.settle(ctx, "cancel_all", cancelled, refunds, items)
	s.metrics.Outcome("cancel_all", outcomeOf(nil))
	return sum, nil
}

// cancelPlaced persists the CANCELLED status of every placed order and
// gathers the refund per user and the items to restock. An order whose
// guarded update fails is skipped.
func (s *Service) cancelPlaced(ctx context.Context, op string, orders []Order) ([]Order, map[int64]int64, []Item) {
	var cancelled []Order
	refunds := map[int64]int64{}
	var items []Item
	for _, o := range orders {
		if o.Status != StatusPlaced {
			continue
		}
		if err := s.repo.UpdateStatus(ctx, o.ID, StatusPlaced, StatusCancelled); err != nil {
			log.Printf("[saga] op=%s order=%d step=mark-cancelled err=%v (skipped)", op, o.ID, err)
			continue
		}
		o.Status = StatusCancelled
		cancelled = append(cancelled, o)
		refunds[o.UserID] += o.TotalPrice
		items = append(items, o.Items...)
	}
	return cancelled, refunds, items
}

// settle issues one credit per user, in user id order, then restores stock
// and publishes the cancellations.
func (s *Service) settle(ctx context.Context, op string, cancelled []Order, refunds map[int64]int64, items []Item) *CancelSummary {
	sum := &CancelSummary{Cancelled: make([]int64, 0, len(cancelled)), Refunds: refunds}
	for _, o := range cancelled {
		sum.Cancelled = append(sum.Cancelled, o.ID)
	}

	users := make([]int64, 0, len(refunds))
	for u := range refunds {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })

	for _, u := range users {
		amount := refunds[u]
		err := s.call(ctx, func(ctx context.Context) error { return s.wallets.Credit(ctx, u, amount) })
		s.metrics.Compensation("refund", err)
		if err != nil {
			sum.FailedRefunds = append(sum.FailedRefunds, u)
			log.Printf("[saga] op=%s user=%d step=refund amount=%d err=%v", op, u, amount, err)
		}
	}

	sum.FailedRestocks = s.restock(ctx, op, items)
	for i := range cancelled {
		s.publish(ctx, events.OrderCancelled, &cancelled[i])
	}
	log.Printf("[saga] op=%s cancelled=%d users=%d failed_refunds=%d failed_restocks=%d",
		op, len(sum.Cancelled), len(users), len(sum.FailedRefunds), sum.FailedRestocks)
	return sum
}

func (s *Service) publish(ctx context.Context, typ string, o *Order) {
	ev := events.OrderEvent{
		Type:       typ,
		OrderID:    o.ID,
		UserID:     o.UserID,
		TotalPrice: o.TotalPrice,
		Status:     string(o.Status),
		At:         time.Now().UTC(),
	}
	err := s.call(context.WithoutCancel(ctx), func(ctx context.Context) error {
		return s.events.Publish(ctx, fmt.Sprint(o.UserID), ev)
	})
	if err != nil {
		log.Printf("[saga] event=%s order=%d publish err=%v", typ, o.ID, err)
	}
}

func toItems(in []CreateOrderItem) []Item {
	out := make([]Item, len(in))
	for i, it := range in {
		out[i] = Item{ProductID: it.ProductID, Quantity: it.Quantity}
	}
	return out
}

// outcomeOf labels a saga result for metrics: ok, rejected (caller or
// business error) or failed (dependency or storage error).
func outcomeOf(err error) string {
	if err == nil {
		return "ok"
	}
	for _, target := range []error{
		ErrNotFound, ErrNotPlaced, ErrUnsupportedStatus, ErrOrderIDMismatch, ErrNothingToCancel,
		ErrNoItems, ErrInvalidQuantity, ErrCustomerNotFound, ErrProductUnavailable, ErrInsufficientFunds,
	} {
		if errors.Is(err, target) {
			return "rejected"
		}
	}
	return "failed"
}
