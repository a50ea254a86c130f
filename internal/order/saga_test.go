package order

import (
	"context"
	"io"
	"log"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"github.com/MikeMC777/checkout-saga/internal/events"
	"github.com/MikeMC777/checkout-saga/internal/metrics"
)

func init() { log.SetOutput(io.Discard) }

const (
	alice int64 = 1
	bob   int64 = 2

	productA int64 = 10
	productB int64 = 11
)

type SagaTestSuite struct {
	suite.Suite
	ctx       context.Context
	repo      *memRepo
	customers *fakeCustomers
	wallets   *fakeWallets
	inventory *fakeInventory
	events    *recordingPublisher
	metrics   *metrics.SagaMetrics
	svc       *Service
}

func (s *SagaTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo = newMemRepo()
	s.customers = newFakeCustomers(Customer{ID: alice}, Customer{ID: bob})
	s.wallets = newFakeWallets(map[int64]int64{alice: 100, bob: 100})
	s.inventory = newFakeInventory(
		ProductDTO{ID: productA, Name: "A", Price: 50, Stock: 2},
		ProductDTO{ID: productB, Name: "B", Price: 20, Stock: 5},
	)
	s.events = &recordingPublisher{}
	s.metrics = metrics.NewSagaMetrics(prometheus.NewRegistry())
	s.svc = s.newService(Options{StrictStock: true, CallTimeout: time.Second})
}

func (s *SagaTestSuite) newService(opts Options) *Service {
	return NewService(Deps{
		Repo:      s.repo,
		Customers: s.customers,
		Wallets:   s.wallets,
		Inventory: s.inventory,
		Events:    s.events,
		Metrics:   s.metrics,
	}, opts)
}

func order(user int64, items ...CreateOrderItem) CreateOrderRequest {
	return CreateOrderRequest{UserID: user, Items: items}
}

func item(product int64, qty int) CreateOrderItem {
	return CreateOrderItem{ProductID: product, Quantity: qty}
}

func (s *SagaTestSuite) TestPlace_FirstOrderGetsDiscount() {
	o, err := s.svc.Place(s.ctx, order(alice, item(productA, 2)))
	s.Require().NoError(err)

	s.Equal(StatusPlaced, o.Status)
	s.EqualValues(90, o.TotalPrice)
	s.NotZero(o.ID)
	s.Len(o.Items, 1)
	s.EqualValues(10, s.wallets.balance(alice))
	s.Equal(0, s.inventory.stock(productA))
	s.True(s.customers.availed(alice))
	s.Equal([]string{events.OrderPlaced}, s.events.types())
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Outcomes.WithLabelValues("place", "ok")))

	stored, err := s.svc.Get(s.ctx, o.ID)
	s.Require().NoError(err)
	s.Equal(o.TotalPrice, stored.TotalPrice)
}

func (s *SagaTestSuite) TestPlace_DiscountUsedOnlyOnce() {
	s.wallets.balances[alice] = 1000

	first, err := s.svc.Place(s.ctx, order(alice, item(productB, 1)))
	s.Require().NoError(err)
	s.EqualValues(18, first.TotalPrice)

	second, err := s.svc.Place(s.ctx, order(alice, item(productB, 1)))
	s.Require().NoError(err)
	s.EqualValues(20, second.TotalPrice)
	s.True(s.customers.availed(alice))
	s.Equal([]int64{alice}, s.customers.marked)
}

func (s *SagaTestSuite) TestPlace_DiscountTruncates() {
	s.inventory.products[productB].Price = 15

	o, err := s.svc.Place(s.ctx, order(alice, item(productB, 1)))
	s.Require().NoError(err)
	s.EqualValues(13, o.TotalPrice)
}

func (s *SagaTestSuite) TestPlace_BalanceMustCoverExactCost() {
	s.inventory.products[productB].Price = 15
	s.wallets.balances[alice] = 13

	// 0.9*15 = 13.5 is more than 13 even though 13 would be debited.
	_, err := s.svc.Place(s.ctx, order(alice, item(productB, 1)))
	s.ErrorIs(err, ErrInsufficientFunds)
	s.EqualValues(13, s.wallets.balance(alice))
	s.Equal(5, s.inventory.stock(productB))
	s.False(s.customers.availed(alice))
	s.Empty(s.repo.orders)

	s.wallets.balances[alice] = 14
	o, err := s.svc.Place(s.ctx, order(alice, item(productB, 1)))
	s.Require().NoError(err)
	s.EqualValues(13, o.TotalPrice)
	s.EqualValues(1, s.wallets.balance(alice))
}

func (s *SagaTestSuite) TestPlace_InsufficientStockHasNoSideEffects() {
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 3)))
	s.ErrorIs(err, ErrProductUnavailable)
	s.Contains(err.Error(), "insufficient stock")

	s.EqualValues(100, s.wallets.balance(alice))
	s.Equal(2, s.inventory.stock(productA))
	s.False(s.customers.availed(alice))
	s.Empty(s.wallets.creditLog())
	s.Empty(s.repo.orders)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Outcomes.WithLabelValues("place", "rejected")))
}

func (s *SagaTestSuite) TestPlace_RejectsBadInput() {
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 1), item(productB, 0)))
	s.ErrorIs(err, ErrInvalidQuantity)

	_, err = s.svc.Place(s.ctx, order(alice))
	s.ErrorIs(err, ErrNoItems)

	_, err = s.svc.Place(s.ctx, order(alice, item(99, 1)))
	s.ErrorIs(err, ErrProductUnavailable)

	s.EqualValues(100, s.wallets.balance(alice))
}

func (s *SagaTestSuite) TestPlace_CustomerNotFoundVersusUnavailable() {
	_, err := s.svc.Place(s.ctx, order(42, item(productA, 1)))
	s.ErrorIs(err, ErrCustomerNotFound)

	s.customers.getErr = ErrRemoteUnavailable
	_, err = s.svc.Place(s.ctx, order(alice, item(productA, 1)))
	s.ErrorIs(err, ErrCustomerUnavailable)
	s.NotErrorIs(err, ErrCustomerNotFound)
}

func (s *SagaTestSuite) TestPlace_Balance() {
	s.wallets.balances[alice] = 89
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 2)))
	s.ErrorIs(err, ErrInsufficientFunds)
	s.Equal(2, s.inventory.stock(productA))

	// No wallet yet reads as an empty one.
	s.customers.items[7] = &Customer{ID: 7}
	_, err = s.svc.Place(s.ctx, order(7, item(productA, 1)))
	s.ErrorIs(err, ErrInsufficientFunds)

	s.wallets.balanceErr = ErrRemoteUnavailable
	_, err = s.svc.Place(s.ctx, order(alice, item(productA, 1)))
	s.ErrorIs(err, ErrWalletUnavailable)
}

func (s *SagaTestSuite) TestPlace_DebitFailureAbortsWithoutCompensation() {
	s.wallets.debitErr = ErrRemoteUnavailable
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 1)))
	s.ErrorIs(err, ErrPaymentFailed)
	s.Equal(2, s.inventory.stock(productA))
	s.Empty(s.wallets.creditLog())
}

func (s *SagaTestSuite) TestPlace_DiscountFlagFailureIsNotFatal() {
	s.customers.markErr = ErrRemoteUnavailable
	o, err := s.svc.Place(s.ctx, order(alice, item(productA, 2)))
	s.Require().NoError(err)
	s.EqualValues(90, o.TotalPrice)
	s.False(s.customers.availed(alice))
}

func (s *SagaTestSuite) TestPlace_StrictCompensatesLostDecrement() {
	// Another order drains B between the price check and the decrement.
	s.inventory.beforeDecrement = func(id int64) {
		if id == productB {
			s.inventory.setStock(productB, 0)
		}
	}

	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 1), item(productB, 1)))
	s.ErrorIs(err, ErrStockUpdateFailed)

	s.EqualValues(100, s.wallets.balance(alice))
	s.Equal(2, s.inventory.stock(productA))
	s.Equal([]credit{{alice, 63}}, s.wallets.creditLog())
	s.Empty(s.repo.orders)
	s.False(s.customers.availed(alice))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("refund", "ok")))
}

func (s *SagaTestSuite) TestPlace_LenientIgnoresLostDecrement() {
	svc := s.newService(Options{StrictStock: false, CallTimeout: time.Second})
	s.inventory.beforeDecrement = func(id int64) {
		if id == productB {
			s.inventory.setStock(productB, 0)
		}
	}

	o, err := svc.Place(s.ctx, order(alice, item(productA, 1), item(productB, 1)))
	s.Require().NoError(err)
	s.EqualValues(63, o.TotalPrice)
	s.EqualValues(37, s.wallets.balance(alice))
	s.Equal(1, s.inventory.stock(productA))
	s.Equal(0, s.inventory.stock(productB))
	s.Empty(s.wallets.creditLog())
}

func (s *SagaTestSuite) TestPlace_PersistFailure() {
	s.repo.createErr = errBoom
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 2)))
	s.ErrorIs(err, errBoom)
	s.EqualValues(100, s.wallets.balance(alice))
	s.Equal(2, s.inventory.stock(productA))

	lenient := s.newService(Options{StrictStock: false, CallTimeout: time.Second})
	_, err = lenient.Place(s.ctx, order(bob, item(productB, 1)))
	s.ErrorIs(err, errBoom)
	s.EqualValues(82, s.wallets.balance(bob))
	s.Equal(4, s.inventory.stock(productB))
}

func (s *SagaTestSuite) TestPlace_CallTimeoutFailsStep() {
	svc := s.newService(Options{StrictStock: true, CallTimeout: 20 * time.Millisecond})
	s.inventory.block = true

	start := time.Now()
	_, err := svc.Place(s.ctx, order(alice, item(productA, 1)))
	s.ErrorIs(err, ErrInventoryUnavailable)
	s.Less(time.Since(start), time.Second)
	s.EqualValues(100, s.wallets.balance(alice))
}

func (s *SagaTestSuite) TestPlace_UnknownDecrementOutcomeIsNotRestocked() {
	s.inventory.lostReply = true

	_, err := s.svc.Place(s.ctx, order(alice, item(productB, 2)))
	s.ErrorIs(err, ErrStockUpdateFailed)
	s.EqualValues(100, s.wallets.balance(alice))
	// The decrement landed upstream but was never confirmed.
	s.Equal(3, s.inventory.stock(productB))
	s.Empty(s.repo.orders)
}

func (s *SagaTestSuite) TestPlace_ConcurrentOrdersForLastUnits() {
	for round := 0; round < 20; round++ {
		s.SetupTest()
		s.wallets.balances[alice] = 1000
		s.wallets.balances[bob] = 1000

		var wg sync.WaitGroup
		results := make([]error, 2)
		for i, user := range []int64{alice, bob} {
			wg.Add(1)
			go func(i int, user int64) {
				defer wg.Done()
				_, results[i] = s.svc.Place(s.ctx, order(user, item(productA, 2)))
			}(i, user)
		}
		wg.Wait()

		ok := 0
		for _, err := range results {
			if err == nil {
				ok++
			}
		}
		s.Equal(1, ok, "round %d: %v", round, results)
		s.Equal(0, s.inventory.stock(productA))
		s.Len(s.repo.orders, 1)
		s.EqualValues(2000-90, s.wallets.balance(alice)+s.wallets.balance(bob))
	}
}

func (s *SagaTestSuite) TestCancel_RefundsAndRestocks() {
	id := s.repo.put(Order{UserID: alice, TotalPrice: 90, Items: []Item{
		{ProductID: productA, Quantity: 1},
		{ProductID: productB, Quantity: 1},
	}})

	o, err := s.svc.Cancel(s.ctx, id)
	s.Require().NoError(err)
	s.Equal(StatusCancelled, o.Status)

	stored, _ := s.repo.GetByID(s.ctx, id)
	s.Equal(StatusCancelled, stored.Status)
	s.Equal([]credit{{alice, 90}}, s.wallets.creditLog())
	s.Equal(3, s.inventory.stock(productA))
	s.Equal(6, s.inventory.stock(productB))
	s.Equal([]string{events.OrderCancelled}, s.events.types())
}

func (s *SagaTestSuite) TestCancel_NotPlacedHasNoSideEffects() {
	id := s.repo.put(Order{UserID: alice, TotalPrice: 90, Status: StatusDelivered,
		Items: []Item{{ProductID: productA, Quantity: 1}}})

	_, err := s.svc.Cancel(s.ctx, id)
	s.ErrorIs(err, ErrNotPlaced)
	s.Empty(s.wallets.creditLog())
	s.Equal(2, s.inventory.stock(productA))

	_, err = s.svc.Cancel(s.ctx, 999)
	s.ErrorIs(err, ErrNotFound)
}

func (s *SagaTestSuite) TestCancel_TwiceRefundsOnce() {
	id := s.repo.put(Order{UserID: alice, TotalPrice: 40, Items: []Item{{ProductID: productB, Quantity: 2}}})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = s.svc.Cancel(s.ctx, id)
		}()
	}
	wg.Wait()

	s.Equal([]credit{{alice, 40}}, s.wallets.creditLog())
	s.Equal(7, s.inventory.stock(productB))
}

func (s *SagaTestSuite) TestCancel_RefundFailureKeepsCancellation() {
	id := s.repo.put(Order{UserID: alice, TotalPrice: 50, Items: []Item{{ProductID: productA, Quantity: 1}}})
	s.wallets.creditErr[alice] = ErrRemoteUnavailable

	o, err := s.svc.Cancel(s.ctx, id)
	s.ErrorIs(err, ErrRefundFailed)
	s.Require().NotNil(o)
	s.Equal(StatusCancelled, o.Status)

	stored, _ := s.repo.GetByID(s.ctx, id)
	s.Equal(StatusCancelled, stored.Status)
	s.Equal(3, s.inventory.stock(productA))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.Compensations.WithLabelValues("refund", "failed")))
}

func (s *SagaTestSuite) TestCancelUser_OneCreditForAllOrders() {
	s.repo.put(Order{UserID: alice, TotalPrice: 30, Items: []Item{{ProductID: productA, Quantity: 1}}})
	s.repo.put(Order{UserID: alice, TotalPrice: 45, Items: []Item{{ProductID: productB, Quantity: 2}}})
	delivered := s.repo.put(Order{UserID: alice, TotalPrice: 99, Status: StatusDelivered,
		Items: []Item{{ProductID: productB, Quantity: 1}}})
	other := s.repo.put(Order{UserID: bob, TotalPrice: 10, Items: []Item{{ProductID: productB, Quantity: 1}}})

	sum, err := s.svc.CancelUser(s.ctx, alice)
	s.Require().NoError(err)
	s.Len(sum.Cancelled, 2)
	s.Equal(map[int64]int64{alice: 75}, sum.Refunds)
	s.Equal([]credit{{alice, 75}}, s.wallets.creditLog())
	s.Equal(3, s.inventory.stock(productA))
	s.Equal(7, s.inventory.stock(productB))

	d, _ := s.repo.GetByID(s.ctx, delivered)
	s.Equal(StatusDelivered, d.Status)
	b, _ := s.repo.GetByID(s.ctx, other)
	s.Equal(StatusPlaced, b.Status)
}

func (s *SagaTestSuite) TestCancelUser_NothingToCancel() {
	_, err := s.svc.CancelUser(s.ctx, alice)
	s.ErrorIs(err, ErrNotFound)

	s.repo.put(Order{UserID: alice, TotalPrice: 30, Status: StatusCancelled})
	_, err = s.svc.CancelUser(s.ctx, alice)
	s.ErrorIs(err, ErrNothingToCancel)
	s.Empty(s.wallets.creditLog())
}

func (s *SagaTestSuite) TestCancelAll_OneCreditPerUser() {
	s.repo.put(Order{UserID: bob, TotalPrice: 10, Items: []Item{{ProductID: productB, Quantity: 1}}})
	s.repo.put(Order{UserID: alice, TotalPrice: 30, Items: []Item{{ProductID: productA, Quantity: 1}}})
	s.repo.put(Order{UserID: alice, TotalPrice: 45, Items: []Item{{ProductID: productB, Quantity: 2}}})
	s.repo.put(Order{UserID: bob, TotalPrice: 20, Status: StatusDelivered})

	sum, err := s.svc.CancelAll(s.ctx)
	s.Require().NoError(err)
	s.Len(sum.Cancelled, 3)
	s.Equal([]credit{{alice, 75}, {bob, 10}}, s.wallets.creditLog())
	s.Equal(3, s.inventory.stock(productA))
	s.Equal(8, s.inventory.stock(productB))
	s.Empty(sum.FailedRefunds)
}

func (s *SagaTestSuite) TestCancelAll_SucceedsDespiteFailedCredit() {
	s.repo.put(Order{UserID: alice, TotalPrice: 30, Items: []Item{{ProductID: productA, Quantity: 1}}})
	s.repo.put(Order{UserID: bob, TotalPrice: 10, Items: []Item{{ProductID: productB, Quantity: 1}}})
	s.wallets.creditErr[alice] = ErrRemoteUnavailable

	sum, err := s.svc.CancelAll(s.ctx)
	s.Require().NoError(err)
	s.Equal([]int64{alice}, sum.FailedRefunds)
	s.Equal([]credit{{bob, 10}}, s.wallets.creditLog())

	orders, _ := s.svc.List(s.ctx)
	for _, o := range orders {
		s.Equal(StatusCancelled, o.Status)
	}
}

func (s *SagaTestSuite) TestUpdateStatus() {
	id := s.repo.put(Order{UserID: alice, TotalPrice: 30})

	_, err := s.svc.UpdateStatus(s.ctx, id, StatusUpdateRequest{OrderID: FlexID(id + 1), Status: StatusDelivered})
	s.ErrorIs(err, ErrOrderIDMismatch)

	_, err = s.svc.UpdateStatus(s.ctx, id, StatusUpdateRequest{OrderID: FlexID(id), Status: StatusCancelled})
	s.ErrorIs(err, ErrUnsupportedStatus)

	o, err := s.svc.UpdateStatus(s.ctx, id, StatusUpdateRequest{OrderID: FlexID(id), Status: StatusDelivered})
	s.Require().NoError(err)
	s.Equal(StatusDelivered, o.Status)

	_, err = s.svc.UpdateStatus(s.ctx, id, StatusUpdateRequest{OrderID: FlexID(id), Status: StatusDelivered})
	s.ErrorIs(err, ErrNotPlaced)

	_, err = s.svc.Cancel(s.ctx, id)
	s.ErrorIs(err, ErrNotPlaced)
	s.Empty(s.wallets.creditLog())
}

func (s *SagaTestSuite) TestPublishFailureDoesNotChangeOutcome() {
	s.events.err = errBoom
	_, err := s.svc.Place(s.ctx, order(alice, item(productA, 1)))
	s.NoError(err)
}

func TestSagaTestSuite(t *testing.T) {
	suite.Run(t, new(SagaTestSuite))
}
