package order

import "time"

type Status string

const (
	StatusPlaced    Status = "PLACED"
	StatusDelivered Status = "DELIVERED"
	StatusCancelled Status = "CANCELLED"
)

// transitions lists the statuses reachable from each status. Terminal
// statuses have no entry.
var transitions = map[Status][]Status{
	StatusPlaced: {StatusDelivered, StatusCancelled},
}

func (s Status) CanTransitionTo(to Status) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Order struct {
	ID         int64     `json:"order_id"`
	UserID     int64     `json:"user_id"`
	Status     Status    `json:"status"`
	TotalPrice int64     `json:"total_price"`
	Items      []Item    `json:"items"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Item struct {
	ID        int64 `json:"id"`
	OrderID   int64 `json:"-"`
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// Transition moves the order to the given status in memory. Only placed
// orders can move, and only to DELIVERED or CANCELLED.
func (o *Order) Transition(to Status) error {
	if o.Status != StatusPlaced {
		return ErrNotPlaced
	}
	if !o.Status.CanTransitionTo(to) {
		return ErrUnsupportedStatus
	}
	o.Status = to
	return nil
}
