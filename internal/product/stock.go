package product

import (
	"context"
	"fmt"
)

// ApplyStock runs one stock action and returns the product as stored afterwards.
// A decrement that matches no row yields ErrInsufficientStock; the caller cannot
// tell a missing product from a short one. An increment that matches no row
// yields ErrNotFound.
func ApplyStock(ctx context.Context, repo Repository, id int64, req StockRequest) (*Product, error) {
	if req.Quantity <= 0 {
		return nil, fmt.Errorf("quantity must be positive, got %d", req.Quantity)
	}

	var (
		n   int64
		err error
	)
	switch req.Action {
	case ActionDecrement:
		n, err = repo.DecrementStock(ctx, id, req.Quantity)
		if err == nil && n == 0 {
			return nil, ErrInsufficientStock
		}
	case ActionIncrement:
		n, err = repo.IncrementStock(ctx, id, req.Quantity)
		if err == nil && n == 0 {
			return nil, ErrNotFound
		}
	default:
		return nil, fmt.Errorf("unknown stock action %q", req.Action)
	}
	if err != nil {
		return nil, err
	}
	return repo.GetByID(ctx, id)
}
