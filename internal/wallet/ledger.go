package wallet

import (
	"context"
	"errors"
	"fmt"
	"log"
)

// Ledger applies debit and credit actions, creating the wallet on first use.
type Ledger struct {
	repo Repository
}

func NewLedger(repo Repository) *Ledger { return &Ledger{repo: repo} }

func (l *Ledger) Get(ctx context.Context, userID int64) (*Wallet, error) {
	return l.repo.Get(ctx, userID)
}

// getOrCreate is a lookup followed by an insert. Two first requests for the same
// user can both miss the lookup; the loser's insert hits the primary key and is
// treated as "already created". Nothing else serialises wallet creation.
func (l *Ledger) getOrCreate(ctx context.Context, userID int64) error {
	_, err := l.repo.Get(ctx, userID)
	if err == nil {
		return nil
	}
	if !errors.Is(err, ErrNotFound) {
		return err
	}
	created, err := l.repo.Insert(ctx, userID)
	if err != nil {
		return fmt.Errorf("create wallet %d: %w", userID, err)
	}
	if !created {
		log.Printf("[wallet] user=%d concurrent first use, wallet already created", userID)
	}
	return nil
}

func (l *Ledger) Apply(ctx context.Context, userID int64, req UpdateRequest) (*Wallet, error) {
	if req.Amount < 0 {
		return nil, fmt.Errorf("amount must not be negative, got %d", req.Amount)
	}
	if err := l.getOrCreate(ctx, userID); err != nil {
		return nil, err
	}

	switch req.Action {
	case ActionDebit:
		n, err := l.repo.Debit(ctx, userID, req.Amount)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, ErrInsufficientFunds
		}
	case ActionCredit:
		n, err := l.repo.Credit(ctx, userID, req.Amount)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			// wallet vanished between create and credit
			return nil, fmt.Errorf("failed to update balance, amount=%d user=%d", req.Amount, userID)
		}
	default:
		return nil, fmt.Errorf("unknown wallet action %q", req.Action)
	}
	return l.repo.Get(ctx, userID)
}

func (l *Ledger) Delete(ctx context.Context, userID int64) (bool, error) {
	return l.repo.Delete(ctx, userID)
}

func (l *Ledger) DeleteAll(ctx context.Context) error {
	return l.repo.DeleteAll(ctx)
}
