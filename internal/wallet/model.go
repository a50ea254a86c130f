package wallet

import "time"

type Wallet struct {
	UserID    int64     `json:"user_id"`
	Balance   int64     `json:"balance"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Action string

const (
	ActionDebit  Action = "debit"
	ActionCredit Action = "credit"
)

// UpdateRequest payload of PUT /wallets/{user_id}.
// swagger:model UpdateRequest
type UpdateRequest struct {
	Action Action `json:"action" binding:"required,oneof=debit credit" example:"credit"`
	Amount int64  `json:"amount" binding:"gte=0"                       example:"100"`
}
