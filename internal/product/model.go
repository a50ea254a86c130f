package product

import "time"

type Product struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock_quantity"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CreateProductRequest payload of creation.
// swagger:model CreateProductRequest
type CreateProductRequest struct {
	ID          int64  `json:"id"             binding:"required,gt=0" example:"101"`
	Name        string `json:"name"           binding:"required"      example:"Mechanical Keyboard"`
	Description string `json:"description"                            example:"RGB 60%"`
	Price       int64  `json:"price"          binding:"gte=0"         example:"199"`
	Stock       int    `json:"stock_quantity" binding:"gte=0"         example:"10"`
}

type StockAction string

const (
	ActionDecrement StockAction = "decrement"
	ActionIncrement StockAction = "increment"
)

// StockRequest adjusts stock_quantity by quantity.
// swagger:model StockRequest
type StockRequest struct {
	Action   StockAction `json:"action"   binding:"required,oneof=decrement increment" example:"decrement"`
	Quantity int         `json:"quantity" binding:"required,gt=0"                      example:"2"`
}
