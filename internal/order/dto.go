package order

import (
	"bytes"
	"encoding/json"
	"strconv"
)

type CreateOrderItem struct {
	ProductID int64 `json:"product_id" binding:"required"`
	// Quantity is checked by the placement saga so callers get its error message.
	Quantity int `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID int64             `json:"user_id" binding:"required"`
	Items  []CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

// FlexID accepts an id sent either as a JSON number or as a quoted string.
type FlexID int64

func (f *FlexID) UnmarshalJSON(b []byte) error {
	b = bytes.Trim(b, `"`)
	n, err := strconv.ParseInt(string(b), 10, 64)
	if err != nil {
		return err
	}
	*f = FlexID(n)
	return nil
}

func (f FlexID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(f))
}

type StatusUpdateRequest struct {
	OrderID FlexID `json:"order_id" binding:"required" swaggertype:"integer"`
	Status  Status `json:"status" binding:"required" swaggertype:"string" enums:"DELIVERED"`
}

// CancelSummary reports what a bulk cancellation did.
type CancelSummary struct {
	Cancelled []int64 `json:"cancelled"`
	// Refunds maps user id to the amount credited back.
	Refunds        map[int64]int64 `json:"refunds"`
	FailedRefunds  []int64         `json:"failed_refunds,omitempty"`
	FailedRestocks int             `json:"failed_restocks"`
}
