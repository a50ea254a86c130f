// Package userpb is the RPC contract of the customer directory. Messages are
// plain structs carried by the "json" codec registered in codec.go.
package userpb

type Customer struct {
	Id              int64  `json:"id"`
	Name            string `json:"name"`
	Email           string `json:"email"`
	DiscountAvailed bool   `json:"discount_availed"`
}

func (x *Customer) GetId() int64 {
	if x == nil {
		return 0
	}
	return x.Id
}

func (x *Customer) GetDiscountAvailed() bool {
	if x == nil {
		return false
	}
	return x.DiscountAvailed
}

type CreateCustomerRequest struct {
	Id    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type GetCustomerRequest struct {
	Id int64 `json:"id"`
}

func (x *GetCustomerRequest) GetId() int64 {
	if x == nil {
		return 0
	}
	return x.Id
}

type CustomerResponse struct {
	Customer *Customer `json:"customer"`
}

func (x *CustomerResponse) GetCustomer() *Customer {
	if x == nil {
		return nil
	}
	return x.Customer
}

type SetDiscountAvailedRequest struct {
	Id      int64 `json:"id"`
	Availed bool  `json:"availed"`
}

type DeleteCustomerRequest struct {
	Id int64 `json:"id"`
}

type DeleteCustomerResponse struct {
	Deleted bool `json:"deleted"`
}
