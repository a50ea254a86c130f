package user

// CreateRequest payload of POST /users.
// swagger:model CreateRequest
type CreateRequest struct {
	ID    int64  `json:"id"    binding:"required,gt=0"     example:"201"`
	Name  string `json:"name"  binding:"required"          example:"Alice"`
	Email string `json:"email" binding:"required,email"    example:"alice@example.com"`
}
