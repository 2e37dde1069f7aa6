package user

import "github.com/AyomideKayode/book-library-API/model"

// UserReq represents member create/update payload
// swagger:model UserReq
type UserReq struct {
	Name   string  `json:"name" validate:"required"`
	Email  string  `json:"email" validate:"required,email"`
	Phone  *string `json:"phone,omitempty"`
	Status string  `json:"status,omitempty" validate:"omitempty,oneof=active inactive suspended"`
}

func (r UserReq) toModel() *model.User {
	return &model.User{
		Name:   r.Name,
		Email:  r.Email,
		Phone:  r.Phone,
		Status: model.UserStatus(r.Status),
	}
}
