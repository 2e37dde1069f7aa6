package author

import (
	"time"

	"github.com/AyomideKayode/book-library-API/model"
)

// AuthorReq represents author create/update payload
// swagger:model AuthorReq
type AuthorReq struct {
	Name      string     `json:"name" validate:"required"`
	Email     string     `json:"email" validate:"required,email"`
	Biography *string    `json:"biography,omitempty"`
	BirthDate *time.Time `json:"birthDate,omitempty"`
}

func (r AuthorReq) toModel() *model.Author {
	return &model.Author{
		Name:      r.Name,
		Email:     r.Email,
		Biography: r.Biography,
		BirthDate: r.BirthDate,
	}
}
