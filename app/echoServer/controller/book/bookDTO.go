package book

import (
	"time"

	"github.com/AyomideKayode/book-library-API/model"
)

// CreateBookReq represents book creation payload
// swagger:model CreateBookReq
type CreateBookReq struct {
	Title           string     `json:"title" validate:"required"`
	AuthorID        int64      `json:"authorId" validate:"required,gt=0"`
	ISBN            string     `json:"isbn" validate:"required"`
	Genre           string     `json:"genre" validate:"required"`
	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Pages           *int       `json:"pages,omitempty" validate:"omitempty,gt=0"`
	Language        string     `json:"language,omitempty"`
	Publisher       *string    `json:"publisher,omitempty"`
}

func (r CreateBookReq) toModel() *model.Book {
	return &model.Book{
		Title:           r.Title,
		AuthorID:        r.AuthorID,
		ISBN:            r.ISBN,
		Genre:           r.Genre,
		PublicationDate: r.PublicationDate,
		Available:       true,
		Description:     r.Description,
		Pages:           r.Pages,
		Language:        r.Language,
		Publisher:       r.Publisher,
	}
}

// UpdateBookReq represents book update payload
// swagger:model UpdateBookReq
type UpdateBookReq struct {
	Title           string     `json:"title" validate:"required"`
	AuthorID        int64      `json:"authorId" validate:"required,gt=0"`
	ISBN            string     `json:"isbn" validate:"required"`
	Genre           string     `json:"genre" validate:"required"`
	PublicationDate *time.Time `json:"publicationDate,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Pages           *int       `json:"pages,omitempty" validate:"omitempty,gt=0"`
	Language        string     `json:"language,omitempty"`
	Publisher       *string    `json:"publisher,omitempty"`
}
