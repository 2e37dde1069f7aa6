// model/book.go
package model

import (
	"regexp"
	"strings"
	"time"
)

type Book struct {
	ID              int64      `json:"id"`
	Title           string     `json:"title"`
	AuthorID        int64      `json:"author_id"`
	ISBN            string     `json:"isbn"`
	Genre           string     `json:"genre"`
	PublicationDate *time.Time `json:"publication_date,omitempty"`
	Available       bool       `json:"available"`
	Description     *string    `json:"description,omitempty"`
	Pages           *int       `json:"pages,omitempty"`
	Language        string     `json:"language"`
	Publisher       *string    `json:"publisher,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

var (
	isbn10Re = regexp.MustCompile(`^(?:\d{9}X|\d{10})$`)
	isbn13Re = regexp.MustCompile(`^97[89]\d{10}$`)
)

// NormalizeISBN strips hyphens and spaces; books store the bare digits.
func NormalizeISBN(isbn string) string {
	return strings.NewReplacer("-", "", " ", "").Replace(strings.TrimSpace(isbn))
}

// ValidISBN accepts normalized ISBN-10 or ISBN-13 strings.
func ValidISBN(isbn string) bool {
	return isbn10Re.MatchString(isbn) || isbn13Re.MatchString(isbn)
}
