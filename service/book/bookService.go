package booksvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AyomideKayode/book-library-API/model"
	bookrepo "github.com/AyomideKayode/book-library-API/repository/book"
)

type ErrCode string

const (
	ErrNotFound       ErrCode = "BOOK_NOT_FOUND"
	ErrAuthorNotFound ErrCode = "AUTHOR_NOT_FOUND"
	ErrInvalidISBN    ErrCode = "INVALID_ISBN"
	ErrISBNTaken      ErrCode = "ISBN_TAKEN"
	ErrHasOpenBorrows ErrCode = "HAS_OPEN_BORROWS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Filter = bookrepo.Filter

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f Filter) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	AuthorExists(ctx context.Context, authorID int64) (bool, error)
	HasOpenBorrows(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f Filter) ([]model.Book, model.Pagination, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, b *model.Book) error {
	b.ISBN = model.NormalizeISBN(b.ISBN)
	if !model.ValidISBN(b.ISBN) {
		return makeErr(ErrInvalidISBN)
	}
	ok, err := s.r.AuthorExists(ctx, b.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrAuthorNotFound)
	}
	if b.Language == "" {
		b.Language = "English"
	}
	if err := s.r.Create(ctx, b); err != nil {
		if isUniqueViolation(err) {
			return makeErr(ErrISBNTaken)
		}
		return err
	}
	return nil
}

func (s *service) ByID(ctx context.Context, id int64) (*model.Book, error) {
	b, err := s.r.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return b, err
}

func (s *service) List(ctx context.Context, f Filter) ([]model.Book, model.Pagination, error) {
	books, total, err := s.r.List(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	page, limit := model.NormalizePage(f.Page, f.Limit)
	return books, model.NewPagination(page, limit, total), nil
}

func (s *service) Update(ctx context.Context, b *model.Book) error {
	b.ISBN = model.NormalizeISBN(b.ISBN)
	if !model.ValidISBN(b.ISBN) {
		return makeErr(ErrInvalidISBN)
	}
	ok, err := s.r.AuthorExists(ctx, b.AuthorID)
	if err != nil {
		return err
	}
	if !ok {
		return makeErr(ErrAuthorNotFound)
	}
	if err := s.r.Update(ctx, b); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		if isUniqueViolation(err) {
			return makeErr(ErrISBNTaken)
		}
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	open, err := s.r.HasOpenBorrows(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return makeErr(ErrHasOpenBorrows)
	}
	if err := s.r.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		return err
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
