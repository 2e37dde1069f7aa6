package authorsvc

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AyomideKayode/book-library-API/model"
	authorrepo "github.com/AyomideKayode/book-library-API/repository/author"
)

type ErrCode string

const (
	ErrNotFound   ErrCode = "AUTHOR_NOT_FOUND"
	ErrEmailTaken ErrCode = "EMAIL_TAKEN"
	ErrHasBooks   ErrCode = "AUTHOR_HAS_BOOKS"
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

type Filter = authorrepo.Filter

type Repo interface {
	Create(ctx context.Context, a *model.Author) error
	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, f Filter) ([]model.Author, int64, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
	HasBooks(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, a *model.Author) error
	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, f Filter) ([]model.Author, model.Pagination, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, a *model.Author) error {
	if err := s.r.Create(ctx, a); err != nil {
		if isUniqueViolation(err) {
			return makeErr(ErrEmailTaken)
		}
		return err
	}
	return nil
}

func (s *service) ByID(ctx context.Context, id int64) (*model.Author, error) {
	a, err := s.r.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return a, err
}

func (s *service) List(ctx context.Context, f Filter) ([]model.Author, model.Pagination, error) {
	authors, total, err := s.r.List(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	page, limit := model.NormalizePage(f.Page, f.Limit)
	return authors, model.NewPagination(page, limit, total), nil
}

func (s *service) Update(ctx context.Context, a *model.Author) error {
	if err := s.r.Update(ctx, a); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return makeErr(ErrNotFound)
		}
		if isUniqueViolation(err) {
			return makeErr(ErrEmailTaken)
		}
		return err
	}
	return nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	has, err := s.r.HasBooks(ctx, id)
	if err != nil {
		return err
	}
	if has {
		return makeErr(ErrHasBooks)
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
