package usersvc

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AyomideKayode/book-library-API/model"
	userrepo "github.com/AyomideKayode/book-library-API/repository/user"
)

type ErrCode string

const (
	ErrNotFound     ErrCode = "USER_NOT_FOUND"
	ErrEmailTaken   ErrCode = "EMAIL_TAKEN"
	ErrHasOpenLoans ErrCode = "HAS_OPEN_LOANS"
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

type Filter = userrepo.Filter

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, f Filter) ([]model.User, int64, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int64) error
	HasOpenLoans(ctx context.Context, id int64) (bool, error)
}

type Service interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, f Filter) ([]model.User, model.Pagination, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int64) error
}

type service struct{ r Repo }

func New(r Repo) Service { return &service{r: r} }

func (s *service) Create(ctx context.Context, u *model.User) error {
	if u.Status == "" {
		u.Status = model.UserActive
	}
	u.LibraryCard = newLibraryCard()
	if err := s.r.Create(ctx, u); err != nil {
		if isUniqueViolation(err) {
			return makeErr(ErrEmailTaken)
		}
		return err
	}
	return nil
}

// newLibraryCard mints LIB<year>-<8 hex chars>, unique per member.
func newLibraryCard() string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("LIB%d-%s", time.Now().Year(), suffix)
}

func (s *service) ByID(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.r.ByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrNotFound)
	}
	return u, err
}

func (s *service) List(ctx context.Context, f Filter) ([]model.User, model.Pagination, error) {
	users, total, err := s.r.List(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	page, limit := model.NormalizePage(f.Page, f.Limit)
	return users, model.NewPagination(page, limit, total), nil
}

func (s *service) Update(ctx context.Context, u *model.User) error {
	if err := s.r.Update(ctx, u); err != nil {
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
	open, err := s.r.HasOpenLoans(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return makeErr(ErrHasOpenLoans)
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
