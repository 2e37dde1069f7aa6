package usersvc

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/AyomideKayode/book-library-API/model"
)

type mockRepo struct {
	createFn       func(ctx context.Context, u *model.User) error
	byIDFn         func(ctx context.Context, id int64) (*model.User, error)
	deleteFn       func(ctx context.Context, id int64) error
	hasOpenLoansFn func(ctx context.Context, id int64) (bool, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, u *model.User) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, u)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.User, error) {
	if m.byIDFn == nil {
		return &model.User{ID: id}, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context, f Filter) ([]model.User, int64, error) {
	return nil, 0, nil
}

func (m *mockRepo) Update(ctx context.Context, u *model.User) error { return nil }

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) HasOpenLoans(ctx context.Context, id int64) (bool, error) {
	if m.hasOpenLoansFn == nil {
		return false, nil
	}
	return m.hasOpenLoansFn(ctx, id)
}

// --- tests ---

func TestCreate_MintsLibraryCard(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{})

	u := &model.User{Name: "Ada", Email: "ada@example.com"}
	require.NoError(t, svc.Create(ctx, u))
	require.Equal(t, model.UserActive, u.Status)
	require.Regexp(t, regexp.MustCompile(`^LIB\d{4}-[0-9A-F]{8}$`), u.LibraryCard)
}

func TestCreate_EmailTaken(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, u *model.User) error {
			return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
		},
	}
	svc := New(m)

	err := svc.Create(ctx, &model.User{Name: "Ada", Email: "ada@example.com"})
	require.Equal(t, ErrEmailTaken, Code(err))
}

func TestByID_NotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.User, error) { return nil, sql.ErrNoRows },
	}
	svc := New(m)

	_, err := svc.ByID(ctx, 9)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestDelete_OpenLoansBlock(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		hasOpenLoansFn: func(ctx context.Context, id int64) (bool, error) { return true, nil },
	}
	svc := New(m)

	err := svc.Delete(ctx, 1)
	require.Equal(t, ErrHasOpenLoans, Code(err))
}
