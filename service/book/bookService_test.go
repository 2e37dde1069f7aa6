package booksvc

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/AyomideKayode/book-library-API/model"
)

type mockRepo struct {
	createFn         func(ctx context.Context, b *model.Book) error
	byIDFn           func(ctx context.Context, id int64) (*model.Book, error)
	listFn           func(ctx context.Context, f Filter) ([]model.Book, int64, error)
	updateFn         func(ctx context.Context, b *model.Book) error
	deleteFn         func(ctx context.Context, id int64) error
	authorExistsFn   func(ctx context.Context, authorID int64) (bool, error)
	hasOpenBorrowsFn func(ctx context.Context, id int64) (bool, error)
}

var _ Repo = (*mockRepo)(nil)

func (m *mockRepo) Create(ctx context.Context, b *model.Book) error {
	if m.createFn == nil {
		return nil
	}
	return m.createFn(ctx, b)
}

func (m *mockRepo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	if m.byIDFn == nil {
		return &model.Book{ID: id}, nil
	}
	return m.byIDFn(ctx, id)
}

func (m *mockRepo) List(ctx context.Context, f Filter) ([]model.Book, int64, error) {
	if m.listFn == nil {
		return nil, 0, nil
	}
	return m.listFn(ctx, f)
}

func (m *mockRepo) Update(ctx context.Context, b *model.Book) error {
	if m.updateFn == nil {
		return nil
	}
	return m.updateFn(ctx, b)
}

func (m *mockRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFn == nil {
		return nil
	}
	return m.deleteFn(ctx, id)
}

func (m *mockRepo) AuthorExists(ctx context.Context, authorID int64) (bool, error) {
	if m.authorExistsFn == nil {
		return true, nil
	}
	return m.authorExistsFn(ctx, authorID)
}

func (m *mockRepo) HasOpenBorrows(ctx context.Context, id int64) (bool, error) {
	if m.hasOpenBorrowsFn == nil {
		return false, nil
	}
	return m.hasOpenBorrowsFn(ctx, id)
}

func uniqueViolation() error {
	return &pgconn.PgError{Code: pgerrcode.UniqueViolation}
}

// --- tests ---

func TestCreate_Success(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, b *model.Book) error {
			b.ID = 7
			return nil
		},
	}
	svc := New(m)

	b := &model.Book{Title: "SICP", AuthorID: 1, ISBN: "978-0-262-51087-5", Genre: "CS"}
	require.NoError(t, svc.Create(ctx, b))
	require.Equal(t, int64(7), b.ID)
	require.Equal(t, "9780262510875", b.ISBN)
	require.Equal(t, "English", b.Language)
}

func TestCreate_InvalidISBN(t *testing.T) {
	ctx := context.Background()
	svc := New(&mockRepo{})

	err := svc.Create(ctx, &model.Book{Title: "x", AuthorID: 1, ISBN: "not-an-isbn", Genre: "CS"})
	require.Equal(t, ErrInvalidISBN, Code(err))
}

func TestCreate_AuthorMissing(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		authorExistsFn: func(ctx context.Context, authorID int64) (bool, error) { return false, nil },
	}
	svc := New(m)

	err := svc.Create(ctx, &model.Book{Title: "x", AuthorID: 99, ISBN: "9780262510875", Genre: "CS"})
	require.Equal(t, ErrAuthorNotFound, Code(err))
}

func TestCreate_DuplicateISBN(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		createFn: func(ctx context.Context, b *model.Book) error { return uniqueViolation() },
	}
	svc := New(m)

	err := svc.Create(ctx, &model.Book{Title: "x", AuthorID: 1, ISBN: "9780262510875", Genre: "CS"})
	require.Equal(t, ErrISBNTaken, Code(err))
}

func TestByID_NotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		byIDFn: func(ctx context.Context, id int64) (*model.Book, error) { return nil, sql.ErrNoRows },
	}
	svc := New(m)

	_, err := svc.ByID(ctx, 42)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestDelete_OpenBorrowBlocks(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		hasOpenBorrowsFn: func(ctx context.Context, id int64) (bool, error) { return true, nil },
	}
	svc := New(m)

	err := svc.Delete(ctx, 1)
	require.Equal(t, ErrHasOpenBorrows, Code(err))
}

func TestDelete_NotFound(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		deleteFn: func(ctx context.Context, id int64) error { return sql.ErrNoRows },
	}
	svc := New(m)

	err := svc.Delete(ctx, 1)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestList_Pagination(t *testing.T) {
	ctx := context.Background()
	m := &mockRepo{
		listFn: func(ctx context.Context, f Filter) ([]model.Book, int64, error) {
			return make([]model.Book, 10), 23, nil
		},
	}
	svc := New(m)

	books, page, err := svc.List(ctx, Filter{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, books, 10)
	require.Equal(t, int64(23), page.TotalItems)
	require.Equal(t, 3, page.TotalPages)
	require.True(t, page.HasNext)
}

func TestCodeExtractor(t *testing.T) {
	require.Equal(t, ErrNotFound, Code(makeErr(ErrNotFound)))
	require.Equal(t, ErrCode(""), Code(errors.New("plain")))
}
