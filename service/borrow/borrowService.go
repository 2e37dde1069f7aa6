package borrow

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AyomideKayode/book-library-API/model"
	borrowrepo "github.com/AyomideKayode/book-library-API/repository/borrow"
)

// errors used by controllers

type ErrCode string

const (
	ErrUserNotFound     ErrCode = "USER_NOT_FOUND"
	ErrUserNotActive    ErrCode = "USER_NOT_ACTIVE"
	ErrBorrowLimit      ErrCode = "BORROW_LIMIT_REACHED"
	ErrBookNotFound     ErrCode = "BOOK_NOT_FOUND"
	ErrBookNotAvailable ErrCode = "BOOK_NOT_AVAILABLE"
	ErrAlreadyBorrowed  ErrCode = "ALREADY_BORROWED"
	ErrBorrowNotFound   ErrCode = "BORROW_NOT_FOUND"
	ErrAlreadyReturned  ErrCode = "ALREADY_RETURNED"
	ErrBookReturned     ErrCode = "BOOK_RETURNED"
	ErrInvalidDueDate   ErrCode = "INVALID_DUE_DATE"
	ErrRenewalLimit     ErrCode = "RENEWAL_LIMIT"
	ErrNotActive        ErrCode = "NOT_ACTIVE"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type ListFilter = borrowrepo.Filter

type Service interface {
	// Borrow checks the member and the book, then inserts the ledger
	// record and flips availability in one transaction.
	Borrow(ctx context.Context, userID, bookID int64, dueDate *time.Time) (*model.BorrowDetail, error)

	// Return closes an open loan and frees the book.
	Return(ctx context.Context, borrowID int64) (*model.BorrowDetail, error)

	// Extend moves the due date to an arbitrary future instant; an
	// overdue loan is cured back to active.
	Extend(ctx context.Context, borrowID int64, newDueDate time.Time) (*model.BorrowDetail, error)

	// Renew pushes the due date out by the fixed loan period, at most
	// model.MaxRenewals times per loan.
	Renew(ctx context.Context, borrowID int64) (*model.BorrowDetail, error)

	// MarkLost closes an open loan with the fixed lost-book fine.
	MarkLost(ctx context.Context, borrowID int64) (*model.BorrowDetail, error)

	// Sweep reclassifies stale active loans as overdue. Listing paths
	// call it first; status is authoritative only immediately after.
	Sweep(ctx context.Context) (int64, error)

	Overdue(ctx context.Context) ([]model.BorrowDetail, error)
	DueSoon(ctx context.Context, days int) ([]model.BorrowDetail, error)
	List(ctx context.Context, f ListFilter) ([]model.BorrowDetail, model.Pagination, error)
	ByID(ctx context.Context, borrowID int64) (*model.BorrowDetail, error)
	UserHistory(ctx context.Context, userID int64) ([]model.BorrowDetail, error)
	BookHistory(ctx context.Context, bookID int64) ([]model.BorrowDetail, error)
	Stats(ctx context.Context) (*model.BorrowStats, error)
}

type service struct {
	store borrowrepo.Store
	now   func() time.Time
}

func New(store borrowrepo.Store) Service {
	return &service{store: store, now: time.Now}
}

// NewWithClock is for tests that need a fixed clock.
func NewWithClock(store borrowrepo.Store, now func() time.Time) Service {
	return &service{store: store, now: now}
}

func (s *service) Borrow(ctx context.Context, userID, bookID int64, dueDate *time.Time) (_ *model.BorrowDetail, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// All preconditions run inside the transaction so they are
	// consistent with the eventual write.
	status, open, err := tx.UserForBorrow(ctx, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrUserNotFound)
	}
	if err != nil {
		return nil, err
	}
	if status != model.UserActive {
		return nil, makeErr(ErrUserNotActive)
	}
	if open >= model.MaxOpenLoans {
		return nil, makeErr(ErrBorrowLimit)
	}

	available, err := tx.BookForUpdate(ctx, bookID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBookNotFound)
	}
	if err != nil {
		return nil, err
	}

	// Checked before availability so the holder of the copy gets the
	// more specific failure.
	exists, err := tx.HasOpenRecord(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, makeErr(ErrAlreadyBorrowed)
	}
	if !available {
		return nil, makeErr(ErrBookNotAvailable)
	}

	now := s.now()
	due := now.AddDate(0, 0, model.LoanPeriodDays)
	if dueDate != nil && dueDate.After(now) {
		due = *dueDate
	}

	rec := &model.BorrowRecord{
		UserID:     userID,
		BookID:     bookID,
		BorrowDate: now,
		DueDate:    due,
		Status:     model.BorrowActive,
	}
	if err = tx.InsertRecord(ctx, rec); err != nil {
		if isUniqueViolation(err) {
			return nil, makeErr(ErrAlreadyBorrowed)
		}
		return nil, err
	}
	if err = tx.SetBookAvailability(ctx, bookID, false); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.store.ByID(ctx, rec.ID)
}

func (s *service) Return(ctx context.Context, borrowID int64) (_ *model.BorrowDetail, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := tx.RecordForUpdate(ctx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBorrowNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !rec.Open() {
		return nil, makeErr(ErrAlreadyReturned)
	}

	now := s.now()
	fine := rec.FineAmount
	if !rec.FinePaid {
		fine = rec.CalculatedFine(now)
	}
	if err = tx.MarkReturned(ctx, borrowID, now, fine); err != nil {
		return nil, err
	}
	if err = tx.SetBookAvailability(ctx, rec.BookID, true); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.store.ByID(ctx, borrowID)
}

func (s *service) Extend(ctx context.Context, borrowID int64, newDueDate time.Time) (_ *model.BorrowDetail, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := tx.RecordForUpdate(ctx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBorrowNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !rec.Open() {
		return nil, makeErr(ErrBookReturned)
	}
	if !newDueDate.After(s.now()) {
		return nil, makeErr(ErrInvalidDueDate)
	}

	// Extending past now cures an overdue loan.
	status := rec.Status
	if status == model.BorrowOverdue {
		status = model.BorrowActive
	}
	if err = tx.UpdateDueDate(ctx, borrowID, newDueDate, status, rec.RenewalCount); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.store.ByID(ctx, borrowID)
}

func (s *service) Renew(ctx context.Context, borrowID int64) (_ *model.BorrowDetail, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := tx.RecordForUpdate(ctx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBorrowNotFound)
	}
	if err != nil {
		return nil, err
	}
	if rec.RenewalCount >= model.MaxRenewals {
		return nil, makeErr(ErrRenewalLimit)
	}
	if rec.Status != model.BorrowActive {
		return nil, makeErr(ErrNotActive)
	}

	due := rec.DueDate.AddDate(0, 0, model.LoanPeriodDays)
	if err = tx.UpdateDueDate(ctx, borrowID, due, model.BorrowActive, rec.RenewalCount+1); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.store.ByID(ctx, borrowID)
}

func (s *service) MarkLost(ctx context.Context, borrowID int64) (_ *model.BorrowDetail, err error) {
	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	rec, err := tx.RecordForUpdate(ctx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBorrowNotFound)
	}
	if err != nil {
		return nil, err
	}
	if !rec.Open() {
		return nil, makeErr(ErrAlreadyReturned)
	}

	if err = tx.MarkLost(ctx, borrowID, model.LostBookFine); err != nil {
		return nil, err
	}
	// A lost copy no longer holds the availability flag.
	if err = tx.SetBookAvailability(ctx, rec.BookID, true); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	return s.store.ByID(ctx, borrowID)
}

func (s *service) Sweep(ctx context.Context) (int64, error) {
	return s.store.SweepOverdue(ctx, s.now())
}

func (s *service) Overdue(ctx context.Context) ([]model.BorrowDetail, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, err
	}
	return s.store.ListOverdue(ctx)
}

func (s *service) DueSoon(ctx context.Context, days int) ([]model.BorrowDetail, error) {
	if days <= 0 {
		days = model.DueSoonDays
	}
	now := s.now()
	return s.store.ListDueSoon(ctx, now, now.AddDate(0, 0, days))
}

func (s *service) List(ctx context.Context, f ListFilter) ([]model.BorrowDetail, model.Pagination, error) {
	if _, err := s.Sweep(ctx); err != nil {
		return nil, model.Pagination{}, err
	}
	records, total, err := s.store.List(ctx, f)
	if err != nil {
		return nil, model.Pagination{}, err
	}
	page, limit := model.NormalizePage(f.Page, f.Limit)
	return records, model.NewPagination(page, limit, total), nil
}

func (s *service) ByID(ctx context.Context, borrowID int64) (*model.BorrowDetail, error) {
	d, err := s.store.ByID(ctx, borrowID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, makeErr(ErrBorrowNotFound)
	}
	return d, err
}

func (s *service) UserHistory(ctx context.Context, userID int64) ([]model.BorrowDetail, error) {
	return s.store.ListByUser(ctx, userID)
}

func (s *service) BookHistory(ctx context.Context, bookID int64) ([]model.BorrowDetail, error) {
	return s.store.ListByBook(ctx, bookID)
}

func (s *service) Stats(ctx context.Context) (*model.BorrowStats, error) {
	return s.store.Stats(ctx)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
