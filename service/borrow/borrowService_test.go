package borrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AyomideKayode/book-library-API/model"
	"github.com/AyomideKayode/book-library-API/repository/memstore"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newEngine(t *testing.T) (*memstore.Store, Service, *fakeClock) {
	t.Helper()
	store := memstore.New()
	clock := &fakeClock{t: time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)}
	return store, NewWithClock(store, clock.Now), clock
}

func seedUser(store *memstore.Store, status model.UserStatus) *model.User {
	return store.AddUser(model.User{Name: "Ada", Email: "ada@example.com", Status: status, LibraryCard: "LIB2026-ABCD1234"})
}

func seedBook(store *memstore.Store, available bool) *model.Book {
	return store.AddBook(model.Book{Title: "The Go Programming Language", ISBN: "9780134190440", AuthorID: 1, Available: available})
}

func TestBorrow_Success(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)
	require.Equal(t, model.BorrowActive, d.Status)
	require.Equal(t, clock.Now(), d.BorrowDate)
	require.Equal(t, clock.Now().AddDate(0, 0, model.LoanPeriodDays), d.DueDate)
	require.Zero(t, d.RenewalCount)
	require.Zero(t, d.FineAmount)
	require.NotNil(t, d.User)
	require.Equal(t, u.ID, d.User.ID)
	require.NotNil(t, d.Book)
	require.Equal(t, b.ID, d.Book.ID)

	got, ok := store.Book(b.ID)
	require.True(t, ok)
	require.False(t, got.Available)
}

func TestBorrow_CustomDueDate(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	due := clock.Now().AddDate(0, 0, 7)
	d, err := svc.Borrow(ctx, u.ID, b.ID, &due)
	require.NoError(t, err)
	require.Equal(t, due, d.DueDate)
}

func TestBorrow_PastDueDateFallsBackToDefault(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	due := clock.Now().AddDate(0, 0, -1)
	d, err := svc.Borrow(ctx, u.ID, b.ID, &due)
	require.NoError(t, err)
	require.Equal(t, clock.Now().AddDate(0, 0, model.LoanPeriodDays), d.DueDate)
}

func TestBorrow_Failures(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	active := seedUser(store, model.UserActive)
	suspended := seedUser(store, model.UserSuspended)
	avail := seedBook(store, true)
	taken := seedBook(store, false)

	_, err := svc.Borrow(ctx, 999, avail.ID, nil)
	require.Equal(t, ErrUserNotFound, Code(err))

	_, err = svc.Borrow(ctx, suspended.ID, avail.ID, nil)
	require.Equal(t, ErrUserNotActive, Code(err))

	_, err = svc.Borrow(ctx, active.ID, 999, nil)
	require.Equal(t, ErrBookNotFound, Code(err))

	_, err = svc.Borrow(ctx, active.ID, taken.ID, nil)
	require.Equal(t, ErrBookNotAvailable, Code(err))
}

func TestBorrow_DuplicateOpenLoan(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	// Open record exists while the copy somehow reads available; the
	// one-open-loan rule must still hold.
	store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     b.ID,
		BorrowDate: clock.Now().AddDate(0, 0, -2),
		DueDate:    clock.Now().AddDate(0, 0, 12),
		Status:     model.BorrowActive,
	})

	_, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.Equal(t, ErrAlreadyBorrowed, Code(err))
}

func TestBorrow_ReturnBorrowScenario(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	first, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	// The holder trying again gets the specific failure, not a generic
	// availability one.
	_, err = svc.Borrow(ctx, u.ID, b.ID, nil)
	require.Equal(t, ErrAlreadyBorrowed, Code(err))

	_, err = svc.Return(ctx, first.ID)
	require.NoError(t, err)
	got, _ := store.Book(b.ID)
	require.True(t, got.Available)

	second, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	history, err := svc.UserHistory(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
}

func TestBorrow_LoanLimit(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	u := seedUser(store, model.UserActive)

	for i := 0; i < model.MaxOpenLoans; i++ {
		b := seedBook(store, true)
		_, err := svc.Borrow(ctx, u.ID, b.ID, nil)
		require.NoError(t, err)
	}

	extra := seedBook(store, true)
	_, err := svc.Borrow(ctx, u.ID, extra.ID, nil)
	require.Equal(t, ErrBorrowLimit, Code(err))
}

func TestBorrow_OverdueCountsTowardLimit(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)

	for i := 0; i < model.MaxOpenLoans; i++ {
		b := seedBook(store, true)
		store.AddRecord(model.BorrowRecord{
			UserID:     u.ID,
			BookID:     b.ID,
			BorrowDate: clock.Now().AddDate(0, 0, -20),
			DueDate:    clock.Now().AddDate(0, 0, -6),
			Status:     model.BorrowOverdue,
		})
	}

	extra := seedBook(store, true)
	_, err := svc.Borrow(ctx, u.ID, extra.ID, nil)
	require.Equal(t, ErrBorrowLimit, Code(err))
}

func TestReturn_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	clock.Advance(48 * time.Hour)
	ret, err := svc.Return(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, model.BorrowReturned, ret.Status)
	require.NotNil(t, ret.ReturnDate)
	require.Equal(t, clock.Now(), *ret.ReturnDate)
	require.Zero(t, ret.FineAmount)

	got, ok := store.Book(b.ID)
	require.True(t, ok)
	require.True(t, got.Available)

	_, err = svc.Return(ctx, d.ID)
	require.Equal(t, ErrAlreadyReturned, Code(err))
}

func TestReturn_LateSnapshotsFine(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	// 14-day loan returned 3 days and 1 hour late.
	clock.Advance(time.Duration(model.LoanPeriodDays*24+73) * time.Hour)
	ret, err := svc.Return(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, int64(4*model.FinePerDay), ret.FineAmount)
}

func TestReturn_PaidFineKept(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, false)

	rec := store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     b.ID,
		BorrowDate: clock.Now().AddDate(0, 0, -30),
		DueDate:    clock.Now().AddDate(0, 0, -16),
		Status:     model.BorrowOverdue,
		FineAmount: 300,
		FinePaid:   true,
	})

	ret, err := svc.Return(ctx, rec.ID)
	require.NoError(t, err)
	require.Equal(t, int64(300), ret.FineAmount)
	require.True(t, ret.FinePaid)
}

func TestReturn_NotFound(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newEngine(t)
	_, err := svc.Return(ctx, 404)
	require.Equal(t, ErrBorrowNotFound, Code(err))
}

func TestExtend(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	due := clock.Now().AddDate(0, 0, 21)
	ext, err := svc.Extend(ctx, d.ID, due)
	require.NoError(t, err)
	require.Equal(t, due, ext.DueDate)
	require.Equal(t, model.BorrowActive, ext.Status)

	_, err = svc.Extend(ctx, d.ID, clock.Now().Add(-time.Hour))
	require.Equal(t, ErrInvalidDueDate, Code(err))

	_, err = svc.Return(ctx, d.ID)
	require.NoError(t, err)
	_, err = svc.Extend(ctx, d.ID, clock.Now().AddDate(0, 0, 7))
	require.Equal(t, ErrBookReturned, Code(err))
}

func TestExtend_CuresOverdue(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	clock.Advance(time.Duration(model.LoanPeriodDays+2) * 24 * time.Hour)
	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	ext, err := svc.Extend(ctx, d.ID, clock.Now().AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Equal(t, model.BorrowActive, ext.Status)
}

func TestRenew(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)
	origDue := d.DueDate

	for i := 1; i <= model.MaxRenewals; i++ {
		d, err = svc.Renew(ctx, d.ID)
		require.NoError(t, err)
		require.Equal(t, i, d.RenewalCount)
		require.Equal(t, origDue.AddDate(0, 0, i*model.LoanPeriodDays), d.DueDate)
	}

	_, err = svc.Renew(ctx, d.ID)
	require.Equal(t, ErrRenewalLimit, Code(err))
}

func TestRenew_OverdueRejected(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	clock.Advance(time.Duration(model.LoanPeriodDays+1) * 24 * time.Hour)
	_, err = svc.Sweep(ctx)
	require.NoError(t, err)

	_, err = svc.Renew(ctx, d.ID)
	require.Equal(t, ErrNotActive, Code(err))
}

func TestMarkLost(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	u := seedUser(store, model.UserActive)
	b := seedBook(store, true)

	d, err := svc.Borrow(ctx, u.ID, b.ID, nil)
	require.NoError(t, err)

	lost, err := svc.MarkLost(ctx, d.ID)
	require.NoError(t, err)
	require.Equal(t, model.BorrowLost, lost.Status)
	require.Equal(t, int64(model.LostBookFine), lost.FineAmount)

	got, ok := store.Book(b.ID)
	require.True(t, ok)
	require.True(t, got.Available)

	_, err = svc.MarkLost(ctx, d.ID)
	require.Equal(t, ErrAlreadyReturned, Code(err))
}

func TestSweep_Idempotent(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)

	late := seedBook(store, false)
	onTime := seedBook(store, false)
	store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     late.ID,
		BorrowDate: clock.Now().AddDate(0, 0, -20),
		DueDate:    clock.Now().AddDate(0, 0, -3),
		Status:     model.BorrowActive,
	})
	store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     onTime.ID,
		BorrowDate: clock.Now().AddDate(0, 0, -2),
		DueDate:    clock.Now().AddDate(0, 0, 12),
		Status:     model.BorrowActive,
	})

	n, err := svc.Sweep(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	n, err = svc.Sweep(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	overdue, err := svc.Overdue(ctx)
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	require.Equal(t, late.ID, overdue[0].BookID)
	require.Equal(t, int64(3*model.FinePerDay), overdue[0].FineAmount)
}

func TestDueSoon(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)

	soon := seedBook(store, false)
	later := seedBook(store, false)
	store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     soon.ID,
		BorrowDate: clock.Now().AddDate(0, 0, -12),
		DueDate:    clock.Now().AddDate(0, 0, 2),
		Status:     model.BorrowActive,
	})
	store.AddRecord(model.BorrowRecord{
		UserID:     u.ID,
		BookID:     later.ID,
		BorrowDate: clock.Now(),
		DueDate:    clock.Now().AddDate(0, 0, 14),
		Status:     model.BorrowActive,
	})

	out, err := svc.DueSoon(ctx, 0)
	require.NoError(t, err)
	require.Len(t, out, 1)
	require.Equal(t, soon.ID, out[0].BookID)
}

func TestList_FilterAndPagination(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)

	for i := 0; i < 12; i++ {
		b := seedBook(store, false)
		ret := clock.Now().AddDate(0, 0, -i)
		store.AddRecord(model.BorrowRecord{
			UserID:     u.ID,
			BookID:     b.ID,
			BorrowDate: clock.Now().AddDate(0, 0, -i-14),
			DueDate:    ret,
			ReturnDate: &ret,
			Status:     model.BorrowReturned,
		})
	}

	st := model.BorrowReturned
	records, page, err := svc.List(ctx, ListFilter{Status: &st, Page: 2, Limit: 5})
	require.NoError(t, err)
	require.Len(t, records, 5)
	require.Equal(t, int64(12), page.TotalItems)
	require.Equal(t, 3, page.TotalPages)
	require.Equal(t, 2, page.CurrentPage)
	require.True(t, page.HasNext)
	require.True(t, page.HasPrev)
}

func TestByID_NotFound(t *testing.T) {
	ctx := context.Background()
	_, svc, _ := newEngine(t)
	_, err := svc.ByID(ctx, 12345)
	require.Equal(t, ErrBorrowNotFound, Code(err))
}

func TestStats(t *testing.T) {
	ctx := context.Background()
	store, svc, clock := newEngine(t)
	u := seedUser(store, model.UserActive)

	mk := func(st model.BorrowStatus, monthsAgo int) {
		b := seedBook(store, false)
		store.AddRecord(model.BorrowRecord{
			UserID:     u.ID,
			BookID:     b.ID,
			BorrowDate: clock.Now().AddDate(0, -monthsAgo, 0),
			DueDate:    clock.Now().AddDate(0, -monthsAgo, 14),
			Status:     st,
		})
	}
	mk(model.BorrowActive, 0)
	mk(model.BorrowActive, 0)
	mk(model.BorrowReturned, 1)
	mk(model.BorrowOverdue, 1)
	mk(model.BorrowLost, 2)

	st, err := svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(5), st.TotalBorrows)
	require.Equal(t, int64(2), st.ActiveBorrows)
	require.Equal(t, int64(1), st.ReturnedBorrows)
	require.Equal(t, int64(1), st.OverdueBorrows)
	require.Equal(t, int64(1), st.LostBorrows)
	require.Equal(t, int64(2), st.MonthlyBorrows[clock.Now().Format("2006-01")])
	require.Equal(t, int64(2), st.MonthlyBorrows[clock.Now().AddDate(0, -1, 0).Format("2006-01")])
}

func TestBorrow_ConcurrentSingleWinner(t *testing.T) {
	ctx := context.Background()
	store, svc, _ := newEngine(t)
	b := seedBook(store, true)

	const n = 8
	users := make([]*model.User, n)
	for i := range users {
		users[i] = store.AddUser(model.User{Name: "Member", Email: "m@example.com", Status: model.UserActive})
	}

	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Borrow(ctx, users[i].ID, b.ID, nil)
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range errs {
		if err == nil {
			wins++
		} else {
			require.Equal(t, ErrBookNotAvailable, Code(err))
		}
	}
	require.Equal(t, 1, wins)

	got, ok := store.Book(b.ID)
	require.True(t, ok)
	require.False(t, got.Available)
}
