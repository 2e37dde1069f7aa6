// Package memstore is an in-memory loan ledger implementing the same
// store contract as the Postgres repository. Transactions are
// serialized on one mutex and buffer their writes until Commit, which
// gives the same one-winner guarantee the row locks give in Postgres.
// The engine's tests run against it.
package memstore

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/AyomideKayode/book-library-API/model"
	borrowrepo "github.com/AyomideKayode/book-library-API/repository/borrow"
)

type Store struct {
	mu      sync.Mutex
	users   map[int64]*model.User
	books   map[int64]*model.Book
	records map[int64]*model.BorrowRecord

	nextUser int64
	nextBook int64
	nextRec  int64
}

func New() *Store {
	return &Store{
		users:   make(map[int64]*model.User),
		books:   make(map[int64]*model.Book),
		records: make(map[int64]*model.BorrowRecord),
	}
}

// AddUser and AddBook seed catalog/membership state.

func (s *Store) AddUser(u model.User) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextUser++
	u.ID = s.nextUser
	if u.Status == "" {
		u.Status = model.UserActive
	}
	s.users[u.ID] = &u
	cp := u
	return &cp
}

func (s *Store) AddBook(b model.Book) *model.Book {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextBook++
	b.ID = s.nextBook
	s.books[b.ID] = &b
	cp := b
	return &cp
}

// AddRecord seeds a ledger row directly, bypassing the engine.
func (s *Store) AddRecord(r model.BorrowRecord) *model.BorrowRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextRec++
	r.ID = s.nextRec
	if r.Status == "" {
		r.Status = model.BorrowActive
	}
	s.records[r.ID] = &r
	cp := r
	return &cp
}

// Book returns a copy of the stored book; tests use it to assert on the
// availability flag.
func (s *Store) Book(id int64) (*model.Book, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, false
	}
	cp := *b
	return &cp, true
}

func (s *Store) Begin(_ context.Context) (borrowrepo.Tx, error) {
	s.mu.Lock()
	return &memTx{s: s}, nil
}

type memTx struct {
	s       *Store
	pending []func()
	done    bool
}

func (t *memTx) stage(fn func()) { t.pending = append(t.pending, fn) }

func (t *memTx) Commit() error {
	if t.done {
		return sql.ErrTxDone
	}
	for _, fn := range t.pending {
		fn()
	}
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) Rollback() error {
	if t.done {
		return sql.ErrTxDone
	}
	t.pending = nil
	t.done = true
	t.s.mu.Unlock()
	return nil
}

func (t *memTx) UserForBorrow(_ context.Context, userID int64) (model.UserStatus, int, error) {
	u, ok := t.s.users[userID]
	if !ok {
		return "", 0, sql.ErrNoRows
	}
	open := 0
	for _, r := range t.s.records {
		if r.UserID == userID && r.Open() {
			open++
		}
	}
	return u.Status, open, nil
}

func (t *memTx) BookForUpdate(_ context.Context, bookID int64) (bool, error) {
	b, ok := t.s.books[bookID]
	if !ok {
		return false, sql.ErrNoRows
	}
	return b.Available, nil
}

func (t *memTx) HasOpenRecord(_ context.Context, userID, bookID int64) (bool, error) {
	for _, r := range t.s.records {
		if r.UserID == userID && r.BookID == bookID && r.Open() {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertRecord(_ context.Context, rec *model.BorrowRecord) error {
	t.s.nextRec++
	rec.ID = t.s.nextRec
	rec.CreatedAt = rec.BorrowDate
	rec.UpdatedAt = rec.BorrowDate
	cp := *rec
	t.stage(func() { t.s.records[cp.ID] = &cp })
	return nil
}

func (t *memTx) RecordForUpdate(_ context.Context, id int64) (*model.BorrowRecord, error) {
	r, ok := t.s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (t *memTx) MarkReturned(_ context.Context, id int64, at time.Time, fine int64) error {
	t.stage(func() {
		if r, ok := t.s.records[id]; ok {
			returned := at
			r.Status = model.BorrowReturned
			r.ReturnDate = &returned
			r.FineAmount = fine
			r.UpdatedAt = at
		}
	})
	return nil
}

func (t *memTx) UpdateDueDate(_ context.Context, id int64, due time.Time, status model.BorrowStatus, renewals int) error {
	t.stage(func() {
		if r, ok := t.s.records[id]; ok {
			r.DueDate = due
			r.Status = status
			r.RenewalCount = renewals
		}
	})
	return nil
}

func (t *memTx) MarkLost(_ context.Context, id int64, fine int64) error {
	t.stage(func() {
		if r, ok := t.s.records[id]; ok {
			r.Status = model.BorrowLost
			r.FineAmount = fine
		}
	})
	return nil
}

func (t *memTx) SetBookAvailability(_ context.Context, bookID int64, available bool) error {
	t.stage(func() {
		if b, ok := t.s.books[bookID]; ok {
			b.Available = available
		}
	})
	return nil
}

// ----- reads -----

func (s *Store) detail(r *model.BorrowRecord) model.BorrowDetail {
	d := model.BorrowDetail{BorrowRecord: *r}
	if u, ok := s.users[r.UserID]; ok {
		d.User = &model.UserRef{ID: u.ID, Name: u.Name, Email: u.Email, LibraryCard: u.LibraryCard}
	}
	if b, ok := s.books[r.BookID]; ok {
		d.Book = &model.BookRef{ID: b.ID, Title: b.Title, ISBN: b.ISBN, AuthorID: b.AuthorID}
	}
	return d
}

func (s *Store) ByID(_ context.Context, id int64) (*model.BorrowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	d := s.detail(r)
	return &d, nil
}

func (s *Store) collect(match func(*model.BorrowRecord) bool) []model.BorrowDetail {
	var out []model.BorrowDetail
	for _, r := range s.records {
		if match(r) {
			out = append(out, s.detail(r))
		}
	}
	return out
}

func (s *Store) List(_ context.Context, f borrowrepo.Filter) ([]model.BorrowDetail, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.collect(func(r *model.BorrowRecord) bool {
		if f.UserID != nil && r.UserID != *f.UserID {
			return false
		}
		if f.BookID != nil && r.BookID != *f.BookID {
			return false
		}
		if f.Status != nil && r.Status != *f.Status {
			return false
		}
		return true
	})
	total := int64(len(out))

	field, desc := "borrowDate", true
	if f.Sort != "" {
		field = f.Sort
		desc = strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")
	}
	sort.Slice(out, func(i, j int) bool {
		less := false
		switch field {
		case "dueDate":
			less = out[i].DueDate.Before(out[j].DueDate)
		case "returnDate":
			ri, rj := out[i].ReturnDate, out[j].ReturnDate
			switch {
			case ri == nil:
				less = rj != nil
			case rj == nil:
				less = false
			default:
				less = ri.Before(*rj)
			}
		case "status":
			less = out[i].Status < out[j].Status
		default:
			less = out[i].BorrowDate.Before(out[j].BorrowDate)
		}
		if desc {
			return !less && !equalKey(out[i], out[j], field)
		}
		return less
	})

	page, limit := model.NormalizePage(f.Page, f.Limit)
	start := (page - 1) * limit
	if start >= len(out) {
		return nil, total, nil
	}
	end := start + limit
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], total, nil
}

func equalKey(a, b model.BorrowDetail, field string) bool {
	switch field {
	case "dueDate":
		return a.DueDate.Equal(b.DueDate)
	case "status":
		return a.Status == b.Status
	case "returnDate":
		if a.ReturnDate == nil || b.ReturnDate == nil {
			return a.ReturnDate == b.ReturnDate
		}
		return a.ReturnDate.Equal(*b.ReturnDate)
	default:
		return a.BorrowDate.Equal(b.BorrowDate)
	}
}

func (s *Store) ListOverdue(_ context.Context) ([]model.BorrowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(r *model.BorrowRecord) bool { return r.Status == model.BorrowOverdue })
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) ListDueSoon(_ context.Context, from, to time.Time) ([]model.BorrowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(r *model.BorrowRecord) bool {
		return r.Status == model.BorrowActive && !r.DueDate.Before(from) && !r.DueDate.After(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (s *Store) ListByUser(_ context.Context, userID int64) ([]model.BorrowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(r *model.BorrowRecord) bool { return r.UserID == userID })
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	return out, nil
}

func (s *Store) ListByBook(_ context.Context, bookID int64) ([]model.BorrowDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.collect(func(r *model.BorrowRecord) bool { return r.BookID == bookID })
	sort.Slice(out, func(i, j int) bool { return out[i].BorrowDate.After(out[j].BorrowDate) })
	return out, nil
}

func (s *Store) SweepOverdue(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, r := range s.records {
		if r.Status == model.BorrowActive && r.DueDate.Before(now) {
			r.Status = model.BorrowOverdue
			if !r.FinePaid {
				r.FineAmount = r.CalculatedFine(now)
			}
			r.UpdatedAt = now
			n++
		}
	}
	return n, nil
}

func (s *Store) Stats(_ context.Context) (*model.BorrowStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := &model.BorrowStats{MonthlyBorrows: map[string]int64{}}
	for _, r := range s.records {
		st.TotalBorrows++
		switch r.Status {
		case model.BorrowActive:
			st.ActiveBorrows++
		case model.BorrowReturned:
			st.ReturnedBorrows++
		case model.BorrowOverdue:
			st.OverdueBorrows++
		case model.BorrowLost:
			st.LostBorrows++
		}
		st.MonthlyBorrows[r.BorrowDate.Format("2006-01")]++
	}
	return st, nil
}
