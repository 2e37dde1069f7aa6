// repository/borrow/borrowRepository.go
package borrowrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/AyomideKayode/book-library-API/model"
)

// Filter narrows List; nil fields match everything. Sort takes a
// whitelisted field name, "-" prefix for descending.
type Filter struct {
	UserID *int64
	BookID *int64
	Status *model.BorrowStatus
	Sort   string
	Page   int
	Limit  int
}

// Tx is the unit of work for the borrowing engine. Both writes of a
// borrow or return go through one Tx and commit together or not at all.
type Tx interface {
	Commit() error
	Rollback() error

	// UserForBorrow locks the member row and reports membership status
	// plus the count of open (active or overdue) loans.
	UserForBorrow(ctx context.Context, userID int64) (model.UserStatus, int, error)

	// BookForUpdate locks the book row; concurrent borrows of the same
	// book serialize here.
	BookForUpdate(ctx context.Context, bookID int64) (available bool, err error)

	HasOpenRecord(ctx context.Context, userID, bookID int64) (bool, error)
	InsertRecord(ctx context.Context, rec *model.BorrowRecord) error
	RecordForUpdate(ctx context.Context, id int64) (*model.BorrowRecord, error)
	MarkReturned(ctx context.Context, id int64, at time.Time, fine int64) error
	UpdateDueDate(ctx context.Context, id int64, due time.Time, status model.BorrowStatus, renewals int) error
	MarkLost(ctx context.Context, id int64, fine int64) error
	SetBookAvailability(ctx context.Context, bookID int64, available bool) error
}

// Store is the loan ledger. Reads outside a Tx never block writers.
type Store interface {
	Begin(ctx context.Context) (Tx, error)

	ByID(ctx context.Context, id int64) (*model.BorrowDetail, error)
	List(ctx context.Context, f Filter) ([]model.BorrowDetail, int64, error)
	ListOverdue(ctx context.Context) ([]model.BorrowDetail, error)
	ListDueSoon(ctx context.Context, from, to time.Time) ([]model.BorrowDetail, error)
	ListByUser(ctx context.Context, userID int64) ([]model.BorrowDetail, error)
	ListByBook(ctx context.Context, bookID int64) ([]model.BorrowDetail, error)

	// SweepOverdue reclassifies stale active loans and snapshots their
	// fines. Idempotent: already-overdue rows are untouched.
	SweepOverdue(ctx context.Context, now time.Time) (int64, error)

	Stats(ctx context.Context) (*model.BorrowStats, error)
}

type store struct{ db *sql.DB }

func New(db *sql.DB) Store { return &store{db: db} }

func (s *store) Begin(ctx context.Context) (Tx, error) {
	t, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: t}, nil
}

type pgTx struct{ tx *sql.Tx }

func (t *pgTx) Commit() error   { return t.tx.Commit() }
func (t *pgTx) Rollback() error { return t.tx.Rollback() }

func (t *pgTx) UserForBorrow(ctx context.Context, userID int64) (model.UserStatus, int, error) {
	// Locking the member row serializes this user's borrows so the
	// open-loan count cannot race.
	const q = `
		SELECT u.status,
		       (SELECT COUNT(*) FROM borrow_records br
		        WHERE br.user_id = u.id AND br.status IN ('active','overdue'))
		FROM users u
		WHERE u.id = $1
		FOR UPDATE`
	var status model.UserStatus
	var open int
	err := t.tx.QueryRowContext(ctx, q, userID).Scan(&status, &open)
	return status, open, err
}

func (t *pgTx) BookForUpdate(ctx context.Context, bookID int64) (bool, error) {
	const q = `
		SELECT available
		FROM books
		WHERE id = $1
		FOR UPDATE`
	var available bool
	err := t.tx.QueryRowContext(ctx, q, bookID).Scan(&available)
	return available, err
}

func (t *pgTx) HasOpenRecord(ctx context.Context, userID, bookID int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE user_id = $1 AND book_id = $2 AND status IN ('active','overdue'))`
	var exists bool
	err := t.tx.QueryRowContext(ctx, q, userID, bookID).Scan(&exists)
	return exists, err
}

func (t *pgTx) InsertRecord(ctx context.Context, rec *model.BorrowRecord) error {
	// uq_open_loan backs this insert: a racing duplicate fails with a
	// unique violation instead of committing a second open loan.
	const q = `
		INSERT INTO borrow_records (user_id, book_id, borrow_date, due_date, status, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at`
	return t.tx.QueryRowContext(ctx, q,
		rec.UserID, rec.BookID, rec.BorrowDate, rec.DueDate, rec.Status, rec.Notes,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
}

func (t *pgTx) RecordForUpdate(ctx context.Context, id int64) (*model.BorrowRecord, error) {
	const q = `
		SELECT id, user_id, book_id, borrow_date, due_date, return_date,
		       status, renewal_count, fine_amount, fine_paid, notes,
		       created_at, updated_at
		FROM borrow_records
		WHERE id = $1
		FOR UPDATE`
	var rec model.BorrowRecord
	err := t.tx.QueryRowContext(ctx, q, id).Scan(
		&rec.ID, &rec.UserID, &rec.BookID, &rec.BorrowDate, &rec.DueDate, &rec.ReturnDate,
		&rec.Status, &rec.RenewalCount, &rec.FineAmount, &rec.FinePaid, &rec.Notes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (t *pgTx) MarkReturned(ctx context.Context, id int64, at time.Time, fine int64) error {
	const q = `
		UPDATE borrow_records
		SET status = 'returned',
		    return_date = $2,
		    fine_amount = $3,
		    updated_at = $2
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, id, at, fine)
	return err
}

func (t *pgTx) UpdateDueDate(ctx context.Context, id int64, due time.Time, status model.BorrowStatus, renewals int) error {
	const q = `
		UPDATE borrow_records
		SET due_date = $2,
		    status = $3,
		    renewal_count = $4,
		    updated_at = now()
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, id, due, status, renewals)
	return err
}

func (t *pgTx) MarkLost(ctx context.Context, id int64, fine int64) error {
	const q = `
		UPDATE borrow_records
		SET status = 'lost',
		    fine_amount = $2,
		    updated_at = now()
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, id, fine)
	return err
}

func (t *pgTx) SetBookAvailability(ctx context.Context, bookID int64, available bool) error {
	const q = `
		UPDATE books
		SET available = $2,
		    updated_at = now()
		WHERE id = $1`
	_, err := t.tx.ExecContext(ctx, q, bookID, available)
	return err
}

// ----- reads -----

const detailCols = `
	br.id, br.user_id, br.book_id, br.borrow_date, br.due_date, br.return_date,
	br.status, br.renewal_count, br.fine_amount, br.fine_paid, br.notes,
	br.created_at, br.updated_at,
	u.name, u.email, u.library_card,
	b.title, b.isbn, b.author_id`

const detailFrom = `
	FROM borrow_records br
	JOIN users u ON u.id = br.user_id
	JOIN books b ON b.id = br.book_id`

func scanDetail(row interface{ Scan(...any) error }) (*model.BorrowDetail, error) {
	var d model.BorrowDetail
	var u model.UserRef
	var b model.BookRef
	err := row.Scan(
		&d.ID, &d.UserID, &d.BookID, &d.BorrowDate, &d.DueDate, &d.ReturnDate,
		&d.Status, &d.RenewalCount, &d.FineAmount, &d.FinePaid, &d.Notes,
		&d.CreatedAt, &d.UpdatedAt,
		&u.Name, &u.Email, &u.LibraryCard,
		&b.Title, &b.ISBN, &b.AuthorID,
	)
	if err != nil {
		return nil, err
	}
	u.ID = d.UserID
	b.ID = d.BookID
	d.User = &u
	d.Book = &b
	return &d, nil
}

func (s *store) ByID(ctx context.Context, id int64) (*model.BorrowDetail, error) {
	q := `SELECT ` + detailCols + detailFrom + ` WHERE br.id = $1`
	return scanDetail(s.db.QueryRowContext(ctx, q, id))
}

var sortColumns = map[string]string{
	"borrowDate": "br.borrow_date",
	"dueDate":    "br.due_date",
	"returnDate": "br.return_date",
	"status":     "br.status",
}

func (s *store) List(ctx context.Context, f Filter) ([]model.BorrowDetail, int64, error) {
	where := make([]string, 0, 3)
	args := make([]any, 0, 3)
	if f.UserID != nil {
		args = append(args, *f.UserID)
		where = append(where, fmt.Sprintf("br.user_id = $%d", len(args)))
	}
	if f.BookID != nil {
		args = append(args, *f.BookID)
		where = append(where, fmt.Sprintf("br.book_id = $%d", len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("br.status = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM borrow_records br`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "br.borrow_date DESC"
	if f.Sort != "" {
		dir := "ASC"
		field := f.Sort
		if strings.HasPrefix(field, "-") {
			dir = "DESC"
			field = field[1:]
		}
		if col, ok := sortColumns[field]; ok {
			order = col + " " + dir
		}
	}

	page, limit := model.NormalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s %s %s ORDER BY %s LIMIT $%d OFFSET $%d`,
		detailCols, detailFrom, cond, order, len(args)-1, len(args))

	out, err := s.queryDetails(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (s *store) ListOverdue(ctx context.Context) ([]model.BorrowDetail, error) {
	q := `SELECT ` + detailCols + detailFrom + `
		WHERE br.status = 'overdue'
		ORDER BY br.due_date ASC`
	return s.queryDetails(ctx, q)
}

func (s *store) ListDueSoon(ctx context.Context, from, to time.Time) ([]model.BorrowDetail, error) {
	q := `SELECT ` + detailCols + detailFrom + `
		WHERE br.status = 'active' AND br.due_date >= $1 AND br.due_date <= $2
		ORDER BY br.due_date ASC`
	return s.queryDetails(ctx, q, from, to)
}

func (s *store) ListByUser(ctx context.Context, userID int64) ([]model.BorrowDetail, error) {
	q := `SELECT ` + detailCols + detailFrom + `
		WHERE br.user_id = $1
		ORDER BY br.borrow_date DESC`
	return s.queryDetails(ctx, q, userID)
}

func (s *store) ListByBook(ctx context.Context, bookID int64) ([]model.BorrowDetail, error) {
	q := `SELECT ` + detailCols + detailFrom + `
		WHERE br.book_id = $1
		ORDER BY br.borrow_date DESC`
	return s.queryDetails(ctx, q, bookID)
}

func (s *store) queryDetails(ctx context.Context, q string, args ...any) ([]model.BorrowDetail, error) {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BorrowDetail
	for rows.Next() {
		d, err := scanDetail(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (s *store) SweepOverdue(ctx context.Context, now time.Time) (int64, error) {
	const q = `
		UPDATE borrow_records
		SET status = 'overdue',
		    fine_amount = CASE WHEN fine_paid THEN fine_amount
		                       ELSE LEAST(CEIL(EXTRACT(EPOCH FROM ($1::timestamptz - due_date)) / 86400)::bigint * $2, $3::bigint) END,
		    updated_at = $1
		WHERE status = 'active' AND due_date < $1`
	res, err := s.db.ExecContext(ctx, q, now, model.FinePerDay, model.MaxFine)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (s *store) Stats(ctx context.Context) (*model.BorrowStats, error) {
	const q = `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'active'),
		       COUNT(*) FILTER (WHERE status = 'returned'),
		       COUNT(*) FILTER (WHERE status = 'overdue'),
		       COUNT(*) FILTER (WHERE status = 'lost')
		FROM borrow_records`
	st := &model.BorrowStats{MonthlyBorrows: map[string]int64{}}
	err := s.db.QueryRowContext(ctx, q).Scan(
		&st.TotalBorrows, &st.ActiveBorrows, &st.ReturnedBorrows, &st.OverdueBorrows, &st.LostBorrows,
	)
	if err != nil {
		return nil, err
	}

	const monthly = `
		SELECT to_char(date_trunc('month', borrow_date), 'YYYY-MM') AS month, COUNT(*)
		FROM borrow_records
		GROUP BY 1
		ORDER BY 1 DESC
		LIMIT 12`
	rows, err := s.db.QueryContext(ctx, monthly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var month string
		var n int64
		if err := rows.Scan(&month, &n); err != nil {
			return nil, err
		}
		st.MonthlyBorrows[month] = n
	}
	return st, rows.Err()
}
