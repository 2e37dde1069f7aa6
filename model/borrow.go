// model/borrow.go
package model

import "time"

type BorrowStatus string

const (
	BorrowActive   BorrowStatus = "active"
	BorrowReturned BorrowStatus = "returned"
	BorrowOverdue  BorrowStatus = "overdue"
	BorrowLost     BorrowStatus = "lost"
)

// Circulation policy. Fine amounts are in currency minor units.
const (
	LoanPeriodDays = 14
	MaxOpenLoans   = 5
	MaxRenewals    = 3
	FinePerDay     = 50
	MaxFine        = 5000
	LostBookFine   = 2000
	DueSoonDays    = 3
)

type BorrowRecord struct {
	ID           int64        `json:"id"`
	UserID       int64        `json:"user_id"`
	BookID       int64        `json:"book_id"`
	BorrowDate   time.Time    `json:"borrow_date"`
	DueDate      time.Time    `json:"due_date"`
	ReturnDate   *time.Time   `json:"return_date,omitempty"`
	Status       BorrowStatus `json:"status"`
	RenewalCount int          `json:"renewal_count"`
	FineAmount   int64        `json:"fine_amount"`
	FinePaid     bool         `json:"fine_paid"`
	Notes        *string      `json:"notes,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Open reports whether the book is still out with the user. An overdue
// loan still holds the physical copy, so it counts as open.
func (r *BorrowRecord) Open() bool {
	return r.Status == BorrowActive || r.Status == BorrowOverdue
}

// DaysBorrowed counts days between borrow date and return date (or now
// for open loans). Partial days round up.
func (r *BorrowRecord) DaysBorrowed(now time.Time) int {
	end := now
	if r.ReturnDate != nil {
		end = *r.ReturnDate
	}
	return ceilDays(end.Sub(r.BorrowDate))
}

// DaysOverdue counts days past the due date. Closed loans are never
// overdue. Any partial day counts as a full day, so twelve hours late
// is one day overdue.
func (r *BorrowRecord) DaysOverdue(now time.Time) int {
	if r.Status == BorrowReturned || r.Status == BorrowLost {
		return 0
	}
	if !now.After(r.DueDate) {
		return 0
	}
	return ceilDays(now.Sub(r.DueDate))
}

// CalculatedFine is the daily-rate fine for the current overdue span,
// capped at MaxFine. Always recomputable from stored fields; the
// persisted fine_amount is just a snapshot.
func (r *BorrowRecord) CalculatedFine(now time.Time) int64 {
	days := r.DaysOverdue(now)
	if days <= 0 {
		return 0
	}
	fine := int64(days) * FinePerDay
	if fine > MaxFine {
		return MaxFine
	}
	return fine
}

func ceilDays(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	const day = 24 * time.Hour
	n := int(d / day)
	if d%day != 0 {
		n++
	}
	return n
}

// UserRef and BookRef carry the joined context callers want alongside a
// borrow record.
type UserRef struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	LibraryCard string `json:"library_card"`
}

type BookRef struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	ISBN     string `json:"isbn"`
	AuthorID int64  `json:"author_id"`
}

type BorrowDetail struct {
	BorrowRecord
	User *UserRef `json:"user,omitempty"`
	Book *BookRef `json:"book,omitempty"`
}

type BorrowStats struct {
	TotalBorrows    int64            `json:"totalBorrows"`
	ActiveBorrows   int64            `json:"activeBorrows"`
	ReturnedBorrows int64            `json:"returnedBorrows"`
	OverdueBorrows  int64            `json:"overdueBorrows"`
	LostBorrows     int64            `json:"lostBorrows"`
	MonthlyBorrows  map[string]int64 `json:"monthlyBorrows"`
}
