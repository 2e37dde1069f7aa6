package borrow

import (
	"time"

	"github.com/AyomideKayode/book-library-API/model"
)

// BorrowReq represents borrow payload
// swagger:model BorrowReq
type BorrowReq struct {
	UserID  int64      `json:"userId" validate:"required,gt=0"`
	BookID  int64      `json:"bookId" validate:"required,gt=0"`
	DueDate *time.Time `json:"dueDate,omitempty"`
}

// ReturnReq represents return payload
// swagger:model ReturnReq
type ReturnReq struct {
	BorrowID int64 `json:"borrowId" validate:"required,gt=0"`
}

// ExtendReq represents due-date extension payload
// swagger:model ExtendReq
type ExtendReq struct {
	NewDueDate time.Time `json:"newDueDate" validate:"required"`
}

// RecordResp is a borrow record plus the derived fields recomputed at
// response time.
type RecordResp struct {
	model.BorrowDetail
	DaysBorrowed   int   `json:"days_borrowed"`
	DaysOverdue    int   `json:"days_overdue"`
	CalculatedFine int64 `json:"calculated_fine"`
}

func toResp(d *model.BorrowDetail, now time.Time) RecordResp {
	return RecordResp{
		BorrowDetail:   *d,
		DaysBorrowed:   d.DaysBorrowed(now),
		DaysOverdue:    d.DaysOverdue(now),
		CalculatedFine: d.CalculatedFine(now),
	}
}

func toRespList(ds []model.BorrowDetail, now time.Time) []RecordResp {
	out := make([]RecordResp, 0, len(ds))
	for i := range ds {
		out = append(out, toResp(&ds[i], now))
	}
	return out
}
