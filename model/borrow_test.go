package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCalculatedFine(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		due  time.Time
		want int64
	}{
		{"not yet due", now.Add(24 * time.Hour), 0},
		{"due exactly now", now, 0},
		{"twelve hours late is one day", now.Add(-12 * time.Hour), 50},
		{"one full day late", now.Add(-24 * time.Hour), 50},
		{"just past one day rounds to two", now.Add(-25 * time.Hour), 100},
		{"nine and a half days late", now.Add(-228 * time.Hour), 500},
		{"hundred days hits the cap", now.AddDate(0, 0, -100), 5000},
		{"half a year late stays capped", now.Add(-4788 * time.Hour), 5000},
		{"way past the cap stays capped", now.AddDate(0, 0, -365), 5000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := BorrowRecord{
				BorrowDate: tc.due.AddDate(0, 0, -LoanPeriodDays),
				DueDate:    tc.due,
				Status:     BorrowActive,
			}
			require.Equal(t, tc.want, r.CalculatedFine(now))
		})
	}
}

func TestCalculatedFine_ClosedLoans(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ret := now.Add(-time.Hour)

	r := BorrowRecord{
		BorrowDate: now.AddDate(0, 0, -30),
		DueDate:    now.AddDate(0, 0, -16),
		ReturnDate: &ret,
		Status:     BorrowReturned,
	}
	require.Zero(t, r.CalculatedFine(now))
	require.Zero(t, r.DaysOverdue(now))

	r.Status = BorrowLost
	r.ReturnDate = nil
	require.Zero(t, r.CalculatedFine(now))
}

func TestDaysBorrowed(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	r := BorrowRecord{BorrowDate: now.Add(-36 * time.Hour), Status: BorrowActive}
	require.Equal(t, 2, r.DaysBorrowed(now))

	ret := r.BorrowDate.Add(24 * time.Hour)
	r.ReturnDate = &ret
	r.Status = BorrowReturned
	require.Equal(t, 1, r.DaysBorrowed(now))
}

func TestOpen(t *testing.T) {
	for st, want := range map[BorrowStatus]bool{
		BorrowActive:   true,
		BorrowOverdue:  true,
		BorrowReturned: false,
		BorrowLost:     false,
	} {
		r := BorrowRecord{Status: st}
		require.Equal(t, want, r.Open(), "status %s", st)
	}
}
