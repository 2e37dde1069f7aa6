package userrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AyomideKayode/book-library-API/model"
)

type Filter struct {
	Q      string
	Status *model.UserStatus
	Sort   string
	Page   int
	Limit  int
}

type Repo interface {
	Create(ctx context.Context, u *model.User) error
	ByID(ctx context.Context, id int64) (*model.User, error)
	List(ctx context.Context, f Filter) ([]model.User, int64, error)
	Update(ctx context.Context, u *model.User) error
	Delete(ctx context.Context, id int64) error
	HasOpenLoans(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const userCols = `id, name, email, phone, membership_date, status, library_card, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Phone, &u.MembershipDate, &u.Status,
		&u.LibraryCard, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *repo) Create(ctx context.Context, u *model.User) error {
	const q = `
		INSERT INTO users (name, email, phone, status, library_card)
		VALUES ($1, lower($2), $3, $4, $5)
		RETURNING id, email, membership_date, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, u.Name, u.Email, u.Phone, u.Status, u.LibraryCard).
		Scan(&u.ID, &u.Email, &u.MembershipDate, &u.CreatedAt, &u.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.User, error) {
	return scanUser(r.db.QueryRowContext(ctx, `SELECT `+userCols+` FROM users WHERE id = $1`, id))
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.User, int64, error) {
	where := make([]string, 0, 2)
	args := make([]any, 0, 2)
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		where = append(where, fmt.Sprintf("(name ILIKE $%d OR email ILIKE $%d)", len(args), len(args)))
	}
	if f.Status != nil {
		args = append(args, *f.Status)
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "membership_date DESC"
	if strings.TrimPrefix(f.Sort, "-") == "name" {
		order = "name ASC"
		if strings.HasPrefix(f.Sort, "-") {
			order = "name DESC"
		}
	}

	page, limit := model.NormalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM users%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		userCols, cond, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *u)
	}
	return out, total, rows.Err()
}

func (r *repo) Update(ctx context.Context, u *model.User) error {
	const q = `
		UPDATE users
		SET name = $2, email = lower($3), phone = $4,
		    status = COALESCE(NULLIF($5, ''), status),
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, q, u.ID, u.Name, u.Email, u.Phone, u.Status).
		Scan(&u.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) HasOpenLoans(ctx context.Context, id int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE user_id = $1 AND status IN ('active','overdue'))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, id).Scan(&exists)
	return exists, err
}
