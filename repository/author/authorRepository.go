package authorrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AyomideKayode/book-library-API/model"
)

type Filter struct {
	Q     string
	Sort  string
	Page  int
	Limit int
}

type Repo interface {
	Create(ctx context.Context, a *model.Author) error
	ByID(ctx context.Context, id int64) (*model.Author, error)
	List(ctx context.Context, f Filter) ([]model.Author, int64, error)
	Update(ctx context.Context, a *model.Author) error
	Delete(ctx context.Context, id int64) error
	HasBooks(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const authorCols = `id, name, email, biography, birth_date, created_at, updated_at`

func scanAuthor(row interface{ Scan(...any) error }) (*model.Author, error) {
	var a model.Author
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Biography, &a.BirthDate, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repo) Create(ctx context.Context, a *model.Author) error {
	const q = `
		INSERT INTO authors (name, email, biography, birth_date)
		VALUES ($1,$2,$3,$4)
		RETURNING id, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q, a.Name, a.Email, a.Biography, a.BirthDate).
		Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Author, error) {
	return scanAuthor(r.db.QueryRowContext(ctx, `SELECT `+authorCols+` FROM authors WHERE id = $1`, id))
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Author, int64, error) {
	cond := ""
	args := make([]any, 0, 3)
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		cond = " WHERE (name ILIKE $1 OR email ILIKE $1)"
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM authors`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "name ASC"
	if strings.TrimPrefix(f.Sort, "-") == "createdAt" {
		order = "created_at ASC"
		if strings.HasPrefix(f.Sort, "-") {
			order = "created_at DESC"
		}
	}

	page, limit := model.NormalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM authors%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		authorCols, cond, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Author
	for rows.Next() {
		a, err := scanAuthor(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *a)
	}
	return out, total, rows.Err()
}

func (r *repo) Update(ctx context.Context, a *model.Author) error {
	const q = `
		UPDATE authors
		SET name = $2, email = $3, biography = $4, birth_date = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, q, a.ID, a.Name, a.Email, a.Biography, a.BirthDate).
		Scan(&a.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM authors WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) HasBooks(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE author_id = $1)`, id).Scan(&exists)
	return exists, err
}
