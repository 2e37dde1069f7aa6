package bookrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/AyomideKayode/book-library-API/model"
)

type Filter struct {
	Q         string
	Genre     string
	Available *bool
	AuthorID  *int64
	Sort      string
	Page      int
	Limit     int
}

type Repo interface {
	Create(ctx context.Context, b *model.Book) error
	ByID(ctx context.Context, id int64) (*model.Book, error)
	List(ctx context.Context, f Filter) ([]model.Book, int64, error)
	Update(ctx context.Context, b *model.Book) error
	Delete(ctx context.Context, id int64) error
	AuthorExists(ctx context.Context, authorID int64) (bool, error)
	HasOpenBorrows(ctx context.Context, id int64) (bool, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

const bookCols = `id, title, author_id, isbn, genre, publication_date, available,
	description, pages, language, publisher, created_at, updated_at`

func scanBook(row interface{ Scan(...any) error }) (*model.Book, error) {
	var b model.Book
	err := row.Scan(&b.ID, &b.Title, &b.AuthorID, &b.ISBN, &b.Genre, &b.PublicationDate,
		&b.Available, &b.Description, &b.Pages, &b.Language, &b.Publisher,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *repo) Create(ctx context.Context, b *model.Book) error {
	const q = `
		INSERT INTO books (title, author_id, isbn, genre, publication_date, description, pages, language, publisher)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		RETURNING id, available, created_at, updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.Title, b.AuthorID, b.ISBN, b.Genre, b.PublicationDate, b.Description, b.Pages, b.Language, b.Publisher,
	).Scan(&b.ID, &b.Available, &b.CreatedAt, &b.UpdatedAt)
}

func (r *repo) ByID(ctx context.Context, id int64) (*model.Book, error) {
	return scanBook(r.db.QueryRowContext(ctx, `SELECT `+bookCols+` FROM books WHERE id = $1`, id))
}

var sortColumns = map[string]string{
	"title":           "title",
	"genre":           "genre",
	"publicationDate": "publication_date",
	"createdAt":       "created_at",
}

func (r *repo) List(ctx context.Context, f Filter) ([]model.Book, int64, error) {
	where := make([]string, 0, 4)
	args := make([]any, 0, 4)
	if f.Q != "" {
		args = append(args, "%"+f.Q+"%")
		where = append(where, fmt.Sprintf("(title ILIKE $%d OR genre ILIKE $%d OR isbn ILIKE $%d)", len(args), len(args), len(args)))
	}
	if f.Genre != "" {
		args = append(args, f.Genre)
		where = append(where, fmt.Sprintf("lower(genre) = lower($%d)", len(args)))
	}
	if f.Available != nil {
		args = append(args, *f.Available)
		where = append(where, fmt.Sprintf("available = $%d", len(args)))
	}
	if f.AuthorID != nil {
		args = append(args, *f.AuthorID)
		where = append(where, fmt.Sprintf("author_id = $%d", len(args)))
	}
	cond := ""
	if len(where) > 0 {
		cond = " WHERE " + strings.Join(where, " AND ")
	}

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM books`+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	order := "title ASC"
	if f.Sort != "" {
		dir := "ASC"
		field := strings.TrimPrefix(f.Sort, "-")
		if strings.HasPrefix(f.Sort, "-") {
			dir = "DESC"
		}
		if col, ok := sortColumns[field]; ok {
			order = col + " " + dir
		}
	}

	page, limit := model.NormalizePage(f.Page, f.Limit)
	args = append(args, limit, (page-1)*limit)
	q := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY %s LIMIT $%d OFFSET $%d`,
		bookCols, cond, order, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []model.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *b)
	}
	return out, total, rows.Err()
}

func (r *repo) Update(ctx context.Context, b *model.Book) error {
	const q = `
		UPDATE books
		SET title = $2, author_id = $3, isbn = $4, genre = $5, publication_date = $6,
		    description = $7, pages = $8, language = $9, publisher = $10,
		    updated_at = now()
		WHERE id = $1
		RETURNING updated_at`
	return r.db.QueryRowContext(ctx, q,
		b.ID, b.Title, b.AuthorID, b.ISBN, b.Genre, b.PublicationDate,
		b.Description, b.Pages, b.Language, b.Publisher,
	).Scan(&b.UpdatedAt)
}

func (r *repo) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	aff, _ := res.RowsAffected()
	if aff == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *repo) AuthorExists(ctx context.Context, authorID int64) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM authors WHERE id = $1)`, authorID).Scan(&exists)
	return exists, err
}

func (r *repo) HasOpenBorrows(ctx context.Context, id int64) (bool, error) {
	const q = `
		SELECT EXISTS (
			SELECT 1 FROM borrow_records
			WHERE book_id = $1 AND status IN ('active','overdue'))`
	var exists bool
	err := r.db.QueryRowContext(ctx, q, id).Scan(&exists)
	return exists, err
}
