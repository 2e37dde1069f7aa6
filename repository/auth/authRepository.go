package auth

import (
	"context"
	"database/sql"

	"github.com/AyomideKayode/book-library-API/model"
)

type Repo interface {
	Create(ctx context.Context, s *model.Staff) error
	ByUsername(ctx context.Context, username string) (*model.Staff, error)
}

type repo struct{ db *sql.DB }

func New(db *sql.DB) Repo { return &repo{db: db} }

func (r *repo) Create(ctx context.Context, s *model.Staff) error {
	return r.db.QueryRowContext(ctx, `
		INSERT INTO staff (username, password_hash, role)
		VALUES ($1, $2, $3)
		RETURNING id, created_at`,
		s.Username, s.PasswordHash, s.Role,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *repo) ByUsername(ctx context.Context, username string) (*model.Staff, error) {
	s := &model.Staff{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, password_hash, role, created_at
		FROM staff
		WHERE lower(username) = lower($1)`,
		username,
	).Scan(&s.ID, &s.Username, &s.PasswordHash, &s.Role, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}
