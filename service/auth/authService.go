package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/AyomideKayode/book-library-API/model"
	authrepo "github.com/AyomideKayode/book-library-API/repository/auth"
	"github.com/AyomideKayode/book-library-API/util/hash"
	jwtutil "github.com/AyomideKayode/book-library-API/util/jwt"
)

type ErrCode string

const (
	ErrBadInput      ErrCode = "BAD_INPUT"
	ErrUsernameTaken ErrCode = "USERNAME_TAKEN"
	ErrInvalidCreds  ErrCode = "INVALID_CREDENTIALS"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

type Service interface {
	Register(ctx context.Context, req model.StaffRegisterReq) (*model.Staff, string, error)
	Login(ctx context.Context, req model.StaffLoginReq) (*model.Staff, string, error)
}

type service struct {
	r      authrepo.Repo
	secret string
}

func New(r authrepo.Repo, secret string) Service { return &service{r: r, secret: secret} }

func (s *service) Register(ctx context.Context, req model.StaffRegisterReq) (*model.Staff, string, error) {
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" || len(req.Password) < 6 {
		return nil, "", makeErr(ErrBadInput)
	}

	hashed, err := hash.HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	st := &model.Staff{
		Username:     username,
		PasswordHash: hashed,
		Role:         "librarian",
	}
	if err := s.r.Create(ctx, st); err != nil {
		if isUniqueViolation(err) {
			return nil, "", makeErr(ErrUsernameTaken)
		}
		return nil, "", err
	}

	token, err := jwtutil.Issue(s.secret, st.ID, st.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return st, token, nil
}

func (s *service) Login(ctx context.Context, req model.StaffLoginReq) (*model.Staff, string, error) {
	st, err := s.r.ByUsername(ctx, req.Username)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", makeErr(ErrInvalidCreds)
	}
	if err != nil {
		return nil, "", err
	}
	if !hash.Check(st.PasswordHash, req.Password) {
		return nil, "", makeErr(ErrInvalidCreds)
	}

	token, err := jwtutil.Issue(s.secret, st.ID, st.Role, 24)
	if err != nil {
		return nil, "", err
	}
	return st, token, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
