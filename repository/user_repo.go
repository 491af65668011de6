package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"inkblog/models"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrUsernameTaken = errors.New("username already taken")
	ErrEmailTaken    = errors.New("email already in use")
)

const userColumns = `id,name,username,email,avatar,password_hash,created_at`

const uniqueViolation = "23505"

const userQueryByEmail = `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`

type UserRepo struct {
	DB *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{DB: db} }

func (r *UserRepo) Create(ctx context.Context, u *models.User) error {
	err := r.DB.QueryRow(ctx,
		`INSERT INTO users(id, name, username, email, password_hash) VALUES ($1,$2,$3,$4,$5) RETURNING created_at`,
		u.ID, u.Name, u.Username, u.Email, u.PasswordHash,
	).Scan(&u.CreatedAt)
	if err != nil {
		return wrapUnique(err)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, userQueryByEmail, email)
}

// Update writes only the non-nil fields of upd.
func (r *UserRepo) Update(ctx context.Context, id string, upd models.UserUpdate) (*models.User, error) {
	set := ""
	args := []any{}
	arg := 1
	add := func(col string, v *string) {
		if v == nil {
			return
		}
		set += fmt.Sprintf("%s=$%d,", col, arg)
		args = append(args, *v)
		arg++
	}
	add("name", upd.Name)
	add("username", upd.Username)
	add("email", upd.Email)
	add("password_hash", upd.PasswordHash)
	if set == "" {
		return r.GetByID(ctx, id)
	}
	set = set[:len(set)-1]
	args = append(args, id)

	tag, err := r.DB.Exec(ctx, fmt.Sprintf(`UPDATE users SET %s WHERE id=$%d`, set, arg), args...)
	if err != nil {
		return nil, wrapUnique(err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) SetAvatar(ctx context.Context, id, url string) (*models.User, error) {
	tag, err := r.DB.Exec(ctx, `UPDATE users SET avatar=$1 WHERE id=$2`, url, id)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var u models.User
	err := r.DB.QueryRow(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Username, &u.Email, &u.Avatar, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func wrapUnique(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return err
	}
	switch pgErr.ConstraintName {
	case "users_username_key":
		return ErrUsernameTaken
	case "users_email_key":
		return ErrEmailTaken
	}
	return fmt.Errorf("unique violation on %s: %w", pgErr.ConstraintName, err)
}
