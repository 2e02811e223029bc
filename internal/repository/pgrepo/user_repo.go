package pgrepo

import (
	"context"

	"github.com/fsdevblog/groph-wallet/internal/domain"
	"github.com/fsdevblog/groph-wallet/internal/repository/repoargs"
	"github.com/fsdevblog/groph-wallet/pkg/uow"
)

type UserRepository struct {
	conn uow.DBTX
}

func NewUserRepository(conn uow.DBTX) *UserRepository {
	return &UserRepository{conn: conn}
}

const createUserSQL = `
INSERT INTO users (name, email, password)
VALUES ($1, $2, $3)
RETURNING id, created_at, updated_at, name, email, password`

func (r *UserRepository) CreateUser(ctx context.Context, args repoargs.CreateUser) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, createUserSQL, args.Name, args.Email, args.Password)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "creating user %s", args.Email)
	}
	return user, nil
}

const findUserByEmailSQL = `
SELECT id, created_at, updated_at, name, email, password
FROM users
WHERE email = $1`

func (r *UserRepository) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, findUserByEmailSQL, email)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by email %s", email)
	}
	return user, nil
}

const findUserByIDSQL = `
SELECT id, created_at, updated_at, name, email, password
FROM users
WHERE id = $1`

func (r *UserRepository) FindUserByID(ctx context.Context, id int64) (*domain.User, error) {
	row := r.conn.QueryRow(ctx, findUserByIDSQL, id)
	user, err := scanUser(row)
	if err != nil {
		return nil, convertErr(err, "finding user by id %d", id)
	}
	return user, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*domain.User, error) {
	var user domain.User
	err := row.Scan(
		&user.ID,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Name,
		&user.Email,
		&user.Password,
	)
	if err != nil {
		return nil, err //nolint:wrapcheck
	}
	return &user, nil
}
