package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, email, name, image, password_hash, google_sub, lobby_user_id, created_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var i User
	err := row.Scan(
		&i.ID,
		&i.Email,
		&i.Name,
		&i.Image,
		&i.PasswordHash,
		&i.GoogleSub,
		&i.LobbyUserID,
		&i.CreatedAt,
	)
	return i, err
}

const getUser = `-- name: GetUser :one
SELECT ` + userColumns + ` FROM users WHERE id = $1
`

func (q *Queries) GetUser(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUser, id))
}

const getUserByEmail = `-- name: GetUserByEmail :one
SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1)
`

func (q *Queries) GetUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByEmail, email))
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (email, name, password_hash)
VALUES (lower($1), $2, $3)
RETURNING ` + userColumns

type CreateUserParams struct {
	Email        string
	Name         pgtype.Text
	PasswordHash pgtype.Text
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, createUser, arg.Email, arg.Name, arg.PasswordHash))
}

const ensureUserByEmail = `-- name: EnsureUserByEmail :one
INSERT INTO users (email)
VALUES (lower($1))
ON CONFLICT (email) DO UPDATE SET email = EXCLUDED.email
RETURNING ` + userColumns

// EnsureUserByEmail finds or creates the user for a verified email address.
func (q *Queries) EnsureUserByEmail(ctx context.Context, email string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, ensureUserByEmail, email))
}

const upsertGoogleUser = `-- name: UpsertGoogleUser :one
INSERT INTO users (email, name, image, google_sub)
VALUES (lower($1), $2, $3, $4)
ON CONFLICT (email) DO UPDATE SET
    google_sub = EXCLUDED.google_sub,
    name       = COALESCE(users.name, EXCLUDED.name),
    image      = COALESCE(EXCLUDED.image, users.image)
RETURNING ` + userColumns

type UpsertGoogleUserParams struct {
	Email     string
	Name      pgtype.Text
	Image     pgtype.Text
	GoogleSub pgtype.Text
}

func (q *Queries) UpsertGoogleUser(ctx context.Context, arg UpsertGoogleUserParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, upsertGoogleUser, arg.Email, arg.Name, arg.Image, arg.GoogleSub))
}

const updateUserLobby = `-- name: UpdateUserLobby :one
UPDATE users SET lobby_user_id = $2 WHERE id = $1
RETURNING ` + userColumns

type UpdateUserLobbyParams struct {
	ID          uuid.UUID
	LobbyUserID pgtype.Text
}

func (q *Queries) UpdateUserLobby(ctx context.Context, arg UpdateUserLobbyParams) (User, error) {
	return scanUser(q.db.QueryRow(ctx, updateUserLobby, arg.ID, arg.LobbyUserID))
}
