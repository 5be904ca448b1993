package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createIssue = `-- name: CreateIssue :one
INSERT INTO issues (user_id, title, description) VALUES ($1, $2, $3)
RETURNING id, user_id, title, description, created_at
`

type CreateIssueParams struct {
	UserID      uuid.UUID
	Title       pgtype.Text
	Description pgtype.Text
}

func (q *Queries) CreateIssue(ctx context.Context, arg CreateIssueParams) (Issue, error) {
	row := q.db.QueryRow(ctx, createIssue, arg.UserID, arg.Title, arg.Description)
	var i Issue
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.CreatedAt)
	return i, err
}

const getIssue = `-- name: GetIssue :one
SELECT id, user_id, title, description, created_at FROM issues
WHERE id = $1 AND user_id = $2
`

type GetIssueParams struct {
	ID     int64
	UserID uuid.UUID
}

func (q *Queries) GetIssue(ctx context.Context, arg GetIssueParams) (Issue, error) {
	row := q.db.QueryRow(ctx, getIssue, arg.ID, arg.UserID)
	var i Issue
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.CreatedAt)
	return i, err
}

const listIssues = `-- name: ListIssues :many
SELECT id, user_id, title, description, created_at FROM issues
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListIssues(ctx context.Context, userID uuid.UUID) ([]Issue, error) {
	rows, err := q.db.Query(ctx, listIssues, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Issue
	for rows.Next() {
		var i Issue
		if err := rows.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
