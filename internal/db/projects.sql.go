package db

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const createProject = `-- name: CreateProject :one
INSERT INTO projects (user_id, title, description) VALUES ($1, $2, $3)
RETURNING id, user_id, title, description, created_at
`

type CreateProjectParams struct {
	UserID      uuid.UUID
	Title       string
	Description pgtype.Text
}

func (q *Queries) CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, createProject, arg.UserID, arg.Title, arg.Description)
	var i Project
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.CreatedAt)
	return i, err
}

const getProject = `-- name: GetProject :one
SELECT id, user_id, title, description, created_at FROM projects
WHERE id = $1 AND user_id = $2
`

type GetProjectParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetProject(ctx context.Context, arg GetProjectParams) (Project, error) {
	row := q.db.QueryRow(ctx, getProject, arg.ID, arg.UserID)
	var i Project
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.Description, &i.CreatedAt)
	return i, err
}

const listProjects = `-- name: ListProjects :many
SELECT id, user_id, title, description, created_at FROM projects
WHERE user_id = $1
ORDER BY created_at DESC
`

func (q *Queries) ListProjects(ctx context.Context, userID uuid.UUID) ([]Project, error) {
	rows, err := q.db.Query(ctx, listProjects, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Project
	for rows.Next() {
		var i Project
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

const createProjectFile = `-- name: CreateProjectFile :one
INSERT INTO project_files (project_id, name, object_key, url, size, mime_type)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, project_id, name, object_key, url, size, mime_type, created_at
`

type CreateProjectFileParams struct {
	ProjectID uuid.UUID
	Name      string
	ObjectKey string
	URL       string
	Size      int64
	MimeType  pgtype.Text
}

func (q *Queries) CreateProjectFile(ctx context.Context, arg CreateProjectFileParams) (ProjectFile, error) {
	row := q.db.QueryRow(ctx, createProjectFile,
		arg.ProjectID,
		arg.Name,
		arg.ObjectKey,
		arg.URL,
		arg.Size,
		arg.MimeType,
	)
	var i ProjectFile
	err := row.Scan(&i.ID, &i.ProjectID, &i.Name, &i.ObjectKey, &i.URL, &i.Size, &i.MimeType, &i.CreatedAt)
	return i, err
}

const listProjectFiles = `-- name: ListProjectFiles :many
SELECT id, project_id, name, object_key, url, size, mime_type, created_at FROM project_files
WHERE project_id = $1
ORDER BY created_at ASC
`

func (q *Queries) ListProjectFiles(ctx context.Context, projectID uuid.UUID) ([]ProjectFile, error) {
	rows, err := q.db.Query(ctx, listProjectFiles, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ProjectFile
	for rows.Next() {
		var i ProjectFile
		if err := rows.Scan(&i.ID, &i.ProjectID, &i.Name, &i.ObjectKey, &i.URL, &i.Size, &i.MimeType, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
