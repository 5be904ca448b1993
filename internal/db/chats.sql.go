package db

import (
	"context"

	"github.com/google/uuid"
)

const createChat = `-- name: CreateChat :one
INSERT INTO chats (user_id, title) VALUES ($1, $2)
RETURNING id, user_id, title, created_at, updated_at
`

type CreateChatParams struct {
	UserID uuid.UUID
	Title  string
}

func (q *Queries) CreateChat(ctx context.Context, arg CreateChatParams) (Chat, error) {
	row := q.db.QueryRow(ctx, createChat, arg.UserID, arg.Title)
	var i Chat
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getChat = `-- name: GetChat :one
SELECT id, user_id, title, created_at, updated_at FROM chats
WHERE id = $1 AND user_id = $2
`

type GetChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) GetChat(ctx context.Context, arg GetChatParams) (Chat, error) {
	row := q.db.QueryRow(ctx, getChat, arg.ID, arg.UserID)
	var i Chat
	err := row.Scan(&i.ID, &i.UserID, &i.Title, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listChats = `-- name: ListChats :many
SELECT id, user_id, title, created_at, updated_at FROM chats
WHERE user_id = $1
ORDER BY updated_at DESC
`

func (q *Queries) ListChats(ctx context.Context, userID uuid.UUID) ([]Chat, error) {
	rows, err := q.db.Query(ctx, listChats, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Chat
	for rows.Next() {
		var i Chat
		if err := rows.Scan(&i.ID, &i.UserID, &i.Title, &i.CreatedAt, &i.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateChatTitle = `-- name: UpdateChatTitle :exec
UPDATE chats SET title = $3, updated_at = now()
WHERE id = $1 AND user_id = $2
`

type UpdateChatTitleParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
	Title  string
}

func (q *Queries) UpdateChatTitle(ctx context.Context, arg UpdateChatTitleParams) error {
	_, err := q.db.Exec(ctx, updateChatTitle, arg.ID, arg.UserID, arg.Title)
	return err
}

const setChatTitleIfUnchanged = `-- name: SetChatTitleIfUnchanged :execrows
UPDATE chats SET title = $3
WHERE id = $1 AND user_id = $2 AND title = $4
`

type SetChatTitleIfUnchangedParams struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	Title    string
	Expected string
}

// SetChatTitleIfUnchanged replaces the title only while it still equals Expected.
func (q *Queries) SetChatTitleIfUnchanged(ctx context.Context, arg SetChatTitleIfUnchangedParams) (int64, error) {
	result, err := q.db.Exec(ctx, setChatTitleIfUnchanged, arg.ID, arg.UserID, arg.Title, arg.Expected)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const touchChat = `-- name: TouchChat :exec
UPDATE chats SET updated_at = now() WHERE id = $1 AND user_id = $2
`

type TouchChatParams struct {
	ID     uuid.UUID
	UserID uuid.UUID
}

func (q *Queries) TouchChat(ctx context.Context, arg TouchChatParams) error {
	_, err := q.db.Exec(ctx, touchChat, arg.ID, arg.UserID)
	return err
}

const createMessage = `-- name: CreateMessage :one
INSERT INTO messages (chat_id, role, content) VALUES ($1, $2, $3)
RETURNING id, chat_id, role, content, created_at
`

type CreateMessageParams struct {
	ChatID  uuid.UUID
	Role    string
	Content string
}

func (q *Queries) CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error) {
	row := q.db.QueryRow(ctx, createMessage, arg.ChatID, arg.Role, arg.Content)
	var i Message
	err := row.Scan(&i.ID, &i.ChatID, &i.Role, &i.Content, &i.CreatedAt)
	return i, err
}

const listMessages = `-- name: ListMessages :many
SELECT id, chat_id, role, content, created_at FROM messages
WHERE chat_id = $1
ORDER BY created_at ASC
`

func (q *Queries) ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error) {
	rows, err := q.db.Query(ctx, listMessages, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Message
	for rows.Next() {
		var i Message
		if err := rows.Scan(&i.ID, &i.ChatID, &i.Role, &i.Content, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
