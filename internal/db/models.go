package db

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID           uuid.UUID          `json:"id"`
	Email        string             `json:"email"`
	Name         pgtype.Text        `json:"name"`
	Image        pgtype.Text        `json:"image"`
	PasswordHash pgtype.Text        `json:"-"`
	GoogleSub    pgtype.Text        `json:"-"`
	LobbyUserID  pgtype.Text        `json:"lobby_user_id"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Chat struct {
	ID        uuid.UUID          `json:"id"`
	UserID    uuid.UUID          `json:"user_id"`
	Title     string             `json:"title"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

type Message struct {
	ID        uuid.UUID          `json:"id"`
	ChatID    uuid.UUID          `json:"chat_id"`
	Role      string             `json:"role"`
	Content   string             `json:"content"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}

type Issue struct {
	ID          int64              `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Title       pgtype.Text        `json:"title"`
	Description pgtype.Text        `json:"description"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type Project struct {
	ID          uuid.UUID          `json:"id"`
	UserID      uuid.UUID          `json:"user_id"`
	Title       string             `json:"title"`
	Description pgtype.Text        `json:"description"`
	CreatedAt   pgtype.Timestamptz `json:"created_at"`
}

type ProjectFile struct {
	ID        uuid.UUID          `json:"id"`
	ProjectID uuid.UUID          `json:"project_id"`
	Name      string             `json:"name"`
	ObjectKey string             `json:"object_key"`
	URL       string             `json:"url"`
	Size      int64              `json:"size"`
	MimeType  pgtype.Text        `json:"mime_type"`
	CreatedAt pgtype.Timestamptz `json:"created_at"`
}
