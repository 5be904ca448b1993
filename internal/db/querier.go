package db

import (
	"context"

	"github.com/google/uuid"
)

type Querier interface {
	CreateChat(ctx context.Context, arg CreateChatParams) (Chat, error)
	CreateIssue(ctx context.Context, arg CreateIssueParams) (Issue, error)
	CreateMessage(ctx context.Context, arg CreateMessageParams) (Message, error)
	CreateProject(ctx context.Context, arg CreateProjectParams) (Project, error)
	CreateProjectFile(ctx context.Context, arg CreateProjectFileParams) (ProjectFile, error)
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	EnsureUserByEmail(ctx context.Context, email string) (User, error)
	GetChat(ctx context.Context, arg GetChatParams) (Chat, error)
	GetIssue(ctx context.Context, arg GetIssueParams) (Issue, error)
	GetProject(ctx context.Context, arg GetProjectParams) (Project, error)
	GetUser(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	ListChats(ctx context.Context, userID uuid.UUID) ([]Chat, error)
	ListIssues(ctx context.Context, userID uuid.UUID) ([]Issue, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]Message, error)
	ListProjectFiles(ctx context.Context, projectID uuid.UUID) ([]ProjectFile, error)
	ListProjects(ctx context.Context, userID uuid.UUID) ([]Project, error)
	SetChatTitleIfUnchanged(ctx context.Context, arg SetChatTitleIfUnchangedParams) (int64, error)
	TouchChat(ctx context.Context, arg TouchChatParams) error
	UpdateChatTitle(ctx context.Context, arg UpdateChatTitleParams) error
	UpdateUserLobby(ctx context.Context, arg UpdateUserLobbyParams) (User, error)
	UpsertGoogleUser(ctx context.Context, arg UpsertGoogleUserParams) (User, error)
}

var _ Querier = (*Queries)(nil)
