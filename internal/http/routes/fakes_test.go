package routes

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/argushq/argus/internal/db"
)

// memQueries is an in-memory db.Querier.
type memQueries struct {
	mu       sync.Mutex
	users    map[uuid.UUID]db.User
	chats    map[uuid.UUID]db.Chat
	messages map[uuid.UUID][]db.Message
	issues   []db.Issue
	projects []db.Project
	files    map[uuid.UUID][]db.ProjectFile
}

var _ db.Querier = (*memQueries)(nil)

func newMemQueries() *memQueries {
	return &memQueries{
		users:    map[uuid.UUID]db.User{},
		chats:    map[uuid.UUID]db.Chat{},
		messages: map[uuid.UUID][]db.Message{},
		files:    map[uuid.UUID][]db.ProjectFile{},
	}
}

func stamp() pgtype.Timestamptz { return pgtype.Timestamptz{Time: time.Now(), Valid: true} }

func (m *memQueries) byEmail(email string) (db.User, bool) {
	for _, u := range m.users {
		if u.Email == email {
			return u, true
		}
	}
	return db.User{}, false
}

func (m *memQueries) CreateUser(_ context.Context, arg db.CreateUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byEmail(arg.Email); ok {
		return db.User{}, &pgconn.PgError{Code: "23505", Message: "duplicate key value"}
	}
	u := db.User{ID: uuid.New(), Email: arg.Email, Name: arg.Name, PasswordHash: arg.PasswordHash, CreatedAt: stamp()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memQueries) EnsureUserByEmail(_ context.Context, email string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.byEmail(email); ok {
		return u, nil
	}
	u := db.User{ID: uuid.New(), Email: email, CreatedAt: stamp()}
	m.users[u.ID] = u
	return u, nil
}

func (m *memQueries) UpsertGoogleUser(_ context.Context, arg db.UpsertGoogleUserParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail(arg.Email)
	if !ok {
		u = db.User{ID: uuid.New(), Email: arg.Email, CreatedAt: stamp()}
	}
	u.Name, u.Image, u.GoogleSub = arg.Name, arg.Image, arg.GoogleSub
	m.users[u.ID] = u
	return u, nil
}

func (m *memQueries) GetUser(_ context.Context, id uuid.UUID) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return u, nil
}

func (m *memQueries) GetUserByEmail(_ context.Context, email string) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail(email)
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	return u, nil
}

func (m *memQueries) UpdateUserLobby(_ context.Context, arg db.UpdateUserLobbyParams) (db.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[arg.ID]
	if !ok {
		return db.User{}, db.ErrNotFound
	}
	u.LobbyUserID = arg.LobbyUserID
	m.users[u.ID] = u
	return u, nil
}

func (m *memQueries) CreateChat(_ context.Context, arg db.CreateChatParams) (db.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := db.Chat{ID: uuid.New(), UserID: arg.UserID, Title: arg.Title, CreatedAt: stamp(), UpdatedAt: stamp()}
	m.chats[c.ID] = c
	return c, nil
}

func (m *memQueries) GetChat(_ context.Context, arg db.GetChatParams) (db.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return db.Chat{}, db.ErrNotFound
	}
	return c, nil
}

func (m *memQueries) ListChats(_ context.Context, userID uuid.UUID) ([]db.Chat, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Chat
	for _, c := range m.chats {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Time.After(out[j].UpdatedAt.Time) })
	return out, nil
}

func (m *memQueries) UpdateChatTitle(_ context.Context, arg db.UpdateChatTitleParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.chats[arg.ID]; ok && c.UserID == arg.UserID {
		c.Title = arg.Title
		m.chats[c.ID] = c
	}
	return nil
}

func (m *memQueries) SetChatTitleIfUnchanged(_ context.Context, arg db.SetChatTitleIfUnchangedParams) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.chats[arg.ID]
	if !ok || c.UserID != arg.UserID || c.Title != arg.Expected {
		return 0, nil
	}
	c.Title = arg.Title
	m.chats[c.ID] = c
	return 1, nil
}

func (m *memQueries) TouchChat(_ context.Context, arg db.TouchChatParams) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.chats[arg.ID]; ok && c.UserID == arg.UserID {
		c.UpdatedAt = stamp()
		m.chats[c.ID] = c
	}
	return nil
}

func (m *memQueries) CreateMessage(_ context.Context, arg db.CreateMessageParams) (db.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := db.Message{ID: uuid.New(), ChatID: arg.ChatID, Role: arg.Role, Content: arg.Content, CreatedAt: stamp()}
	m.messages[arg.ChatID] = append(m.messages[arg.ChatID], msg)
	return msg, nil
}

func (m *memQueries) ListMessages(_ context.Context, chatID uuid.UUID) ([]db.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.Message(nil), m.messages[chatID]...), nil
}

func (m *memQueries) CreateIssue(_ context.Context, arg db.CreateIssueParams) (db.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := db.Issue{ID: int64(len(m.issues) + 1), UserID: arg.UserID, Title: arg.Title, Description: arg.Description, CreatedAt: stamp()}
	m.issues = append(m.issues, i)
	return i, nil
}

func (m *memQueries) GetIssue(_ context.Context, arg db.GetIssueParams) (db.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, i := range m.issues {
		if i.ID == arg.ID && i.UserID == arg.UserID {
			return i, nil
		}
	}
	return db.Issue{}, db.ErrNotFound
}

func (m *memQueries) ListIssues(_ context.Context, userID uuid.UUID) ([]db.Issue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Issue
	for i := len(m.issues) - 1; i >= 0; i-- {
		if m.issues[i].UserID == userID {
			out = append(out, m.issues[i])
		}
	}
	return out, nil
}

func (m *memQueries) CreateProject(_ context.Context, arg db.CreateProjectParams) (db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := db.Project{ID: uuid.New(), UserID: arg.UserID, Title: arg.Title, Description: arg.Description, CreatedAt: stamp()}
	m.projects = append(m.projects, p)
	return p, nil
}

func (m *memQueries) GetProject(_ context.Context, arg db.GetProjectParams) (db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.projects {
		if p.ID == arg.ID && p.UserID == arg.UserID {
			return p, nil
		}
	}
	return db.Project{}, db.ErrNotFound
}

func (m *memQueries) ListProjects(_ context.Context, userID uuid.UUID) ([]db.Project, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []db.Project
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memQueries) CreateProjectFile(_ context.Context, arg db.CreateProjectFileParams) (db.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f := db.ProjectFile{
		ID:        uuid.New(),
		ProjectID: arg.ProjectID,
		Name:      arg.Name,
		ObjectKey: arg.ObjectKey,
		URL:       arg.URL,
		Size:      arg.Size,
		MimeType:  arg.MimeType,
		CreatedAt: stamp(),
	}
	m.files[arg.ProjectID] = append(m.files[arg.ProjectID], f)
	return f, nil
}

func (m *memQueries) ListProjectFiles(_ context.Context, projectID uuid.UUID) ([]db.ProjectFile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]db.ProjectFile(nil), m.files[projectID]...), nil
}
