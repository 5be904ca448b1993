package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/argushq/argus/internal/completion"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/jobs"
	"github.com/argushq/argus/internal/prompt"
)

type memStore struct {
	chats    map[uuid.UUID]db.Chat
	messages map[uuid.UUID][]db.Message
	touched  int
}

func newMemStore(c db.Chat, history ...db.Message) *memStore {
	return &memStore{
		chats:    map[uuid.UUID]db.Chat{c.ID: c},
		messages: map[uuid.UUID][]db.Message{c.ID: history},
	}
}

func (m *memStore) GetChat(_ context.Context, arg db.GetChatParams) (db.Chat, error) {
	c, ok := m.chats[arg.ID]
	if !ok || c.UserID != arg.UserID {
		return db.Chat{}, db.ErrNotFound
	}
	return c, nil
}

func (m *memStore) ListMessages(_ context.Context, chatID uuid.UUID) ([]db.Message, error) {
	return m.messages[chatID], nil
}

func (m *memStore) CreateMessage(_ context.Context, arg db.CreateMessageParams) (db.Message, error) {
	msg := db.Message{ID: uuid.New(), ChatID: arg.ChatID, Role: arg.Role, Content: arg.Content}
	m.messages[arg.ChatID] = append(m.messages[arg.ChatID], msg)
	return msg, nil
}

func (m *memStore) TouchChat(context.Context, db.TouchChatParams) error {
	m.touched++
	return nil
}

func (m *memStore) UpdateChatTitle(_ context.Context, arg db.UpdateChatTitleParams) error {
	c := m.chats[arg.ID]
	c.Title = arg.Title
	m.chats[arg.ID] = c
	return nil
}

type fakeCompleter struct {
	answer string
	err    error
	got    completion.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req completion.Request) (string, error) {
	f.got = req
	return f.answer, f.err
}

type fakeQueue struct{ got []jobs.ChatTitlePayload }

func (f *fakeQueue) EnqueueChatTitle(_ context.Context, p jobs.ChatTitlePayload) error {
	f.got = append(f.got, p)
	return nil
}

func newService(store Store, comp Completer, q TitleQueue) *Service {
	return &Service{
		Store:     store,
		Completer: comp,
		Titles:    q,
		Prompt:    prompt.NewGenerator(nil, zerolog.Nop()),
		Log:       zerolog.Nop(),
	}
}

func TestReplyNewChat(t *testing.T) {
	user := uuid.New()
	c := db.Chat{ID: uuid.New(), UserID: user, Title: DefaultTitle}
	store := newMemStore(c)
	comp := &fakeCompleter{answer: "Sure, here is a plan."}
	q := &fakeQueue{}
	svc := newService(store, comp, q)

	content := "Can you help me draft a rollout plan for the new billing system?"
	res, err := svc.Reply(context.Background(), user, c.ID, "  "+content+" ")
	require.NoError(t, err)

	assert.Equal(t, "Sure, here is a plan.", res.Content)
	assert.Equal(t, "Can you help me draft a rollout plan for…", res.Title)
	assert.Equal(t, res.Title, store.chats[c.ID].Title)

	msgs := store.messages[c.ID]
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, content, msgs[0].Content)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, 1, store.touched)

	require.Len(t, comp.got.Messages, 2)
	assert.Equal(t, completion.RoleSystem, comp.got.Messages[0].Role)
	assert.Equal(t, prompt.GetDefault(), comp.got.Messages[0].Content)
	assert.Equal(t, 1024, comp.got.MaxTokens)

	require.Len(t, q.got, 1)
	assert.Equal(t, res.Title, q.got[0].Fallback)
	assert.Equal(t, c.ID.String(), q.got[0].ChatID)
}

func TestReplyKeepsExistingTitleAndSendsHistory(t *testing.T) {
	user := uuid.New()
	c := db.Chat{ID: uuid.New(), UserID: user, Title: "Budget"}
	store := newMemStore(c,
		db.Message{Role: "user", Content: "first"},
		db.Message{Role: "assistant", Content: "reply"},
	)
	comp := &fakeCompleter{answer: "ok"}
	q := &fakeQueue{}

	res, err := newService(store, comp, q).Reply(context.Background(), user, c.ID, "second")
	require.NoError(t, err)
	assert.Empty(t, res.Title)
	assert.Equal(t, "Budget", store.chats[c.ID].Title)
	assert.Empty(t, q.got)

	var roles []completion.Role
	for _, m := range comp.got.Messages {
		roles = append(roles, m.Role)
	}
	assert.Equal(t, []completion.Role{"system", "user", "assistant", "user"}, roles)
}

func TestReplyErrors(t *testing.T) {
	user := uuid.New()
	c := db.Chat{ID: uuid.New(), UserID: user, Title: DefaultTitle}

	_, err := newService(newMemStore(c), &fakeCompleter{}, nil).Reply(context.Background(), user, c.ID, "   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)

	_, err = newService(newMemStore(c), nil, nil).Reply(context.Background(), user, c.ID, "hi")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = newService(newMemStore(c), &fakeCompleter{}, nil).Reply(context.Background(), uuid.New(), c.ID, "hi")
	assert.ErrorIs(t, err, ErrChatNotFound, "another user's chat is not found")

	boom := errors.New("429")
	store := newMemStore(c)
	_, err = newService(store, &fakeCompleter{err: boom}, nil).Reply(context.Background(), user, c.ID, "hi")
	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.ErrorIs(t, err, boom)
	assert.Len(t, store.messages[c.ID], 1, "the user message is kept")
	assert.Equal(t, DefaultTitle, store.chats[c.ID].Title)
}
