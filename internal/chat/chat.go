// Package chat runs the assistant conversation: it stores both sides of each turn and
// relays the history to the completion API.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/argushq/argus/internal/completion"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/jobs"
	"github.com/argushq/argus/internal/prompt"
)

// DefaultTitle marks a chat that has not been named yet.
const DefaultTitle = "New chat"

var (
	ErrChatNotFound = errors.New("chat not found")
	ErrEmptyMessage = errors.New("chatId and content are required")
	ErrUnavailable  = errors.New("OPENAI_API_KEY not configured")
)

// UpstreamError wraps a failed completion call.
type UpstreamError struct{ Err error }

func (e *UpstreamError) Error() string { return "failed to get assistant response: " + e.Err.Error() }
func (e *UpstreamError) Unwrap() error { return e.Err }

type Store interface {
	GetChat(ctx context.Context, arg db.GetChatParams) (db.Chat, error)
	ListMessages(ctx context.Context, chatID uuid.UUID) ([]db.Message, error)
	CreateMessage(ctx context.Context, arg db.CreateMessageParams) (db.Message, error)
	TouchChat(ctx context.Context, arg db.TouchChatParams) error
	UpdateChatTitle(ctx context.Context, arg db.UpdateChatTitleParams) error
}

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type TitleQueue interface {
	EnqueueChatTitle(ctx context.Context, p jobs.ChatTitlePayload) error
}

type Service struct {
	Store     Store
	Completer Completer // nil when no API key is configured
	Titles    TitleQueue
	Prompt    *prompt.Generator
	Model     string
	Log       zerolog.Logger
}

// Result is one assistant turn.
type Result struct {
	Content string `json:"content"`
	Title   string `json:"title,omitempty"`
}

// Reply appends content as a user message to chatID, asks the model for an answer
// and stores it. A chat still carrying DefaultTitle is named after the message.
func (s *Service) Reply(ctx context.Context, userID, chatID uuid.UUID, content string) (Result, error) {
	content = strings.TrimSpace(content)
	if content == "" || chatID == uuid.Nil {
		return Result{}, ErrEmptyMessage
	}
	if s.Completer == nil {
		return Result{}, ErrUnavailable
	}
	c, err := s.Store.GetChat(ctx, db.GetChatParams{ID: chatID, UserID: userID})
	if db.IsNotFound(err) {
		return Result{}, ErrChatNotFound
	}
	if err != nil {
		return Result{}, fmt.Errorf("load chat: %w", err)
	}
	history, err := s.Store.ListMessages(ctx, chatID)
	if err != nil {
		s.Log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("load messages failed, continuing without history")
		history = nil
	}

	if _, err := s.Store.CreateMessage(ctx, db.CreateMessageParams{ChatID: chatID, Role: string(completion.RoleUser), Content: content}); err != nil {
		return Result{}, fmt.Errorf("store user message: %w", err)
	}

	msgs := make([]completion.Message, 0, len(history)+2)
	msgs = append(msgs, completion.Message{Role: completion.RoleSystem, Content: s.Prompt.GenerateWithFallback()})
	for _, m := range history {
		msgs = append(msgs, completion.Message{Role: completion.Role(m.Role), Content: m.Content})
	}
	msgs = append(msgs, completion.Message{Role: completion.RoleUser, Content: content})

	answer, err := s.Completer.Complete(ctx, completion.Request{Model: s.Model, Messages: msgs, MaxTokens: 1024})
	if err != nil {
		return Result{}, &UpstreamError{Err: err}
	}

	if _, err := s.Store.CreateMessage(ctx, db.CreateMessageParams{ChatID: chatID, Role: string(completion.RoleAssistant), Content: answer}); err != nil {
		return Result{}, fmt.Errorf("store assistant message: %w", err)
	}
	if err := s.Store.TouchChat(ctx, db.TouchChatParams{ID: chatID, UserID: userID}); err != nil {
		s.Log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("touch chat failed")
	}

	res := Result{Content: answer}
	if c.Title == "" || c.Title == DefaultTitle {
		res.Title = s.nameChat(ctx, userID, chatID, content)
	}
	return res, nil
}

func (s *Service) nameChat(ctx context.Context, userID, chatID uuid.UUID, content string) string {
	title := prompt.FallbackTitle(content)
	if err := s.Store.UpdateChatTitle(ctx, db.UpdateChatTitleParams{ID: chatID, UserID: userID, Title: title}); err != nil {
		s.Log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("set chat title failed")
		return ""
	}
	if s.Titles != nil {
		err := s.Titles.EnqueueChatTitle(ctx, jobs.ChatTitlePayload{
			ChatID:   chatID.String(),
			UserID:   userID.String(),
			Content:  content,
			Fallback: title,
		})
		if err != nil {
			s.Log.Warn().Err(err).Str("chat_id", chatID.String()).Msg("enqueue title job failed")
		}
	}
	return title
}
