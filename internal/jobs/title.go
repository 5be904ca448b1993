package jobs

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/argushq/argus/internal/completion"
	"github.com/argushq/argus/internal/db"
	"github.com/argushq/argus/internal/prompt"
)

type Completer interface {
	Complete(ctx context.Context, req completion.Request) (string, error)
}

type TitleStore interface {
	SetChatTitleIfUnchanged(ctx context.Context, arg db.SetChatTitleIfUnchangedParams) (int64, error)
}

// TitleHandler writes a model-generated title over the fallback title, unless the
// chat was renamed in the meantime.
type TitleHandler struct {
	Store     TitleStore
	Completer Completer
	Log       zerolog.Logger
}

func (h *TitleHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var p ChatTitlePayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %w: %w", TaskChatTitle, err, asynq.SkipRetry)
	}
	chatID, err := uuid.Parse(p.ChatID)
	if err != nil {
		return fmt.Errorf("chat id %q: %w", p.ChatID, asynq.SkipRetry)
	}
	userID, err := uuid.Parse(p.UserID)
	if err != nil {
		return fmt.Errorf("user id %q: %w", p.UserID, asynq.SkipRetry)
	}

	out, err := h.Completer.Complete(ctx, completion.Request{
		Messages: []completion.Message{
			{Role: completion.RoleSystem, Content: prompt.TitleInstruction},
			{Role: completion.RoleUser, Content: p.Content},
		},
		MaxTokens: 32,
	})
	if err != nil {
		return fmt.Errorf("title completion: %w", err)
	}
	title := prompt.CleanTitle(out)
	if title == "" || out == completion.NoResponse {
		h.Log.Info().Str("chat_id", p.ChatID).Msg("no title generated, keeping fallback")
		return nil
	}

	n, err := h.Store.SetChatTitleIfUnchanged(ctx, db.SetChatTitleIfUnchangedParams{
		ID:       chatID,
		UserID:   userID,
		Title:    title,
		Expected: p.Fallback,
	})
	if err != nil {
		return fmt.Errorf("save title: %w", err)
	}
	h.Log.Info().Str("chat_id", p.ChatID).Int64("updated", n).Str("title", title).Msg("chat title refined")
	return nil
}

// NewMux routes every task type the worker handles.
func NewMux(title *TitleHandler) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskChatTitle, title)
	return mux
}
