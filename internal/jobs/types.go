package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TaskChatTitle = "chat:title"

// ChatTitlePayload asks the worker to replace Fallback with a model-written title.
type ChatTitlePayload struct {
	ChatID   string `json:"chat_id"`
	UserID   string `json:"user_id"`
	Content  string `json:"content"`
	Fallback string `json:"fallback"`
}

// NewChatTitleTask builds the task. Titles are cosmetic, so it is never retried.
func NewChatTitleTask(p ChatTitlePayload) (*asynq.Task, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskChatTitle, b,
		asynq.Queue("default"),
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Second),
	), nil
}
