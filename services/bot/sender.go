package bot

import (
	"context"

	"kakomonbot-backend/services/quiz"
)

// Interaction is one control press on a sent message.
type Interaction struct {
	ControlID string
	MessageID int
	UserID    int64
	UserName  string
	// platform handle for answering this specific event
	CallbackID string
}

// Notifier is the slice of the send capability the interaction tracker
// needs: private replies and post-hoc edits of already-sent messages.
type Notifier interface {
	// Reply answers an interaction privately, visible only to the
	// pressing user.
	Reply(ctx context.Context, ev Interaction, content string) error
	EditMessageText(ctx context.Context, messageID int, content string) error
}

// Sender is the full messaging capability the orchestrator depends on.
// Implementations return the platform-assigned message id of the primary
// message so interaction state can be keyed on it.
type Sender interface {
	Notifier
	SendText(ctx context.Context, content string) (int, error)
	// SendQuestion downloads the message's images, sends the content
	// with its keyboard, and follows up with the attachments batched
	// under the platform's per-message file limit.
	SendQuestion(ctx context.Context, msg quiz.Message, keyboard [][]quiz.Control) (int, error)
	SendPoll(ctx context.Context, poll quiz.Poll) error
}
