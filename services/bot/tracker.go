package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"kakomonbot-backend/services/kakomon"
	"kakomonbot-backend/services/quiz"

	lru "github.com/hashicorp/golang-lru/v2"
)

// how many question messages stay answerable at once. A bounded LRU
// trades unbounded growth for buttons on ancient messages going dead,
// which at one question per day is years of history.
const defaultTrackedMessages = 512

const (
	replyUntrackedMessage = "問題データが見つかりません。"
	replyAlreadyAnswered  = "既に回答済みです。「答えを見る」ボタンをご利用ください。"
	replyInvalidChoice    = "無効な選択肢です。"
	replyNoAnswer         = "答えが利用できません。"
)

type messageState struct {
	mu           sync.Mutex
	question     kakomon.Question
	content      string
	answered     map[int64]struct{}
	firstCorrect int64
}

// Tracker records who answered which question message and credits the
// first correct answerer. All state is in-memory and per-process.
type Tracker struct {
	notifier Notifier
	states   *lru.Cache[int, *messageState]
}

func NewTracker(notifier Notifier) (*Tracker, error) {
	states, err := lru.New[int, *messageState](defaultTrackedMessages)
	if err != nil {
		return nil, err
	}
	return &Tracker{notifier: notifier, states: states}, nil
}

// Track registers a freshly posted question message for interaction
// handling. content is the message text as sent, needed for the
// post-hoc fastest-answerer edit.
func (t *Tracker) Track(messageID int, question kakomon.Question, content string) {
	t.states.Add(messageID, &messageState{
		question: question,
		content:  content,
		answered: map[int64]struct{}{},
	})
}

// FirstCorrect reports the user credited as fastest correct answerer for
// a message, if any.
func (t *Tracker) FirstCorrect(messageID int) (int64, bool) {
	state, ok := t.states.Get(messageID)
	if !ok {
		return 0, false
	}
	state.mu.Lock()
	defer state.mu.Unlock()
	return state.firstCorrect, state.firstCorrect != 0
}

// HandleInteraction processes one control press. Invalid and untracked
// events get a private rejection; nothing here can take the process
// down.
func (t *Tracker) HandleInteraction(ctx context.Context, ev Interaction) {
	if ev.ControlID == quiz.RevealControlID {
		t.reply(ctx, ev, t.handleReveal(ev))
		return
	}
	if index, ok := quiz.ChoiceIndex(ev.ControlID); ok {
		t.reply(ctx, ev, t.handleChoice(ctx, ev, index))
		return
	}
	slog.WarnContext(ctx, "unknown control", "control_id", ev.ControlID, "message_id", ev.MessageID)
}

func (t *Tracker) handleChoice(ctx context.Context, ev Interaction, index int) string {
	state, ok := t.states.Get(ev.MessageID)
	if !ok {
		return replyUntrackedMessage
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if _, answered := state.answered[ev.UserID]; answered {
		return replyAlreadyAnswered
	}
	if index >= len(state.question.Choices) {
		return replyInvalidChoice
	}
	state.answered[ev.UserID] = struct{}{}

	choice := state.question.Choices[index]
	correct := state.question.Answer != "" && state.question.Answer == choice.Label

	var reply strings.Builder
	fmt.Fprintf(&reply, "選択した答え: %s. %s\n\n", choice.Label, choice.Text)
	if state.question.Answer != "" {
		fmt.Fprintf(&reply, "正解: %s\n", state.question.Answer)
		if correct {
			reply.WriteString("✅ 正解！")
		} else {
			reply.WriteString("❌ 不正解")
		}
	}
	if state.question.Explanation != "" {
		fmt.Fprintf(&reply, "\n\n解説:\n%s", state.question.Explanation)
	}

	// exactly one user wins the credit, decided under the lock; only
	// the message edit itself happens off this goroutine
	if correct && state.firstCorrect == 0 {
		state.firstCorrect = ev.UserID
		content := fmt.Sprintf("%s\n\n最速正解者: %s", state.content, ev.UserName)
		go func() {
			err := t.notifier.EditMessageText(ctx, ev.MessageID, content)
			if err != nil {
				slog.WarnContext(ctx, "failed to append fastest-answerer credit",
					"message_id", ev.MessageID, "err", err)
			}
		}()
	}

	return reply.String()
}

// handleReveal marks the user as answered (idempotently, so repeated
// presses keep returning the same answer) and hands back the answer key
// with its explanation.
func (t *Tracker) handleReveal(ev Interaction) string {
	state, ok := t.states.Get(ev.MessageID)
	if !ok {
		return replyUntrackedMessage
	}

	state.mu.Lock()
	defer state.mu.Unlock()

	if state.question.Answer == "" {
		return replyNoAnswer
	}
	state.answered[ev.UserID] = struct{}{}

	var reply strings.Builder
	fmt.Fprintf(&reply, "答え: %s", state.question.Answer)
	if state.question.Explanation != "" {
		fmt.Fprintf(&reply, "\n\n解説:\n%s", state.question.Explanation)
	}
	return reply.String()
}

func (t *Tracker) reply(ctx context.Context, ev Interaction, content string) {
	err := t.notifier.Reply(ctx, ev, content)
	if err != nil {
		slog.WarnContext(ctx, "failed to answer interaction",
			"message_id", ev.MessageID, "user_id", ev.UserID, "err", err)
	}
}
