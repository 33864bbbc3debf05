package bot

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"kakomonbot-backend/services/kakomon"

	"github.com/stretchr/testify/require"
)

type fakeNotifier struct {
	mu      sync.Mutex
	replies []string
	edits   []string
}

func (n *fakeNotifier) Reply(ctx context.Context, ev Interaction, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.replies = append(n.replies, content)
	return nil
}

func (n *fakeNotifier) EditMessageText(ctx context.Context, messageID int, content string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.edits = append(n.edits, content)
	return nil
}

func (n *fakeNotifier) editCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.edits)
}

func (n *fakeNotifier) lastReply(t *testing.T) string {
	n.mu.Lock()
	defer n.mu.Unlock()
	require.NotEmpty(t, n.replies)
	return n.replies[len(n.replies)-1]
}

func trackedQuestion() kakomon.Question {
	return kakomon.Question{
		Text: "正しいものはどれか。",
		Choices: []kakomon.Choice{
			{Label: "ア", Text: "正しい"},
			{Label: "イ", Text: "誤り"},
		},
		Answer:      "ア",
		Explanation: "アが正しい。",
	}
}

func setupTracker(t *testing.T) (*Tracker, *fakeNotifier) {
	notifier := &fakeNotifier{}
	tracker, err := NewTracker(notifier)
	require.NoError(t, err)
	return tracker, notifier
}

func choiceEvent(messageID int, userID int64, index int) Interaction {
	return Interaction{
		ControlID: fmt.Sprintf("choice_%d", index),
		MessageID: messageID,
		UserID:    userID,
		UserName:  fmt.Sprintf("user%d", userID),
	}
}

func TestUntrackedMessageRejected(t *testing.T) {
	tracker, notifier := setupTracker(t)

	tracker.HandleInteraction(context.Background(), choiceEvent(999, 1, 0))
	require.Equal(t, replyUntrackedMessage, notifier.lastReply(t))
}

func TestCorrectChoiceReply(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 0))

	reply := notifier.lastReply(t)
	require.Contains(t, reply, "選択した答え: ア. 正しい")
	require.Contains(t, reply, "正解: ア")
	require.Contains(t, reply, "✅ 正解！")
	require.Contains(t, reply, "アが正しい。")

	first, ok := tracker.FirstCorrect(1)
	require.True(t, ok)
	require.Equal(t, int64(7), first)

	// the credit edit happens off the handler goroutine
	require.Eventually(t, func() bool { return notifier.editCount() == 1 },
		time.Second, time.Millisecond*10)
	require.Contains(t, notifier.edits[0], "最速正解者: user7")
}

func TestIncorrectChoiceReply(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 1))

	reply := notifier.lastReply(t)
	require.Contains(t, reply, "❌ 不正解")

	_, ok := tracker.FirstCorrect(1)
	require.False(t, ok)
}

func TestSecondAnswerRejected(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 1))
	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 0))

	require.Equal(t, replyAlreadyAnswered, notifier.lastReply(t))
	// the rejected press must not win the correctness credit
	_, ok := tracker.FirstCorrect(1)
	require.False(t, ok)
}

func TestInvalidChoiceIndexRejected(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 5))
	require.Equal(t, replyInvalidChoice, notifier.lastReply(t))
}

func TestRevealIsIdempotent(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	reveal := Interaction{ControlID: "answer", MessageID: 1, UserID: 7}
	tracker.HandleInteraction(context.Background(), reveal)
	first := notifier.lastReply(t)
	require.Contains(t, first, "答え: ア")
	require.Contains(t, first, "アが正しい。")

	tracker.HandleInteraction(context.Background(), reveal)
	require.Equal(t, first, notifier.lastReply(t))

	// revealing counts as answering
	tracker.HandleInteraction(context.Background(), choiceEvent(1, 7, 0))
	require.Equal(t, replyAlreadyAnswered, notifier.lastReply(t))
}

func TestRevealWithoutAnswerKeyRejected(t *testing.T) {
	tracker, notifier := setupTracker(t)
	q := trackedQuestion()
	q.Answer = ""
	tracker.Track(1, q, "content")

	tracker.HandleInteraction(context.Background(), Interaction{ControlID: "answer", MessageID: 1, UserID: 7})
	require.Equal(t, replyNoAnswer, notifier.lastReply(t))
}

func TestFirstCorrectAnswererRace(t *testing.T) {
	tracker, notifier := setupTracker(t)
	tracker.Track(1, trackedQuestion(), "content")

	const users = 32
	var wg sync.WaitGroup
	for i := 1; i <= users; i++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			tracker.HandleInteraction(context.Background(), choiceEvent(1, userID, 0))
		}(int64(i))
	}
	wg.Wait()

	_, ok := tracker.FirstCorrect(1)
	require.True(t, ok)

	// exactly one user ever wins the credit
	require.Eventually(t, func() bool { return notifier.editCount() == 1 },
		time.Second, time.Millisecond*10)
	time.Sleep(time.Millisecond * 50)
	require.Equal(t, 1, notifier.editCount())
}
