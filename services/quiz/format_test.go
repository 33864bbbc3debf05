package quiz

import (
	"fmt"
	"strings"
	"testing"

	"kakomonbot-backend/services/kakomon"

	"github.com/stretchr/testify/require"
)

func question(choices int) kakomon.Question {
	q := kakomon.Question{
		Text:   "正しいものはどれか。",
		Answer: "ア",
	}
	labels := []string{"ア", "イ", "ウ", "エ"}
	for i := 0; i < choices; i++ {
		q.Choices = append(q.Choices, kakomon.Choice{
			Label: labels[i%len(labels)],
			Text:  fmt.Sprintf("選択肢%d", i+1),
		})
	}
	return q
}

func TestBuildMessage(t *testing.T) {
	q := question(2)
	q.Images = []string{"https://example.com/q.png"}
	q.Choices[0].Images = []string{"https://example.com/c0.png"}
	q.Choices[1].Images = []string{"https://example.com/c1.png"}

	msg := BuildMessage(q)

	require.Equal(t, "正しいものはどれか。\n\nア. 選択肢1\nイ. 選択肢2", msg.Content)
	// question images first, then choice images in choice order
	require.Equal(t, []string{
		"https://example.com/q.png",
		"https://example.com/c0.png",
		"https://example.com/c1.png",
	}, msg.ImageURLs)
}

func TestBuildMessagePlaceholderAndSkippedLines(t *testing.T) {
	q := kakomon.Question{
		Choices: []kakomon.Choice{
			{Label: "", Text: ""},
			{Label: "ア", Text: "本物"},
		},
	}

	msg := BuildMessage(q)
	require.Equal(t, "Question\n\nア. 本物", msg.Content)
}

func TestBuildMessageNoChoices(t *testing.T) {
	msg := BuildMessage(kakomon.Question{Text: "文章のみ"})
	require.Equal(t, "文章のみ", msg.Content)
	require.Empty(t, msg.ImageURLs)
}

func TestBuildPollCapsAnswers(t *testing.T) {
	q := question(12)
	poll := BuildPoll(q, PollConfig{})

	require.Equal(t, "本日の過去問", poll.Title)
	require.Len(t, poll.Answers, MaxPollAnswers)
	require.Equal(t, 24, poll.DurationHours)
	require.False(t, poll.AllowMultiselect)
	require.Equal(t, "ア. 選択肢1", poll.Answers[0])
}

func TestBuildPollTruncatesLongAnswers(t *testing.T) {
	q := kakomon.Question{Choices: []kakomon.Choice{
		{Label: "ア", Text: strings.Repeat("長", 80)},
	}}
	poll := BuildPoll(q, PollConfig{DurationHours: 1, AllowMultiselect: true})

	require.Len(t, poll.Answers, 1)
	require.LessOrEqual(t, len([]rune(poll.Answers[0])), PollAnswerMaxLen)
	require.True(t, strings.HasSuffix(poll.Answers[0], "..."))
	require.Equal(t, 1, poll.DurationHours)
	require.True(t, poll.AllowMultiselect)
}

func TestBuildPollShortAnswersUntouched(t *testing.T) {
	poll := BuildPoll(question(3), PollConfig{})
	for _, answer := range poll.Answers {
		require.False(t, strings.HasSuffix(answer, "..."))
	}
}

func TestBuildKeyboardNoChoices(t *testing.T) {
	require.Empty(t, BuildKeyboard(kakomon.Question{Text: "x", Answer: "ア"}))
}

func TestBuildKeyboardRowsOfFive(t *testing.T) {
	rows := BuildKeyboard(question(7))

	// 5 + 2 choice buttons, then the reveal row
	require.Len(t, rows, 3)
	require.Len(t, rows[0], 5)
	require.Len(t, rows[1], 2)
	require.Equal(t, []Control{{ID: RevealControlID, Label: "答えを見る"}}, rows[2])
	require.Equal(t, "choice_0", rows[0][0].ID)
	require.Equal(t, "choice_6", rows[1][1].ID)
}

func TestBuildKeyboardCapsAtTwentyFive(t *testing.T) {
	rows := BuildKeyboard(question(30))

	total := 0
	var last Control
	for _, row := range rows {
		for _, control := range row {
			if control.ID != RevealControlID {
				total++
				last = control
			}
		}
	}
	require.Equal(t, MaxChoiceButtons, total)
	require.Equal(t, "choice_24", last.ID)
}

func TestBuildKeyboardNoRevealWithoutAnswer(t *testing.T) {
	q := question(3)
	q.Answer = ""
	rows := BuildKeyboard(q)

	require.Len(t, rows, 1)
	for _, control := range rows[0] {
		require.NotEqual(t, RevealControlID, control.ID)
	}
}

func TestBuildKeyboardLongLabelFallsBackToBareLabel(t *testing.T) {
	q := kakomon.Question{Choices: []kakomon.Choice{
		{Label: "ア", Text: strings.Repeat("あ", 40)},
	}}
	rows := BuildKeyboard(q)
	require.Equal(t, "ア", rows[0][0].Label)
}

func TestChoiceIndex(t *testing.T) {
	index, ok := ChoiceIndex("choice_3")
	require.True(t, ok)
	require.Equal(t, 3, index)

	_, ok = ChoiceIndex(RevealControlID)
	require.False(t, ok)
	_, ok = ChoiceIndex("garbage")
	require.False(t, ok)
}
