// Package quiz turns scraped questions into the payloads the messaging
// platform understands. Every transform is pure; choice order is
// preserved end to end because it determines button and answer ordering.
package quiz

import (
	"fmt"
	"strings"

	"kakomonbot-backend/lib/textutil"
	"kakomonbot-backend/services/kakomon"
)

const (
	// platform caps
	MaxPollAnswers     = 10
	PollAnswerMaxLen   = 55
	MaxChoiceButtons   = 25
	ButtonsPerRow      = 5
	ButtonLabelMaxLen  = 64
	placeholderContent = "Question"

	RevealControlID = "answer"
	choiceIDPrefix  = "choice_"

	pollTitle   = "本日の過去問"
	revealLabel = "答えを見る"
)

// Message is the displayable form of a question: the text content plus
// every referenced image in question-then-choice order.
type Message struct {
	Content   string
	ImageURLs []string
}

type Poll struct {
	Title            string
	Answers          []string
	DurationHours    int
	AllowMultiselect bool
}

type PollConfig struct {
	Enabled          bool `json:"enabled"`
	DurationHours    int  `json:"duration_hours"`
	AllowMultiselect bool `json:"allow_multiselect"`
}

// Control is one interactive element attached to a sent message.
type Control struct {
	ID    string
	Label string
}

func choiceLine(choice kakomon.Choice) string {
	return strings.TrimSpace(fmt.Sprintf("%s. %s", choice.Label, choice.Text))
}

// BuildMessage renders the question text followed by one "label. text"
// line per choice. Choice lines that collapse to a bare "." are skipped;
// an empty question text falls back to a fixed placeholder.
func BuildMessage(question kakomon.Question) Message {
	content := strings.TrimSpace(question.Text)
	if content == "" {
		content = placeholderContent
	}

	var lines []string
	for _, choice := range question.Choices {
		line := choiceLine(choice)
		if line == "." {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) > 0 {
		content = content + "\n\n" + strings.Join(lines, "\n")
	}

	imageURLs := append([]string{}, question.Images...)
	for _, choice := range question.Choices {
		imageURLs = append(imageURLs, choice.Images...)
	}

	return Message{Content: content, ImageURLs: imageURLs}
}

// BuildPoll maps the first ten choices onto poll answers. The title is a
// fixed short string since the question text is posted as its own
// message; answers over the length cap are cut to 52 runes plus an
// ellipsis.
func BuildPoll(question kakomon.Question, config PollConfig) Poll {
	duration := config.DurationHours
	if duration == 0 {
		duration = 24
	}

	var answers []string
	for _, choice := range question.Choices {
		if len(answers) == MaxPollAnswers {
			break
		}
		answers = append(answers, textutil.Truncate(choiceLine(choice), PollAnswerMaxLen))
	}

	return Poll{
		Title:            pollTitle,
		Answers:          answers,
		DurationHours:    duration,
		AllowMultiselect: config.AllowMultiselect,
	}
}

// BuildKeyboard produces one button per choice, capped at the platform's
// 25-control limit and arranged five per row, each carrying a stable id
// encoding its choice index. A reveal-answer row is appended only when an
// answer key exists.
func BuildKeyboard(question kakomon.Question) [][]Control {
	var rows [][]Control
	var row []Control

	for i, choice := range question.Choices {
		if i == MaxChoiceButtons {
			break
		}
		label := choiceLine(choice)
		if len(label) > ButtonLabelMaxLen {
			label = choice.Label
		}
		row = append(row, Control{
			ID:    fmt.Sprintf("%s%d", choiceIDPrefix, i),
			Label: label,
		})
		if len(row) == ButtonsPerRow {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}

	if len(rows) > 0 && question.Answer != "" {
		rows = append(rows, []Control{{ID: RevealControlID, Label: revealLabel}})
	}

	return rows
}

// ChoiceIndex decodes the choice index out of a control id, returning
// false for the reveal control and anything else that is not a choice.
func ChoiceIndex(controlID string) (int, bool) {
	if !strings.HasPrefix(controlID, choiceIDPrefix) {
		return 0, false
	}
	var index int
	_, err := fmt.Sscanf(strings.TrimPrefix(controlID, choiceIDPrefix), "%d", &index)
	if err != nil || index < 0 {
		return 0, false
	}
	return index, true
}
