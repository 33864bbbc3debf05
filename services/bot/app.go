package bot

import (
	"context"
	"errors"
	"log/slog"

	"kakomonbot-backend/services/kakomon"
	"kakomonbot-backend/services/quiz"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("kakomonbot.services.bot")

type Scraper interface {
	Scrape(ctx context.Context) (kakomon.Question, error)
}

// App sequences one scrape-format-send cycle.
type App struct {
	Scraper Scraper
	Sender  Sender
	Poll    quiz.PollConfig
}

// RunResult pairs the platform-assigned id of the question message with
// the question it carries, so the caller can register interaction state.
type RunResult struct {
	MessageID int
	Question  kakomon.Question
	Content   string
}

const maxRunAttempts = 2

// RunOnce scrapes a question and posts it. A failed image download on
// the first attempt restarts the whole cycle with a fresh scrape rather
// than resending: the provider hands out a different question each time,
// so a retry is a new draw, not a replay. Every other failure, and a
// second download failure, propagates unmodified.
func (a App) RunOnce(ctx context.Context) (RunResult, error) {
	ctx, span := tracer.Start(ctx, "app:RunOnce")
	defer span.End()

	var lastErr error
	for attempt := 1; attempt <= maxRunAttempts; attempt++ {
		result, err := a.runAttempt(ctx)
		if err == nil {
			span.SetAttributes(attribute.Int("attempt", attempt))
			return result, nil
		}
		lastErr = err

		var downloadErr *ImageDownloadError
		if errors.As(err, &downloadErr) && attempt < maxRunAttempts {
			slog.WarnContext(ctx, "image downloads failed, retrying with a fresh scrape",
				"failed_urls", len(downloadErr.URLs))
			continue
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "run failed")
		return RunResult{}, err
	}

	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "run failed after retry")
	return RunResult{}, lastErr
}

func (a App) runAttempt(ctx context.Context) (RunResult, error) {
	question, err := a.Scraper.Scrape(ctx)
	if err != nil {
		return RunResult{}, err
	}

	msg := quiz.BuildMessage(question)

	var keyboard [][]quiz.Control
	if !a.Poll.Enabled {
		keyboard = quiz.BuildKeyboard(question)
	}

	messageID, err := a.Sender.SendQuestion(ctx, msg, keyboard)
	if err != nil {
		return RunResult{}, err
	}

	if a.Poll.Enabled && len(question.Choices) > 0 {
		if err := a.Sender.SendPoll(ctx, quiz.BuildPoll(question, a.Poll)); err != nil {
			return RunResult{}, err
		}
	}

	slog.InfoContext(ctx, "question posted",
		"message_id", messageID,
		"choices", len(question.Choices),
		"images", len(msg.ImageURLs))

	return RunResult{MessageID: messageID, Question: question, Content: msg.Content}, nil
}
