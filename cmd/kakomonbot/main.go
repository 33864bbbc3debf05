package main

import (
	"context"
	"log/slog"
	"time"

	"kakomonbot-backend/lib/serviceutil"
	"kakomonbot-backend/lib/telemetry"
	"kakomonbot-backend/lib/timezone"
	"kakomonbot-backend/services/bot"
	"kakomonbot-backend/services/kakomon"
)

func main() {
	ctx := serviceutil.SignalContext()

	config, err := loadConfig("config.json5")
	if err != nil {
		telemetry.InitSlog(false)
		serviceutil.Fatal("failed to load configuration", err)
	}
	telemetry.InitSlog(config.Verbose)

	tel, err := telemetry.SetupFromEnv(ctx, "kakomonbot")
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	defer tel.Shutdown(context.Background())
	telemetry.InstrumentPerfStats(ctx)

	location := timezone.Location
	if config.Timezone != "" {
		location, err = time.LoadLocation(config.Timezone)
		if err != nil {
			serviceutil.Fatal("failed to load timezone", err)
		}
	}

	scraper, err := kakomon.NewClient(kakomon.ClientOptions{
		TargetURL: config.TargetURL,
		Proxy:     config.Proxy,
		Search:    *config.Kakomon,
		Request:   config.Request,
		Selectors: config.Selectors,
	})
	if err != nil {
		serviceutil.Fatal("failed to create provider client", err)
	}

	sender, err := bot.NewTelegramSender(bot.TelegramOptions{
		Token:           config.Telegram.Token,
		ChatID:          config.Telegram.ChatID,
		ImageRetryDelay: time.Duration(config.ImageRetryDelayMs) * time.Millisecond,
	})
	if err != nil {
		serviceutil.Fatal("failed to create telegram sender", err)
	}

	tracker, err := bot.NewTracker(sender)
	if err != nil {
		serviceutil.Fatal("failed to create interaction tracker", err)
	}

	app := bot.App{
		Scraper: scraper,
		Sender:  sender,
		Poll:    config.Poll,
	}

	events := sender.Start(ctx)
	go func() {
		for ev := range events {
			tracker.HandleInteraction(ctx, ev)
		}
	}()

	scheduler := bot.NewScheduler(location)
	err = scheduler.ScheduleDaily(config.Cron, func() {
		runJob(ctx, app, tracker, config.Poll.Enabled)
	})
	if err != nil {
		serviceutil.Fatal("failed to schedule job", err)
	}
	scheduler.Start()
	slog.Info("scheduled daily question", "cron", config.Cron, "timezone", location.String())

	<-ctx.Done()
	slog.Info("shutting down")
	scheduler.Stop()
	sender.Stop()
}

// runJob posts one question and registers it for interaction tracking.
// Errors are logged, never fatal: one failed cycle must not take the
// scheduler down with it.
func runJob(ctx context.Context, app bot.App, tracker *bot.Tracker, pollMode bool) {
	slog.InfoContext(ctx, "job started")

	result, err := app.RunOnce(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "job failed", "err", err)
		return
	}

	// polls collect votes natively and a question without choices has
	// no buttons, so neither needs interaction state
	if !pollMode && len(result.Question.Choices) > 0 {
		tracker.Track(result.MessageID, result.Question, result.Content)
	}
	slog.InfoContext(ctx, "job completed", "message_id", result.MessageID)
}
