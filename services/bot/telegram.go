package bot

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"kakomonbot-backend/lib/textutil"
	"kakomonbot-backend/services/quiz"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// answerCallbackQuery alerts are capped by the platform
const callbackAnswerMaxLen = 200

type TelegramOptions struct {
	Token  string
	ChatID int64
	// ImageRetryDelay spaces out image download attempts, zero retries
	// immediately.
	ImageRetryDelay time.Duration
}

// TelegramSender implements Sender on top of the bot API. The question
// message carries the content and the inline keyboard; attachments
// follow as media groups since the platform cannot attach a keyboard to
// a media group.
type TelegramSender struct {
	api    *tgbotapi.BotAPI
	chatID int64
	images *imageFetcher
	events chan Interaction

	// editMessageText drops an existing keyboard unless it is sent
	// again, so remember what each tracked message was sent with
	mu        sync.Mutex
	keyboards map[int]tgbotapi.InlineKeyboardMarkup
}

func NewTelegramSender(opts TelegramOptions) (*TelegramSender, error) {
	api, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		return nil, err
	}
	slog.Info("telegram bot authorized", "account", api.Self.UserName)

	return &TelegramSender{
		api:       api,
		chatID:    opts.ChatID,
		images:    newImageFetcher(opts.ImageRetryDelay),
		events:    make(chan Interaction, 16),
		keyboards: map[int]tgbotapi.InlineKeyboardMarkup{},
	}, nil
}

// Start begins long polling for interaction events. The returned channel
// closes when polling stops.
func (s *TelegramSender) Start(ctx context.Context) <-chan Interaction {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.api.GetUpdatesChan(u)

	go func() {
		defer close(s.events)
		for update := range updates {
			callback := update.CallbackQuery
			if callback == nil || callback.Message == nil {
				continue
			}
			ev := Interaction{
				ControlID:  callback.Data,
				MessageID:  callback.Message.MessageID,
				UserID:     callback.From.ID,
				UserName:   callback.From.FirstName,
				CallbackID: callback.ID,
			}
			select {
			case s.events <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()

	return s.events
}

func (s *TelegramSender) Stop() {
	s.api.StopReceivingUpdates()
}

func (s *TelegramSender) SendText(ctx context.Context, content string) (int, error) {
	sent, err := s.api.Send(tgbotapi.NewMessage(s.chatID, content))
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

func (s *TelegramSender) SendQuestion(ctx context.Context, msg quiz.Message, keyboard [][]quiz.Control) (int, error) {
	attachments, err := s.images.downloadAll(ctx, msg.ImageURLs)
	if err != nil {
		return 0, err
	}

	message := tgbotapi.NewMessage(s.chatID, msg.Content)
	var markup *tgbotapi.InlineKeyboardMarkup
	if len(keyboard) > 0 {
		m := keyboardMarkup(keyboard)
		message.ReplyMarkup = m
		markup = &m
	}
	sent, err := s.api.Send(message)
	if err != nil {
		return 0, err
	}
	if markup != nil {
		s.mu.Lock()
		s.keyboards[sent.MessageID] = *markup
		s.mu.Unlock()
	}

	for _, batch := range chunkAttachments(attachments, MaxFilesPerMessage) {
		if err := s.sendAttachmentBatch(batch); err != nil {
			return 0, err
		}
	}
	return sent.MessageID, nil
}

func (s *TelegramSender) sendAttachmentBatch(batch []attachment) error {
	// media groups need at least two entries
	if len(batch) == 1 {
		file := tgbotapi.FileBytes{Name: batch[0].Name, Bytes: batch[0].Data}
		_, err := s.api.Send(tgbotapi.NewPhoto(s.chatID, file))
		return err
	}

	var media []interface{}
	for _, a := range batch {
		media = append(media, tgbotapi.NewInputMediaPhoto(tgbotapi.FileBytes{
			Name:  a.Name,
			Bytes: a.Data,
		}))
	}
	_, err := s.api.SendMediaGroup(tgbotapi.NewMediaGroup(s.chatID, media))
	return err
}

func (s *TelegramSender) SendPoll(ctx context.Context, poll quiz.Poll) error {
	p := tgbotapi.NewPoll(s.chatID, poll.Title, poll.Answers...)
	p.AllowsMultipleAnswers = poll.AllowMultiselect
	// open_period tops out at 600s on this platform; longer configured
	// durations leave the poll open instead
	if seconds := poll.DurationHours * 3600; seconds <= 600 {
		p.OpenPeriod = seconds
	}
	_, err := s.api.Send(p)
	return err
}

func (s *TelegramSender) EditMessageText(ctx context.Context, messageID int, content string) error {
	edit := tgbotapi.NewEditMessageText(s.chatID, messageID, content)
	s.mu.Lock()
	if markup, ok := s.keyboards[messageID]; ok {
		edit.ReplyMarkup = &markup
	}
	s.mu.Unlock()
	_, err := s.api.Send(edit)
	return err
}

func (s *TelegramSender) Reply(ctx context.Context, ev Interaction, content string) error {
	callback := tgbotapi.NewCallbackWithAlert(ev.CallbackID, textutil.Truncate(content, callbackAnswerMaxLen))
	_, err := s.api.Request(callback)
	return err
}

func keyboardMarkup(keyboard [][]quiz.Control) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, row := range keyboard {
		var buttons []tgbotapi.InlineKeyboardButton
		for _, control := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(control.Label, control.ID))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
