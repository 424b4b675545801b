package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"subtitler/internal/acquire"
	"subtitler/internal/conversation"
	"subtitler/internal/logging"
)

var (
	_ conversation.Replier    = (*Bot)(nil)
	_ conversation.Downloader = (*Bot)(nil)
)

// Options override the Bot API endpoints and HTTP client.
type Options struct {
	// APIEndpoint is a format string with the token and method, e.g.
	// "https://api.telegram.org/bot%s/%s".
	APIEndpoint string
	// FileEndpoint is a format string with the token and file path.
	FileEndpoint string
	HTTPClient   *http.Client
}

// Bot is a connected Telegram bot.
type Bot struct {
	api          *tgbotapi.BotAPI
	http         *http.Client
	fileEndpoint string
	logger       *slog.Logger
}

// New connects to the Bot API and verifies the token with getMe.
func New(token string, opts Options, logger *slog.Logger) (*Bot, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram: token is required")
	}
	if opts.APIEndpoint == "" {
		opts.APIEndpoint = tgbotapi.APIEndpoint
	}
	if opts.FileEndpoint == "" {
		opts.FileEndpoint = tgbotapi.FileEndpoint
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	logger = logging.NewComponentLogger(logger, "telegram")
	_ = tgbotapi.SetLogger(botLogger{logger: logger})

	api, err := tgbotapi.NewBotAPIWithClient(token, opts.APIEndpoint, opts.HTTPClient)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	return &Bot{
		api:          api,
		http:         opts.HTTPClient,
		fileEndpoint: opts.FileEndpoint,
		logger:       logger,
	}, nil
}

// Username returns the bot's @name.
func (b *Bot) Username() string {
	return b.api.Self.UserName
}

// Reply sends a plain text message.
func (b *Bot) Reply(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	return nil
}

// ShowMenu sends text with a reply keyboard.
func (b *Bot) ShowMenu(ctx context.Context, chatID int64, text string, layout [][]string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	rows := make([][]tgbotapi.KeyboardButton, 0, len(layout))
	for _, row := range layout {
		buttons := make([]tgbotapi.KeyboardButton, 0, len(row))
		for _, label := range row {
			buttons = append(buttons, tgbotapi.NewKeyboardButton(label))
		}
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(buttons...))
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewReplyKeyboard(rows...)
	if _, err := b.api.Send(msg); err != nil {
		return fmt.Errorf("telegram: send menu: %w", err)
	}
	return nil
}

// SendDocument uploads the file at path as a document attachment.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path, caption string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
	doc.Caption = caption
	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("telegram: send document: %w", err)
	}
	return nil
}

// Download fetches the attachment fileID into dest.
func (b *Bot) Download(ctx context.Context, fileID, dest string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	file, err := b.api.GetFile(tgbotapi.FileConfig{FileID: fileID})
	if err != nil {
		return fmt.Errorf("telegram: get file: %w", err)
	}
	link := fmt.Sprintf(b.fileEndpoint, b.api.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return fmt.Errorf("telegram: build download request: %w", err)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: download: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram: download returned %d", resp.StatusCode)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("telegram: create %s: %w", dest, err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(dest)
		return fmt.Errorf("telegram: write %s: %w", dest, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return fmt.Errorf("telegram: close %s: %w", dest, err)
	}
	return nil
}

// Poll long-polls for updates and hands each message event to handle until
// ctx is cancelled.
func (b *Bot) Poll(ctx context.Context, timeoutSeconds int, handle func(conversation.Event)) error {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = timeoutSeconds
	updates := b.api.GetUpdatesChan(cfg)
	b.logger.Info("polling for updates", logging.String("bot", b.Username()), logging.Int("timeout_seconds", timeoutSeconds))
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				return errors.New("telegram: update channel closed")
			}
			ev, ok := EventFromMessage(update.Message)
			if !ok {
				continue
			}
			handle(ev)
		}
	}
}

// EventFromMessage converts an incoming message. Only updates that carry no
// chat message are reported as not ok.
func EventFromMessage(msg *tgbotapi.Message) (conversation.Event, bool) {
	if msg == nil || msg.Chat == nil {
		return conversation.Event{}, false
	}
	ev := conversation.Event{
		SessionID:     msg.Chat.ID,
		CorrelationID: fmt.Sprintf("tg-%d-%d", msg.Chat.ID, msg.MessageID),
	}
	switch {
	case msg.Video != nil:
		ev.Upload = &conversation.Upload{Kind: acquire.KindVideo, FileID: msg.Video.FileID, FileName: msg.Video.FileName, Size: int64(msg.Video.FileSize)}
	case msg.Audio != nil:
		ev.Upload = &conversation.Upload{Kind: acquire.KindAudio, FileID: msg.Audio.FileID, FileName: msg.Audio.FileName, Size: int64(msg.Audio.FileSize)}
	case msg.Voice != nil:
		ev.Upload = &conversation.Upload{Kind: acquire.KindVoice, FileID: msg.Voice.FileID, Size: int64(msg.Voice.FileSize)}
	case msg.Document != nil:
		ev.Upload = &conversation.Upload{Kind: acquire.KindDocument, FileID: msg.Document.FileID, FileName: msg.Document.FileName, Size: int64(msg.Document.FileSize)}
	case msg.Text != "":
		ev.Text = msg.Text
	default:
		// Stickers, photos, and the like still reach the machine, which
		// answers with the state's validation message.
	}
	return ev, true
}

type botLogger struct {
	logger *slog.Logger
}

func (l botLogger) Println(v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintln(v...)))
}

func (l botLogger) Printf(format string, v ...any) {
	l.logger.Debug(strings.TrimSpace(fmt.Sprintf(format, v...)))
}
