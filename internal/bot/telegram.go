package bot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// Bot wires the Handler to the Telegram long-poll loop.
type Bot struct {
	api     *tgbotapi.BotAPI
	handler *Handler
	files   *http.Client
	log     zerolog.Logger
}

func New(token string, handler *Handler, log zerolog.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("bot: authorize: %w", err)
	}
	return &Bot{
		api:     api,
		handler: handler,
		files:   &http.Client{Timeout: 30 * time.Second},
		log:     log,
	}, nil
}

// Start consumes updates until ctx is cancelled. Each update is handled
// to completion before the next one is read.
func (b *Bot) Start(ctx context.Context) {
	b.log.Info().Str("username", b.api.Self.UserName).Msg("bot authorized")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if cb.From == nil {
			return
		}
		reply := b.handler.HandleCallback(ctx, cb.From.ID, cb.Data)

		// Always ack so the client stops showing a spinner, even for
		// stale presses we ignore.
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			b.log.Warn().Err(err).Msg("callback ack failed")
		}
		if cb.Message != nil {
			b.send(cb.Message.Chat.ID, reply)
		}

	case update.Message != nil:
		msg := update.Message
		// Channel posts carry no sender; per-user state needs one.
		if msg.From == nil {
			return
		}
		var reply Reply
		if len(msg.Photo) > 0 {
			reply = b.handlePhoto(msg)
		} else {
			reply = b.handler.HandleMessage(ctx, msg.From.ID, msg.Text)
		}
		b.send(msg.Chat.ID, reply)
	}
}

// handlePhoto downloads the largest rendition of a photo message and
// hands the bytes to the barcode scanner.
func (b *Bot) handlePhoto(msg *tgbotapi.Message) Reply {
	photo := msg.Photo[len(msg.Photo)-1]

	fileURL, err := b.api.GetFileDirectURL(photo.FileID)
	if err != nil {
		b.log.Error().Err(err).Msg("resolve photo url")
		return Reply{Text: "I couldn't fetch that photo. Please try again."}
	}

	resp, err := b.files.Get(fileURL)
	if err != nil {
		b.log.Error().Err(err).Msg("download photo")
		return Reply{Text: "I couldn't fetch that photo. Please try again."}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		b.log.Error().Err(err).Msg("read photo")
		return Reply{Text: "I couldn't fetch that photo. Please try again."}
	}

	return b.handler.HandleScan(msg.From.ID, data)
}

func (b *Bot) send(chatID int64, reply Reply) {
	if reply.IsZero() {
		return
	}

	if reply.Document != nil {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
			Name:  reply.Document.Name,
			Bytes: reply.Document.Data,
		})
		doc.Caption = reply.Text
		if _, err := b.api.Send(doc); err != nil {
			b.log.Error().Err(err).Msg("send document")
		}
		return
	}

	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Choices) > 0 {
		rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Choices))
		for _, c := range reply.Choices {
			rows = append(rows, tgbotapi.NewInlineKeyboardRow(
				tgbotapi.NewInlineKeyboardButtonData(c.Label, c.Tag),
			))
		}
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	}
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Msg("send message")
	}
}
