package notify

import (
	"context"
	"fmt"
	"html"

	"painsignal/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

const telegramPreviewLength = 300

type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramSink posts a short summary of each record to one chat.
type TelegramSink struct {
	api    messageSender
	chatID int64
}

// NewTelegramBotSink authorizes the bot and returns a sink for chatID.
func NewTelegramBotSink(token string, chatID int64, logger *zap.Logger) (*TelegramSink, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}

	logger.Info("Telegram notifications enabled", zap.String("username", botAPI.Self.UserName))
	return &TelegramSink{api: botAPI, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

// Send posts the record. The bot API has no context support, so ctx is only
// checked before the call.
func (s *TelegramSink) Send(ctx context.Context, rec *models.PainPointRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := tgbotapi.NewMessage(s.chatID, telegramText(rec))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := s.api.Send(msg); err != nil {
		return fmt.Errorf("failed to send Telegram message: %w", err)
	}
	return nil
}

func telegramText(rec *models.PainPointRecord) string {
	preview := []rune(rec.Description)
	suffix := ""
	if len(preview) > telegramPreviewLength {
		preview = preview[:telegramPreviewLength]
		suffix = "..."
	}

	cls := rec.Classification()
	return fmt.Sprintf(
		"<b>New pain point</b> (%s)\n\n"+
			"Industry: %s\n"+
			"Sentiment: %s\n"+
			"Confidence: %d\n\n"+
			"%s%s",
		html.EscapeString(rec.ID),
		html.EscapeString(cls.Industry),
		html.EscapeString(cls.Sentiment),
		cls.ConfidenceScore,
		html.EscapeString(string(preview)),
		suffix,
	)
}
