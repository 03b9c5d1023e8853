package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

// Notifier отправляет готовые снимки в заданный чат
type Notifier struct {
	api    BotAPI
	chatID int64
}

// NewNotifier создаёт уведомитель. При chatID == 0 снимки никуда не отправляются.
func NewNotifier(api BotAPI, chatID int64) *Notifier {
	return &Notifier{api: api, chatID: chatID}
}

func (n *Notifier) NotifyCapture(ctx context.Context, capture *entity.Capture) error {
	if n.chatID == 0 {
		return nil
	}
	return sendPhoto(n.api, n.chatID, capture)
}

func sendPhoto(api BotAPI, chatID int64, capture *entity.Capture) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{
		Name:  capture.Filename(),
		Bytes: capture.PNG,
	})
	photo.Caption = fmt.Sprintf("📸 %dx%d, объектов: %d", capture.Width, capture.Height, countObjects(capture.Overlays))

	if _, err := api.Send(photo); err != nil {
		return fmt.Errorf("send photo: %w", err)
	}
	return nil
}

var _ port.CaptureNotifier = (*Notifier)(nil)
