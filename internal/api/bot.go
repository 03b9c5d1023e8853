package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	app "live-detect/internal/application"
	"live-detect/internal/domain/entity"
	"live-detect/internal/domain/port"
)

const (
	msgStart = `👋 Привет! Я управляю камерой и ищу на ней объекты.

📋 Команды:
/detect — запустить или остановить детекцию
/detect front|back — запустить с выбранной камерой
/stop — остановить детекцию
/switch — переключить камеру
/torch — включить или выключить фонарик
/capture — сделать снимок с разметкой
/last — прислать последний снимок
/status — состояние
/help — справка`

	msgHelp = `ℹ️ Как пользоваться ботом:

1️⃣ /detect запускает камеру и детектор
2️⃣ /capture присылает кадр с рамками вокруг найденных объектов
3️⃣ /stop останавливает камеру

📸 Можно прислать фото, бот разметит объекты на нём.
На снимок попадают только объекты с уверенностью выше 66%.`

	msgStarted          = "▶️ Детекция запущена (%s камера)."
	msgStopped          = "⏹ Детекция остановлена."
	msgSwitched         = "🔄 Камера переключена: %s."
	msgSwitchInactive   = "Детекция не запущена, переключать нечего."
	msgTorchOn          = "🔦 Фонарик включён."
	msgTorchOff         = "🔦 Фонарик выключен."
	msgTorchUnsupported = "Эта камера не поддерживает фонарик."
	msgNotActive        = "Детекция не запущена. Отправьте /detect."
	msgAlreadyActive    = "Детекция уже запущена."
	msgNoFrame          = "⏳ Кадр ещё не готов, попробуйте через секунду."
	msgCameraError      = "⚠️ Не удалось открыть камеру."
	msgDetectorError    = "⚠️ Детектор не загружен."
	msgNoCaptures       = "Снимков пока нет."
	msgBadFacing        = "Не знаю такую камеру. Используйте front или back."
	msgUnknownCommand   = "❓ Неизвестная команда. Используйте /help для справки."
	msgProcessing       = "⏳ Обрабатываю изображение..."
	msgProcessingError  = "⚠️ Не удалось обработать изображение. Попробуйте другое фото."
	msgInternalError    = "⚠️ Что-то пошло не так, подробности в логах."
)

// BotAPI методы Telegram API, которые нужны боту
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetFileDirectURL(fileID string) (string, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot представляет Telegram-бота
type Bot struct {
	api      BotAPI
	ctrl     port.DetectionController
	captures *app.CaptureService
	photos   *app.PhotoService
	notifyTo int64 // чат, куда снимки уже уходят через Notifier
	client   *http.Client
	logger   *slog.Logger
}

// Connect авторизуется в Telegram
func Connect(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram auth: %w", err)
	}
	return api, nil
}

// NewBot создаёт нового бота. photos может быть nil, тогда фото не принимаются.
func NewBot(api BotAPI, ctrl port.DetectionController, captures *app.CaptureService, photos *app.PhotoService, notifyTo int64, logger *slog.Logger) *Bot {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bot{
		api:      api,
		ctrl:     ctrl,
		captures: captures,
		photos:   photos,
		notifyTo: notifyTo,
		client:   &http.Client{Timeout: 30 * time.Second},
		logger:   logger.With("component", "telegram"),
	}
}

// Run обрабатывает сообщения до отмены контекста
func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil {
				continue
			}
			b.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает входящее сообщение
func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	if len(msg.Photo) > 0 && b.photos != nil {
		b.handlePhoto(ctx, msg)
		return
	}

	b.sendMessage(msg.Chat.ID, msgUnknownCommand)
}

// handleCommand обрабатывает команды бота
func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	chatID := msg.Chat.ID

	switch msg.Command() {
	case "start":
		b.sendMessage(chatID, msgStart)

	case "help":
		b.sendMessage(chatID, msgHelp)

	case "detect":
		b.handleDetect(ctx, chatID, strings.TrimSpace(msg.CommandArguments()))

	case "stop":
		b.ctrl.Stop()
		b.sendMessage(chatID, msgStopped)

	case "switch":
		if !b.ctrl.Status().Active {
			b.sendMessage(chatID, msgSwitchInactive)
			return
		}
		if err := b.ctrl.ToggleCamera(ctx); err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgSwitched, facingName(b.ctrl.Status().Facing)))

	case "torch":
		on, err := b.ctrl.ToggleTorch(ctx)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		if on {
			b.sendMessage(chatID, msgTorchOn)
		} else {
			b.sendMessage(chatID, msgTorchOff)
		}

	case "capture":
		capture, err := b.ctrl.CaptureFrame(ctx)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		// В чат уведомлений снимок уже отправил Notifier.
		if chatID != b.notifyTo {
			b.sendCapture(chatID, capture)
		}

	case "last":
		capture, err := b.captures.Latest(ctx)
		if errors.Is(err, port.ErrCaptureNotFound) {
			b.sendMessage(chatID, msgNoCaptures)
			return
		}
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		b.sendCapture(chatID, capture)

	case "status":
		b.sendMessage(chatID, formatStatus(b.ctrl.Status()))

	default:
		b.sendMessage(chatID, msgUnknownCommand)
	}
}

func (b *Bot) handleDetect(ctx context.Context, chatID int64, arg string) {
	if arg == "" {
		active, err := b.ctrl.Toggle(ctx)
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		if !active {
			b.sendMessage(chatID, msgStopped)
			return
		}
		b.sendMessage(chatID, fmt.Sprintf(msgStarted, facingName(b.ctrl.Status().Facing)))
		return
	}

	facing, err := entity.ParseFacingMode(arg)
	if err != nil {
		b.sendMessage(chatID, msgBadFacing)
		return
	}
	if err := b.ctrl.Start(ctx, facing); err != nil {
		b.replyError(chatID, err)
		return
	}
	b.sendMessage(chatID, fmt.Sprintf(msgStarted, facingName(facing)))
}

// handlePhoto размечает объекты на присланном фото
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	b.sendMessage(msg.Chat.ID, msgProcessing)

	// Берём файл с максимальным разрешением
	photo := msg.Photo[len(msg.Photo)-1]

	imageData, err := b.downloadFile(ctx, photo.FileID)
	if err != nil {
		b.logger.Error("download photo", "error", err)
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}

	capture, err := b.photos.Detect(ctx, imageData, entity.FacingBack)
	if err != nil {
		b.logger.Error("detect on photo", "error", err, "bytes", len(imageData))
		b.sendMessage(msg.Chat.ID, msgProcessingError)
		return
	}
	b.sendCapture(msg.Chat.ID, capture)
}

// downloadFile скачивает файл из Telegram
func (b *Bot) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	fileURL, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	return data, nil
}

// replyError переводит ошибку контроллера в понятный ответ
func (b *Bot) replyError(chatID int64, err error) {
	switch {
	case errors.Is(err, app.ErrNotActive):
		b.sendMessage(chatID, msgNotActive)
	case errors.Is(err, app.ErrSessionActive):
		b.sendMessage(chatID, msgAlreadyActive)
	case errors.Is(err, app.ErrNoFrame):
		b.sendMessage(chatID, msgNoFrame)
	case errors.Is(err, app.ErrTorchUnsupported):
		b.sendMessage(chatID, msgTorchUnsupported)
	case errors.Is(err, app.ErrCameraAcquisition):
		b.logger.Warn("camera acquisition failed", "error", err)
		b.sendMessage(chatID, msgCameraError)
	case errors.Is(err, app.ErrDetectorNotReady):
		b.sendMessage(chatID, msgDetectorError)
	default:
		b.logger.Error("command failed", "error", err)
		b.sendMessage(chatID, msgInternalError)
	}
}

func (b *Bot) sendCapture(chatID int64, capture *entity.Capture) {
	if err := sendPhoto(b.api, chatID, capture); err != nil {
		b.logger.Error("send capture", "error", err, "capture", capture.ID)
	}
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("send message", "error", err)
	}
}

func formatStatus(st entity.Status) string {
	if !st.Active {
		text := "⏹ Детекция остановлена."
		if st.LastError != "" {
			text += "\nПоследняя ошибка: " + st.LastError
		}
		return text
	}

	torch := "выключен"
	if st.Torch {
		torch = "включён"
	}
	return fmt.Sprintf("▶️ Детекция идёт\nКамера: %s\nФонарик: %s\nКадров: %d\nОбъектов в кадре: %d",
		facingName(st.Facing), torch, st.Frames, countObjects(st.Overlays))
}

func facingName(f entity.FacingMode) string {
	if f == entity.FacingFront {
		return "фронтальная"
	}
	return "основная"
}

func countObjects(overlays []entity.Overlay) int {
	n := 0
	for _, o := range overlays {
		if o.Kind == entity.OverlayBox {
			n++
		}
	}
	return n
}
