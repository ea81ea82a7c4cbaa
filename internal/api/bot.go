package telegram

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"line-inspector/internal/domain/entity"
	"line-inspector/internal/domain/port"
	"line-inspector/internal/logging"
)

const (
	msgHelp = `ℹ️ Бот присылает снимки дефектов с линии.

📋 Команды:
/status — число событий по потокам
/last <поток> — последние события потока
/help — справка`

	msgUnknownCommand = "❓ Неизвестная команда. Используйте /help для справки."
	msgSendCommand    = "📋 Бот принимает только команды. Используйте /help для справки."
	msgNoEvents       = "✅ Дефекты пока не обнаружены."
	msgLastUsage      = "📋 Укажите поток: /last <поток>"
	msgJournalError   = "⚠️ Журнал событий недоступен."

	lastLimit = 5

	// clientTimeout ограничивает один HTTP-запрос к Bot API, включая выгрузку снимка
	clientTimeout = 30 * time.Second
)

// botAPI часть tgbotapi.BotAPI, которой пользуется бот
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot рассылает события в чат и отвечает на команды из этого чата
type Bot struct {
	api     botAPI
	chatID  int64
	events  port.EventRepository
	limiter *rate.Limiter
	logger  *log.Logger
}

// NewBot создаёт нового бота
func NewBot(token string, chatID int64, events port.EventRepository, logger *log.Logger) (*Bot, error) {
	client := &http.Client{Timeout: clientTimeout}
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}

	b := newBot(api, chatID, events, logger)
	b.logger.Info("authorized on account", "user", api.Self.UserName)
	return b, nil
}

func newBot(api botAPI, chatID int64, events port.EventRepository, logger *log.Logger) *Bot {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Bot{
		api:     api,
		chatID:  chatID,
		events:  events,
		limiter: rate.NewLimiter(rate.Every(time.Second), 1),
		logger:  logger.With("sink", "telegram"),
	}
}

// Publish отправляет снимок события с подписью. Не чаще одного сообщения в секунду.
func (b *Bot) Publish(ctx context.Context, ev *entity.DetectionEvent) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("telegram throttle: %w", err)
	}

	var msg tgbotapi.Chattable
	if ev.Evidence.Photo != "" {
		photo := tgbotapi.NewPhoto(b.chatID, tgbotapi.FilePath(ev.Evidence.Photo))
		photo.Caption = caption(ev)
		msg = photo
	} else {
		msg = tgbotapi.NewMessage(b.chatID, caption(ev))
	}

	if err := b.send(ctx, msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// send не держит вызывающего дольше ctx. Зависший запрос завершится по clientTimeout.
func (b *Bot) send(ctx context.Context, msg tgbotapi.Chattable) error {
	done := make(chan error, 1)
	go func() {
		_, err := b.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run обрабатывает команды до отмены ctx
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
	// Чужие чаты игнорируем
	if msg.Chat == nil || msg.Chat.ID != b.chatID {
		return
	}

	if !msg.IsCommand() {
		b.sendMessage(msgSendCommand)
		return
	}

	switch msg.Command() {
	case "start", "help":
		b.sendMessage(msgHelp)
	case "status":
		b.sendMessage(b.statusText(ctx))
	case "last":
		b.sendMessage(b.lastText(ctx, strings.TrimSpace(msg.CommandArguments())))
	default:
		b.sendMessage(msgUnknownCommand)
	}
}

func (b *Bot) statusText(ctx context.Context) string {
	counts, err := b.events.CountByFeed(ctx)
	if err != nil {
		b.logger.Warn("count events", "err", err)
		return msgJournalError
	}
	if len(counts) == 0 {
		return msgNoEvents
	}

	feeds := make([]string, 0, len(counts))
	for feed := range counts {
		feeds = append(feeds, feed)
	}
	sort.Strings(feeds)

	var sb strings.Builder
	sb.WriteString("📊 События по потокам:")
	for _, feed := range feeds {
		fmt.Fprintf(&sb, "\n• %s: %d", feed, counts[feed])
	}
	return sb.String()
}

func (b *Bot) lastText(ctx context.Context, feed string) string {
	if feed == "" {
		return msgLastUsage
	}

	records, err := b.events.ListByFeed(ctx, feed, lastLimit)
	if err != nil {
		b.logger.Warn("list events", "feed", feed, "err", err)
		return msgJournalError
	}
	if len(records) == 0 {
		return msgNoEvents
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "🕒 Последние события %s:", feed)
	for _, r := range records {
		fmt.Fprintf(&sb, "\n• %s: дефектов %d, сходство %.4f",
			r.DetectedAt.Format("2006-01-02 15:04:05"), r.DefectCount, r.Score)
	}
	return sb.String()
}

// sendMessage отправляет текстовое сообщение
func (b *Bot) sendMessage(text string) {
	msg := tgbotapi.NewMessage(b.chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("send message", "err", err)
	}
}

func caption(ev *entity.DetectionEvent) string {
	return fmt.Sprintf("⚠️ Дефекты на потоке %s\nНайдено: %d\nСходство: %.4f\nВремя: %s",
		ev.Feed, ev.DefectCount(), ev.Score, ev.DetectedAt.Format("2006-01-02 15:04:05"))
}

var _ port.EventSink = (*Bot)(nil)
