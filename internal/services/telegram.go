package services

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier delivers short messages to the people running the raffles.
type Notifier interface {
	NotifyAdmin(text string)
}

// NopNotifier drops every message.
type NopNotifier struct{}

func (NopNotifier) NotifyAdmin(string) {}

type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier sends to the configured admin chats plus any admin who sent /start.
type TelegramNotifier struct {
	bot    botSender
	log    *zap.SugaredLogger
	admins map[int64]bool

	mu    sync.Mutex
	chats map[int64]bool
}

func NewTelegramNotifier(token string, adminChatIDs []int64, log *zap.SugaredLogger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Infow("telegram bot authorized", "username", bot.Self.UserName)

	n := newTelegramNotifier(bot, adminChatIDs, log)
	// Correr un listener en segundo plano para captar nuevos admins
	go n.listenForCommands(bot)
	return n, nil
}

func newTelegramNotifier(bot botSender, adminChatIDs []int64, log *zap.SugaredLogger) *TelegramNotifier {
	n := &TelegramNotifier{bot: bot, log: log, admins: map[int64]bool{}, chats: map[int64]bool{}}
	for _, id := range adminChatIDs {
		n.admins[id] = true
		n.chats[id] = true
	}
	return n
}

func (n *TelegramNotifier) listenForCommands(bot *tgbotapi.BotAPI) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	for update := range bot.GetUpdatesChan(u) {
		if update.Message == nil || !update.Message.IsCommand() {
			continue
		}
		if update.Message.Command() == "start" && update.Message.From != nil {
			n.registerChat(update.Message.Chat.ID, update.Message.From.ID)
		}
	}
}

// registerChat subscribes the chat when the sender is a configured admin.
func (n *TelegramNotifier) registerChat(chatID, userID int64) bool {
	if !n.admins[userID] {
		n.reply(chatID, "No estás autorizado para recibir notificaciones.")
		n.log.Warnw("telegram /start from non-admin ignored", "chat_id", chatID, "user_id", userID)
		return false
	}

	n.mu.Lock()
	n.chats[chatID] = true
	n.mu.Unlock()

	n.reply(chatID, fmt.Sprintf("¡Hola Admin! Tu ID ha sido registrado: %d. Ahora recibirás notificaciones aquí.", chatID))
	n.log.Infow("admin chat registered", "chat_id", chatID, "user_id", userID)
	return true
}

func (n *TelegramNotifier) reply(chatID int64, text string) {
	if _, err := n.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		n.log.Warnw("telegram reply failed", "chat_id", chatID, "error", err)
	}
}

// md escapes text that goes inside a Markdown notification.
func md(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

func (n *TelegramNotifier) NotifyAdmin(text string) {
	n.mu.Lock()
	chats := make([]int64, 0, len(n.chats))
	for id := range n.chats {
		chats = append(chats, id)
	}
	n.mu.Unlock()

	if len(chats) == 0 {
		n.log.Debug("no admin chat registered, notification dropped")
		return
	}
	for _, id := range chats {
		msg := tgbotapi.NewMessage(id, text)
		msg.ParseMode = tgbotapi.ModeMarkdown
		if _, err := n.bot.Send(msg); err != nil {
			n.log.Errorw("error sending notification", "chat_id", id, "error", err)
		}
	}
}
