package bot

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/xaenox/emotion-classifier/internal/controller"
	"github.com/xaenox/emotion-classifier/internal/models"
	"github.com/xaenox/emotion-classifier/internal/render"
)

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// ControllerFactory builds the controller for a newly seen chat
type ControllerFactory func() *controller.Controller

type Bot struct {
	api           *tgbotapi.BotAPI
	sender        sender
	newController ControllerFactory
	logger        *zap.Logger

	mu    sync.Mutex
	chats map[int64]*controller.Controller
}

func New(token string, newController ControllerFactory, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	b := newBot(api, newController, logger)
	b.api = api
	return b, nil
}

func newBot(s sender, newController ControllerFactory, logger *zap.Logger) *Bot {
	return &Bot{
		sender:        s,
		newController: newController,
		logger:        logger,
		chats:         make(map[int64]*controller.Controller),
	}
}

func (b *Bot) Start() error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)

	for update := range updates {
		if update.Message == nil {
			continue
		}

		go b.handleMessage(update.Message)
	}

	return nil
}

func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.IsCommand() {
		b.handleCommand(message)
		return
	}

	content := message.Text
	if message.Caption != "" {
		content = message.Caption
	}

	b.controllerFor(message.Chat.ID).Submit(content)
}

func (b *Bot) handleCommand(message *tgbotapi.Message) {
	switch message.Command() {
	case "start":
		b.handleStart(message)
	case "help":
		b.handleHelp(message)
	default:
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

func (b *Bot) handleStart(message *tgbotapi.Message) {
	welcome := `Welcome! 🎭
Send me any text and I'll tell you which emotion it expresses.
Use /help to see all available commands.`

	b.sendMessage(message.Chat.ID, welcome)
}

func (b *Bot) handleHelp(message *tgbotapi.Message) {
	help := `Available commands:
/start - Start the bot
/help - Show this help message

Send a text message, or a photo with a caption, and I'll score it against
anger, disgust, fear, joy, neutral, sadness and surprise.`

	b.sendMessage(message.Chat.ID, help)
}

func (b *Bot) controllerFor(chatID int64) *controller.Controller {
	b.mu.Lock()
	defer b.mu.Unlock()

	if ctrl, ok := b.chats[chatID]; ok {
		return ctrl
	}

	ctrl := b.newController()
	ctrl.Subscribe(func(s models.State) {
		b.sendState(chatID, s)
	})
	b.chats[chatID] = ctrl
	return ctrl
}

func (b *Bot) sendState(chatID int64, s models.State) {
	switch s.Phase() {
	case models.PhaseLoading:
		b.sendMessage(chatID, render.LoadingText)
	case models.PhaseError:
		msg, _ := s.Message()
		b.sendErrorMessage(chatID, msg)
	case models.PhaseSuccess:
		outcome, _ := s.Outcome()
		b.sendClassificationResponse(chatID, outcome)
	}
}

// escapeMarkdown escapes special characters for MarkdownV2
func escapeMarkdown(text string) string {
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}
	escaped := text
	for _, char := range specialChars {
		escaped = strings.ReplaceAll(escaped, char, "\\"+char)
	}
	return escaped
}

// escapeCode escapes the characters MarkdownV2 reserves inside pre blocks
func escapeCode(text string) string {
	text = strings.ReplaceAll(text, "\\", "\\\\")
	return strings.ReplaceAll(text, "`", "\\`")
}

func formatOutcome(outcome models.Outcome) string {
	if result, ok := outcome.Result(); ok {
		text := fmt.Sprintf("*Predicted class:* %s", escapeMarkdown(result.PredictedClass))
		if e := render.Emoji(result.PredictedClass); e != "" {
			text += " " + e
		}
		text += "\n```\n" + escapeCode(strings.Join(render.Rows(result), "\n")) + "\n```"
		return text
	}

	raw, _ := outcome.Raw()
	return "*Raw response:*\n```json\n" + escapeCode(render.Raw(raw)) + "\n```"
}

func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendClassificationResponse(chatID int64, outcome models.Outcome) {
	msg := tgbotapi.NewMessage(chatID, formatOutcome(outcome))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send classification response",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}

func (b *Bot) sendErrorMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, "⚠️ "+text)
	if _, err := b.sender.Send(msg); err != nil {
		b.logger.Error("Failed to send error message",
			zap.Error(err),
			zap.Int64("chat_id", chatID))
	}
}
