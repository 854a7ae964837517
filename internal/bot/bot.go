package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"peptide-reminder/internal/config"
	"peptide-reminder/internal/model"
	"peptide-reminder/internal/parser"
	"peptide-reminder/internal/repository"
	"peptide-reminder/internal/service"
)

const (
	btnConfirm      = "✅ Confirm"
	btnCancel       = "↩️ Cancel"
	menuLabelStatus = "📋 Status"
	menuLabelHelp   = "ℹ️ Help"
)

type confirmationAction int

const (
	actionDeleteMe confirmationAction = iota
	actionStopAll
)

// messenger is the part of the Telegram API used for replies.
type messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Bot aggregates Telegram API with services. It is also the Sender used by
// the reminder dispatcher.
type Bot struct {
	api           *tgbotapi.BotAPI
	out           messenger
	userRepo      *repository.UserRepository
	scheduleSvc   *service.ScheduleService
	limiter       *rate.Limiter
	loc           *time.Location
	log           zerolog.Logger
	confirmations map[int64]confirmationAction
	mu            sync.Mutex
}

var _ service.Sender = (*Bot)(nil)

func New(cfg *config.Config, userRepo *repository.UserRepository, scheduleSvc *service.ScheduleService, log zerolog.Logger) (*Bot, error) {
	if err := cfg.RequireToken(); err != nil {
		return nil, err
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}

	log = log.With().Str("component", "bot").Logger()
	log.Info().Str("account", api.Self.UserName).Msg("bot authorized")

	return &Bot{
		api:           api,
		out:           api,
		userRepo:      userRepo,
		scheduleSvc:   scheduleSvc,
		limiter:       rate.NewLimiter(rate.Limit(cfg.SendRate), cfg.SendRate),
		loc:           loc,
		log:           log,
		confirmations: make(map[int64]confirmationAction),
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := b.api.GetUpdatesChan(updateConfig)

	b.log.Info().Msg("start polling updates")

	go func() {
		<-ctx.Done()
		b.api.StopReceivingUpdates()
	}()

	for update := range updates {
		if update.Message == nil || update.Message.Chat == nil || !update.Message.Chat.IsPrivate() {
			continue
		}
		if err := b.handleMessage(ctx, update.Message); err != nil {
			b.log.Error().Err(err).Int64("chat_id", update.Message.Chat.ID).Msg("handle message")
		}
	}

	return ctx.Err()
}

// Send delivers text to chatID, waiting on the shared rate limiter first.
// rich enables HTML formatting.
func (b *Bot) Send(ctx context.Context, chatID int64, text string, rich bool) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	if rich {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := b.out.Send(msg); err != nil {
		return fmt.Errorf("send to %d: %w", chatID, err)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil {
		return nil
	}

	if msg.IsCommand() {
		b.clearConfirmation(msg.From.ID)
		b.log.Info().Int64("user", msg.From.ID).Str("command", msg.Command()).Msg("command received")
		return b.handleCommand(ctx, msg)
	}

	if action, ok := b.getConfirmation(msg.From.ID); ok {
		return b.handleConfirmationResponse(ctx, msg, action)
	}

	if handled, err := b.handleMenuAlias(ctx, msg); handled {
		return err
	}

	return b.handleCreate(ctx, msg)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) error {
	switch msg.Command() {
	case "start":
		return b.handleStart(ctx, msg)
	case "help":
		return b.sendText(ctx, msg.Chat.ID, helpText())
	case "status", "list":
		return b.handleStatus(ctx, msg)
	case "stop":
		return b.handleStop(ctx, msg)
	case "stopall":
		return b.askConfirmation(ctx, msg, actionStopAll)
	case "delete_me":
		return b.askConfirmation(ctx, msg, actionDeleteMe)
	default:
		return b.sendText(ctx, msg.Chat.ID, "Unknown command. See /help.")
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	return b.sendText(ctx, msg.Chat.ID, welcomeText(msg.From.FirstName))
}

func (b *Bot) handleCreate(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}

	schedule, parsed, err := b.scheduleSvc.CreateFromText(ctx, user, msg.Text)
	if err != nil {
		if errors.Is(err, parser.ErrInvalidInput) {
			b.log.Debug().Err(err).Int64("user", msg.From.ID).Msg("schedule rejected")
			return b.sendText(ctx, msg.Chat.ID, rejectionText())
		}
		return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Could not save the schedule: %s", escape(err.Error())))
	}

	b.log.Info().Uint("schedule_id", schedule.ID).Uint("user", user.ID).Str("pattern", schedule.DayPattern).Msg("schedule created")
	return b.sendText(ctx, msg.Chat.ID, formatCreated(*schedule, parsed))
}

func (b *Bot) handleStatus(ctx context.Context, msg *tgbotapi.Message) error {
	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	schedules, err := b.scheduleSvc.ListActive(ctx, user)
	if err != nil {
		return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Could not load schedules: %s", escape(err.Error())))
	}
	return b.sendText(ctx, msg.Chat.ID, formatScheduleList(schedules, time.Now(), b.loc))
}

func (b *Bot) handleStop(ctx context.Context, msg *tgbotapi.Message) error {
	name := parser.Sanitize(msg.CommandArguments())
	if name == "" {
		return b.sendText(ctx, msg.Chat.ID, "Tell me which peptide to stop: /stop BPC-157")
	}

	user, err := b.ensureUser(ctx, msg.From)
	if err != nil {
		return err
	}
	n, err := b.scheduleSvc.Stop(ctx, user, name)
	if err != nil {
		return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("Could not stop the schedule: %s", escape(err.Error())))
	}
	if n == 0 {
		return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("No active schedule named <b>%s</b>. See /status.", escape(name)))
	}
	b.log.Info().Uint("user", user.ID).Str("peptide", name).Int64("stopped", n).Msg("schedules stopped")
	return b.sendText(ctx, msg.Chat.ID, fmt.Sprintf("⏹ Stopped %s for <b>%s</b>.", plural(n, "schedule"), escape(name)))
}

func (b *Bot) askConfirmation(ctx context.Context, msg *tgbotapi.Message, action confirmationAction) error {
	if _, err := b.ensureUser(ctx, msg.From); err != nil {
		return err
	}
	b.setConfirmation(msg.From.ID, action)
	return b.sendWithReplyMarkup(ctx, msg.Chat.ID, confirmationPrompt(action), confirmKeyboard())
}

func (b *Bot) handleConfirmationResponse(ctx context.Context, msg *tgbotapi.Message, action confirmationAction) error {
	text := strings.TrimSpace(msg.Text)
	switch {
	case isConfirmInput(text):
		b.clearConfirmation(msg.From.ID)
		user, err := b.ensureUser(ctx, msg.From)
		if err != nil {
			return err
		}
		if action == actionDeleteMe {
			return b.deleteUser(ctx, msg.Chat.ID, user)
		}
		return b.stopAll(ctx, msg.Chat.ID, user)
	case isCancelInput(text):
		b.clearConfirmation(msg.From.ID)
		return b.sendText(ctx, msg.Chat.ID, "Cancelled. Nothing was changed.")
	default:
		return b.sendWithReplyMarkup(ctx, msg.Chat.ID, confirmationPrompt(action), confirmKeyboard())
	}
}

func (b *Bot) stopAll(ctx context.Context, chatID int64, user *model.User) error {
	n, err := b.scheduleSvc.StopAll(ctx, user)
	if err != nil {
		return b.sendText(ctx, chatID, fmt.Sprintf("Could not stop schedules: %s", escape(err.Error())))
	}
	b.log.Info().Uint("user", user.ID).Int64("stopped", n).Msg("all schedules stopped")
	if n == 0 {
		return b.sendText(ctx, chatID, "You have no active schedules.")
	}
	return b.sendText(ctx, chatID, fmt.Sprintf("⏹ Stopped %s.", plural(n, "schedule")))
}

func (b *Bot) deleteUser(ctx context.Context, chatID int64, user *model.User) error {
	if err := b.userRepo.Delete(ctx, user.ID); err != nil {
		return b.sendText(ctx, chatID, fmt.Sprintf("Could not delete your data: %s", escape(err.Error())))
	}
	b.log.Info().Uint("user", user.ID).Msg("user deleted")
	return b.sendText(ctx, chatID, "🗑 Your schedules and reminder history were deleted. Send /start to begin again.")
}

func (b *Bot) handleMenuAlias(ctx context.Context, msg *tgbotapi.Message) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(msg.Text)) {
	case strings.ToLower(menuLabelStatus):
		return true, b.handleStatus(ctx, msg)
	case strings.ToLower(menuLabelHelp):
		return true, b.sendText(ctx, msg.Chat.ID, helpText())
	default:
		return false, nil
	}
}

func (b *Bot) ensureUser(ctx context.Context, from *tgbotapi.User) (*model.User, error) {
	return b.userRepo.UpsertFromTelegram(ctx, from.ID, from.FirstName, from.LastName, from.UserName)
}

func (b *Bot) sendText(ctx context.Context, chatID int64, text string) error {
	return b.sendWithReplyMarkup(ctx, chatID, text, mainMenuKeyboard())
}

func (b *Bot) sendWithReplyMarkup(ctx context.Context, chatID int64, text string, markup interface{}) error {
	if err := b.limiter.Wait(ctx); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = markup
	_, err := b.out.Send(msg)
	return err
}

func (b *Bot) getConfirmation(userID int64) (confirmationAction, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	action, ok := b.confirmations[userID]
	return action, ok
}

func (b *Bot) setConfirmation(userID int64, action confirmationAction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.confirmations[userID] = action
}

func (b *Bot) clearConfirmation(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.confirmations, userID)
}

func confirmKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(btnConfirm),
			tgbotapi.NewKeyboardButton(btnCancel),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = true
	return kb
}

func mainMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(menuLabelStatus),
			tgbotapi.NewKeyboardButton(menuLabelHelp),
		),
	)
	kb.ResizeKeyboard = true
	kb.OneTimeKeyboard = false
	return kb
}

func isConfirmInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnConfirm) || value == "confirm" || value == "yes"
}

func isCancelInput(text string) bool {
	value := strings.TrimSpace(strings.ToLower(text))
	return value == strings.ToLower(btnCancel) || value == "cancel" || value == "no"
}
