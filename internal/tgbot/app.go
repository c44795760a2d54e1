package tgbot

import (
	"context"
	"fmt"
	"log"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vols-bot/internal/config"
	"vols-bot/internal/directory"
	"vols-bot/internal/helpfiles"
	"vols-bot/internal/models"
	"vols-bot/internal/notify"
	"vols-bot/internal/roster"
)

const (
	msgNoAccess  = "Нет доступа. Обратитесь к администратору."
	msgLoadError = "Ошибка загрузки данных. Попробуйте позже."
	msgUnknown   = "Не понял команду 🤔"
)

// botAPI is the slice of the Telegram client the app calls, split out so a
// fake can stand in for the live API.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(cfg tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
}

type App struct {
	cfg    config.Config
	bot    botAPI
	roster *roster.Service
	dir    *directory.Service
	store  notify.Store
	disp   *notify.Dispatcher
	help   *helpfiles.Client

	mu       sync.Mutex
	sessions map[int64]*session
}

func New(cfg config.Config, rs *roster.Service, dir *directory.Service, store notify.Store, mailer notify.Mailer, help *helpfiles.Client) (*App, error) {
	b, err := tgbotapi.NewBotAPI(cfg.TelegramToken)
	if err != nil {
		return nil, err
	}
	b.Debug = false
	return newApp(cfg, b, rs, dir, store, mailer, help), nil
}

func newApp(cfg config.Config, api botAPI, rs *roster.Service, dir *directory.Service, store notify.Store, mailer notify.Mailer, help *helpfiles.Client) *App {
	a := &App{
		cfg:      cfg,
		bot:      api,
		roster:   rs,
		dir:      dir,
		store:    store,
		help:     help,
		sessions: map[int64]*session{},
	}
	a.disp = notify.NewDispatcher(a, mailer, store, cfg.MatchCaseInsensitive)
	return a
}

// Run consumes updates by long polling until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := a.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd := <-updates:
			a.ProcessUpdate(ctx, upd)
		}
	}
}

// SetWebhook registers the webhook endpoint for push delivery.
func (a *App) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = a.bot.Request(wh)
	return err
}

// ProcessUpdate handles one update to completion. Used by both the polling
// loop and the webhook endpoint.
func (a *App) ProcessUpdate(ctx context.Context, upd tgbotapi.Update) {
	// From is optional in the Bot API payload (channel posts, anonymous
	// admins), and the webhook route accepts any well-formed JSON.
	if upd.Message == nil || upd.Message.From == nil {
		return
	}
	if err := a.handleMessage(ctx, upd.Message); err != nil {
		log.Printf("handle msg from %d: %v", upd.Message.From.ID, err)
	}
}

// ---------- notify.MessageSender ----------

func (a *App) SendText(chatID int64, text string) error {
	_, err := a.bot.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

func (a *App) SendLocation(chatID int64, lat, lon float64) error {
	_, err := a.bot.Send(tgbotapi.NewLocation(chatID, lat, lon))
	return err
}

func (a *App) SendPhoto(chatID int64, fileID, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(fileID))
	photo.Caption = caption
	_, err := a.bot.Send(photo)
	return err
}

func (a *App) send(chatID int64, text string, kb interface{}) error {
	msg := tgbotapi.NewMessage(chatID, text)
	if kb != nil {
		msg.ReplyMarkup = kb
	}
	_, err := a.bot.Send(msg)
	return err
}

// ---------- Sessions ----------

func (a *App) session(chatID int64) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s, ok := a.sessions[chatID]
	if !ok {
		s = &session{}
		a.sessions[chatID] = s
	}
	return s
}

func (a *App) resetSession(chatID int64) *session {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := &session{}
	a.sessions[chatID] = s
	return s
}

// ---------- Routing ----------

func (a *App) handleMessage(ctx context.Context, m *tgbotapi.Message) error {
	chatID := m.Chat.ID

	user, err := a.roster.Lookup(ctx, m.From.ID)
	if err != nil {
		log.Printf("roster lookup %d: %v", m.From.ID, err)
		return a.SendText(chatID, msgLoadError)
	}
	if user == nil {
		return a.SendText(chatID, msgNoAccess)
	}

	if m.IsCommand() && m.Command() == "start" {
		a.resetSession(chatID)
		return a.showMain(chatID, *user, fmt.Sprintf("Здравствуйте, %s!", user.FullName))
	}

	sess := a.session(chatID)
	cmd := parseCommand(m.Text)

	if cmd == cmdBack {
		return a.goBack(ctx, chatID, sess, *user)
	}

	switch sess.State {
	case stateMain:
		return a.handleMain(ctx, chatID, sess, *user, cmd)
	case stateNetwork:
		return a.handleNetwork(chatID, sess, *user, m.Text)
	case stateBranch:
		return a.handleBranch(chatID, sess, cmd)
	case stateSearch:
		return a.handleSearch(ctx, chatID, sess, m.Text)
	case stateSelectTP:
		return a.handleSelectTP(ctx, chatID, sess, m.Text)
	case stateReport:
		return a.handleReport(ctx, chatID, sess, *user, cmd)
	case stateNotifyTP:
		return a.handleNotifyTP(ctx, chatID, sess, m.Text)
	case stateNotifyVL:
		return a.handleNotifyVL(chatID, sess, m.Text)
	case stateNotifyGeo:
		return a.handleNotifyGeo(chatID, sess, m)
	case stateNotifyPhoto:
		return a.handleNotifyPhoto(chatID, sess, m, cmd)
	case stateNotifyComment:
		return a.handleNotifyComment(ctx, chatID, sess, *user, m.Text, cmd)
	}
	return a.showMain(chatID, *user, msgUnknown)
}

// goBack moves one level up from the current state.
func (a *App) goBack(ctx context.Context, chatID int64, sess *session, user models.UserRecord) error {
	switch sess.State {
	case stateNetwork, stateReport:
		return a.showMain(chatID, user, "Главное меню")
	case stateBranch:
		return a.openNetwork(chatID, sess, user, sess.Network)
	case stateSearch, stateSelectTP,
		stateNotifyTP, stateNotifyVL, stateNotifyGeo, stateNotifyPhoto, stateNotifyComment:
		sess.Draft = draft{}
		sess.Candidates = nil
		return a.showBranchMenu(chatID, sess)
	}
	return a.showMain(chatID, user, "Главное меню")
}

func (a *App) showMain(chatID int64, user models.UserRecord, greeting string) error {
	sess := a.session(chatID)
	*sess = session{State: stateMain}
	return a.send(chatID, greeting, mainMenuKeyboard(user))
}

func (a *App) showBranchMenu(chatID int64, sess *session) error {
	sess.State = stateBranch
	return a.send(chatID, sess.Branch, branchMenuKeyboard())
}
