package tgbot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vols-bot/internal/directory"
	"vols-bot/internal/models"
	"vols-bot/internal/report"
)

const msgNotConfigured = "Источник данных для этого филиала не настроен. Обратитесь к администратору."

// ---------- Main menu ----------

func (a *App) handleMain(ctx context.Context, chatID int64, sess *session, user models.UserRecord, cmd command) error {
	switch cmd {
	case cmdNetworkUG:
		return a.openNetwork(chatID, sess, user, models.NetworkUG)
	case cmdNetworkRK:
		return a.openNetwork(chatID, sess, user, models.NetworkRK)
	case cmdReports:
		sess.State = stateReport
		return a.send(chatID, "Выберите отчет:", reportMenuKeyboard(user))
	case cmdZones:
		return a.showZones(ctx, chatID, user)
	case cmdHelp:
		return a.showHelp(ctx, chatID)
	}
	return a.send(chatID, msgUnknown, mainMenuKeyboard(user))
}

func (a *App) openNetwork(chatID int64, sess *session, user models.UserRecord, n models.Network) error {
	if !user.CanSee(n) {
		return a.send(chatID, msgNoAccess, mainMenuKeyboard(user))
	}
	branches := visibleBranches(a.cfg.Branches(n), user)
	if len(branches) == 0 {
		return a.send(chatID, "Для вас не настроен ни один филиал.", mainMenuKeyboard(user))
	}
	sess.State = stateNetwork
	sess.Network = n
	sess.Branch = ""
	return a.send(chatID, fmt.Sprintf("%s. Выберите филиал:", n.Title()), listKeyboard(branches))
}

func (a *App) showZones(ctx context.Context, chatID int64, user models.UserRecord) error {
	users, err := a.roster.Users(ctx)
	if err != nil {
		log.Printf("zones list: %v", err)
		return a.send(chatID, msgLoadError, mainMenuKeyboard(user))
	}
	var b strings.Builder
	b.WriteString("Зоны ответственности:\n")
	for _, u := range users {
		fmt.Fprintf(&b, "ID: %d, ФИО: %s, Филиал: %s\n", u.TelegramID, u.FullName, u.Branch)
	}
	return a.send(chatID, b.String(), mainMenuKeyboard(user))
}

func (a *App) showHelp(ctx context.Context, chatID int64) error {
	if a.cfg.HelpFolderURL == "" {
		return a.SendText(chatID, "Справочные материалы не настроены.")
	}
	files, err := a.help.List(ctx, a.cfg.HelpFolderURL)
	if err != nil {
		log.Printf("help folder: %v", err)
		return a.SendText(chatID, msgLoadError)
	}
	if len(files) == 0 {
		return a.SendText(chatID, "В папке справки пока нет файлов.")
	}
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, f := range files {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL(f.Name, f.URL)))
	}
	msg := tgbotapi.NewMessage(chatID, "📖 Справочные материалы:")
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	_, err = a.bot.Send(msg)
	return err
}

// ---------- Branch selection ----------

func (a *App) handleNetwork(chatID int64, sess *session, user models.UserRecord, text string) error {
	for _, b := range visibleBranches(a.cfg.Branches(sess.Network), user) {
		if b == text {
			sess.Branch = b
			return a.showBranchMenu(chatID, sess)
		}
	}
	return a.SendText(chatID, "Выберите филиал кнопкой ниже.")
}

func (a *App) handleBranch(chatID int64, sess *session, cmd command) error {
	switch cmd {
	case cmdSearch:
		sess.State = stateSearch
		return a.send(chatID, "Введите наименование ТП:", listKeyboard(nil))
	case cmdNotify:
		sess.State = stateNotifyTP
		sess.Draft = draft{}
		return a.send(chatID, "Введите наименование ТП:", listKeyboard(nil))
	}
	return a.send(chatID, msgUnknown, branchMenuKeyboard())
}

// ---------- Search flow ----------

func (a *App) handleSearch(ctx context.Context, chatID int64, sess *session, text string) error {
	entries, err := a.dir.Contract(ctx, sess.Network, sess.Branch)
	if err != nil {
		return a.reportTableError(chatID, sess, err)
	}
	exact, candidates := directory.Search(entries, text)
	switch {
	case len(exact) > 0:
		return a.sendResults(chatID, sess, exact)
	case len(candidates) > 0:
		sess.State = stateSelectTP
		sess.Candidates = candidates
		return a.send(chatID, "Точного совпадения нет. Возможно, вы искали:", listKeyboard(candidates))
	}
	return a.SendText(chatID, fmt.Sprintf("Не найдено ТП по запросу «%s». Попробуйте ещё раз.", text))
}

func (a *App) handleSelectTP(ctx context.Context, chatID int64, sess *session, text string) error {
	for _, c := range sess.Candidates {
		if c != text {
			continue
		}
		entries, err := a.dir.Contract(ctx, sess.Network, sess.Branch)
		if err != nil {
			return a.reportTableError(chatID, sess, err)
		}
		return a.sendResults(chatID, sess, directory.Rows(entries, text))
	}
	return a.SendText(chatID, "Выберите вариант кнопкой ниже.")
}

func (a *App) sendResults(chatID int64, sess *session, rows []models.BranchEntry) error {
	if len(rows) == 0 {
		if err := a.SendText(chatID, "По выбранной ТП данных нет. Попробуйте ещё раз."); err != nil {
			return err
		}
		sess.Candidates = nil
		return a.showBranchMenu(chatID, sess)
	}
	var b strings.Builder
	for i, r := range rows {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "ТП: %s\nВЛ: %s\nОпоры: %s\nКоличество опор: %s\nКонтрагент: %s\nРЭС: %s\n",
			r.Substation, r.PowerLine, r.Supports, r.SupportCount, r.Provider, r.District)
	}
	if err := a.SendText(chatID, b.String()); err != nil {
		return err
	}
	sess.Candidates = nil
	return a.showBranchMenu(chatID, sess)
}

func (a *App) reportTableError(chatID int64, sess *session, err error) error {
	var nc *directory.NotConfiguredError
	if errors.As(err, &nc) {
		log.Printf("branch table %s/%s: %v", sess.Network, sess.Branch, err)
		return a.SendText(chatID, msgNotConfigured)
	}
	log.Printf("branch table %s/%s: %v", sess.Network, sess.Branch, err)
	return a.SendText(chatID, msgLoadError)
}

// ---------- Notify flow ----------

func (a *App) handleNotifyTP(ctx context.Context, chatID int64, sess *session, text string) error {
	entries, err := a.dir.Reference(ctx, sess.Network, sess.Branch)
	if err != nil {
		return a.reportTableError(chatID, sess, err)
	}
	exact, candidates := directory.Search(entries, text)
	switch {
	case len(exact) > 0:
		return a.startNotifyVL(chatID, sess, entries, exact[0].Substation)
	case len(candidates) == 1:
		return a.startNotifyVL(chatID, sess, entries, candidates[0])
	case len(candidates) > 0:
		sess.Candidates = candidates
		return a.send(chatID, "Точного совпадения нет. Выберите ТП:", listKeyboard(candidates))
	}
	return a.SendText(chatID, fmt.Sprintf("Не найдено ТП по запросу «%s». Попробуйте ещё раз.", text))
}

func (a *App) startNotifyVL(chatID int64, sess *session, entries []models.BranchEntry, substation string) error {
	sess.Candidates = nil
	sess.Draft.Substation = substation
	sess.Draft.District = directory.DistrictFor(entries, substation)
	sess.Draft.PowerLines = directory.PowerLines(entries, substation)
	sess.State = stateNotifyVL
	if len(sess.Draft.PowerLines) > 0 {
		return a.send(chatID, "Выберите ВЛ или введите свою:", listKeyboard(sess.Draft.PowerLines))
	}
	return a.send(chatID, "Введите наименование ВЛ:", listKeyboard(nil))
}

func (a *App) handleNotifyVL(chatID int64, sess *session, text string) error {
	if strings.TrimSpace(text) == "" {
		return a.SendText(chatID, "Введите наименование ВЛ.")
	}
	sess.Draft.PowerLine = text
	sess.State = stateNotifyGeo
	return a.send(chatID, "Отправьте геолокацию места обнаружения:", geoKeyboard())
}

func (a *App) handleNotifyGeo(chatID int64, sess *session, m *tgbotapi.Message) error {
	if m.Location == nil {
		return a.send(chatID, "Нужна геолокация. Нажмите кнопку ниже.", geoKeyboard())
	}
	sess.Draft.Latitude = m.Location.Latitude
	sess.Draft.Longitude = m.Location.Longitude
	sess.State = stateNotifyPhoto
	return a.send(chatID, "Прикрепите фото или нажмите «Пропустить»:", skipKeyboard())
}

func (a *App) handleNotifyPhoto(chatID int64, sess *session, m *tgbotapi.Message, cmd command) error {
	switch {
	case cmd == cmdSkip:
		sess.Draft.PhotoFileID = ""
	case len(m.Photo) > 0:
		sess.Draft.PhotoFileID = m.Photo[len(m.Photo)-1].FileID
	default:
		return a.send(chatID, "Прикрепите фото или нажмите «Пропустить».", skipKeyboard())
	}
	sess.State = stateNotifyComment
	return a.send(chatID, "Добавьте комментарий или нажмите «Пропустить»:", skipKeyboard())
}

func (a *App) handleNotifyComment(ctx context.Context, chatID int64, sess *session, user models.UserRecord, text string, cmd command) error {
	comment := text
	if cmd == cmdSkip {
		comment = ""
	}
	defect := models.Defect{
		Network:     sess.Network,
		Branch:      sess.Branch,
		District:    sess.Draft.District,
		Substation:  sess.Draft.Substation,
		PowerLine:   sess.Draft.PowerLine,
		Latitude:    sess.Draft.Latitude,
		Longitude:   sess.Draft.Longitude,
		Comment:     comment,
		PhotoFileID: sess.Draft.PhotoFileID,
		SenderID:    user.TelegramID,
		SenderName:  user.FullName,
	}

	users, err := a.roster.Users(ctx)
	if err != nil {
		log.Printf("notify roster: %v", err)
		return a.SendText(chatID, msgLoadError)
	}

	sum, err := a.disp.Dispatch(ctx, users, defect)
	if err != nil {
		log.Printf("notify dispatch: %v", err)
		return a.SendText(chatID, "Не удалось сохранить уведомление. Попробуйте позже.")
	}
	if err := a.SendText(chatID, sum.Text()); err != nil {
		return err
	}
	sess.Draft = draft{}
	return a.showBranchMenu(chatID, sess)
}

// ---------- Reports ----------

func (a *App) handleReport(ctx context.Context, chatID int64, sess *session, user models.UserRecord, cmd command) error {
	switch cmd {
	case cmdReportUG:
		return a.sendReport(chatID, user, models.NetworkUG, "vols_ug.xlsx")
	case cmdReportRK:
		return a.sendReport(chatID, user, models.NetworkRK, "vols_rk.xlsx")
	case cmdProviders:
		return a.SendText(chatID, "Справочник контрагентов скоро появится!")
	}
	return a.send(chatID, msgUnknown, reportMenuKeyboard(user))
}

func (a *App) sendReport(chatID int64, user models.UserRecord, n models.Network, fileName string) error {
	if !user.CanSee(n) {
		return a.SendText(chatID, msgNoAccess)
	}
	records, err := a.store.List(n)
	if err != nil {
		log.Printf("report list %s: %v", n, err)
		return a.SendText(chatID, msgLoadError)
	}
	if !user.AllBranches() {
		records = report.FilterByBranch(records, user.Branch)
	}
	if len(records) == 0 {
		return a.SendText(chatID, "Уведомлений пока нет.")
	}
	data, err := report.Build(records)
	if err != nil {
		log.Printf("report build %s: %v", n, err)
		return a.SendText(chatID, "Не удалось сформировать отчет.")
	}
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{Name: fileName, Bytes: data})
	doc.Caption = fmt.Sprintf("Уведомления о бездоговорных ВОЛС — %s", n.Title())
	_, err = a.bot.Send(doc)
	return err
}
