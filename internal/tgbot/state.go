package tgbot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"vols-bot/internal/models"
)

// state is the conversation step gating which input is accepted next.
type state int

const (
	stateMain state = iota
	stateNetwork
	stateBranch
	stateSearch
	stateSelectTP
	stateReport
	stateNotifyTP
	stateNotifyVL
	stateNotifyGeo
	stateNotifyPhoto
	stateNotifyComment
)

// session is the per-chat conversation state, replacing the global dicts of
// earlier bot generations.
type session struct {
	State      state
	Network    models.Network
	Branch     string
	Candidates []string
	Draft      draft
}

// draft accumulates the notify flow input until dispatch.
type draft struct {
	Substation  string
	District    string
	PowerLines  []string
	PowerLine   string
	Latitude    float64
	Longitude   float64
	PhotoFileID string
	Comment     string
}

// command is the symbolic meaning of an incoming message, decoupled from
// the button label text.
type command int

const (
	cmdNone command = iota
	cmdBack
	cmdNetworkUG
	cmdNetworkRK
	cmdReports
	cmdZones
	cmdHelp
	cmdSearch
	cmdNotify
	cmdSkip
	cmdReportUG
	cmdReportRK
	cmdProviders
)

// Menu button labels.
const (
	btnNetworkUG = "⚡️ Россети ЮГ"
	btnNetworkRK = "⚡️ Россети Кубань"
	btnReports   = "📊 Выгрузить отчеты"
	btnZones     = "📡 Показать зоны"
	btnHelp      = "📖 Справка"
	btnSearch    = "🔍 Поиск ТП"
	btnNotify    = "🚨 Сообщить о бездоговорном ВОЛС"
	btnBack      = "⬅️ Назад"
	btnSkip      = "Пропустить"
	btnReportUG  = "Уведомления о бездоговорных ВОЛС ЮГ"
	btnReportRK  = "Уведомления о бездоговорных ВОЛС Кубань"
	btnProviders = "Справочник контрагентов"
	btnSendGeo   = "📍 Отправить геолокацию"
)

func parseCommand(text string) command {
	switch text {
	case btnBack:
		return cmdBack
	case btnNetworkUG:
		return cmdNetworkUG
	case btnNetworkRK:
		return cmdNetworkRK
	case btnReports:
		return cmdReports
	case btnZones:
		return cmdZones
	case btnHelp:
		return cmdHelp
	case btnSearch:
		return cmdSearch
	case btnNotify:
		return cmdNotify
	case btnSkip:
		return cmdSkip
	case btnReportUG:
		return cmdReportUG
	case btnReportRK:
		return cmdReportRK
	case btnProviders:
		return cmdProviders
	}
	return cmdNone
}

// ---------- Keyboards ----------

func mainMenuKeyboard(u models.UserRecord) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	if u.CanSee(models.NetworkUG) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnNetworkUG)))
	}
	if u.CanSee(models.NetworkRK) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnNetworkRK)))
	}
	rows = append(rows,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnReports)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnZones)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnHelp)),
	)
	return tgbotapi.NewReplyKeyboard(rows...)
}

// listKeyboard renders one button per item plus a back row.
func listKeyboard(items []string) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, it := range items {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(it)))
	}
	rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)))
	return tgbotapi.NewReplyKeyboard(rows...)
}

func branchMenuKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSearch)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnNotify)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
}

func reportMenuKeyboard(u models.UserRecord) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	if u.CanSee(models.NetworkUG) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnReportUG)))
	}
	if u.CanSee(models.NetworkRK) {
		rows = append(rows, tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnReportRK)))
	}
	rows = append(rows,
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnProviders)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
	return tgbotapi.NewReplyKeyboard(rows...)
}

func geoKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButtonLocation(btnSendGeo)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
}

func skipKeyboard() tgbotapi.ReplyKeyboardMarkup {
	return tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnSkip)),
		tgbotapi.NewKeyboardButtonRow(tgbotapi.NewKeyboardButton(btnBack)),
	)
}

// visibleBranches narrows the network's branch list to the user's scope.
func visibleBranches(all []string, u models.UserRecord) []string {
	if u.AllBranches() {
		return all
	}
	for _, b := range all {
		if b == u.Branch {
			return []string{b}
		}
	}
	return nil
}
