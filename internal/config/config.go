package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"vols-bot/internal/models"
)

// BranchSource holds the CSV export URLs for one branch: the full contract
// table and the simplified (SP) reference table used by the notify flow.
type BranchSource struct {
	Branch       string
	ContractURL  string
	ReferenceURL string
	ContractEnv  string
	ReferenceEnv string
}

type SMTP struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Config struct {
	TelegramToken string

	SelfURL  string
	HTTPAddr string
	PingURL  string

	ZonesCSVURL           string
	ZonesDriveFileID      string
	GoogleCredentialsFile string

	HelpFolderURL string

	NotifyLogFileUG string
	NotifyLogFileRK string

	MatchCaseInsensitive bool

	DocTTL    time.Duration
	RosterTTL time.Duration

	SMTP SMTP

	branches map[models.Network][]BranchSource
}

// branchEnvTable maps branch display names to their env variable stems.
// URLs follow the <STEM>_URL_<NETWORK>[_SP] convention.
var branchEnvTable = map[models.Network][]struct {
	Name string
	Stem string
}{
	models.NetworkUG: {
		{"Юго-Западные ЭС", "YUGO_ZAPAD"},
		{"Центральные ЭС", "CENTRAL"},
		{"Западные ЭС", "ZAPAD"},
		{"Восточные ЭС", "VOSTOCH"},
		{"Южные ЭС", "YUZH"},
		{"Северо-Восточные ЭС", "SEVERO_VOSTOCH"},
		{"Юго-Восточные ЭС", "YUGO_VOSTOCH"},
		{"Северные ЭС", "SEVER"},
	},
	models.NetworkRK: {
		{"Юго-Западные ЭС", "YUGO_ZAPAD"},
		{"Усть-Лабинские ЭС", "UST_LABINSK"},
		{"Тимашевские ЭС", "TIMASHEVSK"},
		{"Тихорецкие ЭС", "TIKHORETSK"},
		{"Сочинские ЭС", "SOCHI"},
		{"Славянские ЭС", "SLAVYANSK"},
		{"Ленинградские ЭС", "LENINGRADSK"},
		{"Лабинские ЭС", "LABINSK"},
		{"Краснодарские ЭС", "KRASNODAR"},
		{"Армавирские ЭС", "ARMAVIR"},
		{"Адыгейские ЭС", "ADYGEYSK"},
	},
}

func FromEnv() (Config, error) {
	var c Config
	c.TelegramToken = strings.TrimSpace(os.Getenv("TOKEN"))
	c.SelfURL = strings.TrimRight(strings.TrimSpace(os.Getenv("SELF_URL")), "/")

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8000"
	}
	c.HTTPAddr = ":" + port

	c.PingURL = strings.TrimRight(strings.TrimSpace(os.Getenv("PING_URL")), "/")
	if c.PingURL == "" {
		c.PingURL = c.SelfURL
	}

	c.ZonesCSVURL = strings.TrimSpace(os.Getenv("ZONES_CSV_URL"))
	c.ZonesDriveFileID = strings.TrimSpace(os.Getenv("ZONES_DRIVE_FILE_ID"))
	c.GoogleCredentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_CREDENTIALS_FILE"))

	c.HelpFolderURL = strings.TrimSpace(os.Getenv("HELP_FOLDER_URL"))

	c.NotifyLogFileUG = strings.TrimSpace(os.Getenv("NOTIFY_LOG_FILE_UG"))
	if c.NotifyLogFileUG == "" {
		c.NotifyLogFileUG = "notify_log_ug.csv"
	}
	c.NotifyLogFileRK = strings.TrimSpace(os.Getenv("NOTIFY_LOG_FILE_RK"))
	if c.NotifyLogFileRK == "" {
		c.NotifyLogFileRK = "notify_log_rk.csv"
	}

	c.MatchCaseInsensitive = parseBool(os.Getenv("NOTIFY_MATCH_CASE_INSENSITIVE"))

	c.DocTTL = time.Hour
	c.RosterTTL = 5 * time.Minute

	c.SMTP = SMTP{
		Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
		Username: strings.TrimSpace(os.Getenv("SMTP_USER")),
		Password: os.Getenv("SMTP_PASSWORD"),
		From:     strings.TrimSpace(os.Getenv("SMTP_FROM")),
	}
	c.SMTP.Port = 465
	if v := strings.TrimSpace(os.Getenv("SMTP_PORT")); v != "" {
		if _, err := fmt.Sscan(v, &c.SMTP.Port); err != nil {
			return c, fmt.Errorf("SMTP_PORT: %w", err)
		}
	}

	c.branches = map[models.Network][]BranchSource{}
	for net, table := range branchEnvTable {
		for _, b := range table {
			contractEnv := b.Stem + "_URL_" + string(net)
			refEnv := contractEnv + "_SP"
			c.branches[net] = append(c.branches[net], BranchSource{
				Branch:       b.Name,
				ContractURL:  strings.TrimSpace(os.Getenv(contractEnv)),
				ReferenceURL: strings.TrimSpace(os.Getenv(refEnv)),
				ContractEnv:  contractEnv,
				ReferenceEnv: refEnv,
			})
		}
	}

	if c.TelegramToken == "" {
		return c, fmt.Errorf("TOKEN is empty")
	}
	if c.ZonesCSVURL == "" && c.ZonesDriveFileID == "" {
		return c, fmt.Errorf("ZONES_CSV_URL or ZONES_DRIVE_FILE_ID must be set")
	}

	return c, nil
}

// Branches returns the branch names of a network in menu order.
func (c Config) Branches(n models.Network) []string {
	var out []string
	for _, b := range c.branches[n] {
		out = append(out, b.Branch)
	}
	return out
}

// Source returns the URL source for a branch of a network.
func (c Config) Source(n models.Network, branch string) (BranchSource, bool) {
	for _, b := range c.branches[n] {
		if b.Branch == branch {
			return b, true
		}
	}
	return BranchSource{}, false
}

func (c Config) NotifyLogFile(n models.Network) string {
	if n == models.NetworkRK {
		return c.NotifyLogFileRK
	}
	return c.NotifyLogFileUG
}

func parseBool(s string) bool {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "1", "true", "yes", "да", "y":
		return true
	}
	return false
}
