package models

// Network identifies one of the two grid operators the bot serves.
type Network string

const (
	NetworkUG Network = "UG" // Россети ЮГ
	NetworkRK Network = "RK" // Россети Кубань
)

func (n Network) Title() string {
	switch n {
	case NetworkUG:
		return "Россети ЮГ"
	case NetworkRK:
		return "Россети Кубань"
	}
	return string(n)
}

type UserRecord struct {
	TelegramID     int64
	Visibility     string // "all", "юг", "кубань" (normalized lowercase)
	Branch         string // "Все" or a single branch name
	District       string
	FullName       string
	ResponsibleFor string // branch or district this user is accountable for
	Email          string
}

// CanSee reports whether the user's visibility scope covers the network.
func (u UserRecord) CanSee(n Network) bool {
	switch u.Visibility {
	case "all", "все":
		return true
	case "юг":
		return n == NetworkUG
	case "кубань":
		return n == NetworkRK
	}
	return false
}

// AllBranches reports whether the user sees every branch of a network.
func (u UserRecord) AllBranches() bool {
	return u.Branch == "" || u.Branch == "Все" || u.Branch == "All"
}

type BranchEntry struct {
	Substation   string
	PowerLine    string
	Supports     string
	SupportCount string
	Provider     string
	Branch       string
	District     string
}

// Defect is a located "unauthorized fiber-optic cable" finding collected
// through the notify flow.
type Defect struct {
	Network     Network
	Branch      string
	District    string
	Substation  string
	PowerLine   string
	Latitude    float64
	Longitude   float64
	Comment     string
	PhotoFileID string
	SenderID    int64
	SenderName  string
}

type NotificationRecord struct {
	ID             string
	Network        Network
	Branch         string
	District       string
	Substation     string
	PowerLine      string
	SenderName     string
	SenderID       int64
	RecipientNames []string
	RecipientIDs   []int64
	CreatedAt      string
	Latitude       float64
	Longitude      float64
	Comment        string
	HasPhoto       bool
}
