// Package notify routes a located defect to every roster user responsible
// for its branch or district and keeps the audit log of sent notifications.
package notify

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"vols-bot/internal/models"
)

// MessageSender is the outbound chat surface the dispatcher needs.
type MessageSender interface {
	SendText(chatID int64, text string) error
	SendLocation(chatID int64, lat, lon float64) error
	SendPhoto(chatID int64, fileID, caption string) error
}

// Mailer relays a notification by email. An unconfigured mailer is a no-op.
type Mailer interface {
	IsConfigured() bool
	Send(to, subject, body string) error
}

// Store is the append-only notification log.
type Store interface {
	Append(rec models.NotificationRecord) error
	List(n models.Network) ([]models.NotificationRecord, error)
}

type Delivery struct {
	Recipient models.UserRecord
	Err       error
}

type Summary struct {
	Recipients []models.UserRecord
	Deliveries []Delivery
	// KnownTags lists the roster's responsible-for values when no recipient
	// matched, so the operator can see what the defect failed to hit.
	KnownTags []string
	Record    models.NotificationRecord
}

func (s Summary) Delivered() int {
	n := 0
	for _, d := range s.Deliveries {
		if d.Err == nil {
			n++
		}
	}
	return n
}

func (s Summary) Failed() []Delivery {
	var out []Delivery
	for _, d := range s.Deliveries {
		if d.Err != nil {
			out = append(out, d)
		}
	}
	return out
}

// Text renders the summary message shown to the sender.
func (s Summary) Text() string {
	if len(s.Recipients) == 0 {
		b := strings.Builder{}
		b.WriteString("❗ Ответственный за «" + s.Record.District + "» не найден. Уведомление сохранено в журнале.")
		if len(s.KnownTags) > 0 {
			b.WriteString("\nИзвестные зоны ответственности: " + strings.Join(s.KnownTags, ", "))
		}
		return b.String()
	}
	failed := s.Failed()
	if len(failed) == 0 {
		return fmt.Sprintf("✅ Уведомление отправлено: %d получателей.", s.Delivered())
	}
	b := strings.Builder{}
	fmt.Fprintf(&b, "⚠️ Уведомление отправлено частично: %d из %d.\nНе доставлено:", s.Delivered(), len(s.Recipients))
	for _, d := range failed {
		fmt.Fprintf(&b, "\n— %s: %v", d.Recipient.FullName, d.Err)
	}
	return b.String()
}

// Resolve selects every user whose trimmed responsible-for tag exactly
// equals the defect's branch or district. No partial matching, no priority:
// all matches are recipients.
func Resolve(users []models.UserRecord, defect models.Defect, caseInsensitive bool) []models.UserRecord {
	eq := func(a, b string) bool {
		if caseInsensitive {
			return strings.EqualFold(a, b)
		}
		return a == b
	}
	var out []models.UserRecord
	for _, u := range users {
		tag := strings.TrimSpace(u.ResponsibleFor)
		if tag == "" {
			continue
		}
		if eq(tag, defect.Branch) || eq(tag, defect.District) {
			out = append(out, u)
		}
	}
	return out
}

type Dispatcher struct {
	sender MessageSender
	mailer Mailer
	store  Store

	caseInsensitive bool
	now             func() time.Time
	newID           func() string
}

func NewDispatcher(sender MessageSender, mailer Mailer, store Store, caseInsensitive bool) *Dispatcher {
	return &Dispatcher{
		sender:          sender,
		mailer:          mailer,
		store:           store,
		caseInsensitive: caseInsensitive,
		now:             time.Now,
		newID:           func() string { return uuid.NewString() },
	}
}

// Dispatch fans the defect out to every resolved recipient sequentially:
// text, then the raw geolocation, then the photo when present. A failed
// send is recorded for that recipient and does not abort the rest. Email
// relay failures only reach the log. Exactly one record is appended to the
// store regardless of delivery outcome, including the zero-recipient case.
func (d *Dispatcher) Dispatch(ctx context.Context, users []models.UserRecord, defect models.Defect) (Summary, error) {
	recipients := Resolve(users, defect, d.caseInsensitive)

	sum := Summary{Recipients: recipients}
	text := formatMessage(defect, d.now())

	for _, r := range recipients {
		err := d.sendAll(r.TelegramID, text, defect)
		sum.Deliveries = append(sum.Deliveries, Delivery{Recipient: r, Err: err})
		if err != nil {
			log.Printf("notify: send to %d (%s) failed: %v", r.TelegramID, r.FullName, err)
		}
		d.relayEmail(r, text)
	}

	if len(recipients) == 0 {
		sum.KnownTags = knownTags(users)
	}

	sum.Record = d.buildRecord(defect, recipients)
	if err := d.store.Append(sum.Record); err != nil {
		return sum, fmt.Errorf("append notification log: %w", err)
	}
	return sum, nil
}

func (d *Dispatcher) sendAll(chatID int64, text string, defect models.Defect) error {
	if err := d.sender.SendText(chatID, text); err != nil {
		return err
	}
	if err := d.sender.SendLocation(chatID, defect.Latitude, defect.Longitude); err != nil {
		return err
	}
	if defect.PhotoFileID != "" {
		if err := d.sender.SendPhoto(chatID, defect.PhotoFileID, "Фото с места обнаружения"); err != nil {
			return err
		}
	}
	return nil
}

func (d *Dispatcher) relayEmail(r models.UserRecord, text string) {
	if d.mailer == nil || !d.mailer.IsConfigured() {
		return
	}
	to := strings.TrimSpace(r.Email)
	if to == "" {
		return
	}
	subject := "Бездоговорной ВОЛС: " + strings.TrimSpace(r.ResponsibleFor)
	if err := d.mailer.Send(to, subject, text); err != nil {
		log.Printf("notify: email to %s failed: %v", to, err)
	}
}

func (d *Dispatcher) buildRecord(defect models.Defect, recipients []models.UserRecord) models.NotificationRecord {
	rec := models.NotificationRecord{
		ID:         d.newID(),
		Network:    defect.Network,
		Branch:     defect.Branch,
		District:   defect.District,
		Substation: defect.Substation,
		PowerLine:  defect.PowerLine,
		SenderName: defect.SenderName,
		SenderID:   defect.SenderID,
		CreatedAt:  d.now().Format(time.RFC3339),
		Latitude:   defect.Latitude,
		Longitude:  defect.Longitude,
		Comment:    defect.Comment,
		HasPhoto:   defect.PhotoFileID != "",
	}
	for _, r := range recipients {
		rec.RecipientNames = append(rec.RecipientNames, r.FullName)
		rec.RecipientIDs = append(rec.RecipientIDs, r.TelegramID)
	}
	if len(recipients) == 0 {
		rec.RecipientNames = []string{"не найдено"}
	}
	return rec
}

func formatMessage(defect models.Defect, at time.Time) string {
	b := strings.Builder{}
	b.WriteString("🚨 Обнаружен бездоговорной ВОЛС\n")
	fmt.Fprintf(&b, "Сеть: %s\n", defect.Network.Title())
	fmt.Fprintf(&b, "Филиал: %s\n", defect.Branch)
	fmt.Fprintf(&b, "РЭС: %s\n", defect.District)
	fmt.Fprintf(&b, "ТП: %s\n", defect.Substation)
	fmt.Fprintf(&b, "ВЛ: %s\n", defect.PowerLine)
	fmt.Fprintf(&b, "Сообщил: %s (id %d)\n", defect.SenderName, defect.SenderID)
	fmt.Fprintf(&b, "Время: %s", at.Format("02.01.2006 15:04"))
	if strings.TrimSpace(defect.Comment) != "" {
		b.WriteString("\nКомментарий: " + defect.Comment)
	}
	fmt.Fprintf(&b, "\nКарта: https://maps.google.com/?q=%f,%f", defect.Latitude, defect.Longitude)
	return b.String()
}

func knownTags(users []models.UserRecord) []string {
	seen := map[string]bool{}
	var tags []string
	for _, u := range users {
		tag := strings.TrimSpace(u.ResponsibleFor)
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		tags = append(tags, tag)
	}
	return tags
}
