package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"vols-bot/internal/models"
)

type fakeSender struct {
	texts     map[int64][]string
	locations map[int64]int
	photos    map[int64]int
	failFor   map[int64]error
}

func newFakeSender() *fakeSender {
	return &fakeSender{
		texts:     map[int64][]string{},
		locations: map[int64]int{},
		photos:    map[int64]int{},
		failFor:   map[int64]error{},
	}
}

func (f *fakeSender) SendText(chatID int64, text string) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.texts[chatID] = append(f.texts[chatID], text)
	return nil
}

func (f *fakeSender) SendLocation(chatID int64, lat, lon float64) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.locations[chatID]++
	return nil
}

func (f *fakeSender) SendPhoto(chatID int64, fileID, caption string) error {
	if err := f.failFor[chatID]; err != nil {
		return err
	}
	f.photos[chatID]++
	return nil
}

type fakeMailer struct {
	sent    []string
	failAll bool
}

func (f *fakeMailer) IsConfigured() bool { return true }
func (f *fakeMailer) Send(to, subject, body string) error {
	if f.failAll {
		return errors.New("smtp down")
	}
	f.sent = append(f.sent, to)
	return nil
}

var roster = []models.UserRecord{
	{TelegramID: 1, FullName: "Иванов И.И.", ResponsibleFor: "Северные ЭС", Email: "ivanov@example.com"},
	{TelegramID: 2, FullName: "Петров П.П.", ResponsibleFor: "Южные ЭС"},
	{TelegramID: 3, FullName: "Сидоров С.С.", ResponsibleFor: " Северные ЭС "},
	{TelegramID: 4, FullName: "Без зоны", ResponsibleFor: ""},
	{TelegramID: 5, FullName: "Частичное", ResponsibleFor: "Северные"},
}

func newDispatcher(s MessageSender, m Mailer, st Store) *Dispatcher {
	d := NewDispatcher(s, m, st, false)
	d.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }
	n := 0
	d.newID = func() string { n++; return fmt.Sprintf("id-%d", n) }
	return d
}

func TestResolveMatchesBranchAndDistrict(t *testing.T) {
	defect := models.Defect{Branch: "Северные ЭС", District: "Южные ЭС"}
	got := Resolve(roster, defect, false)
	if len(got) != 3 {
		t.Fatalf("resolved %d recipients, want 3 (both tags, trimmed)", len(got))
	}
	ids := map[int64]bool{}
	for _, u := range got {
		ids[u.TelegramID] = true
	}
	for _, want := range []int64{1, 2, 3} {
		if !ids[want] {
			t.Fatalf("recipient %d missing from %v", want, got)
		}
	}
}

func TestResolveExactNotSubstring(t *testing.T) {
	defect := models.Defect{Branch: "Северные ЭС", District: "нет"}
	for _, u := range Resolve(roster, defect, false) {
		if u.TelegramID == 5 {
			t.Fatal("substring tag «Северные» must not match «Северные ЭС»")
		}
	}
}

func TestResolveCaseFlag(t *testing.T) {
	users := []models.UserRecord{{TelegramID: 1, ResponsibleFor: "северные эс"}}
	defect := models.Defect{Branch: "Северные ЭС"}
	if got := Resolve(users, defect, false); len(got) != 0 {
		t.Fatalf("case-sensitive resolve matched %v", got)
	}
	if got := Resolve(users, defect, true); len(got) != 1 {
		t.Fatal("case-insensitive resolve missed the recipient")
	}
}

func TestDispatchFullSuccess(t *testing.T) {
	sender := newFakeSender()
	mailer := &fakeMailer{}
	store := NewMemoryStore()
	d := newDispatcher(sender, mailer, store)

	defect := models.Defect{
		Network: models.NetworkUG, Branch: "Северные ЭС", District: "Южные ЭС",
		Substation: "Н-6477", PowerLine: "ВЛ-10 кВ Ф-1",
		Latitude: 45.1, Longitude: 38.9,
		PhotoFileID: "photo-1", SenderID: 99, SenderName: "Обходчик О.О.",
	}
	sum, err := d.Dispatch(context.Background(), roster, defect)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Delivered() != 3 || len(sum.Failed()) != 0 {
		t.Fatalf("delivered %d, failed %d; want 3/0", sum.Delivered(), len(sum.Failed()))
	}
	for _, id := range []int64{1, 2, 3} {
		if len(sender.texts[id]) != 1 || sender.locations[id] != 1 || sender.photos[id] != 1 {
			t.Fatalf("recipient %d got texts=%d loc=%d photo=%d", id, len(sender.texts[id]), sender.locations[id], sender.photos[id])
		}
	}
	// only the recipient with a non-empty email gets the relay
	if len(mailer.sent) != 1 || mailer.sent[0] != "ivanov@example.com" {
		t.Fatalf("mailer.sent = %v", mailer.sent)
	}
	recs, _ := store.List(models.NetworkUG)
	if len(recs) != 1 {
		t.Fatalf("store has %d records, want 1", len(recs))
	}
	if !recs[0].HasPhoto || len(recs[0].RecipientIDs) != 3 {
		t.Fatalf("bad record: %+v", recs[0])
	}
	if !strings.Contains(sender.texts[1][0], "Н-6477") || !strings.Contains(sender.texts[1][0], "maps.google.com") {
		t.Fatalf("message missing fields:\n%s", sender.texts[1][0])
	}
}

func TestDispatchIsolatesPerRecipientFailure(t *testing.T) {
	sender := newFakeSender()
	sender.failFor[1] = errors.New("bot was blocked by the user")
	store := NewMemoryStore()
	d := newDispatcher(sender, nil, store)

	defect := models.Defect{Network: models.NetworkUG, Branch: "Северные ЭС", District: "Южные ЭС"}
	sum, err := d.Dispatch(context.Background(), roster, defect)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Delivered() != 2 {
		t.Fatalf("delivered = %d, want 2 despite one failure", sum.Delivered())
	}
	failed := sum.Failed()
	if len(failed) != 1 || failed[0].Recipient.TelegramID != 1 {
		t.Fatalf("failed = %+v", failed)
	}
	if !strings.Contains(sum.Text(), "частично") {
		t.Fatalf("summary text should report partial success:\n%s", sum.Text())
	}
}

func TestDispatchZeroRecipientsStillPersists(t *testing.T) {
	sender := newFakeSender()
	store := NewMemoryStore()
	d := newDispatcher(sender, nil, store)

	defect := models.Defect{Network: models.NetworkRK, Branch: "Тихорецкие ЭС", District: "Тихорецкий РЭС"}
	sum, err := d.Dispatch(context.Background(), roster, defect)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Delivered() != 0 || len(sum.Recipients) != 0 {
		t.Fatalf("expected zero deliveries, got %+v", sum)
	}
	recs, _ := store.List(models.NetworkRK)
	if len(recs) != 1 {
		t.Fatalf("store has %d records, want exactly 1 for the zero-match case", len(recs))
	}
	if recs[0].RecipientNames[0] != "не найдено" {
		t.Fatalf("recipients = %v, want «не найдено» marker", recs[0].RecipientNames)
	}
	txt := sum.Text()
	if !strings.Contains(txt, "не найден") || !strings.Contains(txt, "Северные ЭС") {
		t.Fatalf("summary must list known tags:\n%s", txt)
	}
}

func TestDispatchNoDeduplication(t *testing.T) {
	store := NewMemoryStore()
	d := newDispatcher(newFakeSender(), nil, store)

	defect := models.Defect{Network: models.NetworkUG, Branch: "Северные ЭС"}
	ctx := context.Background()
	if _, err := d.Dispatch(ctx, roster, defect); err != nil {
		t.Fatal(err)
	}
	if _, err := d.Dispatch(ctx, roster, defect); err != nil {
		t.Fatal(err)
	}
	recs, _ := store.List(models.NetworkUG)
	if len(recs) != 2 {
		t.Fatalf("store has %d records, want 2 independent ones", len(recs))
	}
	if recs[0].ID == recs[1].ID {
		t.Fatal("records must have distinct IDs")
	}
}

func TestDispatchEmailFailureDoesNotAffectResult(t *testing.T) {
	sender := newFakeSender()
	d := newDispatcher(sender, &fakeMailer{failAll: true}, NewMemoryStore())

	defect := models.Defect{Network: models.NetworkUG, Branch: "Северные ЭС"}
	sum, err := d.Dispatch(context.Background(), roster, defect)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if sum.Delivered() != 2 || len(sum.Failed()) != 0 {
		t.Fatalf("email failure leaked into telegram result: %+v", sum)
	}
}
