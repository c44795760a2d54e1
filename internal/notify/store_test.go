package notify

import (
	"path/filepath"
	"testing"

	"vols-bot/internal/models"
)

func sampleRecord(n models.Network, id string) models.NotificationRecord {
	return models.NotificationRecord{
		ID:             id,
		Network:        n,
		Branch:         "Тимашевские ЭС",
		District:       "Тимашевский РЭС",
		Substation:     "Н-6477",
		PowerLine:      "ВЛ-10 кВ Ф-1",
		SenderName:     "Обходчик О.О.",
		SenderID:       99,
		RecipientNames: []string{"Иванов И.И.", "Петров П.П."},
		RecipientIDs:   []int64{1, 2},
		CreatedAt:      "2026-03-10T12:00:00Z",
		Latitude:       45.1,
		Longitude:      38.9,
		Comment:        "провод на опорах 3-5",
		HasPhoto:       true,
	}
}

func TestMemoryStoreSeparatesNetworks(t *testing.T) {
	s := NewMemoryStore()
	if err := s.Append(sampleRecord(models.NetworkUG, "a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Append(sampleRecord(models.NetworkRK, "b")); err != nil {
		t.Fatal(err)
	}
	ug, _ := s.List(models.NetworkUG)
	rk, _ := s.List(models.NetworkRK)
	if len(ug) != 1 || len(rk) != 1 {
		t.Fatalf("ug=%d rk=%d, want 1/1", len(ug), len(rk))
	}
	if ug[0].ID != "a" || rk[0].ID != "b" {
		t.Fatalf("wrong records: %v %v", ug, rk)
	}
}

func TestCSVStoreRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s := NewCSVStore(filepath.Join(dir, "ug.csv"), filepath.Join(dir, "rk.csv"))

	want := sampleRecord(models.NetworkUG, "rec-1")
	if err := s.Append(want); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if err := s.Append(sampleRecord(models.NetworkUG, "rec-2")); err != nil {
		t.Fatalf("Append: %v", err)
	}

	got, err := s.List(models.NetworkUG)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("records = %d, want 2", len(got))
	}
	r := got[0]
	if r.ID != want.ID || r.Substation != want.Substation || r.Comment != want.Comment {
		t.Fatalf("round trip mismatch: %+v", r)
	}
	if !r.HasPhoto || r.Latitude != want.Latitude {
		t.Fatalf("round trip mismatch: %+v", r)
	}
	if len(r.RecipientIDs) != 2 || r.RecipientIDs[1] != 2 {
		t.Fatalf("recipient ids = %v", r.RecipientIDs)
	}

	rk, err := s.List(models.NetworkRK)
	if err != nil {
		t.Fatalf("List(RK): %v", err)
	}
	if rk != nil {
		t.Fatalf("RK log should be empty, got %v", rk)
	}
}
