package notify

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"vols-bot/internal/models"
)

// MemoryStore keeps the notification log in process memory. Lost on
// restart; the default in deployments without a writable disk.
type MemoryStore struct {
	mu      sync.Mutex
	records map[models.Network][]models.NotificationRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[models.Network][]models.NotificationRecord{}}
}

func (s *MemoryStore) Append(rec models.NotificationRecord) error {
	s.mu.Lock()
	s.records[rec.Network] = append(s.records[rec.Network], rec)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) List(n models.Network) ([]models.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.NotificationRecord, len(s.records[n]))
	copy(out, s.records[n])
	return out, nil
}

var csvHeader = []string{
	"ID", "Дата", "Сеть", "Филиал", "РЭС", "ТП", "ВЛ",
	"Отправитель", "ID отправителя", "Получатели", "ID получателей",
	"Широта", "Долгота", "Комментарий", "Фото",
}

// CSVStore appends each record to a per-network CSV file.
type CSVStore struct {
	mu    sync.Mutex
	files map[models.Network]string
}

func NewCSVStore(fileUG, fileRK string) *CSVStore {
	return &CSVStore{files: map[models.Network]string{
		models.NetworkUG: fileUG,
		models.NetworkRK: fileRK,
	}}
}

func (s *CSVStore) Append(rec models.NotificationRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.files[rec.Network]
	if !ok {
		return fmt.Errorf("no log file for network %s", rec.Network)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return err
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(csvHeader); err != nil {
			return err
		}
	}
	if err := w.Write(marshalRecord(rec)); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *CSVStore) List(n models.Network) ([]models.NotificationRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.files[n]
	if !ok {
		return nil, fmt.Errorf("no log file for network %s", n)
	}

	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	var out []models.NotificationRecord
	for i, row := range rows {
		if i == 0 || len(row) < len(csvHeader) {
			continue
		}
		out = append(out, unmarshalRecord(row))
	}
	return out, nil
}

func marshalRecord(rec models.NotificationRecord) []string {
	ids := make([]string, len(rec.RecipientIDs))
	for i, id := range rec.RecipientIDs {
		ids[i] = strconv.FormatInt(id, 10)
	}
	photo := "нет"
	if rec.HasPhoto {
		photo = "да"
	}
	return []string{
		rec.ID,
		rec.CreatedAt,
		string(rec.Network),
		rec.Branch,
		rec.District,
		rec.Substation,
		rec.PowerLine,
		rec.SenderName,
		strconv.FormatInt(rec.SenderID, 10),
		strings.Join(rec.RecipientNames, "; "),
		strings.Join(ids, "; "),
		strconv.FormatFloat(rec.Latitude, 'f', -1, 64),
		strconv.FormatFloat(rec.Longitude, 'f', -1, 64),
		rec.Comment,
		photo,
	}
}

func unmarshalRecord(row []string) models.NotificationRecord {
	rec := models.NotificationRecord{
		ID:         row[0],
		CreatedAt:  row[1],
		Network:    models.Network(row[2]),
		Branch:     row[3],
		District:   row[4],
		Substation: row[5],
		PowerLine:  row[6],
		SenderName: row[7],
		Comment:    row[13],
		HasPhoto:   row[14] == "да",
	}
	rec.SenderID, _ = strconv.ParseInt(row[8], 10, 64)
	if row[9] != "" {
		rec.RecipientNames = strings.Split(row[9], "; ")
	}
	if row[10] != "" {
		for _, s := range strings.Split(row[10], "; ") {
			id, err := strconv.ParseInt(s, 10, 64)
			if err == nil {
				rec.RecipientIDs = append(rec.RecipientIDs, id)
			}
		}
	}
	rec.Latitude, _ = strconv.ParseFloat(row[11], 64)
	rec.Longitude, _ = strconv.ParseFloat(row[12], 64)
	return rec
}
