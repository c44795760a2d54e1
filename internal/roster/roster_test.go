package roster

import (
	"context"
	"errors"
	"testing"
	"time"

	"vols-bot/internal/fetch"
	"vols-bot/internal/models"
)

func staticSource(rows []fetch.Row) Source {
	return func(ctx context.Context) ([]fetch.Row, error) { return rows, nil }
}

var testRows = []fetch.Row{
	{"Telegram ID": "1001", "Видимость": "ALL", "Филиал": "Все", "РЭС": "Все", "ФИО": "Иванов И.И.", "Ответственный": "Северные ЭС", "Email": "ivanov@example.com"},
	{"Telegram ID": "1002", "Видимость": "Кубань", "Филиал": "Тимашевские ЭС", "РЭС": "Тимашевский РЭС", "ФИО": "Петров П.П.", "Ответственный": "Южные ЭС"},
	{"Telegram ID": "1003", "Видимость": "ЮГ", "Филиал": "Северные ЭС", "РЭС": "", "ФИО": "Сидоров С.С.", "Ответственный": ""},
	{"Telegram ID": "не число", "ФИО": "Мусор"},
}

func TestLookup(t *testing.T) {
	s := New(staticSource(testRows), time.Minute)
	ctx := context.Background()

	u, err := s.Lookup(ctx, 1002)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if u == nil {
		t.Fatal("Lookup(1002) = nil, want record")
	}
	if u.FullName != "Петров П.П." || u.Visibility != "кубань" {
		t.Fatalf("unexpected record: %+v", u)
	}

	missing, err := s.Lookup(ctx, 9999)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if missing != nil {
		t.Fatalf("Lookup(9999) = %+v, want nil", missing)
	}
}

func TestUsersSkipsMalformedIDs(t *testing.T) {
	s := New(staticSource(testRows), time.Minute)
	users, err := s.Users(context.Background())
	if err != nil {
		t.Fatalf("Users: %v", err)
	}
	if len(users) != 3 {
		t.Fatalf("users = %d, want 3 (garbage row dropped)", len(users))
	}
}

func TestSourceErrorSurfaces(t *testing.T) {
	s := New(func(ctx context.Context) ([]fetch.Row, error) {
		return nil, errors.New("fetch failed")
	}, time.Minute)
	if _, err := s.Users(context.Background()); err == nil {
		t.Fatal("expected error from failing source")
	}
}

func TestVisibility(t *testing.T) {
	cases := []struct {
		name string
		vis  string
		net  models.Network
		want bool
	}{
		{"all sees UG", "all", models.NetworkUG, true},
		{"all sees RK", "all", models.NetworkRK, true},
		{"ug sees UG", "юг", models.NetworkUG, true},
		{"ug blocked from RK", "юг", models.NetworkRK, false},
		{"rk sees RK", "кубань", models.NetworkRK, true},
		{"rk blocked from UG", "кубань", models.NetworkUG, false},
		{"unknown sees nothing", "", models.NetworkUG, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			u := models.UserRecord{Visibility: tc.vis}
			if got := u.CanSee(tc.net); got != tc.want {
				t.Fatalf("CanSee(%q, %s) = %v, want %v", tc.vis, tc.net, got, tc.want)
			}
		})
	}
}
