// Package roster resolves Telegram users against the permissions
// spreadsheet (the "zones" table).
package roster

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"vols-bot/internal/cache"
	"vols-bot/internal/fetch"
	"vols-bot/internal/models"
)

const cacheKey = "zones"

// Source loads the raw roster rows from wherever the deployment keeps them.
type Source func(ctx context.Context) ([]fetch.Row, error)

type Service struct {
	source Source
	cache  *cache.Cache[[]models.UserRecord]
}

func New(source Source, ttl time.Duration) *Service {
	return &Service{
		source: source,
		cache:  cache.New[[]models.UserRecord](ttl),
	}
}

// CSVSource reads the roster from a published CSV export URL.
func CSVSource(client *fetch.Client, url string) Source {
	return func(ctx context.Context) ([]fetch.Row, error) {
		return client.Table(ctx, url)
	}
}

// Users returns the parsed roster, cached for the configured TTL.
func (s *Service) Users(ctx context.Context) ([]models.UserRecord, error) {
	return s.cache.Get(ctx, cacheKey, func(ctx context.Context) ([]models.UserRecord, error) {
		rows, err := s.source(ctx)
		if err != nil {
			return nil, fmt.Errorf("load zones: %w", err)
		}
		return parseUsers(rows), nil
	})
}

// Lookup returns the permission record for a Telegram ID, or nil when the
// user is not on the roster.
func (s *Service) Lookup(ctx context.Context, id int64) (*models.UserRecord, error) {
	users, err := s.Users(ctx)
	if err != nil {
		return nil, err
	}
	for i := range users {
		if users[i].TelegramID == id {
			u := users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func parseUsers(rows []fetch.Row) []models.UserRecord {
	var users []models.UserRecord
	for _, r := range rows {
		id, err := strconv.ParseInt(strings.TrimSpace(r["Telegram ID"]), 10, 64)
		if err != nil {
			continue
		}
		users = append(users, models.UserRecord{
			TelegramID:     id,
			Visibility:     strings.ToLower(strings.TrimSpace(r["Видимость"])),
			Branch:         r["Филиал"],
			District:       r["РЭС"],
			FullName:       r["ФИО"],
			ResponsibleFor: r["Ответственный"],
			Email:          r["Email"],
		})
	}
	return users
}
