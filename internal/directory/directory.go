// Package directory serves the per-branch ТП tables: the full contract
// table shown by search and the simplified (SP) reference table used by
// the notify flow for district lookup.
package directory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"vols-bot/internal/cache"
	"vols-bot/internal/config"
	"vols-bot/internal/fetch"
	"vols-bot/internal/models"
)

// maxCandidates bounds the suggestion keyboard for fuzzy matches.
const maxCandidates = 10

// NotConfiguredError marks a branch whose URL variable is not set. The env
// name is for logs only and must not reach chat users.
type NotConfiguredError struct {
	EnvName string
}

func (e *NotConfiguredError) Error() string {
	return fmt.Sprintf("branch table not configured (%s)", e.EnvName)
}

type Service struct {
	cfg    config.Config
	client *fetch.Client
	cache  *cache.Cache[[]models.BranchEntry]
}

func New(cfg config.Config, client *fetch.Client, ttl time.Duration) *Service {
	return &Service{
		cfg:    cfg,
		client: client,
		cache:  cache.New[[]models.BranchEntry](ttl),
	}
}

// Contract returns the full contract table for a branch.
func (s *Service) Contract(ctx context.Context, n models.Network, branch string) ([]models.BranchEntry, error) {
	src, ok := s.cfg.Source(n, branch)
	if !ok {
		return nil, fmt.Errorf("unknown branch %q for %s", branch, n)
	}
	if src.ContractURL == "" {
		return nil, &NotConfiguredError{EnvName: src.ContractEnv}
	}
	return s.table(ctx, src.ContractURL)
}

// Reference returns the simplified table for a branch. Falls back to the
// contract table when no SP variant is configured, as some branches publish
// only one.
func (s *Service) Reference(ctx context.Context, n models.Network, branch string) ([]models.BranchEntry, error) {
	src, ok := s.cfg.Source(n, branch)
	if !ok {
		return nil, fmt.Errorf("unknown branch %q for %s", branch, n)
	}
	if src.ReferenceURL == "" {
		if src.ContractURL == "" {
			return nil, &NotConfiguredError{EnvName: src.ReferenceEnv}
		}
		return s.table(ctx, src.ContractURL)
	}
	return s.table(ctx, src.ReferenceURL)
}

func (s *Service) table(ctx context.Context, url string) ([]models.BranchEntry, error) {
	return s.cache.Get(ctx, url, func(ctx context.Context) ([]models.BranchEntry, error) {
		rows, err := s.client.Table(ctx, url)
		if err != nil {
			return nil, err
		}
		return parseEntries(rows), nil
	})
}

func parseEntries(rows []fetch.Row) []models.BranchEntry {
	var entries []models.BranchEntry
	for _, r := range rows {
		e := models.BranchEntry{
			Substation:   r["Наименование ТП"],
			PowerLine:    r["Наименование ВЛ"],
			Supports:     r["Опоры"],
			SupportCount: r["Количество опор"],
			Provider:     r["Контрагент"],
			Branch:       r["Филиал"],
			District:     r["РЭС"],
		}
		if strings.TrimSpace(e.Substation) == "" {
			continue
		}
		entries = append(entries, e)
	}
	return entries
}

// NormalizeName reduces a ТП name to bare letters and digits, uppercased,
// so "н 6477", "Н-6477" and "6477" compare against the same key.
func NormalizeName(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9',
			r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= 'а' && r <= 'я', r >= 'А' && r <= 'Я', r == 'ё', r == 'Ё':
			b.WriteRune(r)
		}
	}
	return strings.ToUpper(b.String())
}

// Search looks a query up in a branch table. An exact normalized match
// returns its rows; otherwise up to maxCandidates distinct names containing
// the normalized query are offered for selection.
func Search(entries []models.BranchEntry, query string) (exact []models.BranchEntry, candidates []string) {
	q := NormalizeName(query)
	if q == "" {
		return nil, nil
	}
	for _, e := range entries {
		if NormalizeName(e.Substation) == q {
			exact = append(exact, e)
		}
	}
	if len(exact) > 0 {
		return exact, nil
	}
	seen := map[string]bool{}
	for _, e := range entries {
		if !strings.Contains(NormalizeName(e.Substation), q) {
			continue
		}
		if seen[e.Substation] {
			continue
		}
		seen[e.Substation] = true
		candidates = append(candidates, e.Substation)
		if len(candidates) >= maxCandidates {
			break
		}
	}
	return nil, candidates
}

// Rows returns every entry of a given substation, by exact name.
func Rows(entries []models.BranchEntry, substation string) []models.BranchEntry {
	var out []models.BranchEntry
	for _, e := range entries {
		if e.Substation == substation {
			out = append(out, e)
		}
	}
	return out
}

// DistrictFor returns the РЭС recorded for a substation, first non-empty
// value wins.
func DistrictFor(entries []models.BranchEntry, substation string) string {
	for _, e := range entries {
		if e.Substation == substation && strings.TrimSpace(e.District) != "" {
			return e.District
		}
	}
	return ""
}

// PowerLines returns the distinct ВЛ names of a substation, table order.
func PowerLines(entries []models.BranchEntry, substation string) []string {
	seen := map[string]bool{}
	var out []string
	for _, e := range entries {
		if e.Substation != substation {
			continue
		}
		vl := strings.TrimSpace(e.PowerLine)
		if vl == "" || seen[vl] {
			continue
		}
		seen[vl] = true
		out = append(out, vl)
	}
	return out
}
