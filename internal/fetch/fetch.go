// Package fetch downloads the project's spreadsheet tables as CSV exports.
package fetch

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Row is one CSV record keyed by trimmed header name.
type Row map[string]string

type Client struct {
	http *resty.Client
}

func New() *Client {
	return &Client{
		http: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond),
	}
}

// NormalizeSheetURL turns a Google Sheets document link into its CSV export
// form; export links and non-Google URLs pass through unchanged.
func NormalizeSheetURL(u string) string {
	if !strings.Contains(u, "docs.google.com") || strings.Contains(u, "export?format=csv") {
		return u
	}
	if i := strings.Index(u, "/edit"); i >= 0 {
		u = u[:i]
	}
	if i := strings.IndexAny(u, "#?"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimRight(u, "/") + "/export?format=csv"
}

// Table fetches a CSV export and decodes it into header-keyed rows.
func (c *Client) Table(ctx context.Context, url string) ([]Row, error) {
	resp, err := c.http.R().SetContext(ctx).Get(NormalizeSheetURL(url))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch %s: status %s", url, resp.Status())
	}
	rows, err := ParseCSV(strings.NewReader(string(resp.Body())))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", url, err)
	}
	return rows, nil
}

// ParseCSV decodes CSV data into rows keyed by the header line. Short rows
// are padded with empty values, ragged rows are tolerated.
func ParseCSV(r io.Reader) ([]Row, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\uFEFF"))
	}

	var rows []Row
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		row := Row{}
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(rec) {
				row[name] = strings.TrimSpace(rec[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
