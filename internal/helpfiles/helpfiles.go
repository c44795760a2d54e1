// Package helpfiles lists the files of a public Google Drive folder for
// the «Справка» screen. The folder is read through the public
// embeddedfolderview page, no credentials needed.
package helpfiles

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/go-resty/resty/v2"
)

var (
	folderIDRe = regexp.MustCompile(`/folders/([a-zA-Z0-9_-]+)`)
	fileRe     = regexp.MustCompile(`data-id="([^"]+)"[\s\S]+?data-type="[^"]+"[\s\S]+?aria-label="([^"]+)"`)
)

type File struct {
	Name string
	URL  string
}

type Client struct {
	http *resty.Client
}

func New() *Client {
	return &Client{http: resty.New().SetTimeout(15 * time.Second)}
}

// ExtractFolderID pulls the folder id out of a Drive folder link.
func ExtractFolderID(folderURL string) (string, error) {
	m := folderIDRe.FindStringSubmatch(folderURL)
	if m == nil {
		return "", fmt.Errorf("not a drive folder link: %s", folderURL)
	}
	return m[1], nil
}

// List returns (name, view URL) pairs for every file of the folder.
func (c *Client) List(ctx context.Context, folderURL string) ([]File, error) {
	id, err := ExtractFolderID(folderURL)
	if err != nil {
		return nil, err
	}
	return c.list(ctx, "https://drive.google.com/embeddedfolderview?id="+id+"#grid")
}

func (c *Client) list(ctx context.Context, viewURL string) ([]File, error) {
	resp, err := c.http.R().SetContext(ctx).Get(viewURL)
	if err != nil {
		return nil, fmt.Errorf("fetch folder view: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch folder view: status %s", resp.Status())
	}
	var files []File
	for _, m := range fileRe.FindAllStringSubmatch(string(resp.Body()), -1) {
		files = append(files, File{
			Name: m[2],
			URL:  "https://drive.google.com/file/d/" + m[1] + "/view?usp=sharing",
		})
	}
	return files, nil
}
