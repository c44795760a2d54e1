package roster

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"vols-bot/internal/fetch"
)

// DriveSource reads the roster CSV from a Google Drive file through the
// Drive API. Used by deployments that keep the zones table private instead
// of publishing a CSV export link.
func DriveSource(credentialsFile, fileID string) (Source, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	svc, err := drive.NewService(context.Background(),
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(drive.DriveReadonlyScope),
	)
	if err != nil {
		return nil, err
	}
	return func(ctx context.Context) ([]fetch.Row, error) {
		resp, err := svc.Files.Get(fileID).Context(ctx).Download()
		if err != nil {
			return nil, fmt.Errorf("drive download %s: %w", fileID, err)
		}
		defer resp.Body.Close()
		return fetch.ParseCSV(resp.Body)
	}, nil
}
