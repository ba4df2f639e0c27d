package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"server/internal/domain"
)

// maxDownloadBytes caps remote fetches; generated PNGs are a few MB at most.
const maxDownloadBytes = 32 << 20

// Download fetches the bytes behind a remote URL, typically the image
// provider's temporary result URL.
func Download(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build download request: %v", domain.ErrDownload, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: fetch %s: %v", domain.ErrDownload, url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: fetch %s: status %d", domain.ErrDownload, url, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrDownload, err)
	}
	return data, nil
}
