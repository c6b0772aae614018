package model

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
)

// ProgressFunc returns a writer that observes the bytes of one download.
// size is -1 when the server does not announce a length.
type ProgressFunc func(name string, size int64) io.Writer

// download fetches url into dest. The body is written to a temp file in the
// same directory and renamed into place, so dest is never left half written.
func download(ctx context.Context, client *http.Client, url, dest string, progress ProgressFunc) (int64, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request for %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, fmt.Errorf("failed to fetch %s: unexpected status %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return 0, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	var w io.Writer = tmp
	if progress != nil {
		if pw := progress(filepath.Base(dest), resp.ContentLength); pw != nil {
			w = io.MultiWriter(tmp, pw)
		}
	}

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		tmp.Close()
		return 0, fmt.Errorf("failed to download %s: %w", url, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("failed to write %s: %w", dest, err)
	}
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return 0, fmt.Errorf("failed to move download into place: %w", err)
	}
	return n, nil
}
