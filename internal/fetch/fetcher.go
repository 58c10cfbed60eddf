// Package fetch resolves job sources (URLs or local paths) into local files.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// FetchError reports an unreachable source or a non-2xx response.
type FetchError struct {
	Source string
	Status string
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != "" {
		return fmt.Sprintf("fetch %s: %s", e.Source, e.Status)
	}
	return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

type Fetcher struct {
	client *http.Client
	log    zerolog.Logger
}

func NewFetcher(log zerolog.Logger) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 60 * time.Second},
		log:    log,
	}
}

// Fetch produces a local readable file for source. Remote URLs are downloaded
// into destDir; local paths are validated and passed through. The caller owns
// destDir and deletes it when processing finishes.
func (f *Fetcher) Fetch(ctx context.Context, source, destDir string) (string, error) {
	if !isRemote(source) {
		if _, err := os.Stat(source); err != nil {
			return "", &FetchError{Source: source, Err: err}
		}
		return source, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return "", &FetchError{Source: source, Err: err}
	}
	req.Header.Set("User-Agent", "pdf-ocr-service/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{Source: source, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &FetchError{Source: source, Status: resp.Status}
	}

	dest := filepath.Join(destDir, "input.pdf")
	out, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", dest, err)
	}
	n, err := io.Copy(out, resp.Body)
	if err != nil {
		out.Close()
		return "", &FetchError{Source: source, Err: err}
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", dest, err)
	}

	f.log.Debug().Str("source", source).Int64("bytes", n).Msg("document downloaded")
	return dest, nil
}

func isRemote(source string) bool {
	s := strings.ToLower(source)
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
