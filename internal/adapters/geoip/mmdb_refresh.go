package geoip

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

// Refresher periodically re-downloads the MaxMind database file and
// reloads the MMDB provider, replacing the scheduled refresh the host
// system would otherwise run out-of-band.
type Refresher struct {
	URL      string
	Path     string
	Interval time.Duration

	session  *http.Client
	provider *MMDBProvider
}

func NewRefresher(url, path string, interval time.Duration, provider *MMDBProvider) *Refresher {
	return &Refresher{
		URL:      url,
		Path:     path,
		Interval: interval,
		session:  &http.Client{Timeout: 2 * time.Minute},
		provider: provider,
	}
}

// Run blocks until ctx is cancelled, refreshing the database on every
// tick. Failures are logged and retried on the next tick.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Refresh(ctx); err != nil {
				log.Printf("mmdb refresh failed: %v", err)
				continue
			}
			log.Printf("mmdb refreshed path=%s", r.Path)
		}
	}
}

// Refresh downloads the database to a temp file in the target directory
// and renames it into place so readers never observe a partial file.
func (r *Refresher) Refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
	if err != nil {
		return fmt.Errorf("refresh mmdb: create request: %w", err)
	}

	resp, err := r.session.Do(req)
	if err != nil {
		return fmt.Errorf("refresh mmdb: download: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("refresh mmdb: unexpected status: %d", resp.StatusCode)
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.Path), "geoip-*.mmdb.tmp")
	if err != nil {
		return fmt.Errorf("refresh mmdb: create temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("refresh mmdb: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("refresh mmdb: close temp file: %w", err)
	}

	if err := os.Rename(tmpName, r.Path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("refresh mmdb: replace %q: %w", r.Path, err)
	}

	if r.provider != nil {
		if err := r.provider.Reload(); err != nil {
			return fmt.Errorf("refresh mmdb: %w", err)
		}
	}

	return nil
}
