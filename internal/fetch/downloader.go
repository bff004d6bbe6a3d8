// Package fetch downloads raw source archives over HTTP. Bodies are streamed
// to a temporary file next to the destination and atomically renamed on
// success, so a partially written file can never be mistaken for a valid
// cache entry. Transient failures are retried with exponential backoff; the
// last attempt's error propagates to the caller.
package fetch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
)

const stageName = "fetch"

// Downloader fetches remote files with retry and freshness caching.
type Downloader struct {
	client *resty.Client
	policy RetryPolicy
	cache  config.CacheConfig
}

// NewDownloader creates a Downloader from the fetch configuration.
func NewDownloader(cfg config.FetchConfig) *Downloader {
	client := resty.New()
	client.SetTimeout(time.Duration(cfg.TimeoutSeconds) * time.Second)

	return &Downloader{
		client: client,
		policy: NewRetryPolicy(cfg.Retry),
		cache:  cfg.Cache,
	}
}

// Fetch downloads url to dest unless a fresh cached copy already exists.
// It returns the destination path.
func (d *Downloader) Fetch(ctx context.Context, url, dest string) (string, error) {
	if d.IsFresh(dest) {
		logger.Infof("Using cached file for %s -> %s", url, dest)
		return dest, nil
	}

	var lastErr error
	for attempt := 1; attempt <= d.policy.MaxAttempts(); attempt++ {
		if attempt > 1 {
			backoff := d.policy.BackoffInterval(attempt - 1)
			logger.Warnf("Download attempt %d/%d for %s failed (%v); retrying in %s.",
				attempt-1, d.policy.MaxAttempts(), url, lastErr, backoff)
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		lastErr = d.downloadOnce(ctx, url, dest)
		if lastErr == nil {
			logger.Infof("Downloaded %s -> %s", url, dest)
			return dest, nil
		}
		if !d.policy.ShouldRetry(lastErr) {
			break
		}
	}
	return "", lastErr
}

// IsFresh reports whether dest exists, is younger than the configured
// max age, and is larger than the sanity-check minimum size. Truncated or
// stale cache files fail the check and get re-downloaded.
func (d *Downloader) IsFresh(dest string) bool {
	info, err := os.Stat(dest)
	if err != nil {
		return false
	}
	maxAge := time.Duration(d.cache.MaxAgeHours) * time.Hour
	if maxAge > 0 && time.Since(info.ModTime()) > maxAge {
		logger.Debugf("Cached file %s is older than %s.", dest, maxAge)
		return false
	}
	if info.Size() < d.cache.MinBytes {
		logger.Warnf("Cached file %s is suspiciously small (%d bytes); re-downloading.", dest, info.Size())
		return false
	}
	return true
}

// downloadOnce streams the response body to a temp file and renames it into
// place on success.
func (d *Downloader) downloadOnce(ctx context.Context, url, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create directory for %s", dest), err, false)
	}

	resp, err := d.client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return exception.NewTransientError(stageName,
			fmt.Sprintf("request for %s failed", url), err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != 200 {
		retryable := resp.StatusCode() >= 500
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("unexpected status %d for %s", resp.StatusCode(), url), nil, retryable)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create temp file for %s", dest), err, false)
	}
	tmpPath := tmp.Name()

	if _, err := io.Copy(tmp, body); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return exception.NewTransientError(stageName,
			fmt.Sprintf("truncated transfer for %s", url), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to close temp file for %s", dest), err, false)
	}

	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to move downloaded file into place at %s", dest), err, false)
	}
	return nil
}
