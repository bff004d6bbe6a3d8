// Package export writes derived datasets to their destinations: CSV and
// Parquet encoders over the in-memory table form, behind a storage sink
// abstraction with local-filesystem and GCS implementations.
package export

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/tigerroll/flightprep/internal/config"
	"github.com/tigerroll/flightprep/internal/exception"
	"github.com/tigerroll/flightprep/internal/logger"
)

const stageName = "export"

// Sink is a write-only destination for finished artifacts.
type Sink interface {
	// Put stores one object under the given name, replacing any existing
	// object atomically where the backend allows it.
	Put(ctx context.Context, name string, data io.Reader, contentType string) error
	// List returns the stored object names under a prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
	// Close releases backend resources.
	Close() error
}

// NewSink selects the sink implementation from the storage configuration.
func NewSink(ctx context.Context, cfg config.StorageConfig) (Sink, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", "local":
		return NewLocalSink(cfg.BaseDir), nil
	case "gcs":
		return NewGCSSink(ctx, cfg.Bucket)
	default:
		return nil, exception.NewPipelineError(stageName,
			fmt.Sprintf("unknown storage provider %q (expected local or gcs)", cfg.Provider), nil, false)
	}
}

// LocalSink stores objects as files under a base directory. Writes go to a
// temp file first and rename into place, matching the downloader's
// no-partial-files rule.
type LocalSink struct {
	baseDir string
}

// NewLocalSink creates a sink rooted at baseDir.
func NewLocalSink(baseDir string) *LocalSink {
	return &LocalSink{baseDir: baseDir}
}

func (s *LocalSink) Put(ctx context.Context, name string, data io.Reader, contentType string) error {
	dest := filepath.Join(s.baseDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create output directory for %s", dest), err, false)
	}
	tmp, err := os.CreateTemp(filepath.Dir(dest), filepath.Base(dest)+".tmp-*")
	if err != nil {
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to create temp file for %s", dest), err, false)
	}
	tmpPath := tmp.Name()
	if _, err := io.Copy(tmp, data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to write %s", dest), err, false)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to close %s", dest), err, false)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		os.Remove(tmpPath)
		return exception.NewPipelineError(stageName,
			fmt.Sprintf("failed to move %s into place", dest), err, false)
	}
	logger.Infof("Wrote %s", dest)
	return nil
}

func (s *LocalSink) List(ctx context.Context, prefix string) ([]string, error) {
	var names []string
	root := s.baseDir
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if err != nil {
		return nil, exception.NewPipelineError(stageName, "failed to list local sink", err, false)
	}
	sort.Strings(names)
	return names, nil
}

func (s *LocalSink) Close() error { return nil }

// GCSSink stores objects in a Google Cloud Storage bucket.
type GCSSink struct {
	client *storage.Client
	bucket string
}

// NewGCSSink creates a sink over the named bucket using ambient credentials.
func NewGCSSink(ctx context.Context, bucket string) (*GCSSink, error) {
	if bucket == "" {
		return nil, exception.NewPipelineError(stageName, "gcs storage provider requires a bucket", nil, false)
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, exception.NewPipelineError(stageName, "failed to create GCS client", err, false)
	}
	return &GCSSink{client: client, bucket: bucket}, nil
}

func (s *GCSSink) Put(ctx context.Context, name string, data io.Reader, contentType string) error {
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := io.Copy(w, data); err != nil {
		w.Close()
		return exception.NewTransientError(stageName,
			fmt.Sprintf("failed to write gs://%s/%s", s.bucket, name), err)
	}
	if err := w.Close(); err != nil {
		return exception.NewTransientError(stageName,
			fmt.Sprintf("failed to finalize gs://%s/%s", s.bucket, name), err)
	}
	logger.Infof("Wrote gs://%s/%s", s.bucket, name)
	return nil
}

func (s *GCSSink) List(ctx context.Context, prefix string) ([]string, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, exception.NewTransientError(stageName,
				fmt.Sprintf("failed to list gs://%s/%s", s.bucket, prefix), err)
		}
		names = append(names, attrs.Name)
	}
	sort.Strings(names)
	return names, nil
}

func (s *GCSSink) Close() error {
	return s.client.Close()
}

var _ Sink = (*LocalSink)(nil)
var _ Sink = (*GCSSink)(nil)
