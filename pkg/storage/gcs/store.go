// Package gcs stores media files in a Google Cloud Storage bucket.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path"
	"strings"
	"time"

	gcstorage "cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/angelmondragon/bomcatalog-backend/pkg/config"
	"github.com/angelmondragon/bomcatalog-backend/pkg/logger"
	"github.com/angelmondragon/bomcatalog-backend/pkg/storage"
)

const (
	pingTimeout   = 5 * time.Second
	writeTimeout  = 2 * time.Minute
	deleteTimeout = 30 * time.Second
)

type Store struct {
	client *gcstorage.Client
	bucket string
	prefix string
}

var _ storage.Store = (*Store)(nil)

// Pinger exposes the health-check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// New opens a storage client for the configured bucket and verifies access.
func New(ctx context.Context, cfg config.GCSConfig, gcp config.GCPConfig, logg *logger.Logger) (*Store, error) {
	if strings.TrimSpace(cfg.BucketName) == "" {
		return nil, errors.New("gcs bucket name is required")
	}

	client, err := gcstorage.NewClient(ctx, clientOptions(gcp)...)
	if err != nil {
		return nil, fmt.Errorf("create gcs client: %w", err)
	}

	store := &Store{
		client: client,
		bucket: cfg.BucketName,
		prefix: strings.Trim(strings.TrimSpace(cfg.Prefix), "/"),
	}
	if err := store.Ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("gcs health check failed: %w", err)
	}

	if logg != nil {
		logg.Info(logg.WithFields(ctx, map[string]any{"bucket": store.bucket, "prefix": store.prefix}), "gcs store initialized")
	}
	return store, nil
}

func clientOptions(gcp config.GCPConfig) []option.ClientOption {
	opts := []option.ClientOption{option.WithScopes(gcstorage.ScopeReadWrite)}
	switch {
	case gcp.CredentialsJSON != "":
		opts = append(opts, option.WithCredentialsJSON([]byte(gcp.CredentialsJSON)))
	case gcp.ApplicationCredentials != "":
		opts = append(opts, option.WithCredentialsFile(gcp.ApplicationCredentials))
	}
	if gcp.ProjectID != "" {
		opts = append(opts, option.WithQuotaProject(gcp.ProjectID))
	}
	return opts
}

func (s *Store) Close() error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Close()
}

// Ping lists at most one object, which needs storage.objects.list on the bucket.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return errors.New("gcs store not initialized")
	}
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	it := s.client.Bucket(s.bucket).Objects(ctx, &gcstorage.Query{Prefix: s.prefix})
	if _, err := it.Next(); err != nil && !errors.Is(err, iterator.Done) {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusForbidden {
			return fmt.Errorf("bucket %q denies object listing: %w", s.bucket, err)
		}
		return err
	}
	return nil
}

func (s *Store) Write(ctx context.Context, r io.Reader, suggestedName string) (string, error) {
	key := storage.BuildKey(s.prefix, suggestedName)

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()

	obj := s.client.Bucket(s.bucket).Object(key).If(gcstorage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(key)); ct != "" {
		w.ContentType = ct
	}
	if err := copyObject(w, r, cancel); err != nil {
		return "", fmt.Errorf("write gcs object %q: %w", key, err)
	}
	return key, nil
}

// copyObject streams r into w. A failed copy cancels the writer's context
// before closing it so the partial upload is aborted instead of finalized.
func copyObject(w io.WriteCloser, r io.Reader, cancel context.CancelFunc) error {
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		_ = w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close writer: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, storedPath string) error {
	key, err := storage.CleanKey(storedPath)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, deleteTimeout)
	defer cancel()

	if err := s.client.Bucket(s.bucket).Object(key).Delete(ctx); err != nil {
		if isNotExist(err) {
			return storage.ErrNotExist
		}
		return fmt.Errorf("delete gcs object %q in bucket %q: %w", key, s.bucket, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]storage.Object, error) {
	query := &gcstorage.Query{Prefix: s.prefix}
	if err := query.SetAttrSelection([]string{"Name", "Size", "Updated"}); err != nil {
		return nil, err
	}
	it := s.client.Bucket(s.bucket).Objects(ctx, query)
	out := []storage.Object{}
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list gcs objects: %w", err)
		}
		out = append(out, storage.Object{
			Path:    attrs.Name,
			Size:    attrs.Size,
			ModTime: attrs.Updated,
		})
	}
	return out, nil
}

func isNotExist(err error) bool {
	if errors.Is(err, gcstorage.ErrObjectNotExist) {
		return true
	}
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound
}
