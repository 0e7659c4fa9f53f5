package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"financas/internal/ledger"
)

// GCS stores the ledger as one Cloud Storage object. The version is the
// object generation and writes are guarded by generation preconditions.
type GCS struct {
	client *storage.Client
	obj    *storage.ObjectHandle
	bucket string
	object string
}

var _ Store = (*GCS)(nil)

// NewGCS opens a client with Application Default Credentials unless opts
// say otherwise.
func NewGCS(ctx context.Context, bucket, object string, opts ...option.ClientOption) (*GCS, error) {
	if bucket == "" || object == "" {
		return nil, errors.New("gcs bucket and object are required")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{
		client: client,
		obj:    client.Bucket(bucket).Object(object),
		bucket: bucket,
		object: object,
	}, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

func (g *GCS) String() string {
	return fmt.Sprintf("gs://%s/%s", g.bucket, g.object)
}

func (g *GCS) Load(ctx context.Context) (Snapshot, error) {
	r, err := g.obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return Snapshot{}, ErrNotFound
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("open %s: %w", g, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return Snapshot{}, fmt.Errorf("read %s: %w", g, err)
	}
	t, err := Decode(data)
	if err != nil {
		return Snapshot{}, fmt.Errorf("decode %s: %w", g, err)
	}
	return Snapshot{Table: t, Version: generationVersion(r.Attrs.Generation)}, nil
}

func (g *GCS) Replace(ctx context.Context, t ledger.Table, expected string) (string, error) {
	cond, err := writeConditions(expected)
	if err != nil {
		return "", err
	}
	data, err := Encode(t)
	if err != nil {
		return "", err
	}

	w := g.obj.If(cond).NewWriter(ctx)
	w.ContentType = "text/csv; charset=utf-8"
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", mapWriteError(g, err)
	}
	if err := w.Close(); err != nil {
		return "", mapWriteError(g, err)
	}
	return generationVersion(w.Attrs().Generation), nil
}

func writeConditions(expected string) (storage.Conditions, error) {
	if expected == "" {
		return storage.Conditions{DoesNotExist: true}, nil
	}
	gen, err := strconv.ParseInt(expected, 10, 64)
	if err != nil || gen <= 0 {
		// A version from another store can never match a generation.
		return storage.Conditions{}, ErrVersionConflict
	}
	return storage.Conditions{GenerationMatch: gen}, nil
}

func generationVersion(gen int64) string {
	return strconv.FormatInt(gen, 10)
}

func mapWriteError(g *GCS, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
		return ErrVersionConflict
	}
	return fmt.Errorf("write %s: %w", g, err)
}
