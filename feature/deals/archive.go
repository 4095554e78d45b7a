package deals

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"

	"deal-sync/core/reconcile"
	"deal-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// RunArchive stores per-run sync reports in object storage so every pass
// leaves an auditable trail.
type RunArchive struct {
	client storage.Client
	bucket string
	prefix string
}

// NewRunArchive creates an archive writing under prefix in bucket.
func NewRunArchive(client storage.Client, bucket, prefix string) *RunArchive {
	return &RunArchive{client: client, bucket: bucket, prefix: prefix}
}

// EnsureBucket creates the archive bucket if it does not exist yet.
func (a *RunArchive) EnsureBucket(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", a.bucket, err)
	}
	if exists {
		return nil
	}
	if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
	}
	return nil
}

// Store uploads the run report as JSON under <prefix>/<entity>/<run-id>.json.
func (a *RunArchive) Store(ctx context.Context, result *reconcile.Result) error {
	payload, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode run %s: %w", result.RunID, err)
	}

	name := a.objectName(result.EntityType, result.RunID)
	_, err = a.client.PutObject(ctx, a.bucket, name, bytes.NewReader(payload), int64(len(payload)), minio.PutObjectOptions{
		ContentType: "application/json",
	})
	if err != nil {
		return fmt.Errorf("failed to archive run %s: %w", result.RunID, err)
	}
	return nil
}

// Fetch downloads one archived run report.
func (a *RunArchive) Fetch(ctx context.Context, entityType, runID string) (*reconcile.Result, error) {
	obj, err := a.client.GetObject(ctx, a.bucket, a.objectName(entityType, runID), minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open archived run %s: %w", runID, err)
	}
	defer obj.Close()

	var result reconcile.Result
	if err := json.NewDecoder(obj).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode archived run %s: %w", runID, err)
	}
	return &result, nil
}

// ListRuns returns the archived run ids for an entity type, sorted.
func (a *RunArchive) ListRuns(ctx context.Context, entityType string) ([]string, error) {
	prefix := path.Join(a.prefix, entityType) + "/"
	objects := a.client.ListObjects(ctx, a.bucket, minio.ListObjectsOptions{
		Prefix:    prefix,
		Recursive: true,
	})

	var runs []string
	for obj := range objects {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list archived runs: %w", obj.Err)
		}
		name := strings.TrimPrefix(obj.Key, prefix)
		runs = append(runs, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(runs)
	return runs, nil
}

func (a *RunArchive) objectName(entityType, runID string) string {
	return path.Join(a.prefix, entityType, runID+".json")
}
