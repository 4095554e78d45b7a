package deals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"deal-sync/core/reconcile"
	"deal-sync/core/storage"

	"github.com/minio/minio-go/v7"
)

// Source supplies external records for a sync pass and, for bidirectional
// setups, accepts writes back.
type Source interface {
	// Name identifies the source in logs and errors.
	Name() string
	// Fetch returns the source's current records.
	Fetch(ctx context.Context) ([]reconcile.Record, error)
	// Apply writes one record back to the source. Read-only sources return
	// an error.
	Apply(ctx context.Context, id string, record reconcile.Record, isUpdate bool) error
}

// ObjectSource reads record drops from the shared storage bucket. Connectors
// that cannot speak an API export snapshots there instead.
type ObjectSource struct {
	client storage.Client
	bucket string
	object string
}

// NewObjectSource creates a source reading object in bucket.
func NewObjectSource(client storage.Client, bucket, object string) *ObjectSource {
	return &ObjectSource{client: client, bucket: bucket, object: object}
}

// Name identifies the source in logs and errors.
func (s *ObjectSource) Name() string {
	return "object:" + s.object
}

// Fetch downloads and decodes the drop-box object.
func (s *ObjectSource) Fetch(ctx context.Context) ([]reconcile.Record, error) {
	obj, err := s.client.GetObject(ctx, s.bucket, s.object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open source object %s: %w", s.object, err)
	}
	defer obj.Close()
	return decodeRecords(obj)
}

// Apply is unsupported: drop-box sources are one-directional.
func (s *ObjectSource) Apply(context.Context, string, reconcile.Record, bool) error {
	return errors.New("object source is read-only")
}

// FileSource reads records from a local JSON file. Used by the one-shot CLI.
type FileSource struct {
	path string
}

// NewFileSource creates a source reading the file at path.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Name identifies the source in logs and errors.
func (s *FileSource) Name() string {
	return "file:" + s.path
}

// Fetch reads and decodes the file.
func (s *FileSource) Fetch(ctx context.Context) ([]reconcile.Record, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open source file %s: %w", s.path, err)
	}
	defer f.Close()
	return decodeRecords(f)
}

// Apply is unsupported: file sources are one-directional.
func (s *FileSource) Apply(context.Context, string, reconcile.Record, bool) error {
	return errors.New("file source is read-only")
}

// decodeRecords accepts either a bare JSON array of records or an object
// wrapping the array under a "records" key, which is what most connector
// exports produce.
func decodeRecords(r io.Reader) ([]reconcile.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read source records: %w", err)
	}

	var records []reconcile.Record
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var wrapped struct {
		Records []reconcile.Record `json:"records"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, fmt.Errorf("failed to decode source records: %w", err)
	}
	return wrapped.Records, nil
}
