package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"codejudge/internal/common/storage"
	"codejudge/internal/judge/model"
	appErr "codejudge/pkg/errors"

	"github.com/klauspost/compress/gzip"
)

const archiveContentType = "application/json"

// ArchiveRecord is the stored artifact of one execution.
type ArchiveRecord struct {
	ExecutionID string                 `json:"executionId"`
	Backend     string                 `json:"backend"`
	Request     model.ExecutionRequest `json:"request"`
	Verdict     model.ExecutionVerdict `json:"verdict"`
	ArchivedAt  int64                  `json:"archivedAt"`
}

// VerdictArchive stores gzip compressed execution records in object storage.
type VerdictArchive struct {
	store  storage.ObjectStorage
	bucket string
	prefix string
}

// NewVerdictArchive creates an archive writing under bucket/prefix.
func NewVerdictArchive(store storage.ObjectStorage, bucket, prefix string) *VerdictArchive {
	if prefix == "" {
		prefix = "executions"
	}
	return &VerdictArchive{store: store, bucket: bucket, prefix: prefix}
}

// ObjectKey returns the key an execution is archived under.
func (a *VerdictArchive) ObjectKey(executionID string, at time.Time) string {
	return path.Join(a.prefix, at.UTC().Format("2006/01/02"), executionID+".json.gz")
}

// Save compresses and uploads the record, returning its object key.
func (a *VerdictArchive) Save(ctx context.Context, record ArchiveRecord) (string, error) {
	if record.ExecutionID == "" {
		return "", appErr.ValidationError("execution_id", "required")
	}
	if a.store == nil || a.bucket == "" {
		return "", appErr.New(appErr.StorageError).WithMessage("archive storage is not configured")
	}
	at := time.Now()
	if record.ArchivedAt == 0 {
		record.ArchivedAt = at.Unix()
	} else {
		at = time.Unix(record.ArchivedAt, 0)
	}

	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := json.NewEncoder(zw).Encode(record); err != nil {
		return "", fmt.Errorf("encode archive record failed: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress archive record failed: %w", err)
	}

	key := a.ObjectKey(record.ExecutionID, at)
	err := a.store.PutObject(ctx, a.bucket, key, bytes.NewReader(buf.Bytes()), int64(buf.Len()), storage.PutOptions{
		ContentType:     archiveContentType,
		ContentEncoding: "gzip",
		Metadata: map[string]string{
			"execution-id": record.ExecutionID,
			"status":       string(record.Verdict.Status),
		},
	})
	if err != nil {
		return "", appErr.Wrapf(err, appErr.StorageError, "upload archive failed")
	}
	return key, nil
}

// Load downloads and decodes an archived record.
func (a *VerdictArchive) Load(ctx context.Context, key string) (ArchiveRecord, error) {
	if a.store == nil || a.bucket == "" {
		return ArchiveRecord{}, appErr.New(appErr.StorageError).WithMessage("archive storage is not configured")
	}
	obj, err := a.store.GetObject(ctx, a.bucket, key)
	if err != nil {
		return ArchiveRecord{}, appErr.Wrapf(err, appErr.StorageError, "download archive failed")
	}
	defer func() { _ = obj.Close() }()

	zr, err := gzip.NewReader(obj)
	if err != nil {
		return ArchiveRecord{}, appErr.Wrapf(err, appErr.StorageError, "open archive failed")
	}
	defer func() { _ = zr.Close() }()

	var record ArchiveRecord
	if err := json.NewDecoder(io.LimitReader(zr, 64<<20)).Decode(&record); err != nil {
		return ArchiveRecord{}, appErr.Wrapf(err, appErr.StorageError, "decode archive failed")
	}
	return record, nil
}
