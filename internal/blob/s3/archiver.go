package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/orakore/orakore/internal/domain"
)

// questionPageSize bounds how many rows each store query pulls while walking
// the full question set.
const questionPageSize = 500

// snapshotRetention is how long daily snapshots are kept before pruning.
const snapshotRetention = 30 * 24 * time.Hour

// multipartThreshold is the payload size above which the upload switches to
// the multipart path.
const multipartThreshold = 8 * 1024 * 1024

// snapshotPartSize is the part size for multipart snapshot uploads.
const snapshotPartSize int64 = 5 * 1024 * 1024

// ArchiveImpl implements domain.Archiver by walking the question store for a
// chain, serializing rows to JSONL, and uploading the result to S3.
//
// The snapshot is additive: nothing is deleted from the primary store. The
// exported files back cold-start recovery and offline analysis.
type ArchiveImpl struct {
	writer    domain.BlobWriter
	reader    domain.BlobReader
	deleter   domain.BlobDeleter
	questions domain.QuestionStore
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(
	writer domain.BlobWriter,
	reader domain.BlobReader,
	deleter domain.BlobDeleter,
	questions domain.QuestionStore,
) *ArchiveImpl {
	return &ArchiveImpl{
		writer:    writer,
		reader:    reader,
		deleter:   deleter,
		questions: questions,
	}
}

var _ domain.Archiver = (*ArchiveImpl)(nil)

// ArchiveQuestions exports every question row for the chain to
// snapshots/questions/{chainID}/YYYY-MM-DD.jsonl and returns the number of
// records written. A chain with no rows produces no object. If the day's
// snapshot already exists the export is skipped; snapshots older than the
// retention window are pruned after a successful upload. Exports above the
// multipart threshold go through the multipart uploader.
func (a *ArchiveImpl) ArchiveQuestions(ctx context.Context, chainID int64, asOf time.Time) (int64, error) {
	path := snapshotPath(chainID, asOf)
	exists, err := a.reader.Exists(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive questions head: %w", err)
	}
	if exists {
		return 0, nil
	}

	var rows []domain.Question
	for offset := 0; ; offset += questionPageSize {
		page, err := a.questions.List(ctx, chainID, domain.ListOpts{
			Limit:  questionPageSize,
			Offset: offset,
		})
		if err != nil {
			return 0, fmt.Errorf("s3blob: archive questions query: %w", err)
		}
		rows = append(rows, page...)
		if len(page) < questionPageSize {
			break
		}
	}
	if len(rows) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(rows)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive questions marshal: %w", err)
	}

	if len(buf) >= multipartThreshold {
		err = a.writer.PutMultipart(ctx, path, bytes.NewReader(buf), snapshotPartSize)
	} else {
		err = a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson")
	}
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive questions upload: %w", err)
	}

	if err := a.prune(ctx, chainID, asOf); err != nil {
		return int64(len(rows)), fmt.Errorf("s3blob: prune snapshots: %w", err)
	}

	return int64(len(rows)), nil
}

// prune deletes snapshot objects older than the retention window.
func (a *ArchiveImpl) prune(ctx context.Context, chainID int64, asOf time.Time) error {
	prefix := fmt.Sprintf("snapshots/questions/%d/", chainID)
	objects, err := a.reader.List(ctx, prefix)
	if err != nil {
		return fmt.Errorf("list %s: %w", prefix, err)
	}

	cutoff := asOf.Add(-snapshotRetention)
	for _, obj := range objects {
		if obj.LastModified.After(cutoff) {
			continue
		}
		if err := a.deleter.Delete(ctx, obj.Path); err != nil {
			return fmt.Errorf("delete %s: %w", obj.Path, err)
		}
	}
	return nil
}

// snapshotPath builds the S3 key for a snapshot file, partitioned by chain
// and day.
//
//	snapshots/questions/8217/2026-08-31.jsonl
func snapshotPath(chainID int64, asOf time.Time) string {
	return fmt.Sprintf("snapshots/questions/%d/%s.jsonl", chainID, asOf.Format("2006-01-02"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON (JSONL).
// Each element is marshalled as a single compact JSON line followed by '\n'.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}
