package s3blob

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

type memBlobStore struct {
	objects    map[string][]byte
	written    map[string]time.Time
	multiparts int
}

func newMemBlobStore() *memBlobStore {
	return &memBlobStore{
		objects: map[string][]byte{},
		written: map[string]time.Time{},
	}
}

func (m *memBlobStore) Put(_ context.Context, path string, data io.Reader, _ string) error {
	buf, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	m.objects[path] = buf
	m.written[path] = time.Now()
	return nil
}

func (m *memBlobStore) PutMultipart(ctx context.Context, path string, data io.Reader, _ int64) error {
	m.multiparts++
	return m.Put(ctx, path, data, "")
}

func (m *memBlobStore) Get(_ context.Context, path string) (io.ReadCloser, error) {
	data, ok := m.objects[path]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobStore) List(_ context.Context, prefix string) ([]domain.BlobInfo, error) {
	var out []domain.BlobInfo
	for path, data := range m.objects {
		if len(path) >= len(prefix) && path[:len(prefix)] == prefix {
			out = append(out, domain.BlobInfo{
				Path:         path,
				Size:         int64(len(data)),
				LastModified: m.written[path],
			})
		}
	}
	return out, nil
}

func (m *memBlobStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := m.objects[path]
	return ok, nil
}

func (m *memBlobStore) Delete(_ context.Context, path string) error {
	delete(m.objects, path)
	delete(m.written, path)
	return nil
}

type pagedQuestionStore struct {
	rows []domain.Question
}

func (p *pagedQuestionStore) Upsert(_ context.Context, _ domain.Question) error        { return nil }
func (p *pagedQuestionStore) UpsertBatch(_ context.Context, _ []domain.Question) error { return nil }

func (p *pagedQuestionStore) Get(_ context.Context, _ int64, _ common.Hash) (domain.Question, error) {
	return domain.Question{}, domain.ErrNotFound
}

func (p *pagedQuestionStore) List(_ context.Context, _ int64, opts domain.ListOpts) ([]domain.Question, error) {
	if opts.Offset >= len(p.rows) {
		return nil, nil
	}
	end := opts.Offset + opts.Limit
	if end > len(p.rows) {
		end = len(p.rows)
	}
	return p.rows[opts.Offset:end], nil
}

func (p *pagedQuestionStore) Count(_ context.Context, _ int64) (int64, error) {
	return int64(len(p.rows)), nil
}

func TestArchiveQuestionsWritesJSONL(t *testing.T) {
	store := newMemBlobStore()
	questions := &pagedQuestionStore{rows: []domain.Question{
		{ID: common.HexToHash("0x01"), ChainID: 8217, Content: "one"},
		{ID: common.HexToHash("0x02"), ChainID: 8217, Content: "two"},
	}}
	a := NewArchiver(store, store, store, questions)

	asOf := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	n, err := a.ArchiveQuestions(context.Background(), 8217, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(2), n)

	data, ok := store.objects["snapshots/questions/8217/2026-08-31.jsonl"]
	require.True(t, ok)

	lines := bytes.Split(bytes.TrimSpace(data), []byte("\n"))
	require.Len(t, lines, 2)
	require.Contains(t, string(lines[0]), `"one"`)
	require.Zero(t, store.multiparts)
}

func TestArchiveQuestionsEmptyChain(t *testing.T) {
	store := newMemBlobStore()
	a := NewArchiver(store, store, store, &pagedQuestionStore{})

	n, err := a.ArchiveQuestions(context.Background(), 8217, time.Now())
	require.NoError(t, err)
	require.Zero(t, n)
	require.Empty(t, store.objects)
}

func TestArchiveQuestionsIdempotentPerDay(t *testing.T) {
	store := newMemBlobStore()
	questions := &pagedQuestionStore{rows: []domain.Question{{ID: common.HexToHash("0x01")}}}
	a := NewArchiver(store, store, store, questions)

	asOf := time.Date(2026, 8, 31, 6, 0, 0, 0, time.UTC)
	n, err := a.ArchiveQuestions(context.Background(), 8217, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(1), n)

	// Same day, later run: the existing snapshot is kept, nothing rewritten.
	n, err = a.ArchiveQuestions(context.Background(), 8217, asOf.Add(8*time.Hour))
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestArchiveQuestionsPrunesOldSnapshots(t *testing.T) {
	store := newMemBlobStore()
	questions := &pagedQuestionStore{rows: []domain.Question{{ID: common.HexToHash("0x01")}}}
	a := NewArchiver(store, store, store, questions)

	stale := "snapshots/questions/8217/2026-01-01.jsonl"
	store.objects[stale] = []byte("{}\n")
	store.written[stale] = time.Now().Add(-60 * 24 * time.Hour)

	_, err := a.ArchiveQuestions(context.Background(), 8217, time.Now())
	require.NoError(t, err)

	_, ok := store.objects[stale]
	require.False(t, ok)
	require.Len(t, store.objects, 1)
}

func TestArchiveQuestionsMultipartForLargeExports(t *testing.T) {
	rows := make([]domain.Question, questionPageSize)
	for i := range rows {
		rows[i] = domain.Question{
			ID:      common.Hash{byte(i), byte(i >> 8)},
			Content: strings.Repeat("x", 20_000),
		}
	}
	store := newMemBlobStore()
	a := NewArchiver(store, store, store, &pagedQuestionStore{rows: rows})

	asOf := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	n, err := a.ArchiveQuestions(context.Background(), 8217, asOf)
	require.NoError(t, err)
	require.Equal(t, int64(questionPageSize), n)

	// ~10 MiB of JSONL crosses the multipart threshold.
	require.Equal(t, 1, store.multiparts)
	data := store.objects["snapshots/questions/8217/2026-08-31.jsonl"]
	require.GreaterOrEqual(t, len(data), multipartThreshold)
}

func TestArchiveQuestionsWalksPages(t *testing.T) {
	rows := make([]domain.Question, questionPageSize+3)
	for i := range rows {
		rows[i] = domain.Question{ID: common.Hash{byte(i), byte(i >> 8)}}
	}
	store := newMemBlobStore()
	a := NewArchiver(store, store, store, &pagedQuestionStore{rows: rows})

	n, err := a.ArchiveQuestions(context.Background(), 8217, time.Now())
	require.NoError(t, err)
	require.Equal(t, int64(questionPageSize+3), n)
}
