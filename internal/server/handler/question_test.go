package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/query"
	"github.com/orakore/orakore/internal/reader"
	"github.com/orakore/orakore/internal/service"
)

type fakeLister struct {
	result   service.ListResult
	listErr  error
	question domain.Question
	getErr   error

	gotReq    reader.PageRequest
	gotFilter query.Filter
	gotKey    query.SortKey
	gotDir    query.SortDir
}

func (f *fakeLister) ListPage(_ context.Context, req reader.PageRequest, fl query.Filter, key query.SortKey, dir query.SortDir) (service.ListResult, error) {
	f.gotReq = req
	f.gotFilter = fl
	f.gotKey = key
	f.gotDir = dir
	return f.result, f.listErr
}

func (f *fakeLister) Get(_ context.Context, _ *chain.Caller, _ *domain.Deployment, _ int64, _ common.Hash) (domain.Question, error) {
	return f.question, f.getErr
}

type fakeDeployments struct {
	dep *domain.Deployment
	err error
}

func (f *fakeDeployments) Resolve(_ context.Context, _ int64) (*domain.Deployment, error) {
	return f.dep, f.err
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func questionMux(h *QuestionHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/questions", h.ListQuestions)
	mux.HandleFunc("GET /api/questions/{chainID}/{id}", h.GetQuestion)
	return mux
}

func TestListQuestionsOK(t *testing.T) {
	lister := &fakeLister{result: service.ListResult{
		Page: domain.QuestionPage{
			ChainID: 8217,
			Rows:    []domain.Question{{ID: common.HexToHash("0x01")}},
			Total:   1,
			Source:  "v3",
		},
	}}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet,
		"/api/questions?chain_id=8217&page=2&page_size=10&status=open,answered&token=USDT&sort=deadline&dir=asc", nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	require.Equal(t, reader.PageRequest{ChainID: 8217, Page: 2, PageSize: 10}, lister.gotReq)
	require.Equal(t, []domain.Status{domain.StatusOpen, domain.StatusAnswered}, lister.gotFilter.Statuses)
	require.Equal(t, "USDT", lister.gotFilter.TokenSymbol)
	require.Equal(t, query.SortDeadline, lister.gotKey)
	require.Equal(t, query.SortAsc, lister.gotDir)

	var body struct {
		Total  uint64 `json:"total"`
		Source string `json:"source"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, uint64(1), body.Total)
	require.Equal(t, "v3", body.Source)
}

func TestListQuestionsDefaults(t *testing.T) {
	lister := &fakeLister{}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions?chain_id=8217", nil)
	questionMux(h).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 0, lister.gotReq.Page)
	require.Equal(t, 25, lister.gotReq.PageSize)
	require.Equal(t, query.SortCreated, lister.gotKey)
	require.Equal(t, query.SortDesc, lister.gotDir)
}

func TestListQuestionsPageSizeCap(t *testing.T) {
	lister := &fakeLister{}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions?chain_id=8217&page_size=5000", nil)
	questionMux(h).ServeHTTP(httptest.NewRecorder(), req)

	require.Equal(t, 100, lister.gotReq.PageSize)
}

func TestListQuestionsMissingChain(t *testing.T) {
	h := NewQuestionHandler(&fakeLister{}, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions", nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListQuestionsAllTiersFailed(t *testing.T) {
	lister := &fakeLister{listErr: errors.New("reader: all tiers failed: no cached page")}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions?chain_id=8217", nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.Contains(t, rec.Body.String(), "all read tiers failed")
}

func TestListQuestionsBondSortFlag(t *testing.T) {
	lister := &fakeLister{result: service.ListResult{BondSortRejected: true}}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions?chain_id=8217&sort=bond", nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var body struct {
		BondSortRejected bool `json:"bond_sort_rejected"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.True(t, body.BondSortRejected)
}

const questionID = "0x00000000000000000000000000000000000000000000000000000000000000aa"

func TestGetQuestionOK(t *testing.T) {
	lister := &fakeLister{question: domain.Question{
		ID:      common.HexToHash(questionID),
		Content: "Will it rain?",
	}}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions/8217/"+questionID, nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestGetQuestionNotFound(t *testing.T) {
	lister := &fakeLister{getErr: domain.ErrNotFound}
	h := NewQuestionHandler(lister, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions/8217/"+questionID, nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetQuestionBadID(t *testing.T) {
	h := NewQuestionHandler(&fakeLister{}, &fakeDeployments{}, nil, testLogger())

	for _, id := range []string{"abc", "0x1234", "00000000000000000000000000000000000000000000000000000000000000aa"} {
		req := httptest.NewRequest(http.MethodGet, "/api/questions/8217/"+id, nil)
		rec := httptest.NewRecorder()
		questionMux(h).ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "id=%s", id)
	}
}

func TestGetQuestionBadChain(t *testing.T) {
	h := NewQuestionHandler(&fakeLister{}, &fakeDeployments{}, nil, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/questions/zero/"+questionID, nil)
	rec := httptest.NewRecorder()
	questionMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
