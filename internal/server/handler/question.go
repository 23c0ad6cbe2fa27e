package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/chain"
	"github.com/orakore/orakore/internal/domain"
	"github.com/orakore/orakore/internal/query"
	"github.com/orakore/orakore/internal/reader"
	"github.com/orakore/orakore/internal/service"
)

// QuestionLister defines the methods the question handler requires from the
// service layer. It is declared locally so the handler package does not
// depend on the concrete service wiring.
type QuestionLister interface {
	ListPage(ctx context.Context, req reader.PageRequest, f query.Filter, key query.SortKey, dir query.SortDir) (service.ListResult, error)
	Get(ctx context.Context, caller *chain.Caller, dep *domain.Deployment, chainID int64, id common.Hash) (domain.Question, error)
}

// DeploymentSource resolves deployment bundles and chain connections.
type DeploymentSource interface {
	Resolve(ctx context.Context, chainID int64) (*domain.Deployment, error)
}

// QuestionHandler serves the question list and detail endpoints.
type QuestionHandler struct {
	questions   QuestionLister
	deployments DeploymentSource
	callers     map[int64]*chain.Caller
	logger      *slog.Logger
}

// NewQuestionHandler creates a QuestionHandler.
func NewQuestionHandler(
	questions QuestionLister,
	deployments DeploymentSource,
	callers map[int64]*chain.Caller,
	logger *slog.Logger,
) *QuestionHandler {
	return &QuestionHandler{
		questions:   questions,
		deployments: deployments,
		callers:     callers,
		logger:      logger,
	}
}

// listQuestionsResponse wraps the list endpoint output.
type listQuestionsResponse struct {
	domain.QuestionPage

	// BondSortRejected flags that the bond sort was refused because the
	// token filter was at ALL; rows are filtered but unsorted.
	BondSortRejected bool `json:"bond_sort_rejected,omitempty"`
}

// ListQuestions returns one filtered, sorted question page.
// GET /api/questions?chain_id=8217&page=0&page_size=25&status=open,answered&asker=0x..&mine=0x..&token=USDT&sort=deadline&dir=asc
func (h *QuestionHandler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	req, err := parsePageRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid or missing chain_id")
		return
	}

	f, key, dir := parseFilter(r)

	result, err := h.questions.ListPage(r.Context(), req, f, key, dir)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list questions failed",
			slog.Int64("chain_id", req.ChainID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "all read tiers failed")
		return
	}

	writeJSON(w, http.StatusOK, listQuestionsResponse{
		QuestionPage:     result.Page,
		BondSortRejected: result.BondSortRejected,
	})
}

// GetQuestion returns a single question by chain and id.
// GET /api/questions/{chainID}/{id}
func (h *QuestionHandler) GetQuestion(w http.ResponseWriter, r *http.Request) {
	chainID, err := parseChainID(pathParam(r, "chainID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chain id")
		return
	}

	idHex := pathParam(r, "id")
	if !strings.HasPrefix(idHex, "0x") || len(idHex) != 66 {
		writeError(w, http.StatusBadRequest, "invalid question id")
		return
	}
	id := common.HexToHash(idHex)

	dep, err := h.deployments.Resolve(r.Context(), chainID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "deployment lookup failed")
		return
	}

	q, err := h.questions.Get(r.Context(), h.callers[chainID], dep, chainID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeError(w, http.StatusNotFound, "question not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get question failed",
			slog.Int64("chain_id", chainID),
			slog.String("question", id.Hex()),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to get question")
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// parseFilter builds the filter and sort selection from query parameters.
// Unknown status or sort values fall back to defaults rather than erroring;
// the list should render with whatever narrowing survives.
func parseFilter(r *http.Request) (query.Filter, query.SortKey, query.SortDir) {
	q := r.URL.Query()

	var f query.Filter
	f.Asker = q.Get("asker")
	if v := q.Get("mine"); common.IsHexAddress(v) {
		f.Mine = common.HexToAddress(v)
	}
	if v := q.Get("token"); v != "" {
		f.TokenSymbol = v
	}
	for _, s := range strings.Split(q.Get("status"), ",") {
		switch domain.Status(strings.ToLower(strings.TrimSpace(s))) {
		case domain.StatusOpen:
			f.Statuses = append(f.Statuses, domain.StatusOpen)
		case domain.StatusScheduled:
			f.Statuses = append(f.Statuses, domain.StatusScheduled)
		case domain.StatusAnswered:
			f.Statuses = append(f.Statuses, domain.StatusAnswered)
		case domain.StatusDisputed:
			f.Statuses = append(f.Statuses, domain.StatusDisputed)
		case domain.StatusFinalized:
			f.Statuses = append(f.Statuses, domain.StatusFinalized)
		}
	}

	key := query.SortCreated
	switch query.SortKey(q.Get("sort")) {
	case query.SortDeadline:
		key = query.SortDeadline
	case query.SortBond:
		key = query.SortBond
	}

	dir := query.SortDesc
	if query.SortDir(q.Get("dir")) == query.SortAsc {
		dir = query.SortAsc
	}

	return f, key, dir
}
