package postgres

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/orakore/orakore/internal/domain"
)

// QuestionStore implements domain.QuestionStore using PostgreSQL.
type QuestionStore struct {
	pool *pgxpool.Pool
}

// NewQuestionStore creates a QuestionStore backed by the given connection
// pool.
func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const upsertQuestionSQL = `
	INSERT INTO questions (
		chain_id, id, asker, arbitrator, bond_token, template_id,
		content, content_hash, opening_ts, timeout_sec, created_ts,
		best_answer, best_bond, best_answerer, last_answer_ts,
		finalized, pending_arbitration, token_symbol, token_decimals,
		created_block, updated_at
	) VALUES (
		$1, $2, $3, $4, $5, $6,
		$7, $8, $9, $10, $11,
		$12, $13, $14, $15,
		$16, $17, $18, $19,
		$20, NOW()
	)
	ON CONFLICT (chain_id, id) DO UPDATE SET
		asker               = EXCLUDED.asker,
		arbitrator          = EXCLUDED.arbitrator,
		bond_token          = EXCLUDED.bond_token,
		template_id         = EXCLUDED.template_id,
		content             = CASE WHEN EXCLUDED.content <> '' THEN EXCLUDED.content ELSE questions.content END,
		content_hash        = EXCLUDED.content_hash,
		opening_ts          = EXCLUDED.opening_ts,
		timeout_sec         = EXCLUDED.timeout_sec,
		created_ts          = EXCLUDED.created_ts,
		best_answer         = EXCLUDED.best_answer,
		best_bond           = EXCLUDED.best_bond,
		best_answerer       = EXCLUDED.best_answerer,
		last_answer_ts      = EXCLUDED.last_answer_ts,
		finalized           = EXCLUDED.finalized,
		pending_arbitration = EXCLUDED.pending_arbitration,
		token_symbol        = EXCLUDED.token_symbol,
		token_decimals      = EXCLUDED.token_decimals,
		created_block       = EXCLUDED.created_block,
		updated_at          = NOW()`

func upsertArgs(q domain.Question) []any {
	return []any{
		q.ChainID, q.ID.Hex(), q.Asker.Hex(), q.Arbitrator.Hex(), q.BondToken.Hex(), int32(q.TemplateID),
		q.Content, q.ContentHash.Hex(), q.OpeningTs, q.TimeoutSec, q.CreatedTs,
		q.BestAnswer.Hex(), q.BestBondRaw().String(), q.BestAnswerer.Hex(), q.LastAnswerTs,
		q.Finalized, q.PendingArbitration, q.TokenSymbol, int16(q.TokenDecimals),
		q.CreatedBlock,
	}
}

// Upsert inserts or updates a single question; the record carries its chain
// in ChainID.
func (s *QuestionStore) Upsert(ctx context.Context, q domain.Question) error {
	_, err := s.pool.Exec(ctx, upsertQuestionSQL, upsertArgs(q)...)
	if err != nil {
		return fmt.Errorf("postgres: upsert question %s: %w", q.ID.Hex(), err)
	}
	return nil
}

// UpsertBatch inserts or updates multiple questions in a single batch.
func (s *QuestionStore) UpsertBatch(ctx context.Context, qs []domain.Question) error {
	if len(qs) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range qs {
		batch.Queue(upsertQuestionSQL, upsertArgs(q)...)
	}

	results := s.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range qs {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("postgres: upsert question batch: %w", err)
		}
	}
	return nil
}

const selectQuestionSQL = `
	SELECT id, asker, arbitrator, bond_token, template_id,
	       content, content_hash, opening_ts, timeout_sec, created_ts,
	       best_answer, best_bond::TEXT, best_answerer, last_answer_ts,
	       finalized, pending_arbitration, token_symbol, token_decimals,
	       created_block
	FROM questions`

// Get retrieves a single question by chain and ID. Returns
// domain.ErrNotFound when it does not exist.
func (s *QuestionStore) Get(ctx context.Context, chainID int64, id common.Hash) (domain.Question, error) {
	row := s.pool.QueryRow(ctx, selectQuestionSQL+" WHERE chain_id = $1 AND id = $2", chainID, id.Hex())

	q, err := scanQuestion(row, chainID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, domain.ErrNotFound
		}
		return domain.Question{}, fmt.Errorf("postgres: get question %s: %w", id.Hex(), err)
	}
	return q, nil
}

// List returns questions for the chain ordered by creation time descending.
func (s *QuestionStore) List(ctx context.Context, chainID int64, opts domain.ListOpts) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		selectQuestionSQL+` WHERE chain_id = $1
		 ORDER BY created_ts DESC, id DESC
		 LIMIT $2 OFFSET $3`,
		chainID, opts.Limit, opts.Offset,
	)
	if err != nil {
		return nil, fmt.Errorf("postgres: list questions: %w", err)
	}
	defer rows.Close()

	var out []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows, chainID)
		if err != nil {
			return nil, fmt.Errorf("postgres: scan question: %w", err)
		}
		out = append(out, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list questions: %w", err)
	}
	return out, nil
}

// Count returns the number of indexed questions for the chain.
func (s *QuestionStore) Count(ctx context.Context, chainID int64) (int64, error) {
	var n int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM questions WHERE chain_id = $1", chainID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("postgres: count questions: %w", err)
	}
	return n, nil
}

// scanQuestion reads one question row.
func scanQuestion(row pgx.Row, chainID int64) (domain.Question, error) {
	var (
		q                                    domain.Question
		id, asker, arbitrator, bondToken     string
		contentHash, bestAnswer, answerer    string
		bestBond                             string
		templateID                           int32
		tokenDecimals                        int16
	)

	err := row.Scan(&id, &asker, &arbitrator, &bondToken, &templateID,
		&q.Content, &contentHash, &q.OpeningTs, &q.TimeoutSec, &q.CreatedTs,
		&bestAnswer, &bestBond, &answerer, &q.LastAnswerTs,
		&q.Finalized, &q.PendingArbitration, &q.TokenSymbol, &tokenDecimals,
		&q.CreatedBlock,
	)
	if err != nil {
		return domain.Question{}, err
	}

	q.ChainID = chainID
	q.ID = common.HexToHash(id)
	q.Asker = common.HexToAddress(asker)
	q.Arbitrator = common.HexToAddress(arbitrator)
	q.BondToken = common.HexToAddress(bondToken)
	q.ContentHash = common.HexToHash(contentHash)
	q.BestAnswer = common.HexToHash(bestAnswer)
	q.BestAnswerer = common.HexToAddress(answerer)
	q.TemplateID = domain.Template(templateID)
	q.TokenDecimals = uint8(tokenDecimals)

	bond := new(big.Int)
	bond.SetString(bestBond, 10)
	q.BestBond = bond

	return q, nil
}

// Compile-time interface check.
var _ domain.QuestionStore = (*QuestionStore)(nil)
