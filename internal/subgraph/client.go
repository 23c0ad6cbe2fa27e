// Package subgraph is a GraphQL client for the question subgraph, used by
// the indexer as its primary source and by the reader as an alternative to
// direct contract scans.
package subgraph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"strconv"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/orakore/orakore/internal/oracle"
)

// Client is a GraphQL client for the question subgraph endpoint.
type Client struct {
	graphqlURL string
	httpClient *http.Client
}

// NewClient creates a subgraph client for the given endpoint, e.g.
// "https://graph.example.com/subgraphs/name/orakore/questions".
func NewClient(graphqlURL string) *Client {
	return &Client{
		graphqlURL: graphqlURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// graphqlRequest is the standard GraphQL request envelope.
type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

// graphqlResponse is the standard GraphQL response envelope.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// questionSummary mirrors the subgraph's question entity. Numeric fields
// arrive as decimal strings per GraphQL BigInt convention.
type questionSummary struct {
	ID                 string `json:"id"`
	Asker              string `json:"asker"`
	Arbitrator         string `json:"arbitrator"`
	BondToken          string `json:"bondToken"`
	TemplateID         string `json:"templateId"`
	Question           string `json:"question"`
	ContentHash        string `json:"contentHash"`
	OpeningTs          string `json:"openingTs"`
	Timeout            string `json:"timeout"`
	CreatedTs          string `json:"createdTs"`
	BestAnswer         string `json:"bestAnswer"`
	Bond               string `json:"bond"`
	BestAnswerer       string `json:"bestAnswerer"`
	LastAnswerTs       string `json:"lastAnswerTs"`
	Finalized          bool   `json:"finalized"`
	PendingArbitration bool   `json:"pendingArbitration"`
	CreatedBlock       string `json:"createdBlock"`
}

const questionsQuery = `
	query Questions($first: Int!, $skip: Int!) {
		questions(
			first: $first
			skip: $skip
			orderBy: createdTs
			orderDirection: desc
		) {
			id
			asker
			arbitrator
			bondToken
			templateId
			question
			contentHash
			openingTs
			timeout
			createdTs
			bestAnswer
			bond
			bestAnswerer
			lastAnswerTs
			finalized
			pendingArbitration
			createdBlock
		}
	}`

// Questions fetches one page of question summaries ordered by creation time
// descending and returns them as raw records for normalization.
func (c *Client) Questions(ctx context.Context, first, skip int) ([]oracle.RawQuestion, error) {
	var result struct {
		Questions []questionSummary `json:"questions"`
	}
	if err := c.query(ctx, questionsQuery, map[string]any{
		"first": first,
		"skip":  skip,
	}, &result); err != nil {
		return nil, err
	}

	raws := make([]oracle.RawQuestion, 0, len(result.Questions))
	for _, q := range result.Questions {
		raws = append(raws, q.raw())
	}
	return raws, nil
}

// query executes one GraphQL request and unmarshals the data payload into out.
func (c *Client) query(ctx context.Context, query string, vars map[string]any, out any) error {
	payload, err := json.Marshal(graphqlRequest{Query: query, Variables: vars})
	if err != nil {
		return fmt.Errorf("subgraph: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.graphqlURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("subgraph: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("subgraph: post query: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("subgraph: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("subgraph: status %d: %s", resp.StatusCode, truncate(body, 256))
	}

	var envelope graphqlResponse
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("subgraph: decode envelope: %w", err)
	}
	if len(envelope.Errors) > 0 {
		return fmt.Errorf("subgraph: graphql error: %s", envelope.Errors[0].Message)
	}

	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("subgraph: decode data: %w", err)
	}
	return nil
}

func (q questionSummary) raw() oracle.RawQuestion {
	bond := new(big.Int)
	if q.Bond != "" {
		bond.SetString(q.Bond, 10)
	}
	return oracle.RawQuestion{
		ID:                 common.HexToHash(q.ID),
		Asker:              common.HexToAddress(q.Asker),
		Arbitrator:         common.HexToAddress(q.Arbitrator),
		BondToken:          common.HexToAddress(q.BondToken),
		TemplateID:         uint32(parseInt(q.TemplateID)),
		Content:            q.Question,
		ContentHash:        common.HexToHash(q.ContentHash),
		OpeningTs:          parseInt(q.OpeningTs),
		Timeout:            parseInt(q.Timeout),
		CreatedTs:          parseInt(q.CreatedTs),
		BestAnswer:         common.HexToHash(q.BestAnswer),
		BestBond:           bond,
		BestAnswerer:       common.HexToAddress(q.BestAnswerer),
		LastAnswerTs:       parseInt(q.LastAnswerTs),
		Finalized:          q.Finalized,
		PendingArbitration: q.PendingArbitration,
		CreatedBlock:       uint64(parseInt(q.CreatedBlock)),
	}
}

func parseInt(s string) int64 {
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
