package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/orakore/orakore/internal/reader"
)

var errBadChainID = errors.New("handler: invalid chain_id")

// writeJSON marshals v as JSON and writes it to the response with the given
// HTTP status code. If marshaling fails, it falls back to a plain-text 500.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, `{"error":"internal server error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(data)
}

// writeError sends a JSON-formatted error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// parsePageRequest extracts chain and pagination parameters from the query
// string. Defaults: page=0, page_size=25 (max 100).
func parsePageRequest(r *http.Request) (reader.PageRequest, error) {
	q := r.URL.Query()

	chainID, err := parseChainID(q.Get("chain_id"))
	if err != nil {
		return reader.PageRequest{}, err
	}

	page := 0
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			page = n
		}
	}

	pageSize := 25
	if v := q.Get("page_size"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			pageSize = n
		}
	}
	if pageSize > 100 {
		pageSize = 100
	}

	return reader.PageRequest{
		ChainID:  chainID,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// parseChainID parses a positive chain id from a path or query value.
func parseChainID(s string) (int64, error) {
	chainID, err := strconv.ParseInt(s, 10, 64)
	if err != nil || chainID <= 0 {
		return 0, errBadChainID
	}
	return chainID, nil
}

// pathParam extracts a named path parameter from the request using Go 1.22+
// built-in routing (http.Request.PathValue).
func pathParam(r *http.Request, name string) string {
	return r.PathValue(name)
}

// logHandler is a convenience to attach slog fields in handler code.
func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
