package handler

import (
	"log/slog"
	"net/http"
	"strings"
)

// DeploymentHandler serves per-chain deployment bundles.
type DeploymentHandler struct {
	deployments DeploymentSource
	logger      *slog.Logger
}

// NewDeploymentHandler creates a DeploymentHandler.
func NewDeploymentHandler(deployments DeploymentSource, logger *slog.Logger) *DeploymentHandler {
	return &DeploymentHandler{deployments: deployments, logger: logger}
}

// GetDeployment returns the deployment bundle for a chain. A chain with no
// bundle answers 404 with an empty body; only transport failures produce an
// error payload. Clients treat 404 as "oracle not deployed here", not as a
// fault.
// GET /deployments/{chainID}.json
func (h *DeploymentHandler) GetDeployment(w http.ResponseWriter, r *http.Request) {
	bundle := pathParam(r, "bundle")
	name, ok := strings.CutSuffix(bundle, ".json")
	if !ok {
		writeError(w, http.StatusBadRequest, "expected {chainId}.json")
		return
	}
	chainID, err := parseChainID(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid chain id")
		return
	}

	dep, err := h.deployments.Resolve(r.Context(), chainID)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: deployment resolve failed",
			slog.Int64("chain_id", chainID),
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "deployment lookup failed")
		return
	}
	if dep == nil {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, dep)
}
