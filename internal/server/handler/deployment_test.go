package handler

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"github.com/orakore/orakore/internal/domain"
)

func deploymentMux(h *DeploymentHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /deployments/{bundle}", h.GetDeployment)
	return mux
}

func TestGetDeploymentOK(t *testing.T) {
	h := NewDeploymentHandler(&fakeDeployments{dep: &domain.Deployment{
		ChainID:       8217,
		RealitioERC20: common.HexToAddress("0x01"),
	}}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/deployments/8217.json", nil)
	rec := httptest.NewRecorder()
	deploymentMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Header().Get("Content-Type"), "application/json")
}

func TestGetDeploymentMissIsEmpty404(t *testing.T) {
	h := NewDeploymentHandler(&fakeDeployments{}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/deployments/424242.json", nil)
	rec := httptest.NewRecorder()
	deploymentMux(h).ServeHTTP(rec, req)

	// A missing bundle is a clean 404 with no body; clients read it as
	// "not deployed here".
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Empty(t, rec.Body.Bytes())
}

func TestGetDeploymentResolveFailure(t *testing.T) {
	h := NewDeploymentHandler(&fakeDeployments{err: errors.New("upstream 500")}, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/deployments/8217.json", nil)
	rec := httptest.NewRecorder()
	deploymentMux(h).ServeHTTP(rec, req)

	require.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestGetDeploymentBadChain(t *testing.T) {
	h := NewDeploymentHandler(&fakeDeployments{}, testLogger())

	for _, bundle := range []string{"abc.json", "0.json", "-5.json", "8217"} {
		req := httptest.NewRequest(http.MethodGet, "/deployments/"+bundle, nil)
		rec := httptest.NewRecorder()
		deploymentMux(h).ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, "bundle=%s", bundle)
	}
}
