package domain

import (
	"encoding/json"

	"github.com/ethereum/go-ethereum/common"
)

// Deployment is the per-chain contract address bundle consumed by every
// chain-facing component. Bundles come from the embedded static map or from
// a deployments/{chainId}.json resource.
type Deployment struct {
	ChainID          int64
	RealitioERC20    common.Address
	ArbitratorSimple common.Address
	ZapperWKAIA      common.Address
	USDT             common.Address
	WKAIA            common.Address
	Permit2          common.Address
	FeeRecipient     common.Address
	FeeBps           int64
}

// Ready reports whether the bundle is usable. The oracle contract address is
// the essential field; a bundle that fetched fine but lacks it is not ready.
func (d *Deployment) Ready() bool {
	return d != nil && d.RealitioERC20 != (common.Address{})
}

// HasPermit2 reports whether a Permit2 deployment is configured.
func (d *Deployment) HasPermit2() bool {
	return d != nil && d.Permit2 != (common.Address{})
}

// HasZapper reports whether the wrapped-native zapper is configured.
func (d *Deployment) HasZapper() bool {
	return d != nil && d.ZapperWKAIA != (common.Address{})
}

// deploymentJSON mirrors the deployment file layout, including the legacy
// field-name aliases that older bundle files still carry.
type deploymentJSON struct {
	RealitioERC20    string `json:"realitioERC20"`
	RealitioERC20Alt string `json:"RealitioERC20"`
	ArbitratorSimple string `json:"arbitratorSimple"`
	ZapperWKAIA      string `json:"zapperWKAIA"`
	USDT             string `json:"USDT"`
	MockUSDT         string `json:"MockUSDT"`
	WKAIA            string `json:"WKAIA"`
	Permit2          string `json:"PERMIT2"`
	FeeRecipient     string `json:"feeRecipient"`
	FeeBps           int64  `json:"feeBps"`
}

// UnmarshalJSON decodes a deployment bundle, resolving the field aliases
// (realitioERC20/RealitioERC20, USDT/MockUSDT) in favor of whichever is set.
func (d *Deployment) UnmarshalJSON(data []byte) error {
	var raw deploymentJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	oracle := raw.RealitioERC20
	if oracle == "" {
		oracle = raw.RealitioERC20Alt
	}
	usdt := raw.USDT
	if usdt == "" {
		usdt = raw.MockUSDT
	}

	*d = Deployment{
		RealitioERC20:    hexAddr(oracle),
		ArbitratorSimple: hexAddr(raw.ArbitratorSimple),
		ZapperWKAIA:      hexAddr(raw.ZapperWKAIA),
		USDT:             hexAddr(usdt),
		WKAIA:            hexAddr(raw.WKAIA),
		Permit2:          hexAddr(raw.Permit2),
		FeeRecipient:     hexAddr(raw.FeeRecipient),
		FeeBps:           raw.FeeBps,
	}
	return nil
}

// MarshalJSON encodes the bundle in the canonical (non-alias) layout.
func (d Deployment) MarshalJSON() ([]byte, error) {
	return json.Marshal(deploymentJSON{
		RealitioERC20:    d.RealitioERC20.Hex(),
		ArbitratorSimple: d.ArbitratorSimple.Hex(),
		ZapperWKAIA:      d.ZapperWKAIA.Hex(),
		USDT:             d.USDT.Hex(),
		WKAIA:            d.WKAIA.Hex(),
		Permit2:          d.Permit2.Hex(),
		FeeRecipient:     d.FeeRecipient.Hex(),
		FeeBps:           d.FeeBps,
	})
}

// hexAddr parses a hex address, returning the zero address for empty or
// malformed input rather than failing the whole bundle.
func hexAddr(s string) common.Address {
	if !common.IsHexAddress(s) {
		return common.Address{}
	}
	return common.HexToAddress(s)
}
