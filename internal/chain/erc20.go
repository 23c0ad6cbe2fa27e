package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceOf reads an ERC-20 balance.
func (c *Caller) BalanceOf(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var balance *big.Int
	if err := c.call(ctx, c.abis.erc20, token, &balance, "balanceOf", owner); err != nil {
		return nil, err
	}
	return balance, nil
}

// Allowance reads an ERC-20 allowance.
func (c *Caller) Allowance(ctx context.Context, token, owner, spender common.Address) (*big.Int, error) {
	var allowance *big.Int
	if err := c.call(ctx, c.abis.erc20, token, &allowance, "allowance", owner, spender); err != nil {
		return nil, err
	}
	return allowance, nil
}

// TokenDecimals reads an ERC-20 decimals value.
func (c *Caller) TokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	var decimals uint8
	if err := c.call(ctx, c.abis.erc20, token, &decimals, "decimals"); err != nil {
		return 0, err
	}
	return decimals, nil
}

// TokenSymbol reads an ERC-20 symbol.
func (c *Caller) TokenSymbol(ctx context.Context, token common.Address) (string, error) {
	var symbol string
	if err := c.call(ctx, c.abis.erc20, token, &symbol, "symbol"); err != nil {
		return "", err
	}
	return symbol, nil
}

// SupportsPermit probes the token for EIP-2612 support by attempting a
// DOMAIN_SEPARATOR read. The trial call is expected to revert harmlessly on
// non-conforming tokens, so any error means "no permit support", never a
// failure of the caller.
func (c *Caller) SupportsPermit(ctx context.Context, token common.Address) bool {
	var sep [32]byte
	if err := c.call(ctx, c.abis.erc20, token, &sep, "DOMAIN_SEPARATOR"); err != nil {
		return false
	}
	return sep != [32]byte{}
}

// PermitNonce reads the EIP-2612 nonce for an owner. Only meaningful when
// SupportsPermit returned true for the token.
func (c *Caller) PermitNonce(ctx context.Context, token, owner common.Address) (*big.Int, error) {
	var nonce *big.Int
	if err := c.call(ctx, c.abis.erc20, token, &nonce, "nonces", owner); err != nil {
		return nil, err
	}
	return nonce, nil
}
