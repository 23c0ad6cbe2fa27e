package chain

import (
	"errors"
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestIsUserRejected(t *testing.T) {
	rejected := []error{
		errors.New("MetaMask Tx Signature: User denied transaction signature."),
		errors.New("user rejected the request"),
		errors.New("ACTION_REJECTED"),
		errors.New("Error: code=4001, message=request declined"),
		fmt.Errorf("send: %w", errors.New("Request rejected by user")),
	}
	for _, err := range rejected {
		require.True(t, IsUserRejected(err), "expected rejection: %v", err)
	}

	notRejected := []error{
		nil,
		errors.New("insufficient funds for gas"),
		errors.New("execution reverted"),
		errors.New("nonce too low"),
	}
	for _, err := range notRejected {
		require.False(t, IsUserRejected(err), "unexpected rejection: %v", err)
	}
}

func TestContentHashDeterministic(t *testing.T) {
	a := ContentHash(0, 1_700_000_000, "Will it rain tomorrow?")
	b := ContentHash(0, 1_700_000_000, "Will it rain tomorrow?")
	require.Equal(t, a, b)

	// Any input difference changes the hash.
	require.NotEqual(t, a, ContentHash(1, 1_700_000_000, "Will it rain tomorrow?"))
	require.NotEqual(t, a, ContentHash(0, 1_700_000_001, "Will it rain tomorrow?"))
	require.NotEqual(t, a, ContentHash(0, 1_700_000_000, "Will it snow tomorrow?"))
}

func TestQuestionIDDeterministic(t *testing.T) {
	content := ContentHash(0, 0, "question")
	arbitrator := common.HexToAddress("0x01")
	asker := common.HexToAddress("0x02")

	a := QuestionID(0, content, arbitrator, 86400, 0, big.NewInt(7), asker)
	b := QuestionID(0, content, arbitrator, 86400, 0, big.NewInt(7), asker)
	require.Equal(t, a, b)
	require.NotEqual(t, common.Hash{}, a)

	require.NotEqual(t, a, QuestionID(0, content, arbitrator, 86400, 0, big.NewInt(8), asker))
	require.NotEqual(t, a, QuestionID(0, content, arbitrator, 86400, 0, big.NewInt(7), arbitrator))
	require.NotEqual(t, a, QuestionID(0, content, asker, 86400, 0, big.NewInt(7), asker))
}
