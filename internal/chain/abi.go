// Package chain is the contract-call layer for the Kaia optimistic oracle.
// It wraps a go-ethereum JSON-RPC client with typed accessors over the
// oracle's V3 paginated read surface, the legacy V2 event-log path, the
// standard ERC-20 surface, and the ask/answer transaction entry points.
package chain

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// oracleABIJSON is the fragment of the RealitioERC20 ABI that the backend
// touches. Kept as a literal fragment rather than a generated binding so the
// read layer stays auditable against the deployed contract.
const oracleABIJSON = `[
  {"type":"function","name":"totalQuestions","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"getQuestionsDesc","stateMutability":"view","inputs":[{"name":"offset","type":"uint256"},{"name":"limit","type":"uint256"}],"outputs":[{"name":"","type":"bytes32[]"}]},
  {"type":"function","name":"getQuestionFullBatch","stateMutability":"view","inputs":[{"name":"questionIds","type":"bytes32[]"}],"outputs":[{"name":"","type":"tuple[]","components":[
    {"name":"questionId","type":"bytes32"},
    {"name":"asker","type":"address"},
    {"name":"arbitrator","type":"address"},
    {"name":"bondToken","type":"address"},
    {"name":"templateId","type":"uint32"},
    {"name":"contentHash","type":"bytes32"},
    {"name":"openingTs","type":"uint32"},
    {"name":"timeout","type":"uint32"},
    {"name":"createdTs","type":"uint64"},
    {"name":"bestAnswer","type":"bytes32"},
    {"name":"bond","type":"uint256"},
    {"name":"bestAnswerer","type":"address"},
    {"name":"lastAnswerTs","type":"uint32"},
    {"name":"isFinalized","type":"bool"},
    {"name":"isPendingArbitration","type":"bool"}
  ]}]},
  {"type":"function","name":"getQuestionFullV3","stateMutability":"view","inputs":[{"name":"questionId","type":"bytes32"}],"outputs":[{"name":"","type":"tuple","components":[
    {"name":"questionId","type":"bytes32"},
    {"name":"asker","type":"address"},
    {"name":"arbitrator","type":"address"},
    {"name":"bondToken","type":"address"},
    {"name":"templateId","type":"uint32"},
    {"name":"contentHash","type":"bytes32"},
    {"name":"openingTs","type":"uint32"},
    {"name":"timeout","type":"uint32"},
    {"name":"createdTs","type":"uint64"},
    {"name":"bestAnswer","type":"bytes32"},
    {"name":"bond","type":"uint256"},
    {"name":"bestAnswerer","type":"address"},
    {"name":"lastAnswerTs","type":"uint32"},
    {"name":"isFinalized","type":"bool"},
    {"name":"isPendingArbitration","type":"bool"}
  ]}]},
  {"type":"function","name":"getQuestionFull","stateMutability":"view","inputs":[{"name":"questionId","type":"bytes32"}],"outputs":[
    {"name":"contentHash","type":"bytes32"},
    {"name":"arbitrator","type":"address"},
    {"name":"openingTs","type":"uint32"},
    {"name":"timeout","type":"uint32"},
    {"name":"finalizeTs","type":"uint32"},
    {"name":"isPendingArbitration","type":"bool"},
    {"name":"bounty","type":"uint256"},
    {"name":"bestAnswer","type":"bytes32"},
    {"name":"historyHash","type":"bytes32"},
    {"name":"bond","type":"uint256"},
    {"name":"bondToken","type":"address"}
  ]},
  {"type":"function","name":"isFinalized","stateMutability":"view","inputs":[{"name":"questionId","type":"bytes32"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"feeOn","stateMutability":"view","inputs":[{"name":"bond","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"askQuestionERC20V3","stateMutability":"nonpayable","inputs":[
    {"name":"templateId","type":"uint256"},
    {"name":"question","type":"string"},
    {"name":"arbitrator","type":"address"},
    {"name":"timeout","type":"uint32"},
    {"name":"openingTs","type":"uint32"},
    {"name":"nonce","type":"uint256"},
    {"name":"token","type":"address"},
    {"name":"bounty","type":"uint256"}
  ],"outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"submitAnswerERC20","stateMutability":"nonpayable","inputs":[
    {"name":"questionId","type":"bytes32"},
    {"name":"answer","type":"bytes32"},
    {"name":"maxPrevious","type":"uint256"},
    {"name":"bond","type":"uint256"}
  ],"outputs":[]},
  {"type":"function","name":"submitAnswerCommitmentERC20","stateMutability":"nonpayable","inputs":[
    {"name":"questionId","type":"bytes32"},
    {"name":"answerHash","type":"bytes32"},
    {"name":"maxPrevious","type":"uint256"},
    {"name":"answerer","type":"address"},
    {"name":"bond","type":"uint256"}
  ],"outputs":[]},
  {"type":"function","name":"submitAnswerERC20WithPermit2","stateMutability":"nonpayable","inputs":[
    {"name":"questionId","type":"bytes32"},
    {"name":"answer","type":"bytes32"},
    {"name":"maxPrevious","type":"uint256"},
    {"name":"bond","type":"uint256"},
    {"name":"permit","type":"bytes"},
    {"name":"signature","type":"bytes"}
  ],"outputs":[]},
  {"type":"function","name":"submitAnswerERC20WithPermit","stateMutability":"nonpayable","inputs":[
    {"name":"questionId","type":"bytes32"},
    {"name":"answer","type":"bytes32"},
    {"name":"maxPrevious","type":"uint256"},
    {"name":"bond","type":"uint256"},
    {"name":"deadline","type":"uint256"},
    {"name":"v","type":"uint8"},
    {"name":"r","type":"bytes32"},
    {"name":"s","type":"bytes32"}
  ],"outputs":[]},
  {"type":"event","name":"LogNewQuestion","inputs":[
    {"name":"questionId","type":"bytes32","indexed":true},
    {"name":"asker","type":"address","indexed":true},
    {"name":"templateId","type":"uint256","indexed":false},
    {"name":"question","type":"string","indexed":false},
    {"name":"contentHash","type":"bytes32","indexed":true},
    {"name":"arbitrator","type":"address","indexed":false},
    {"name":"timeout","type":"uint32","indexed":false},
    {"name":"openingTs","type":"uint32","indexed":false},
    {"name":"nonce","type":"uint256","indexed":false},
    {"name":"createdTs","type":"uint256","indexed":false}
  ]},
  {"type":"event","name":"LogNewAnswer","inputs":[
    {"name":"answer","type":"bytes32","indexed":false},
    {"name":"questionId","type":"bytes32","indexed":true},
    {"name":"historyHash","type":"bytes32","indexed":false},
    {"name":"answerer","type":"address","indexed":true},
    {"name":"bond","type":"uint256","indexed":false},
    {"name":"ts","type":"uint256","indexed":false},
    {"name":"isCommitment","type":"bool","indexed":false}
  ]},
  {"type":"event","name":"LogFinalize","inputs":[
    {"name":"questionId","type":"bytes32","indexed":true},
    {"name":"answer","type":"bytes32","indexed":true}
  ]},
  {"type":"event","name":"LogNotifyOfArbitrationRequest","inputs":[
    {"name":"questionId","type":"bytes32","indexed":true},
    {"name":"requester","type":"address","indexed":true}
  ]}
]`

// zapperABIJSON covers the wrapped-native zapper entry point used by the
// mixed payment mode: the caller sends native KAIA which the zapper wraps
// and forwards together with any token remainder.
const zapperABIJSON = `[
  {"type":"function","name":"submitAnswerZapKAIA","stateMutability":"payable","inputs":[
    {"name":"questionId","type":"bytes32"},
    {"name":"answer","type":"bytes32"},
    {"name":"maxPrevious","type":"uint256"},
    {"name":"tokenAmount","type":"uint256"}
  ],"outputs":[]}
]`

// erc20ABIJSON is the standard ERC-20 surface plus the EIP-2612
// DOMAIN_SEPARATOR accessor used to probe permit support.
const erc20ABIJSON = `[
  {"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"allowance","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"spender","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
  {"type":"function","name":"decimals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint8"}]},
  {"type":"function","name":"symbol","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"string"}]},
  {"type":"function","name":"approve","stateMutability":"nonpayable","inputs":[{"name":"spender","type":"address"},{"name":"amount","type":"uint256"}],"outputs":[{"name":"","type":"bool"}]},
  {"type":"function","name":"DOMAIN_SEPARATOR","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bytes32"}]},
  {"type":"function","name":"nonces","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

type parsedABIs struct {
	oracle abi.ABI
	erc20  abi.ABI
	zapper abi.ABI
}

func parseABIs() (parsedABIs, error) {
	oracleABI, err := abi.JSON(strings.NewReader(oracleABIJSON))
	if err != nil {
		return parsedABIs{}, fmt.Errorf("chain: parse oracle abi: %w", err)
	}
	erc20ABI, err := abi.JSON(strings.NewReader(erc20ABIJSON))
	if err != nil {
		return parsedABIs{}, fmt.Errorf("chain: parse erc20 abi: %w", err)
	}
	zapperABI, err := abi.JSON(strings.NewReader(zapperABIJSON))
	if err != nil {
		return parsedABIs{}, fmt.Errorf("chain: parse zapper abi: %w", err)
	}
	return parsedABIs{oracle: oracleABI, erc20: erc20ABI, zapper: zapperABI}, nil
}
