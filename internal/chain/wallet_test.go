package chain

import (
	"os"
	"path/filepath"
	"testing"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

// testKey is the well-known hardhat account 0 key.
const testKey = "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80"

func TestLoadWalletFromHex(t *testing.T) {
	w, err := LoadWallet(WalletConfig{PrivateKey: "0x" + testKey})
	require.NoError(t, err)

	key, err := ethcrypto.HexToECDSA(testKey)
	require.NoError(t, err)
	require.Equal(t, ethcrypto.PubkeyToAddress(key.PublicKey), w.Address())
}

func TestLoadWalletNoKey(t *testing.T) {
	_, err := LoadWallet(WalletConfig{})
	require.Error(t, err)
}

func TestLoadWalletBadHex(t *testing.T) {
	_, err := LoadWallet(WalletConfig{PrivateKey: "zznothex"})
	require.Error(t, err)
}

func TestKeyfileRoundtrip(t *testing.T) {
	blob, err := EncryptKeyfile(testKey, "hunter2")
	require.NoError(t, err)

	got, err := DecryptKeyfile(blob, "hunter2")
	require.NoError(t, err)
	require.Equal(t, testKey, got)
}

func TestKeyfileWrongPassword(t *testing.T) {
	blob, err := EncryptKeyfile(testKey, "hunter2")
	require.NoError(t, err)

	_, err = DecryptKeyfile(blob, "nope")
	require.Error(t, err)
}

func TestKeyfileEmptyPassword(t *testing.T) {
	_, err := EncryptKeyfile(testKey, "")
	require.Error(t, err)

	_, err = DecryptKeyfile([]byte("{}"), "")
	require.Error(t, err)
}

func TestEncryptKeyfileRejectsShortKey(t *testing.T) {
	_, err := EncryptKeyfile("abcd", "hunter2")
	require.Error(t, err)
}

func TestLoadWalletFromKeyfile(t *testing.T) {
	blob, err := EncryptKeyfile(testKey, "hunter2")
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "operator.json")
	require.NoError(t, os.WriteFile(path, blob, 0o600))

	w, err := LoadWallet(WalletConfig{KeyfilePath: path, KeyfilePassword: "hunter2"})
	require.NoError(t, err)

	key, err := ethcrypto.HexToECDSA(testKey)
	require.NoError(t, err)
	require.Equal(t, ethcrypto.PubkeyToAddress(key.PublicKey), w.Address())
}
