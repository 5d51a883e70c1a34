package io_test

import (
	"encoding/hex"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

func TestKeystoreImportAndList(t *testing.T) {
	keys := io.OpenKeystore(t.TempDir())
	assert.Empty(t, keys.ListAccounts())

	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account, err := keys.ImportKey("0x"+hex.EncodeToString(crypto.FromECDSA(key)), "secret")
	require.NoError(t, err)
	assert.Equal(t, crypto.PubkeyToAddress(key.PublicKey), account.Address)

	listed := keys.ListAccounts()
	require.Len(t, listed, 1)
	assert.Equal(t, account.Address, listed[0].Address)

	_, err = keys.ImportKey(hex.EncodeToString(crypto.FromECDSA(key)), "secret")
	assert.Error(t, err)
}

func TestKeystoreImportRejectsBadKey(t *testing.T) {
	keys := io.OpenKeystore(t.TempDir())
	_, err := keys.ImportKey("zz", "secret")
	assert.ErrorContains(t, err, "invalid private key")
	assert.Empty(t, keys.ListAccounts())
}

func TestKeystoreUnlock(t *testing.T) {
	keys := io.OpenKeystore(t.TempDir())
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	account, err := keys.ImportKey(hex.EncodeToString(crypto.FromECDSA(key)), "secret")
	require.NoError(t, err)

	assert.NoError(t, keys.UnlockAccount(types.ETHWallet{FromAddr: account.Address, PWD: "secret"}))
	assert.ErrorContains(t, keys.UnlockAccount(types.ETHWallet{FromAddr: account.Address, PWD: "wrong"}), "failed to unlock")

	err = keys.UnlockAccount(types.ETHWallet{FromAddr: common.HexToAddress("0x02"), PWD: "x"})
	assert.ErrorContains(t, err, "account not found")
}
