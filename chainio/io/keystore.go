package io

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/accounts/keystore"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

// Keystore holds the encrypted disputer keys. It works without a node so keys
// can be managed offline.
type Keystore struct {
	ks *keystore.KeyStore
}

func OpenKeystore(dir string) *Keystore {
	return &Keystore{ks: keystore.NewKeyStore(dir, keystore.LightScryptN, keystore.LightScryptP)}
}

// ImportKey encrypts a hex private key, with or without 0x prefix, under pwd.
func (k *Keystore) ImportKey(privateKeyHex string, pwd string) (accounts.Account, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(strings.TrimSpace(privateKeyHex), "0x"))
	if err != nil {
		return accounts.Account{}, fmt.Errorf("invalid private key: %w", err)
	}
	return k.ks.ImportECDSA(key, pwd)
}

func (k *Keystore) ListAccounts() []accounts.Account {
	return k.ks.Accounts()
}

// UnlockAccount checks the wallet exists in the keystore and its passphrase
// is right.
func (k *Keystore) UnlockAccount(wallet types.ETHWallet) error {
	account := accounts.Account{Address: wallet.FromAddr}
	if _, err := k.ks.Find(account); err != nil {
		return fmt.Errorf("account not found: %w", err)
	}
	if err := k.ks.Unlock(account, wallet.PWD); err != nil {
		return fmt.Errorf("failed to unlock account: %w", err)
	}
	return nil
}

func (k *Keystore) transactor(address common.Address, pwd string, chainID *big.Int) (*bind.TransactOpts, error) {
	if err := k.UnlockAccount(types.ETHWallet{FromAddr: address, PWD: pwd}); err != nil {
		return nil, err
	}
	return bind.NewKeyStoreTransactorWithChainID(k.ks, accounts.Account{Address: address}, chainID)
}
