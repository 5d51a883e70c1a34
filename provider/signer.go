package provider

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/io"
	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

// Unlocker is implemented by io.Keystore.
type Unlocker interface {
	UnlockAccount(wallet types.ETHWallet) error
}

// KeystoreSignerFactory unlocks the configured keystore account on demand so
// the key stays locked for runs that never dispute.
type KeystoreSignerFactory struct {
	keystore Unlocker
	wallet   types.ETHWallet
}

var (
	_ SignerFactory = (*KeystoreSignerFactory)(nil)
	_ Unlocker      = (*io.Keystore)(nil)
)

func NewKeystoreSignerFactory(keystore Unlocker, address, password string) (*KeystoreSignerFactory, error) {
	if !common.IsHexAddress(address) {
		return nil, fmt.Errorf("invalid disputer address %q", address)
	}
	return &KeystoreSignerFactory{
		keystore: keystore,
		wallet:   types.ETHWallet{FromAddr: common.HexToAddress(address), PWD: password},
	}, nil
}

func (f *KeystoreSignerFactory) CreateSigner(ctx context.Context) (types.ETHWallet, error) {
	if err := ctx.Err(); err != nil {
		return types.ETHWallet{}, err
	}
	if err := f.keystore.UnlockAccount(f.wallet); err != nil {
		return types.ETHWallet{}, fmt.Errorf("failed to unlock %s: %w", f.wallet.FromAddr.Hex(), err)
	}
	return f.wallet, nil
}
