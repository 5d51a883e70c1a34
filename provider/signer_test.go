package provider

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
)

type fakeKeystore struct {
	unlocked []types.ETHWallet
	err      error
}

func (k *fakeKeystore) UnlockAccount(wallet types.ETHWallet) error {
	if k.err != nil {
		return k.err
	}
	k.unlocked = append(k.unlocked, wallet)
	return nil
}

func TestKeystoreSignerFactory(t *testing.T) {
	_, err := NewKeystoreSignerFactory(&fakeKeystore{}, "nope", "pwd")
	assert.Error(t, err)

	ks := &fakeKeystore{}
	f, err := NewKeystoreSignerFactory(ks, "0x1000000000000000000000000000000000000001", "pwd")
	require.NoError(t, err)

	wallet, err := f.CreateSigner(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "pwd", wallet.PWD)
	assert.Len(t, ks.unlocked, 1)

	ks.err = errors.New("could not decrypt key with given password")
	_, err = f.CreateSigner(context.Background())
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = f.CreateSigner(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
