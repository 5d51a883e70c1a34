package abi

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetContractABIEmbedded(t *testing.T) {
	for _, name := range []string{Distributor, DistributionCreator, ERC20, UniswapV3Pool} {
		parsed, err := GetContractABI("", name)
		require.NoError(t, err, name)
		assert.NotEmpty(t, parsed.Methods, name)
	}

	distributor, err := GetContractABI("", Distributor)
	require.NoError(t, err)
	assert.Contains(t, distributor.Methods, "disputeTree")
	assert.Contains(t, distributor.Methods, "endOfDisputePeriod")

	again, err := GetContractABI("", Distributor)
	require.NoError(t, err)
	assert.Same(t, distributor, again)
}

func TestGetContractABIFromDir(t *testing.T) {
	dir := t.TempDir()
	data, err := contracts.ReadFile("contracts/ERC20.json")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Token.json"), data, 0o600))

	parsed, err := GetContractABI(dir, "Token")
	require.NoError(t, err)
	assert.Contains(t, parsed.Methods, "approve")

	_, err = GetContractABI(dir, "Missing")
	assert.Error(t, err)
	_, err = GetContractABI("", "Missing")
	assert.Error(t, err)
}
