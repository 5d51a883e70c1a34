package abi

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const (
	Distributor         = "Distributor"
	DistributionCreator = "DistributionCreator"
	ERC20               = "ERC20"
	UniswapV3Pool       = "UniswapV3Pool"
)

//go:embed contracts/*.json
var contracts embed.FS

var (
	mu       sync.Mutex
	abiCache = make(map[string]*abi.ABI)
)

// GetContractABI returns the parsed ABI of contractName. When abiPath is set
// the ABI is read from {abiPath}/{contractName}.json, otherwise from the
// bundled copy.
func GetContractABI(abiPath string, contractName string) (*abi.ABI, error) {
	mu.Lock()
	defer mu.Unlock()

	key := abiPath + "/" + contractName
	if cachedABI, ok := abiCache[key]; ok {
		return cachedABI, nil
	}

	var (
		parsedABI *abi.ABI
		err       error
	)
	if abiPath == "" {
		parsedABI, err = loadEmbeddedABI(contractName)
	} else {
		filePath := fmt.Sprintf("%s/%s.json", abiPath, contractName)
		s, _ := filepath.Abs(filePath)
		parsedABI, err = loadABI(s)
	}
	if err != nil {
		return nil, err
	}
	abiCache[key] = parsedABI
	return parsedABI, nil
}

func loadEmbeddedABI(contractName string) (*abi.ABI, error) {
	data, err := contracts.ReadFile("contracts/" + contractName + ".json")
	if err != nil {
		return nil, fmt.Errorf("unknown contract %s: %w", contractName, err)
	}
	parsedABI, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return &parsedABI, nil
}

func loadABI(filePath string) (*abi.ABI, error) {
	abiFile, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer abiFile.Close()

	parsedABI, err := abi.JSON(abiFile)
	if err != nil {
		return nil, err
	}

	return &parsedABI, nil
}
