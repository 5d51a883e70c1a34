// Package rpctest serves a minimal in-memory json-rpc node for chainio tests.
package rpctest

import (
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
)

// Handler answers an eth_call with the method outputs.
type Handler func(args []interface{}) ([]interface{}, error)

type contract struct {
	abi      *abi.ABI
	handlers map[string]Handler
}

type Server struct {
	*httptest.Server

	mu            sync.Mutex
	chainID       uint64
	blockNumber   uint64
	blockTime     uint64
	receiptStatus uint64
	contracts     map[common.Address]*contract
	callBlocks    []string
	sent          []*sdktypes.Transaction
}

func NewServer() *Server {
	s := &Server{
		chainID:       1,
		blockNumber:   100,
		blockTime:     1_700_000_000,
		receiptStatus: sdktypes.ReceiptStatusSuccessful,
		contracts:     make(map[common.Address]*contract),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

func (s *Server) SetChainID(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chainID = id
}

// SetBlock sets the latest block and its timestamp.
func (s *Server) SetBlock(number, timestamp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blockNumber = number
	s.blockTime = timestamp
}

// SetReceiptStatus sets the status of every receipt served from now on.
func (s *Server) SetReceiptStatus(status uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiptStatus = status
}

// Handle registers fn for method on the contract at addr.
func (s *Server) Handle(addr common.Address, contractABI *abi.ABI, method string, fn Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[addr]
	if !ok {
		c = &contract{abi: contractABI, handlers: make(map[string]Handler)}
		s.contracts[addr] = c
	}
	c.handlers[method] = fn
}

// Returns registers constant outputs for method.
func (s *Server) Returns(addr common.Address, contractABI *abi.ABI, method string, values ...interface{}) {
	s.Handle(addr, contractABI, method, func([]interface{}) ([]interface{}, error) {
		return values, nil
	})
}

// CallBlocks lists the block tag of every eth_call.
func (s *Server) CallBlocks() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.callBlocks...)
}

func (s *Server) Sent() []*sdktypes.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*sdktypes.Transaction(nil), s.sent...)
}

type request struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result"`
	Error   *rpcError       `json:"error,omitempty"`
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	result, err := s.dispatch(req)
	resp := response{JSONRPC: "2.0", ID: req.ID, Result: result}
	if err != nil {
		resp.Result = nil
		resp.Error = &rpcError{Code: -32000, Message: err.Error()}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) dispatch(req request) (interface{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch req.Method {
	case "eth_chainId":
		return hexutil.Uint64(s.chainID), nil
	case "eth_blockNumber":
		return hexutil.Uint64(s.blockNumber), nil
	case "eth_getBlockByNumber":
		return s.header(), nil
	case "eth_call":
		return s.call(req.Params)
	case "eth_getTransactionCount":
		return hexutil.Uint64(uint64(len(s.sent))), nil
	case "eth_maxPriorityFeePerGas":
		return (*hexutil.Big)(big.NewInt(1)), nil
	case "eth_estimateGas":
		return hexutil.Uint64(50_000), nil
	case "eth_sendRawTransaction":
		var raw hexutil.Bytes
		if err := json.Unmarshal(req.Params[0], &raw); err != nil {
			return nil, err
		}
		tx := new(sdktypes.Transaction)
		if err := tx.UnmarshalBinary(raw); err != nil {
			return nil, err
		}
		s.sent = append(s.sent, tx)
		return tx.Hash(), nil
	case "eth_getTransactionReceipt":
		var hash common.Hash
		if err := json.Unmarshal(req.Params[0], &hash); err != nil {
			return nil, err
		}
		return s.receipt(hash), nil
	}
	return nil, fmt.Errorf("method %s not supported", req.Method)
}

func (s *Server) call(params []json.RawMessage) (interface{}, error) {
	var msg struct {
		To    common.Address `json:"to"`
		Data  hexutil.Bytes  `json:"data"`
		Input hexutil.Bytes  `json:"input"`
	}
	if err := json.Unmarshal(params[0], &msg); err != nil {
		return nil, err
	}
	block := "latest"
	if len(params) > 1 {
		_ = json.Unmarshal(params[1], &block)
	}
	s.callBlocks = append(s.callBlocks, block)

	data := msg.Input
	if len(data) == 0 {
		data = msg.Data
	}
	c, ok := s.contracts[msg.To]
	if !ok || len(data) < 4 {
		return nil, fmt.Errorf("execution reverted: no contract at %s", msg.To.Hex())
	}
	method, err := c.abi.MethodById(data[:4])
	if err != nil {
		return nil, err
	}
	fn, ok := c.handlers[method.Name]
	if !ok {
		return nil, fmt.Errorf("execution reverted: %s not handled", method.Name)
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return nil, err
	}
	out, err := fn(args)
	if err != nil {
		return nil, err
	}
	packed, err := method.Outputs.Pack(out...)
	if err != nil {
		return nil, err
	}
	return hexutil.Bytes(packed), nil
}

var zeroBloom = hexutil.Bytes(make([]byte, sdktypes.BloomByteLength))

func (s *Server) header() map[string]interface{} {
	zero := common.Hash{}
	return map[string]interface{}{
		"parentHash":       zero,
		"sha3Uncles":       zero,
		"miner":            common.Address{},
		"stateRoot":        zero,
		"transactionsRoot": zero,
		"receiptsRoot":     zero,
		"logsBloom":        zeroBloom,
		"difficulty":       "0x0",
		"number":           hexutil.Uint64(s.blockNumber),
		"gasLimit":         "0x1c9c380",
		"gasUsed":          "0x0",
		"timestamp":        hexutil.Uint64(s.blockTime),
		"extraData":        "0x",
		"baseFeePerGas":    "0x64",
	}
}

func (s *Server) receipt(hash common.Hash) interface{} {
	for _, tx := range s.sent {
		if tx.Hash() != hash {
			continue
		}
		return map[string]interface{}{
			"type":              hexutil.Uint64(tx.Type()),
			"status":            hexutil.Uint64(s.receiptStatus),
			"cumulativeGasUsed": "0x5208",
			"gasUsed":           "0x5208",
			"logsBloom":         zeroBloom,
			"logs":              []interface{}{},
			"transactionHash":   hash,
			"blockNumber":       hexutil.Uint64(s.blockNumber),
			"blockHash":         common.Hash{0x01},
			"transactionIndex":  "0x0",
			"contractAddress":   nil,
		}
	}
	return nil
}

// BlockTag formats n the way ethclient sends it.
func BlockTag(n uint64) string {
	return strings.ToLower(hexutil.EncodeUint64(n))
}
