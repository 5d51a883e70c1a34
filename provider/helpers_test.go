package provider_test

import (
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/rpctest"
)

type abiHandle struct {
	server *rpctest.Server
	parsed *abi.ABI
}

func (h *abiHandle) returns(addr common.Address, method string, values ...interface{}) {
	h.server.Returns(addr, h.parsed, method, values...)
}

func (h *abiHandle) handle(addr common.Address, method string, fn rpctest.Handler) {
	h.server.Handle(addr, h.parsed, method, fn)
}
