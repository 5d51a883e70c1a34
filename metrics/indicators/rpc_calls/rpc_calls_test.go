package rpccalls

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRPCCallsIndicators(t *testing.T) {
	reg := prometheus.NewRegistry()
	rpcCalls := NewPromIndicators("localbot", reg)

	rpcCalls.AddRPCRequestTotal("eth_call", "ok")
	rpcCalls.AddRPCRequestTotal("eth_call", "ok")
	rpcCalls.AddRPCRequestTotal("eth_call", "error")
	assert.Equal(
		t,
		2.0,
		testutil.ToFloat64(rpcCalls.rpcRequestTotal.WithLabelValues("eth_call", "ok")),
	)
	assert.Equal(
		t,
		1.0,
		testutil.ToFloat64(rpcCalls.rpcRequestTotal.WithLabelValues("eth_call", "error")),
	)
}
