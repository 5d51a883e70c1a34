package dispute

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	sdktypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/require"

	"github.com/AngleProtocol/merkl-dispute-sub000/chainio/types"
	"github.com/AngleProtocol/merkl-dispute-sub000/provider"
	"github.com/AngleProtocol/merkl-dispute-sub000/reward"
)

const (
	campaignC = "0xc100000000000000000000000000000000000000000000000000000000000001"
	holderH   = "0x1000000000000000000000000000000000000001"
	holderK   = "0x2000000000000000000000000000000000000002"
	tokenA    = "0xa0000000000000000000000000000000000000aa"
	poolP     = "0x8db1b906d47dfc1d84a87fc49bd0522e285b98b9"
)

var (
	agEUR   = common.HexToAddress("0x1a7e4e63778B4f12a199C062f3eFdD288afCBce8")
	errDown = errors.New("rpc unavailable")
)

func bi(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad big int " + s)
	}
	return v
}

type holding struct {
	campaign string
	holder   string
	amount   string
}

// snapshotOf encodes holdings in the published wire format and returns the
// document along with its root.
func snapshotOf(t testing.TB, epoch uint32, holdings ...holding) ([]byte, string) {
	t.Helper()
	s := reward.Snapshot{LastUpdateEpoch: epoch, Rewards: make(map[string]reward.SnapshotReward)}
	for _, h := range holdings {
		r, ok := s.Rewards[h.campaign]
		if !ok {
			r = reward.SnapshotReward{
				Pool:            poolP,
				Token:           tokenA,
				TokenSymbol:     "agEUR",
				TokenDecimals:   18,
				LastUpdateEpoch: epoch,
				Holders:         make(map[string]reward.SnapshotHolder),
			}
		}
		r.Holders[h.holder] = reward.SnapshotHolder{Amount: h.amount}
		s.Rewards[h.campaign] = r
	}
	data, err := json.Marshal(s)
	require.NoError(t, err)

	tree, err := reward.ParseTree(data)
	require.NoError(t, err)
	return data, tree.RootHex()
}

type fakeOnChain struct {
	mu sync.Mutex

	latest    uint64
	blockTime uint64
	params    provider.OnChainParams
	campaigns []reward.CampaignInfo
	claimed   reward.Claimed
	errs      map[string]error
	calls     map[string]int
	blocks    []*big.Int
	disputes  []string
}

func newFakeOnChain() *fakeOnChain {
	return &fakeOnChain{
		latest:    200,
		blockTime: 1_700_000_000,
		claimed:   make(reward.Claimed),
		errs:      make(map[string]error),
		calls:     make(map[string]int),
	}
}

func (f *fakeOnChain) hit(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.errs[op]
}

func (f *fakeOnChain) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeOnChain) FetchLatestBlockNumber(context.Context) (uint64, error) {
	return f.latest, f.hit("latest")
}

func (f *fakeOnChain) FetchOnChainParams(_ context.Context, block *big.Int) (provider.OnChainParams, error) {
	f.mu.Lock()
	f.blocks = append(f.blocks, block)
	f.mu.Unlock()
	if err := f.hit("params"); err != nil {
		return provider.OnChainParams{}, err
	}
	return f.params, nil
}

func (f *fakeOnChain) FetchTimestampAt(context.Context, uint64) (uint64, error) {
	return f.blockTime, f.hit("timestamp")
}

func (f *fakeOnChain) FetchActiveDistributions(context.Context, *big.Int) ([]reward.CampaignInfo, error) {
	if err := f.hit("distributions"); err != nil {
		return nil, err
	}
	return f.campaigns, nil
}

func (f *fakeOnChain) FetchClaimed(context.Context, reward.HolderDetails) (reward.Claimed, error) {
	if err := f.hit("claimed"); err != nil {
		return nil, err
	}
	return f.claimed, nil
}

func (f *fakeOnChain) FetchPoolName(context.Context, string, string) (string, error) {
	if err := f.hit("pool"); err != nil {
		return provider.PoolPlaceholder, nil
	}
	return "UniswapV3 agEUR-USDC-0.05%", nil
}

func (f *fakeOnChain) SendApproveTxn(context.Context, types.ETHWallet, common.Address, *big.Int, types.TxOverrides) (*sdktypes.Receipt, error) {
	if err := f.hit("approve"); err != nil {
		return nil, err
	}
	return &sdktypes.Receipt{TxHash: common.Hash{0xaa}}, nil
}

func (f *fakeOnChain) SendDisputeTxn(_ context.Context, _ types.ETHWallet, reason string, _ types.TxOverrides) (*sdktypes.Receipt, error) {
	if err := f.hit("dispute"); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.disputes = append(f.disputes, reason)
	f.mu.Unlock()
	return &sdktypes.Receipt{TxHash: common.Hash{0xdd}}, nil
}

type fakeRoots struct {
	mu     sync.Mutex
	epochs map[string]uint32
	trees  map[uint32][]byte
	err    error
	calls  int
}

func (f *fakeRoots) FetchEpochFor(_ context.Context, root string) (uint32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	epoch, ok := f.epochs[root]
	if !ok {
		return 0, fmt.Errorf("%w: %s", provider.ErrRootNotFound, root)
	}
	return epoch, nil
}

func (f *fakeRoots) FetchTreeFor(_ context.Context, epoch uint32) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	data, ok := f.trees[epoch]
	if !ok {
		return nil, fmt.Errorf("%w: rewards_%d.json", provider.ErrUnexpectedStatus, epoch)
	}
	return data, nil
}

type fakeSigner struct {
	err   error
	calls int
}

func (f *fakeSigner) CreateSigner(context.Context) (types.ETHWallet, error) {
	f.calls++
	if f.err != nil {
		return types.ETHWallet{}, f.err
	}
	return types.ETHWallet{FromAddr: common.HexToAddress(holderK)}, nil
}

type recordingReporter struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingReporter) add(e string) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

func (r *recordingReporter) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recordingReporter) Context(context.Context, *Report)       { r.add("context") }
func (r *recordingReporter) OnChainParams(context.Context, *Report) { r.add("params") }
func (r *recordingReporter) ComputedRoots(context.Context, *Report) { r.add("roots") }

func (r *recordingReporter) Error(_ context.Context, _ *Report, v Violation) {
	r.add("error:" + string(v.Code))
}

func (r *recordingReporter) Success(context.Context, *Report, Clean) { r.add("success") }

func (r *recordingReporter) DisputeError(_ context.Context, _ *Report, v Violation) {
	r.add("disputeError:" + string(v.Code))
}

func (r *recordingReporter) DisputeSuccess(context.Context, *Report) { r.add("disputeSuccess") }

type fakeIndicators struct {
	mu       sync.Mutex
	steps    []string
	outcomes map[string]int
	disputes map[string]int
	lastRun  int64
}

func newFakeIndicators() *fakeIndicators {
	return &fakeIndicators{outcomes: make(map[string]int), disputes: make(map[string]int)}
}

func (f *fakeIndicators) ObserveStepDurationSeconds(step string, _ float64) {
	f.mu.Lock()
	f.steps = append(f.steps, step)
	f.mu.Unlock()
}

func (f *fakeIndicators) IncrementOutcome(kind, code string) {
	f.mu.Lock()
	f.outcomes[kind+"/"+code]++
	f.mu.Unlock()
}

func (f *fakeIndicators) IncrementDisputes(state string) {
	f.mu.Lock()
	f.disputes[state]++
	f.mu.Unlock()
}

func (f *fakeIndicators) SetLastRunTimestamp(unixSeconds int64) {
	f.mu.Lock()
	f.lastRun = unixSeconds
	f.mu.Unlock()
}
