package reward

import (
	"fmt"
	"math/big"
	"slices"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Tree is the leaf set of one epoch snapshot. Leaves are kept in
// (campaign, recipient, reason) order once sorted; the aggregation and the
// merkle layers are derived lazily and dropped whenever leaves change.
type Tree struct {
	Epoch uint32

	leaves []Leaf
	sorted bool
	agg    map[aggKey]*big.Int
	merkle *merkleTree
	hasher Hasher
}

// CampaignRange is the slice of sorted leaves that belong to one campaign.
type CampaignRange struct {
	First            int
	Last             int
	Total            *big.Int
	MaxLastProcessed int64
}

func NewTree(epoch uint32, leaves []Leaf) *Tree {
	t := &Tree{Epoch: epoch, hasher: defaultHasher}
	t.Add(leaves...)
	return t
}

func (t *Tree) Add(leaves ...Leaf) {
	t.leaves = append(t.leaves, leaves...)
	t.sorted = len(t.leaves) <= 1
	t.agg = nil
	t.merkle = nil
}

func (t *Tree) Len() int {
	return len(t.leaves)
}

// Leaves exposes the backing slice; callers must not modify it.
func (t *Tree) Leaves() []Leaf {
	t.Sort()
	return t.leaves
}

func (t *Tree) Leaf(i int) Leaf {
	t.Sort()
	return t.leaves[i]
}

// Sort is stable and idempotent.
func (t *Tree) Sort() {
	if t.sorted {
		return
	}
	slices.SortStableFunc(t.leaves, Compare)
	t.sorted = true
}

// CheckUnique fails with ErrDuplicateLeaf when two leaves share a key.
func (t *Tree) CheckUnique() error {
	t.Sort()
	for i := 1; i < len(t.leaves); i++ {
		if Compare(t.leaves[i-1], t.leaves[i]) == 0 {
			return fmt.Errorf("%w: %s at index %d", ErrDuplicateLeaf, t.leaves[i].Key(), i)
		}
	}
	return nil
}

// Build aggregates leaves by (recipient, token) and rebuilds the merkle
// layers over the positive aggregates. An aggregate above MaxAmount would be
// truncated by the leaf encoding and fails with ErrAmountOverflow.
func (t *Tree) Build() error {
	t.build()
	for key, amount := range t.agg {
		if amount.Cmp(MaxAmount) > 0 {
			return fmt.Errorf("%w: recipient %s token %s amount %s", ErrAmountOverflow, key.recipient, key.token, amount)
		}
	}
	return nil
}

func (t *Tree) build() {
	t.Sort()
	agg := make(map[aggKey]*big.Int)
	for _, l := range t.leaves {
		key := aggKey{recipient: l.Recipient, token: l.RewardToken}
		sum, ok := agg[key]
		if !ok {
			sum = new(big.Int)
			agg[key] = sum
		}
		sum.Add(sum, amountOf(l))
	}
	if t.hasher == nil {
		t.hasher = defaultHasher
	}
	t.agg = agg
	t.merkle = buildMerkle(agg, t.hasher)
}

func (t *Tree) ensureBuilt() {
	if t.merkle == nil {
		t.build()
	}
}

func (t *Tree) Root() common.Hash {
	t.ensureBuilt()
	return t.merkle.root()
}

// RootHex is the lowercase 0x form of Root.
func (t *Tree) RootHex() string {
	return strings.ToLower(t.Root().Hex())
}

// LeafHashFor returns the merkle leaf of (recipient, token) and its amount.
func (t *Tree) LeafHashFor(recipient, token string) (common.Hash, *big.Int, error) {
	t.ensureBuilt()
	key, err := canonicalAggKey(recipient, token)
	if err != nil {
		return common.Hash{}, nil, err
	}
	idx, ok := t.merkle.index[key]
	if !ok {
		return common.Hash{}, nil, fmt.Errorf("%w: %s %s", ErrUnknownLeaf, recipient, token)
	}
	return t.merkle.layers[0][idx], new(big.Int).Set(t.agg[key]), nil
}

func (t *Tree) Proof(recipient, token string) ([]common.Hash, error) {
	t.ensureBuilt()
	key, err := canonicalAggKey(recipient, token)
	if err != nil {
		return nil, err
	}
	idx, ok := t.merkle.index[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s %s", ErrUnknownLeaf, recipient, token)
	}
	return t.merkle.proof(idx), nil
}

// FindIndex binary searches the sorted leaves. A second leaf with the same key
// is reported as ErrDuplicateLeaf together with the first index.
func (t *Tree) FindIndex(campaignID, recipient, reason string) (int, bool, error) {
	t.Sort()
	campaignID = strings.ToLower(campaignID)
	recipient = strings.ToLower(recipient)
	n := len(t.leaves)
	i := sort.Search(n, func(i int) bool {
		l := t.leaves[i]
		return compareKey(l.CampaignID, l.Recipient, l.Reason, campaignID, recipient, reason) >= 0
	})
	if i == n || compareKey(t.leaves[i].CampaignID, t.leaves[i].Recipient, t.leaves[i].Reason, campaignID, recipient, reason) != 0 {
		return -1, false, nil
	}
	if i+1 < n && Compare(t.leaves[i], t.leaves[i+1]) == 0 {
		return i, true, fmt.Errorf("%w: %s at index %d", ErrDuplicateLeaf, t.leaves[i].Key(), i+1)
	}
	return i, true, nil
}

// CampaignInfo scans the index range of a campaign. An absent campaign
// yields {-1, -1, 0, 0}.
func (t *Tree) CampaignInfo(campaignID string) CampaignRange {
	t.Sort()
	campaignID = strings.ToLower(campaignID)
	n := len(t.leaves)
	first := sort.Search(n, func(i int) bool { return t.leaves[i].CampaignID >= campaignID })
	if first == n || t.leaves[first].CampaignID != campaignID {
		return CampaignRange{First: -1, Last: -1, Total: new(big.Int)}
	}
	end := sort.Search(n, func(i int) bool { return t.leaves[i].CampaignID > campaignID })

	r := CampaignRange{First: first, Last: end - 1, Total: new(big.Int)}
	for _, l := range t.leaves[first:end] {
		r.Total.Add(r.Total, amountOf(l))
		if l.LastProcessedTimestamp > r.MaxLastProcessed {
			r.MaxLastProcessed = l.LastProcessedTimestamp
		}
	}
	return r
}

// CampaignIDs lists distinct campaigns in sorted order.
func (t *Tree) CampaignIDs() []string {
	t.Sort()
	var ids []string
	for _, l := range t.leaves {
		if len(ids) == 0 || ids[len(ids)-1] != l.CampaignID {
			ids = append(ids, l.CampaignID)
		}
	}
	return ids
}

// Aggregation returns a copy of holder -> token -> cumulative amount,
// including non-positive sums.
func (t *Tree) Aggregation() map[string]map[string]*big.Int {
	t.ensureBuilt()
	out := make(map[string]map[string]*big.Int)
	for key, amount := range t.agg {
		byToken, ok := out[key.recipient]
		if !ok {
			byToken = make(map[string]*big.Int)
			out[key.recipient] = byToken
		}
		byToken[key.token] = new(big.Int).Set(amount)
	}
	return out
}

// MerkleLeafCount is the number of positive (recipient, token) aggregates.
func (t *Tree) MerkleLeafCount() int {
	t.ensureBuilt()
	return len(t.merkle.layers[0])
}

func canonicalAggKey(recipient, token string) (aggKey, error) {
	r, err := CanonicalAddress(recipient)
	if err != nil {
		return aggKey{}, err
	}
	tok, err := CanonicalAddress(token)
	if err != nil {
		return aggKey{}, err
	}
	return aggKey{recipient: r, token: tok}, nil
}
