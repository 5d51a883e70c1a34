package reward

import (
	"bytes"
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/wealdtech/go-merkletree/v2/keccak256"
)

// Hasher hashes the concatenation of its inputs.
type Hasher interface {
	Hash(data ...[]byte) []byte
}

var defaultHasher Hasher = keccak256.New()

type aggKey struct {
	recipient string
	token     string
}

// merkleTree keeps every layer; layers[0] holds the leaf hashes in ascending
// order and the last layer holds the root.
type merkleTree struct {
	layers [][]common.Hash
	index  map[aggKey]int
	hasher Hasher
}

// LeafHash is keccak256(abi.encodePacked(recipient, token, uint256(amount))).
func LeafHash(recipient, token common.Address, amount *big.Int) common.Hash {
	packed := make([]byte, 0, common.AddressLength*2+32)
	packed = append(packed, recipient.Bytes()...)
	packed = append(packed, token.Bytes()...)
	packed = append(packed, math.U256Bytes(new(big.Int).Set(amount))...)
	return crypto.Keccak256Hash(packed)
}

func hashPair(h Hasher, a, b common.Hash) common.Hash {
	if bytes.Compare(a[:], b[:]) > 0 {
		a, b = b, a
	}
	return common.BytesToHash(h.Hash(a[:], b[:]))
}

func buildMerkle(agg map[aggKey]*big.Int, h Hasher) *merkleTree {
	type entry struct {
		key  aggKey
		hash common.Hash
	}
	entries := make([]entry, 0, len(agg))
	for key, amount := range agg {
		// dust never reaches the tree
		if amount.Sign() <= 0 {
			continue
		}
		hash := LeafHash(common.HexToAddress(key.recipient), common.HexToAddress(key.token), amount)
		entries = append(entries, entry{key: key, hash: hash})
	}
	sort.Slice(entries, func(i, j int) bool {
		return bytes.Compare(entries[i].hash[:], entries[j].hash[:]) < 0
	})

	m := &merkleTree{index: make(map[aggKey]int, len(entries)), hasher: h}
	level := make([]common.Hash, len(entries))
	for i, e := range entries {
		level[i] = e.hash
		m.index[e.key] = i
	}
	m.layers = append(m.layers, level)

	for len(level) > 1 {
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				// odd node is promoted as is
				next = append(next, level[i])
				continue
			}
			next = append(next, hashPair(h, level[i], level[i+1]))
		}
		m.layers = append(m.layers, next)
		level = next
	}
	return m
}

func (m *merkleTree) root() common.Hash {
	top := m.layers[len(m.layers)-1]
	if len(top) == 0 {
		return common.Hash{}
	}
	return top[0]
}

func (m *merkleTree) proof(idx int) []common.Hash {
	proof := make([]common.Hash, 0, len(m.layers))
	for _, layer := range m.layers[:len(m.layers)-1] {
		sibling := idx ^ 1
		if sibling < len(layer) {
			proof = append(proof, layer[sibling])
		}
		idx /= 2
	}
	return proof
}

// VerifyProof folds proof into leaf with sorted pair hashing and compares the
// result with root.
func VerifyProof(root, leaf common.Hash, proof []common.Hash) bool {
	h := leaf
	for _, p := range proof {
		h = hashPair(defaultHasher, h, p)
	}
	return h == root
}
