package types

import "math/big"

// MerkleTree is the (root, ipfs hash) pair stored by the distributor.
type MerkleTree struct {
	MerkleRoot [32]byte
	IpfsHash   [32]byte
}

// Claim is the distributor record of what a user already claimed for a token.
type Claim struct {
	Amount     *big.Int
	Timestamp  *big.Int
	MerkleRoot [32]byte
}
