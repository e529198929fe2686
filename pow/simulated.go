package pow

import (
	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/types"
)

// SimulatedDepositContract is an in-process DepositContract fed with a
// fixed set of genesis deposits. Used by the emulator and tests.
type SimulatedDepositContract struct {
	spec     *helpers.SpecHelpers
	deposits []DepositInfo
	eth1Data types.Eth1Data
	start    ChainStart
}

// NewSimulatedDepositContract builds a contract whose tree contains one
// max-amount deposit per credential, with valid inclusion proofs and
// proofs of possession.
func NewSimulatedDepositContract(
	spec *helpers.SpecHelpers,
	credentials []*bls.Credentials,
	genesisTime uint64,
	eth1BlockHash types.Hash32,
) *SimulatedDepositContract {
	cfg := spec.Spec()

	datas := make([]types.DepositData, len(credentials))
	for i, c := range credentials {
		pubkey := c.Pubkey()
		withdrawalCredentials := spec.Hash(pubkey[:])
		input := types.DepositInput{
			Pubkey:                c.Pubkey(),
			WithdrawalCredentials: withdrawalCredentials,
		}
		message := types.Hash32(input.SigningRootWith(spec.Hasher()))
		domain := uint64(cfg.GenesisForkVersion)<<32 | params.DomainDeposit
		input.ProofOfPossession = c.Signer().Sign(message, domain)
		datas[i] = types.DepositData{
			Amount:       types.Gwei(cfg.MaxDepositAmount),
			Timestamp:    genesisTime,
			DepositInput: input,
		}
	}

	leaves := make([]types.Hash32, len(datas))
	for i, data := range datas {
		leaves[i] = spec.HashTreeRoot(data)
	}
	tree := newMerkleTree(spec, leaves, cfg.DepositContractTreeDepth)

	deposits := make([]DepositInfo, len(datas))
	eth1Data := types.Eth1Data{DepositRoot: tree.root, BlockHash: eth1BlockHash}
	initial := make([]types.Deposit, len(datas))
	for i, data := range datas {
		deposit := types.Deposit{
			Proof:       tree.branch(uint64(i)),
			Index:       uint64(i),
			DepositData: data,
		}
		initial[i] = deposit
		deposits[i] = DepositInfo{Deposit: deposit, Eth1Data: eth1Data}
	}

	return &SimulatedDepositContract{
		spec:     spec,
		deposits: deposits,
		eth1Data: eth1Data,
		start: ChainStart{
			GenesisTime:     genesisTime,
			Eth1Data:        eth1Data,
			InitialDeposits: initial,
		},
	}
}

// ChainStartEvent implements DepositContract; the simulated chain start is
// available immediately.
func (c *SimulatedDepositContract) ChainStartEvent() <-chan ChainStart {
	ch := make(chan ChainStart, 1)
	ch <- c.start
	return ch
}

// PeekDeposits implements DepositContract. The simulated contract holds a
// single eth1 snapshot, so the from/to bounds are not applied: it returns
// the first maxCount deposits of the tree in index order.
func (c *SimulatedDepositContract) PeekDeposits(maxCount uint64, _, _ types.Eth1Data) []DepositInfo {
	if uint64(len(c.deposits)) < maxCount {
		maxCount = uint64(len(c.deposits))
	}
	return append([]DepositInfo(nil), c.deposits[:maxCount]...)
}

// HasDepositRoot implements DepositContract.
func (c *SimulatedDepositContract) HasDepositRoot(blockHash, depositRoot types.Hash32) bool {
	return c.eth1Data.BlockHash == blockHash && c.eth1Data.DepositRoot == depositRoot
}

// LatestEth1Data implements DepositContract.
func (c *SimulatedDepositContract) LatestEth1Data() (types.Eth1Data, bool) {
	return c.eth1Data, true
}

// merkleTree is a fixed-depth binary tree with zero-subtree defaults.
type merkleTree struct {
	spec   *helpers.SpecHelpers
	depth  uint64
	levels [][]types.Hash32
	zeros  []types.Hash32
	root   types.Hash32
}

func newMerkleTree(spec *helpers.SpecHelpers, leaves []types.Hash32, depth uint64) *merkleTree {
	zeros := make([]types.Hash32, depth+1)
	for i := uint64(1); i <= depth; i++ {
		zeros[i] = hashPair(spec, zeros[i-1], zeros[i-1])
	}

	levels := make([][]types.Hash32, depth+1)
	levels[0] = append([]types.Hash32(nil), leaves...)
	for level := uint64(1); level <= depth; level++ {
		prev := levels[level-1]
		next := make([]types.Hash32, (len(prev)+1)/2)
		for i := range next {
			left := prev[2*i]
			right := zeros[level-1]
			if 2*i+1 < len(prev) {
				right = prev[2*i+1]
			}
			next[i] = hashPair(spec, left, right)
		}
		levels[level] = next
	}

	root := zeros[depth]
	if len(levels[depth]) > 0 {
		root = levels[depth][0]
	}
	return &merkleTree{spec: spec, depth: depth, levels: levels, zeros: zeros, root: root}
}

// branch returns the sibling path for a leaf index, bottom-up.
func (t *merkleTree) branch(index uint64) []types.Hash32 {
	proof := make([]types.Hash32, t.depth)
	for level := uint64(0); level < t.depth; level++ {
		sibling := index ^ 1
		if int(sibling) < len(t.levels[level]) {
			proof[level] = t.levels[level][sibling]
		} else {
			proof[level] = t.zeros[level]
		}
		index >>= 1
	}
	return proof
}

func hashPair(spec *helpers.SpecHelpers, a, b types.Hash32) types.Hash32 {
	buf := make([]byte, 64)
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return spec.Hash(buf)
}
