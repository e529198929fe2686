package node

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/myaccount-club/beacon-chain/bls"
	"github.com/myaccount-club/beacon-chain/db"
	"github.com/myaccount-club/beacon-chain/helpers"
	"github.com/myaccount-club/beacon-chain/params"
	"github.com/myaccount-club/beacon-chain/pow"
	"github.com/myaccount-club/beacon-chain/schedulers"
	"github.com/myaccount-club/beacon-chain/types"
)

// The node imports its genesis, the observable state surfaces it and the
// fork choice settles on the genesis head.
func TestNodeStartsFromChainStart(t *testing.T) {
	spec := helpers.New(params.MinimalSpec(), helpers.WithoutBLSVerification())
	credentials := make([]*bls.Credentials, 8)
	for i := range credentials {
		credentials[i] = bls.NewCredentials(bls.NewKeySigner(bls.RandKey()))
	}
	genesisTime := uint64(time.Now().Unix())
	contract := pow.NewSimulatedDepositContract(spec, credentials, genesisTime, types.Hash32{0x01})

	n := New(Config{
		Spec:            spec,
		KV:              db.NewMemoryKV(),
		DepositContract: contract,
		Credentials:     credentials,
		Schedulers:      schedulers.NewRealSchedulers(nil),
	})

	statesSub := n.Processor().StatesStream().Subscribe()

	chainStart := <-contract.ChainStartEvent()
	require.NoError(t, n.Start(chainStart))
	defer n.Stop()

	select {
	case observable := <-statesSub:
		require.NotNil(t, observable.Head)
		require.Equal(t, types.Slot(spec.Spec().GenesisSlot), observable.Head.Slot)
		require.Len(t, observable.LatestSlotState.State.ValidatorRegistry, 8)
	case <-time.After(5 * time.Second):
		t.Fatal("no observable state published after genesis")
	}

	head, err := n.HeadFunction().GetHead()
	require.NoError(t, err)
	require.Equal(t, types.Slot(spec.Spec().GenesisSlot), head.Slot)
}
