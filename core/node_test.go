package core

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"swaplock/native/htlc"
	"swaplock/storage"
)

func testNode(t *testing.T, rounds int) *Node {
	t.Helper()
	node, err := NewNode(storage.NewMemDB(), NodeConfig{
		ChainName:    "swaplock-test",
		HashRounds:   rounds,
		NativeSymbol: "SWP",
		Tokens:       []string{"USDQ"},
	})
	require.NoError(t, err)
	return node
}

func addr(fill byte) [20]byte {
	var out [20]byte
	for i := range out {
		out[i] = fill
	}
	return out
}

func TestNewNodeRejectsBadHashRounds(t *testing.T) {
	_, err := NewNode(storage.NewMemDB(), NodeConfig{HashRounds: 3})
	require.Error(t, err)
}

func TestSwapFlowOverNode(t *testing.T) {
	node := testNode(t, 2)
	alice := addr(0xA1)
	bob := addr(0xB1)
	messenger := addr(0xC1)

	require.NoError(t, node.State().Mint("SWP", alice, big.NewInt(1000)))

	events, cancel := node.SubscribeEvents(16)
	defer cancel()

	engine := node.Engine()
	require.Equal(t, htlc.SchemeSHA256d, engine.Scheme())

	secret, hashlock, err := htlc.GenerateSecret(engine.Scheme())
	require.NoError(t, err)

	timelock := int64(4_000_000_000)
	commitID := engine.DeriveCommitID(htlc.IDParams{
		Sender:    alice,
		Receiver:  bob,
		Messenger: messenger,
		Asset:     "SWP",
		Amount:    big.NewInt(600),
		Timelock:  timelock,
	})
	_, err = engine.Commit(alice, htlc.CommitParams{
		ID:        commitID,
		Receiver:  bob,
		Messenger: messenger,
		Asset:     "SWP",
		Amount:    big.NewInt(600),
		Timelock:  timelock,
	})
	require.NoError(t, err)

	lockID := engine.DeriveLockID(htlc.IDParams{
		Sender:   alice,
		Receiver: bob,
		Asset:    "SWP",
		Amount:   big.NewInt(600),
		Timelock: timelock,
	})
	_, err = engine.LockCommit(messenger, commitID, lockID, hashlock)
	require.NoError(t, err)

	mapped, err := engine.LockIDByCommitID(commitID)
	require.NoError(t, err)
	require.Equal(t, lockID, mapped)

	_, err = engine.Redeem(bob, lockID, secret)
	require.NoError(t, err)

	balance, err := node.GetBalance("SWP", bob)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(600)))

	wantTypes := []string{htlc.EventTypeCommitted, htlc.EventTypeLocked, htlc.EventTypeRedeemed}
	for _, want := range wantTypes {
		evt := <-events
		require.Equal(t, want, evt.Type)
	}
}

func TestGenesisMarker(t *testing.T) {
	node := testNode(t, 1)
	marker := []byte("genesis/applied")

	applied, err := node.GenesisApplied(marker)
	require.NoError(t, err)
	require.False(t, applied)

	require.NoError(t, node.MarkGenesisApplied(marker))
	applied, err = node.GenesisApplied(marker)
	require.NoError(t, err)
	require.True(t, applied)
}
