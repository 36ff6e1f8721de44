package state

import (
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"swaplock/native/htlc"
	"swaplock/storage"
)

func testAddr(fill byte) [20]byte {
	var addr [20]byte
	for i := range addr {
		addr[i] = fill
	}
	return addr
}

func testID(fill byte) [32]byte {
	var id [32]byte
	for i := range id {
		id[i] = fill
	}
	return id
}

func TestPreCommitRoundtrip(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "")

	record := &htlc.PreCommitEscrow{
		ID:        testID(0x01),
		Sender:    testAddr(0x11),
		Receiver:  testAddr(0x12),
		Messenger: testAddr(0x13),
		Asset:     "SWP",
		Route: htlc.Route{
			DstChain:   "otherchain",
			DstAsset:   "OTC",
			DstAddress: "otc1qxy",
			SrcAsset:   "SWP",
			HopChains:  []string{"mid1", "mid2"},
			HopAssets:  []string{"M1", "M2"},
			HopAddrs:   []string{"mid1addr", "mid2addr"},
		},
		Amount:    big.NewInt(12345),
		Timelock:  1_700_000_000,
		CreatedAt: 1_699_999_000,
	}
	require.NoError(t, m.PreCommitPut(record))

	loaded, ok := m.PreCommitGet(record.ID)
	require.True(t, ok)
	require.Equal(t, record.Sender, loaded.Sender)
	require.Equal(t, record.Messenger, loaded.Messenger)
	require.Equal(t, record.Route.HopChains, loaded.Route.HopChains)
	require.Zero(t, record.Amount.Cmp(loaded.Amount))
	require.Equal(t, record.Timelock, loaded.Timelock)
	require.False(t, loaded.Locked)
	require.False(t, loaded.Uncommitted)

	_, ok = m.PreCommitGet(testID(0xFF))
	require.False(t, ok)
}

func TestLockRoundtripAndDelete(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "")

	record := &htlc.LockedEscrow{
		ID:        testID(0x02),
		Sender:    testAddr(0x11),
		Receiver:  testAddr(0x12),
		Asset:     "SWP",
		Hashlock:  testID(0xAB),
		Secret:    []byte{0x01, 0x02},
		Amount:    big.NewInt(777),
		Timelock:  1_700_000_000,
		CreatedAt: 1_699_999_000,
		Redeemed:  true,
	}
	require.NoError(t, m.LockPut(record))

	loaded, ok := m.LockGet(record.ID)
	require.True(t, ok)
	require.Equal(t, record.Hashlock, loaded.Hashlock)
	require.Equal(t, record.Secret, loaded.Secret)
	require.True(t, loaded.Redeemed)
	require.False(t, loaded.Unlocked)

	require.NoError(t, m.LockDelete(record.ID))
	_, ok = m.LockGet(record.ID)
	require.False(t, ok)
}

func TestLockPutRejectsInvalidRecords(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "")

	noHashlock := &htlc.LockedEscrow{
		ID:     testID(0x03),
		Amount: big.NewInt(1),
	}
	require.ErrorIs(t, m.LockPut(noHashlock), htlc.ErrHashlockNotSet)

	bothTerminal := &htlc.LockedEscrow{
		ID:       testID(0x04),
		Hashlock: testID(0xAB),
		Amount:   big.NewInt(1),
		Redeemed: true,
		Unlocked: true,
	}
	require.ErrorIs(t, m.LockPut(bothTerminal), htlc.ErrInvalidState)
}

func TestCommitToLockMapping(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "")

	commitID := testID(0x05)
	lockID := testID(0x06)
	require.NoError(t, m.CommitToLockPut(commitID, lockID))

	got, ok := m.CommitToLockGet(commitID)
	require.True(t, ok)
	require.Equal(t, lockID, got)

	_, ok = m.CommitToLockGet(testID(0xFE))
	require.False(t, ok)
}

func TestCustodyLifecycleNative(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "SWP")
	payer := testAddr(0x21)
	payee := testAddr(0x22)
	id := testID(0x07)

	require.NoError(t, m.Mint("SWP", payer, big.NewInt(1000)))

	require.NoError(t, m.CustodyDeposit(htlc.CustodyCommit, id, "SWP", payer, big.NewInt(600)))
	balance, err := m.Balance("SWP", payer)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(400)))
	held, err := m.CustodyBalance(htlc.CustodyCommit, id, "SWP")
	require.NoError(t, err)
	require.Zero(t, held.Cmp(big.NewInt(600)))

	require.ErrorIs(t, m.CustodyDeposit(htlc.CustodyCommit, id, "SWP", payer, big.NewInt(500)), htlc.ErrInsufficientFunds)

	require.NoError(t, m.CustodyWithdraw(htlc.CustodyCommit, id, "SWP", payee, big.NewInt(600)))
	balance, err = m.Balance("SWP", payee)
	require.NoError(t, err)
	require.Zero(t, balance.Cmp(big.NewInt(600)))

	// draining custody reclaims the account record entirely
	account, err := m.GetAccount(CustodyAddress(htlc.CustodyCommit, id))
	require.NoError(t, err)
	require.Zero(t, account.Balance.Sign())

	require.ErrorIs(t, m.CustodyWithdraw(htlc.CustodyCommit, id, "SWP", payee, big.NewInt(1)), htlc.ErrInsufficientFunds)
}

func TestCustodyMoveToken(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "SWP")
	require.NoError(t, m.RegisterToken("USDQ"))
	payer := testAddr(0x23)
	fromID := testID(0x08)
	toID := testID(0x09)

	require.NoError(t, m.Mint("USDQ", payer, big.NewInt(50)))
	require.NoError(t, m.CustodyDeposit(htlc.CustodyCommit, fromID, "USDQ", payer, big.NewInt(50)))
	require.NoError(t, m.CustodyMove(htlc.CustodyCommit, fromID, htlc.CustodyLock, toID, "USDQ", big.NewInt(50)))

	held, err := m.CustodyBalance(htlc.CustodyLock, toID, "USDQ")
	require.NoError(t, err)
	require.Zero(t, held.Cmp(big.NewInt(50)))
	drained, err := m.CustodyBalance(htlc.CustodyCommit, fromID, "USDQ")
	require.NoError(t, err)
	require.Zero(t, drained.Sign())
}

func TestUnknownAssetRejected(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "SWP")
	id := testID(0x0A)
	err := m.CustodyDeposit(htlc.CustodyCommit, id, "NOPE", testAddr(0x24), big.NewInt(1))
	require.ErrorIs(t, err, htlc.ErrInvalidAsset)
	_, err = m.Balance("NOPE", testAddr(0x24))
	require.ErrorIs(t, err, htlc.ErrInvalidAsset)
}

func TestRegisterTokenValidation(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "SWP")
	require.Error(t, m.RegisterToken(""))
	require.Error(t, m.RegisterToken("SWP"))
	require.NoError(t, m.RegisterToken("USDQ"))
	require.Error(t, m.RegisterToken("USDQ"))
}

func TestCustodyAddressDerivation(t *testing.T) {
	a := CustodyAddress(htlc.CustodyCommit, testID(0x0B))
	b := CustodyAddress(htlc.CustodyCommit, testID(0x0B))
	c := CustodyAddress(htlc.CustodyCommit, testID(0x0C))
	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.NotEqual(t, [20]byte{}, a)

	// the same id holds distinct custody per record kind
	d := CustodyAddress(htlc.CustodyLock, testID(0x0B))
	require.NotEqual(t, a, d)
}

func TestLockIDSerializes(t *testing.T) {
	m := NewManager(storage.NewMemDB(), "SWP")
	id := testID(0x0D)

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := m.LockID(id)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()
	require.Equal(t, 32, counter)
}
