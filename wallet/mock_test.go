// Copyright (c) 2025 The ethsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wallet

import (
	"context"
	"math/big"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"

	"github.com/ethsuite/ethwallet/chain"
	"github.com/ethsuite/ethwallet/event"
	"github.com/ethsuite/ethwallet/internal/sqltest"
)

var (
	// testWatched is the watched address of the test account.
	testWatched = common.HexToAddress("0x1111111111111111111111111111111111111111")

	// testOther is an unrelated counterparty address.
	testOther = common.HexToAddress("0x2222222222222222222222222222222222222222")

	// testContract is a token contract address.
	testContract = common.HexToAddress("0x3333333333333333333333333333333333333333")

	testBlock = chain.Block{
		Hash:   common.HexToHash("0xb100"),
		Height: 100,
		Time:   time.Unix(1700000000, 0).UTC(),
	}
)

type mockKeychain struct {
	address common.Address
}

func (m *mockKeychain) Address() common.Address {
	return m.address
}

func (m *mockKeychain) RestoreKey() string {
	return "restore-key"
}

var _ Keychain = (*mockKeychain)(nil)

// mockExplorer is a configurable in-memory explorer backend. Function
// fields override the default canned behavior per test.
type mockExplorer struct {
	mu sync.Mutex

	balance      *big.Int
	balanceErr   error
	balanceCalls int

	nonce    uint64
	gasPrice *big.Int

	currentBlock    *chain.Block
	currentBlockErr error

	txs    []chain.Transaction
	txsErr error

	// getTransactionsFunc, when set, replaces the canned
	// GetTransactions behavior.
	getTransactionsFunc func(since common.Hash) ([]chain.Transaction,
		error)

	// txsGate, when set, makes GetTransactions block until the channel
	// is closed, to hold a synchronization pass in flight.
	txsGate chan struct{}

	pushErr   error
	pushedRaw [][]byte
}

var _ chain.Explorer = (*mockExplorer)(nil)

func newMockExplorer() *mockExplorer {
	return &mockExplorer{
		balance:  big.NewInt(1_000_000),
		gasPrice: big.NewInt(10),
		nonce:    7,
	}
}

func (m *mockExplorer) GetBalance(_ context.Context,
	_ []common.Address) (*big.Int, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	m.balanceCalls++
	if m.balanceErr != nil {
		return nil, m.balanceErr
	}
	return new(big.Int).Set(m.balance), nil
}

func (m *mockExplorer) GetCurrentBlock(_ context.Context) (*chain.Block,
	error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.currentBlockErr != nil {
		return nil, m.currentBlockErr
	}
	if m.currentBlock != nil {
		block := *m.currentBlock
		return &block, nil
	}
	block := testBlock
	return &block, nil
}

func (m *mockExplorer) GetTransactions(_ context.Context,
	_ common.Address, since common.Hash) ([]chain.Transaction, error) {

	m.mu.Lock()
	gate := m.txsGate
	m.mu.Unlock()
	if gate != nil {
		<-gate
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.getTransactionsFunc != nil {
		return m.getTransactionsFunc(since)
	}
	if m.txsErr != nil {
		return nil, m.txsErr
	}
	return append([]chain.Transaction(nil), m.txs...), nil
}

func (m *mockExplorer) GetNonce(_ context.Context,
	_ common.Address) (uint64, error) {

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.nonce, nil
}

func (m *mockExplorer) GetGasPrice(_ context.Context) (*big.Int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return new(big.Int).Set(m.gasPrice), nil
}

func (m *mockExplorer) GetEstimatedGasLimit(_ context.Context,
	_ common.Address) (*big.Int, error) {

	return big.NewInt(21000), nil
}

func (m *mockExplorer) GetDryRunGasLimit(_ context.Context,
	_ common.Address, _ chain.CallRequest) (*big.Int, error) {

	return big.NewInt(21000), nil
}

func (m *mockExplorer) GetERC20Balance(_ context.Context, _ common.Address,
	_ common.Address) (*big.Int, error) {

	return big.NewInt(500), nil
}

func (m *mockExplorer) GetERC20Balances(_ context.Context,
	_ common.Address,
	contracts []common.Address) ([]*big.Int, error) {

	balances := make([]*big.Int, len(contracts))
	for i := range balances {
		balances[i] = big.NewInt(500)
	}
	return balances, nil
}

func (m *mockExplorer) PushTransaction(_ context.Context,
	raw []byte) (common.Hash, error) {

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pushErr != nil {
		return common.Hash{}, m.pushErr
	}
	m.pushedRaw = append(m.pushedRaw, append([]byte(nil), raw...))
	return crypto.Keccak256Hash(raw), nil
}

// testAccount creates a wallet with an isolated database and one account
// watching testWatched, with a private bus as sink.
func testAccount(t *testing.T) (*Account, *mockExplorer, *event.Bus) {
	t.Helper()

	ctx := context.Background()
	sink := event.NewBus()
	w, err := New(ctx, Config{
		Name:     "test-wallet",
		Currency: "ethereum",
		DB:       sqltest.NewSQLiteDB(t),
		Sink:     sink,
	})
	require.NoError(t, err)

	explorer := newMockExplorer()
	account, err := w.NewAccount(ctx, 0,
		&mockKeychain{address: testWatched}, explorer)
	require.NoError(t, err)

	return account, explorer, sink
}

// confirmedTx returns a confirmed successful transaction from sender to
// receiver.
func confirmedTx(hash common.Hash, sender, receiver common.Address,
	value int64) chain.Transaction {

	block := testBlock
	return chain.Transaction{
		Hash:       hash,
		Sender:     sender,
		Receiver:   receiver,
		Value:      big.NewInt(value),
		GasPrice:   big.NewInt(2),
		GasLimit:   big.NewInt(21000),
		GasUsed:    big.NewInt(21000),
		Status:     chain.TxStatusSuccess,
		ReceivedAt: block.Time,
		Block:      &block,
	}
}

// waitForTerminal reads events from the bus until a terminal
// synchronization event arrives.
func waitForTerminal(t *testing.T, bus *event.Bus) event.Event {
	t.Helper()

	sub := bus.Subscribe()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case e := <-sub:
			if e.Code == event.SyncSucceeded ||
				e.Code == event.SyncFailed {

				return e
			}
		case <-timeout:
			t.Fatal("no terminal synchronization event")
		}
	}
}

// waitNotSynchronizing waits for the single-flight marker to clear.
func waitNotSynchronizing(t *testing.T, a *Account) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for a.IsSynchronizing() {
		if time.Now().After(deadline) {
			t.Fatal("synchronization never finished")
		}
		time.Sleep(time.Millisecond)
	}
}
