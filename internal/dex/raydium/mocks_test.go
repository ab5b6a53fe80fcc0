// internal/dex/raydium/mocks_test.go
package raydium

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockClient реализует blockchain.Client на testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	args := m.Called(ctx, account)
	res, _ := args.Get(0).(*rpc.GetTokenAccountBalanceResult)
	return res, args.Error(1)
}

func (m *MockClient) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	args := m.Called(ctx, pubkey, commitment)
	return args.Get(0).(uint64), args.Error(1)
}

func (m *MockClient) GetRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]rpc.PriorizationFeeResult, error) {
	args := m.Called(ctx, accounts)
	res, _ := args.Get(0).([]rpc.PriorizationFeeResult)
	return res, args.Error(1)
}

func (m *MockClient) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	args := m.Called(ctx)
	return args.Get(0).(solana.Hash), args.Error(1)
}

func (m *MockClient) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	args := m.Called(ctx, tx)
	return args.Get(0).(solana.Signature), args.Error(1)
}

func (m *MockClient) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	args := m.Called(ctx, signatures)
	res, _ := args.Get(0).(*rpc.GetSignatureStatusesResult)
	return res, args.Error(1)
}

func (m *MockClient) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	args := m.Called(ctx, signature, commitment)
	return args.Error(0)
}

// testSigner подписывает транзакции случайным ключом.
type testSigner struct {
	key solana.PrivateKey
}

func newTestSigner() *testSigner {
	return &testSigner{key: solana.NewWallet().PrivateKey}
}

func (s *testSigner) PublicKey() solana.PublicKey { return s.key.PublicKey() }

func (s *testSigner) SignTransaction(tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.key.PublicKey()) {
			return &s.key
		}
		return nil
	})
	return err
}

func newTestKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// newTestPool создает пул со случайными, но корректными адресами.
func newTestPool() *PoolMetadata {
	return &PoolMetadata{
		AmmID:            newTestKey().String(),
		AmmAuthority:     newTestKey().String(),
		AmmOpenOrders:    newTestKey().String(),
		TokenVault:       newTestKey().String(),
		SolVault:         newTestKey().String(),
		MarketProgramID:  newTestKey().String(),
		MarketID:         newTestKey().String(),
		MarketBids:       newTestKey().String(),
		MarketAsks:       newTestKey().String(),
		MarketEventQueue: newTestKey().String(),
		MarketBaseVault:  newTestKey().String(),
		MarketQuoteVault: newTestKey().String(),
		MarketAuthority:  newTestKey().String(),
	}
}

// NewTestDEX создает DEX с моком клиента для тестирования.
func NewTestDEX(t *testing.T, client *MockClient, signer Signer, opts Options) *DEX {
	t.Helper()

	if opts.MinBuyAmount.IsZero() {
		opts.MinBuyAmount = decimal.RequireFromString("0.1")
	}

	dex, err := NewDEX(client, func() (Signer, error) { return signer, nil }, opts, zap.NewNop())
	require.NoError(t, err)
	return dex
}
