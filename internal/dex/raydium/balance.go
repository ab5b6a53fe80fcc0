// internal/dex/raydium/balance.go
package raydium

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// LamportsPerSOL количество лампортов в одном SOL.
const LamportsPerSOL = solana.LAMPORTS_PER_SOL

var errAccountNotFound = errors.New("token account not found")

// TokenBalance баланс SPL-токен-аккаунта.
type TokenBalance struct {
	Amount   uint64
	Decimals uint8
	UIAmount string
}

// BalanceSnapshot нативный баланс владельца и балансы его токен-аккаунтов.
type BalanceSnapshot struct {
	Owner    solana.PublicKey
	Lamports uint64
	Tokens   map[solana.PublicKey]*TokenBalance
}

// SOL возвращает нативный баланс в SOL.
func (s *BalanceSnapshot) SOL() string {
	return decimal.NewFromUint64(s.Lamports).Shift(-9).String()
}

// BalanceOracle читает балансы через RPC.
type BalanceOracle struct {
	client     blockchain.Client
	logger     *zap.Logger
	commitment rpc.CommitmentType
}

// NewBalanceOracle создаёт BalanceOracle.
func NewBalanceOracle(client blockchain.Client, logger *zap.Logger, commitment rpc.CommitmentType) *BalanceOracle {
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	return &BalanceOracle{
		client:     client,
		logger:     logger.Named("balance-oracle"),
		commitment: commitment,
	}
}

// GetTokenBalance возвращает баланс токен-аккаунта.
func (o *BalanceOracle) GetTokenBalance(ctx context.Context, account solana.PublicKey) (*TokenBalance, error) {
	res, err := o.client.GetTokenAccountBalance(ctx, account)
	if err != nil {
		return nil, &BalanceQueryError{Account: account.String(), Err: err}
	}
	if res == nil || res.Value == nil {
		return nil, &BalanceQueryError{Account: account.String(), Err: errAccountNotFound}
	}

	amount, err := decimal.NewFromString(res.Value.Amount)
	if err != nil || amount.IsNegative() || amount.GreaterThan(maxUint64) {
		return nil, &BalanceQueryError{
			Account: account.String(),
			Err:     fmt.Errorf("unexpected token amount %q", res.Value.Amount),
		}
	}

	balance := &TokenBalance{
		Amount:   amount.BigInt().Uint64(),
		Decimals: res.Value.Decimals,
		UIAmount: amount.Shift(-int32(res.Value.Decimals)).String(),
	}

	o.logger.Debug("Token balance fetched",
		zap.String("account", account.String()),
		zap.Uint64("amount", balance.Amount),
		zap.Uint8("decimals", balance.Decimals))

	return balance, nil
}

// GetNativeBalance возвращает баланс владельца в лампортах.
func (o *BalanceOracle) GetNativeBalance(ctx context.Context, owner solana.PublicKey) (uint64, error) {
	lamports, err := o.client.GetBalance(ctx, owner, o.commitment)
	if err != nil {
		return 0, &BalanceQueryError{Account: owner.String(), Err: err}
	}
	return lamports, nil
}

// Snapshot параллельно запрашивает нативный баланс и балансы перечисленных токен-аккаунтов.
// Первая ошибка отменяет остальные запросы.
func (o *BalanceOracle) Snapshot(ctx context.Context, owner solana.PublicKey, accounts ...solana.PublicKey) (*BalanceSnapshot, error) {
	g, gctx := errgroup.WithContext(ctx)

	var lamports uint64
	g.Go(func() error {
		var err error
		lamports, err = o.GetNativeBalance(gctx, owner)
		return err
	})

	balances := make([]*TokenBalance, len(accounts))
	for i, account := range accounts {
		g.Go(func() error {
			b, err := o.GetTokenBalance(gctx, account)
			if err != nil {
				return err
			}
			balances[i] = b
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snapshot := &BalanceSnapshot{
		Owner:    owner,
		Lamports: lamports,
		Tokens:   make(map[solana.PublicKey]*TokenBalance, len(accounts)),
	}
	for i, account := range accounts {
		snapshot.Tokens[account] = balances[i]
	}
	return snapshot, nil
}
