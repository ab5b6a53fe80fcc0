// internal/dex/raydium/fee.go
package raydium

import (
	"context"
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"go.uber.org/zap"
)

// DefaultPriorityFee цена за compute unit в микро-лампортах,
// если оценка по сети недоступна.
const DefaultPriorityFee uint64 = 1000

// FeeEstimator оценивает приоритетную комиссию по недавним транзакциям.
type FeeEstimator struct {
	client blockchain.Client
	logger *zap.Logger
}

// NewFeeEstimator создаёт оценщик комиссии.
func NewFeeEstimator(client blockchain.Client, logger *zap.Logger) *FeeEstimator {
	return &FeeEstimator{
		client: client,
		logger: logger.Named("fee-estimator"),
	}
}

// EstimatePriorityFee возвращает последнюю наблюдаемую комиссию, увеличенную на 30%.
// Ошибка не возвращается никогда: при сбое RPC или пустом ответе используется DefaultPriorityFee.
func (f *FeeEstimator) EstimatePriorityFee(ctx context.Context, writable []solana.PublicKey) uint64 {
	fees, err := f.client.GetRecentPrioritizationFees(ctx, writable)
	if err != nil {
		f.logger.Warn("Failed to fetch recent prioritization fees, using default",
			zap.Error(err),
			zap.Uint64("priority_fee", DefaultPriorityFee))
		return DefaultPriorityFee
	}
	if len(fees) == 0 {
		f.logger.Warn("No recent prioritization fees, using default",
			zap.Int("accounts", len(writable)),
			zap.Uint64("priority_fee", DefaultPriorityFee))
		return DefaultPriorityFee
	}

	last := fees[len(fees)-1].PrioritizationFee
	fee := bumpFee(last)

	f.logger.Debug("Priority fee estimated",
		zap.Uint64("last_fee", last),
		zap.Uint64("priority_fee", fee),
		zap.Uint64("slot", fees[len(fees)-1].Slot))

	return fee
}

// bumpFee считает fee + floor(fee*3/10) без переполнения промежуточного произведения.
func bumpFee(fee uint64) uint64 {
	bonus := fee/10*3 + fee%10*3/10
	if fee > math.MaxUint64-bonus {
		return math.MaxUint64
	}
	return fee + bonus
}
