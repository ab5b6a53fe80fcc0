// internal/dex/raydium/swap.go
package raydium

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/gagliardetto/solana-go"
	computebudget "github.com/gagliardetto/solana-go/programs/compute-budget"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RaydiumV4ProgramID адрес программы Raydium AMM v4 в mainnet.
const RaydiumV4ProgramID = "675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8"

// DefaultComputeUnits лимит compute units для транзакции свапа.
const DefaultComputeUnits uint32 = 100_000

// feeReserve резерв в SOL сверх минимальной покупки на оплату комиссий.
var feeReserve = decimal.RequireFromString("0.01")

// Signer владеет ключом плательщика комиссии.
type Signer interface {
	PublicKey() solana.PublicKey
	SignTransaction(tx *solana.Transaction) error
}

// SignerFunc загружает подписанта. Вызывается один раз на каждый свап.
type SignerFunc func() (Signer, error)

// SwapRequest параметры одного свапа.
type SwapRequest struct {
	SourceAccount      string
	DestinationAccount string
	// Сумма в базовых единицах: входящая при SwapBaseIn, иначе исходящая.
	AmountSpecified uint64
	SwapBaseIn      bool
}

// Options настройки DEX.
type Options struct {
	ProgramID solana.PublicKey
	// Минимальная сумма покупки в SOL для проверки платёжеспособности.
	MinBuyAmount   decimal.Decimal
	ComputeUnits   uint32
	Commitment     rpc.CommitmentType
	ConfirmTimeout time.Duration
}

// DEX выполняет свапы через Raydium AMM v4.
// Состояния между вызовами не хранит, поэтому безопасен для параллельного использования.
// Параллельные свапы с одним подписантом никак не согласуются между собой.
type DEX struct {
	client         blockchain.Client
	logger         *zap.Logger
	signer         SignerFunc
	programID      solana.PublicKey
	minBuyAmount   decimal.Decimal
	computeUnits   uint32
	commitment     rpc.CommitmentType
	confirmTimeout time.Duration

	fees     *FeeEstimator
	balances *BalanceOracle
}

// NewDEX создает новый экземпляр Raydium DEX.
func NewDEX(client blockchain.Client, signer SignerFunc, opts Options, logger *zap.Logger) (*DEX, error) {
	switch {
	case client == nil:
		return nil, errors.New("blockchain client is nil")
	case signer == nil:
		return nil, errors.New("signer loader is nil")
	case logger == nil:
		return nil, errors.New("logger is nil")
	case opts.MinBuyAmount.IsNegative():
		return nil, fmt.Errorf("min buy amount must not be negative: %s", opts.MinBuyAmount)
	case opts.ConfirmTimeout < 0:
		return nil, fmt.Errorf("confirm timeout must not be negative: %s", opts.ConfirmTimeout)
	}

	if opts.ProgramID.IsZero() {
		opts.ProgramID = solana.MustPublicKeyFromBase58(RaydiumV4ProgramID)
	}
	if opts.ComputeUnits == 0 {
		opts.ComputeUnits = DefaultComputeUnits
	}
	if opts.Commitment == "" {
		opts.Commitment = rpc.CommitmentConfirmed
	}

	dex := &DEX{
		client:         client,
		logger:         logger.Named("raydium-dex"),
		signer:         signer,
		programID:      opts.ProgramID,
		minBuyAmount:   opts.MinBuyAmount,
		computeUnits:   opts.ComputeUnits,
		commitment:     opts.Commitment,
		confirmTimeout: opts.ConfirmTimeout,
		fees:           NewFeeEstimator(client, logger),
		balances:       NewBalanceOracle(client, logger, opts.Commitment),
	}

	dex.logger.Debug("Raydium DEX instance created",
		zap.String("program_id", dex.programID.String()),
		zap.String("min_buy_amount", dex.minBuyAmount.String()),
		zap.Uint32("compute_units", dex.computeUnits))

	return dex, nil
}

// Fees возвращает оценщик приоритетной комиссии.
func (d *DEX) Fees() *FeeEstimator { return d.fees }

// Balances возвращает BalanceOracle.
func (d *DEX) Balances() *BalanceOracle { return d.balances }

// ProgramID возвращает адрес программы AMM.
func (d *DEX) ProgramID() solana.PublicKey { return d.programID }

// RequiredLamports возвращает ceil((minBuy + 0.01) * 1e9).
func RequiredLamports(minBuy decimal.Decimal) uint64 {
	required := minBuy.Add(feeReserve).Shift(9).Ceil()
	if required.GreaterThan(maxUint64) {
		return math.MaxUint64
	}
	if required.IsNegative() {
		return 0
	}
	return required.BigInt().Uint64()
}

// PrepareSwapInstruction проверяет пул и аккаунты запроса и собирает инструкцию свапа.
func (d *DEX) PrepareSwapInstruction(pool *PoolMetadata, owner solana.PublicKey, req SwapRequest) (solana.Instruction, error) {
	accounts, err := pool.Parse()
	if err != nil {
		return nil, err
	}
	return d.buildInstruction(accounts, owner, req)
}

// Swap проводит один свап: проверка пула, загрузка подписанта, проверка баланса,
// сборка инструкции, оценка комиссии, сборка, подпись, отправка и подтверждение транзакции.
// Любая ошибка возвращается обёрнутой в *SwapError. Если транзакция была отправлена,
// но не подтвердилась, вместе с ошибкой возвращается её подпись.
func (d *DEX) Swap(ctx context.Context, pool *PoolMetadata, req SwapRequest) (solana.Signature, error) {
	start := time.Now()

	var poolID string
	if pool != nil {
		poolID = pool.AmmID
	}
	logger := d.logger.With(
		zap.String("pool", poolID),
		zap.String("source", req.SourceAccount),
		zap.String("destination", req.DestinationAccount),
	)

	fail := func(stage Stage, sig solana.Signature, err error) (solana.Signature, error) {
		logger.Error("Swap failed",
			zap.String("stage", string(stage)),
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return sig, &SwapError{
			Stage:              stage,
			PoolID:             poolID,
			SourceAccount:      req.SourceAccount,
			DestinationAccount: req.DestinationAccount,
			Err:                err,
		}
	}

	logger.Debug("Validating pool", zap.String("stage", string(StageValidate)))
	accounts, err := pool.Parse()
	if err != nil {
		return fail(StageValidate, solana.Signature{}, err)
	}

	logger.Debug("Loading signer", zap.String("stage", string(StageLoadSigner)))
	signer, err := d.signer()
	if err != nil {
		return fail(StageLoadSigner, solana.Signature{}, err)
	}
	if signer == nil {
		return fail(StageLoadSigner, solana.Signature{}, errors.New("signer loader returned nil signer"))
	}
	owner := signer.PublicKey()

	logger.Debug("Checking solvency",
		zap.String("stage", string(StageCheckSolvency)),
		zap.String("wallet", owner.String()))
	if err := d.checkSolvency(ctx, owner); err != nil {
		return fail(StageCheckSolvency, solana.Signature{}, err)
	}

	logger.Debug("Building swap instruction",
		zap.String("stage", string(StageBuildInstruction)),
		zap.Uint64("amount_specified", req.AmountSpecified),
		zap.Bool("swap_base_in", req.SwapBaseIn))
	swapIx, err := d.buildInstruction(accounts, owner, req)
	if err != nil {
		return fail(StageBuildInstruction, solana.Signature{}, err)
	}

	logger.Debug("Estimating priority fee", zap.String("stage", string(StageEstimateFee)))
	priorityFee := d.fees.EstimatePriorityFee(ctx, WritableAccounts(swapIx))

	logger.Debug("Assembling transaction",
		zap.String("stage", string(StageAssemble)),
		zap.Uint64("priority_fee", priorityFee),
		zap.Uint32("compute_units", d.computeUnits))
	tx, err := d.assemble(owner, priorityFee, swapIx)
	if err != nil {
		return fail(StageAssemble, solana.Signature{}, err)
	}

	logger.Debug("Fetching recent blockhash", zap.String("stage", string(StageFetchBlockhash)))
	blockhash, err := d.client.GetRecentBlockhash(ctx)
	if err != nil {
		return fail(StageFetchBlockhash, solana.Signature{}, &SubmissionError{Op: "fetch_blockhash", Err: err})
	}
	tx.Message.RecentBlockhash = blockhash

	logger.Debug("Signing and sending transaction", zap.String("stage", string(StageSignAndSend)))
	if err := signer.SignTransaction(tx); err != nil {
		return fail(StageSignAndSend, solana.Signature{}, &SubmissionError{Op: "sign", Err: err})
	}
	sig, err := d.client.SendTransaction(ctx, tx)
	if err != nil {
		return fail(StageSignAndSend, solana.Signature{}, newSendSubmissionError(err))
	}
	logger.Info("Transaction sent",
		zap.String("signature", sig.String()),
		zap.Uint64("priority_fee", priorityFee))

	if err := d.confirm(ctx, sig); err != nil {
		return fail(StageConfirm, sig, &ConfirmationError{Signature: sig, Err: err})
	}

	logger.Info("Transaction confirmed",
		zap.String("signature", sig.String()),
		zap.Duration("duration", time.Since(start)))

	return sig, nil
}

func (d *DEX) checkSolvency(ctx context.Context, owner solana.PublicKey) error {
	current, err := d.balances.GetNativeBalance(ctx, owner)
	if err != nil {
		return err
	}

	required := RequiredLamports(d.minBuyAmount)
	if current < required {
		return &InsufficientFundsError{Required: required, Current: current}
	}
	return nil
}

func (d *DEX) buildInstruction(accounts *PoolAccounts, owner solana.PublicKey, req SwapRequest) (solana.Instruction, error) {
	source, err := solana.PublicKeyFromBase58(req.SourceAccount)
	if err != nil {
		return nil, &InstructionBuildError{Reason: "invalid source account", Err: err}
	}
	destination, err := solana.PublicKeyFromBase58(req.DestinationAccount)
	if err != nil {
		return nil, &InstructionBuildError{Reason: "invalid destination account", Err: err}
	}
	return BuildSwapInstruction(d.programID, accounts, owner, source, destination, req.AmountSpecified, req.SwapBaseIn)
}

// assemble собирает транзакцию без blockhash: лимит CU, цена CU, свап.
func (d *DEX) assemble(payer solana.PublicKey, priorityFee uint64, swapIx solana.Instruction) (*solana.Transaction, error) {
	instructions := []solana.Instruction{
		computebudget.NewSetComputeUnitLimitInstruction(d.computeUnits).Build(),
		computebudget.NewSetComputeUnitPriceInstruction(priorityFee).Build(),
		swapIx,
	}

	tx, err := solana.NewTransaction(instructions, solana.Hash{}, solana.TransactionPayer(payer))
	if err != nil {
		return nil, &InstructionBuildError{Reason: "assemble transaction", Err: err}
	}
	return tx, nil
}

func (d *DEX) confirm(ctx context.Context, sig solana.Signature) error {
	if d.confirmTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.confirmTimeout)
		defer cancel()
	}
	return d.client.WaitForTransactionConfirmation(ctx, sig, d.commitment)
}

func newSendSubmissionError(err error) *SubmissionError {
	subErr := &SubmissionError{Op: "send", Err: err}

	var sendErr *blockchain.SendError
	if errors.As(err, &sendErr) {
		subErr.Code = sendErr.Code
		subErr.Logs = sendErr.Logs
		subErr.ProgramError = sendErr.ProgramError
	}
	return subErr
}
