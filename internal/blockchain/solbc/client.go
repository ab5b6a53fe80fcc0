// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/rovshanmuradov/raydium-swap/internal/blockchain"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultConfirmInitialInterval = 500 * time.Millisecond
	defaultConfirmMaxInterval     = 5 * time.Second
)

var errNotConfirmed = errors.New("transaction not confirmed yet")

// Client – тонкий адаптер для взаимодействия с блокчейном Solana через solana-go.
type Client struct {
	rpc      *rpc.Client
	logger   *zap.Logger
	limiter  *rate.Limiter
	analyzer *ErrorAnalyzer

	confirmInitialInterval time.Duration
	confirmMaxInterval     time.Duration
}

// Option настраивает Client.
type Option func(*Client)

// WithRateLimit ограничивает число RPC-запросов в секунду. 0 отключает ограничение.
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithConfirmInterval задает начальный и максимальный интервал опроса статуса транзакции.
func WithConfirmInterval(initial, maxInterval time.Duration) Option {
	return func(c *Client) {
		c.confirmInitialInterval = initial
		c.confirmMaxInterval = maxInterval
	}
}

// NewClient создаёт новый клиент, принимая RPC URL и логгер через dependency injection.
func NewClient(rpcURL string, logger *zap.Logger, opts ...Option) *Client {
	logger = logger.Named("solbc-client")
	c := &Client{
		rpc:                    rpc.New(rpcURL),
		logger:                 logger,
		analyzer:               NewErrorAnalyzer(logger),
		confirmInitialInterval: defaultConfirmInitialInterval,
		confirmMaxInterval:     defaultConfirmMaxInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Close освобождает HTTP-соединения клиента.
func (c *Client) Close() error {
	return c.rpc.Close()
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

// GetRecentBlockhash получает последний blockhash с использованием стандартного метода solana-go.
func (c *Client) GetRecentBlockhash(ctx context.Context) (solana.Hash, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Hash{}, err
	}
	result, err := c.rpc.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		c.logger.Error("GetRecentBlockhash error", zap.Error(err))
		return solana.Hash{}, err
	}
	if result == nil || result.Value == nil {
		return solana.Hash{}, errors.New("empty blockhash response")
	}
	return result.Value.Blockhash, nil
}

// SendTransaction отправляет транзакцию. Ошибка узла разбирается в *blockchain.SendError.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	if err := c.wait(ctx); err != nil {
		return solana.Signature{}, err
	}
	sig, err := c.rpc.SendTransaction(ctx, tx)
	if err != nil {
		sendErr := c.analyzer.AnalyzeSendError(err)
		c.logger.Error("SendTransaction error",
			zap.Int("code", sendErr.Code),
			zap.String("program_error", sendErr.ProgramError),
			zap.Strings("logs", sendErr.Logs),
			zap.Error(err))
		return solana.Signature{}, sendErr
	}
	return sig, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	result, err := c.rpc.GetSignatureStatuses(ctx, false, signatures...)
	if err != nil {
		c.logger.Debug("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetBalance получает баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error) {
	if err := c.wait(ctx); err != nil {
		return 0, err
	}
	result, err := c.rpc.GetBalance(ctx, pubkey, commitment)
	if err != nil {
		c.logger.Error("GetBalance error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// GetTokenAccountBalance получает баланс токенного аккаунта
func (c *Client) GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	result, err := c.rpc.GetTokenAccountBalance(ctx, account, rpc.CommitmentConfirmed)
	if err != nil {
		c.logger.Debug("GetTokenAccountBalance error",
			zap.String("account", account.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetRecentPrioritizationFees получает комиссии за приоритет из последних блоков.
func (c *Client) GetRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]rpc.PriorizationFeeResult, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	fees, err := c.rpc.GetRecentPrioritizationFees(ctx, accounts)
	if err != nil {
		c.logger.Debug("GetRecentPrioritizationFees error",
			zap.Int("accounts", len(accounts)),
			zap.Error(err))
		return nil, err
	}
	return fees, nil
}

// WaitForTransactionConfirmation опрашивает статус транзакции с экспоненциальной задержкой,
// пока она не достигнет нужного уровня commitment. Общего таймаута нет: ожидание
// ограничено только ctx. Ошибка исполнения в статусе прекращает опрос.
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = c.confirmInitialInterval
	policy.MaxInterval = c.confirmMaxInterval

	operation := func() (struct{}, error) {
		statuses, err := c.GetSignatureStatuses(ctx, signature)
		if err != nil {
			return struct{}{}, err
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			return struct{}{}, errNotConfirmed
		}

		status := statuses.Value[0]
		if status.Err != nil {
			return struct{}{}, backoff.Permanent(fmt.Errorf("%w: %v", blockchain.ErrTransactionFailed, status.Err))
		}
		if !reachedCommitment(status.ConfirmationStatus, commitment) {
			return struct{}{}, errNotConfirmed
		}
		return struct{}{}, nil
	}

	notify := func(err error, next time.Duration) {
		if !errors.Is(err, errNotConfirmed) {
			c.logger.Warn("Error getting signature statuses",
				zap.String("signature", signature.String()),
				zap.Duration("next_poll", next),
				zap.Error(err))
		}
	}

	_, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(policy),
		backoff.WithMaxElapsedTime(0),
		backoff.WithNotify(notify))
	if err != nil {
		return err
	}

	c.logger.Debug("Transaction confirmed",
		zap.String("signature", signature.String()),
		zap.String("commitment", string(commitment)))
	return nil
}

// reachedCommitment сравнивает статус транзакции с требуемым уровнем подтверждения.
func reachedCommitment(status rpc.ConfirmationStatusType, want rpc.CommitmentType) bool {
	switch want {
	case rpc.CommitmentFinalized:
		return status == rpc.ConfirmationStatusFinalized
	case rpc.CommitmentProcessed:
		return status == rpc.ConfirmationStatusProcessed ||
			status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	default:
		return status == rpc.ConfirmationStatusConfirmed ||
			status == rpc.ConfirmationStatusFinalized
	}
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
