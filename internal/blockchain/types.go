// internal/blockchain/types.go
package blockchain

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// ErrTransactionFailed возвращается, когда узел сообщил об ошибке исполнения транзакции.
var ErrTransactionFailed = errors.New("transaction failed on chain")

// Client определяет интерфейс взаимодействия с RPC-узлом Solana.
type Client interface {
	// Получить баланс токен-аккаунта.
	GetTokenAccountBalance(ctx context.Context, account solana.PublicKey) (*rpc.GetTokenAccountBalanceResult, error)
	// Получить баланс аккаунта в лампортах.
	GetBalance(ctx context.Context, pubkey solana.PublicKey, commitment rpc.CommitmentType) (uint64, error)
	// Получить недавние приоритетные комиссии для аккаунтов.
	GetRecentPrioritizationFees(ctx context.Context, accounts []solana.PublicKey) ([]rpc.PriorizationFeeResult, error)
	// Получить последний blockhash.
	GetRecentBlockhash(ctx context.Context) (solana.Hash, error)
	// Отправить подписанную транзакцию.
	SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error)
	// Получить статусы подписей транзакций.
	GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
	// Ожидание подтверждения транзакции.
	WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, commitment rpc.CommitmentType) error
}

// SendError описывает отказ узла принять транзакцию.
// Logs и ProgramError заполняются при неудачной preflight-симуляции.
type SendError struct {
	Code             int
	Message          string
	SimulationFailed bool
	Logs             []string
	ProgramError     string
	InstructionError interface{}
	Err              error
}

func (e *SendError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("send transaction: rpc error %d: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("send transaction: %s", e.Message)
}

func (e *SendError) Unwrap() error { return e.Err }
