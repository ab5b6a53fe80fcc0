// internal/dex/raydium/errors.go
package raydium

import (
	"fmt"
	"strings"

	"github.com/gagliardetto/solana-go"
)

// Stage обозначает этап конвейера свапа, на котором произошла ошибка.
type Stage string

const (
	StageValidate         Stage = "validate"
	StageLoadSigner       Stage = "load_signer"
	StageCheckSolvency    Stage = "check_solvency"
	StageBuildInstruction Stage = "build_instruction"
	StageEstimateFee      Stage = "estimate_fee"
	StageAssemble         Stage = "assemble"
	StageFetchBlockhash   Stage = "fetch_blockhash"
	StageSignAndSend      Stage = "sign_and_send"
	StageConfirm          Stage = "confirm"
)

// ValidationError возвращается, когда одно из полей пула не является корректным адресом.
type ValidationError struct {
	Field string
	Value string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("validation error: %s is empty or missing", e.Field)
	}
	return fmt.Sprintf("validation error: %s is not a valid address: %q", e.Field, e.Value)
}

// InsufficientFundsError возвращается, когда нативного баланса не хватает
// на минимальную покупку плюс резерв на комиссии. Значения в лампортах.
type InsufficientFundsError struct {
	Required uint64
	Current  uint64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: required %d lamports, current balance %d lamports",
		e.Required, e.Current)
}

// BalanceQueryError оборачивает сбой запроса баланса.
type BalanceQueryError struct {
	Account string
	Err     error
}

func (e *BalanceQueryError) Error() string {
	return fmt.Sprintf("balance query for %s failed: %v", e.Account, e.Err)
}

func (e *BalanceQueryError) Unwrap() error { return e.Err }

// InstructionBuildError возвращается при невозможности собрать инструкцию свапа.
type InstructionBuildError struct {
	Reason string
	Err    error
}

func (e *InstructionBuildError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to build swap instruction: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("failed to build swap instruction: %s", e.Reason)
}

func (e *InstructionBuildError) Unwrap() error { return e.Err }

// SubmissionError покрывает получение blockhash, подпись и отправку транзакции.
// Code, Logs и ProgramError заполняются, если узел вернул ошибку симуляции.
type SubmissionError struct {
	Op           string
	Code         int
	Logs         []string
	ProgramError string
	Err          error
}

func (e *SubmissionError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "transaction submission failed (%s)", e.Op)
	if e.Code != 0 {
		fmt.Fprintf(&b, " [rpc code %d]", e.Code)
	}
	if e.ProgramError != "" {
		fmt.Fprintf(&b, " [%s]", e.ProgramError)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *SubmissionError) Unwrap() error { return e.Err }

// ConfirmationError возвращается, когда отправленная транзакция не подтвердилась.
type ConfirmationError struct {
	Signature solana.Signature
	Err       error
}

func (e *ConfirmationError) Error() string {
	return fmt.Sprintf("transaction %s was not confirmed: %v", e.Signature, e.Err)
}

func (e *ConfirmationError) Unwrap() error { return e.Err }

// SwapError добавляет к ошибке этапа контекст пула и токен-аккаунтов.
// Ключевой материал сюда никогда не попадает.
type SwapError struct {
	Stage              Stage
	PoolID             string
	SourceAccount      string
	DestinationAccount string
	Err                error
}

func (e *SwapError) Error() string {
	return fmt.Sprintf("swap failed at %s (pool=%s source=%s destination=%s): %v",
		e.Stage, e.PoolID, e.SourceAccount, e.DestinationAccount, e.Err)
}

func (e *SwapError) Unwrap() error { return e.Err }
