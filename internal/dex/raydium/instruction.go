// internal/dex/raydium/instruction.go
package raydium

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/shopspring/decimal"
)

// Дискриминаторы инструкций AMM v4.
const (
	SwapBaseInDiscriminator  uint8 = 9
	SwapBaseOutDiscriminator uint8 = 10
)

const (
	// SwapInstructionDataLen длина полезной нагрузки: u8 дискриминатор + u64 сумма.
	SwapInstructionDataLen = 9
	// SwapInstructionAccountsLen количество аккаунтов инструкции свапа.
	SwapInstructionAccountsLen = 16
)

var maxUint64 = decimal.NewFromUint64(math.MaxUint64)

// SwapInstructionData данные инструкции свапа.
type SwapInstructionData struct {
	Discriminator   uint8
	AmountSpecified uint64
}

// Serialize кодирует данные как [u8 дискриминатор][u64 LE сумма].
func (d SwapInstructionData) Serialize() ([]byte, error) {
	buf := new(bytes.Buffer)
	enc := bin.NewBorshEncoder(buf)

	if err := enc.WriteUint8(d.Discriminator); err != nil {
		return nil, fmt.Errorf("failed to encode discriminator: %w", err)
	}
	if err := enc.WriteUint64(d.AmountSpecified, binary.LittleEndian); err != nil {
		return nil, fmt.Errorf("failed to encode amount: %w", err)
	}
	return buf.Bytes(), nil
}

// SwapBaseIn сообщает, задаёт ли инструкция точную входящую сумму.
func (d SwapInstructionData) SwapBaseIn() bool {
	return d.Discriminator == SwapBaseInDiscriminator
}

// DecodeSwapInstructionData разбирает полезную нагрузку инструкции свапа.
func DecodeSwapInstructionData(data []byte) (*SwapInstructionData, error) {
	if len(data) != SwapInstructionDataLen {
		return nil, fmt.Errorf("invalid swap instruction data length: expected %d, got %d",
			SwapInstructionDataLen, len(data))
	}

	dec := bin.NewBorshDecoder(data)
	disc, err := dec.ReadUint8()
	if err != nil {
		return nil, fmt.Errorf("failed to decode discriminator: %w", err)
	}
	if disc != SwapBaseInDiscriminator && disc != SwapBaseOutDiscriminator {
		return nil, fmt.Errorf("unknown swap discriminator %d", disc)
	}

	amount, err := dec.ReadUint64(binary.LittleEndian)
	if err != nil {
		return nil, fmt.Errorf("failed to decode amount: %w", err)
	}

	return &SwapInstructionData{Discriminator: disc, AmountSpecified: amount}, nil
}

// BuildSwapInstruction собирает инструкцию свапа AMM v4 с 16 аккаунтами.
func BuildSwapInstruction(
	programID solana.PublicKey,
	pool *PoolAccounts,
	owner solana.PublicKey,
	source solana.PublicKey,
	destination solana.PublicKey,
	amountSpecified uint64,
	swapBaseIn bool,
) (solana.Instruction, error) {
	switch {
	case pool == nil:
		return nil, &InstructionBuildError{Reason: "pool accounts are nil"}
	case programID.IsZero():
		return nil, &InstructionBuildError{Reason: "amm program id is zero"}
	case owner.IsZero():
		return nil, &InstructionBuildError{Reason: "owner is zero"}
	}

	discriminator := SwapBaseOutDiscriminator
	if swapBaseIn {
		discriminator = SwapBaseInDiscriminator
	}

	data, err := SwapInstructionData{
		Discriminator:   discriminator,
		AmountSpecified: amountSpecified,
	}.Serialize()
	if err != nil {
		return nil, &InstructionBuildError{Reason: "encode payload", Err: err}
	}

	accounts := solana.AccountMetaSlice{
		solana.Meta(pool.AmmID).WRITE(),
		solana.Meta(pool.AmmAuthority),
		solana.Meta(pool.AmmOpenOrders).WRITE(),
		solana.Meta(pool.TokenVault).WRITE(),
		solana.Meta(pool.SolVault).WRITE(),
		solana.Meta(pool.MarketProgramID),
		solana.Meta(pool.MarketID).WRITE(),
		solana.Meta(pool.MarketBids).WRITE(),
		solana.Meta(pool.MarketAsks).WRITE(),
		solana.Meta(pool.MarketEventQueue).WRITE(),
		solana.Meta(pool.MarketBaseVault).WRITE(),
		solana.Meta(pool.MarketQuoteVault).WRITE(),
		solana.Meta(pool.MarketAuthority),
		solana.Meta(source).WRITE(),
		solana.Meta(destination).WRITE(),
		solana.Meta(owner).SIGNER(),
	}

	return solana.NewInstruction(programID, accounts, data), nil
}

// WritableAccounts возвращает уникальные writable-аккаунты инструкции в исходном порядке.
func WritableAccounts(ix solana.Instruction) []solana.PublicKey {
	var out solana.PublicKeySlice
	for _, meta := range ix.Accounts() {
		if meta.IsWritable {
			out.UniqueAppend(meta.PublicKey)
		}
	}
	return out
}

// ParseAmount разбирает целую неотрицательную сумму в базовых единицах токена.
func ParseAmount(s string) (uint64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, &InstructionBuildError{Reason: fmt.Sprintf("invalid amount %q", s), Err: err}
	}
	switch {
	case d.IsNegative():
		return 0, &InstructionBuildError{Reason: fmt.Sprintf("amount %s is negative", s)}
	case !d.IsInteger():
		return 0, &InstructionBuildError{Reason: fmt.Sprintf("amount %s is not an integer", s)}
	case d.GreaterThan(maxUint64):
		return 0, &InstructionBuildError{Reason: fmt.Sprintf("amount %s exceeds u64 range", s)}
	}
	return d.BigInt().Uint64(), nil
}
