// internal/dex/raydium/validation.go
package raydium

import (
	"github.com/gagliardetto/solana-go"
)

// IsValidAddress сообщает, является ли строка корректным base58-адресом Solana.
func IsValidAddress(address string) bool {
	if address == "" {
		return false
	}
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

// ValidatePool проверяет все адреса пула и возвращает *ValidationError
// для первого некорректного поля.
func ValidatePool(pool *PoolMetadata) error {
	if pool == nil {
		return &ValidationError{Field: "pool"}
	}

	for _, f := range pool.Fields() {
		if !IsValidAddress(f.Value) {
			return &ValidationError{Field: f.Name, Value: f.Value}
		}
	}
	return nil
}
