// internal/dex/raydium/pool.go
package raydium

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/gagliardetto/solana-go"
)

// PoolMetadata описывает AMM-пул Raydium и связанный с ним рынок OpenBook.
// Все поля задаются base58-строками и проверяются независимо друг от друга.
type PoolMetadata struct {
	AmmID            string `json:"ammId"`
	AmmAuthority     string `json:"ammAuthority"`
	AmmOpenOrders    string `json:"ammOpenOrders"`
	TokenVault       string `json:"tokenVault"`
	SolVault         string `json:"solVault"`
	MarketProgramID  string `json:"marketProgramId"`
	MarketID         string `json:"marketId"`
	MarketBids       string `json:"marketBids"`
	MarketAsks       string `json:"marketAsks"`
	MarketEventQueue string `json:"marketEventQueue"`
	MarketBaseVault  string `json:"marketBaseVault"`
	MarketQuoteVault string `json:"marketQuoteVault"`
	MarketAuthority  string `json:"marketAuthority"`
}

// PoolField пара "имя поля в JSON" / значение.
type PoolField struct {
	Name  string
	Value string
}

// Fields возвращает поля пула в порядке объявления.
func (p *PoolMetadata) Fields() []PoolField {
	return []PoolField{
		{"ammId", p.AmmID},
		{"ammAuthority", p.AmmAuthority},
		{"ammOpenOrders", p.AmmOpenOrders},
		{"tokenVault", p.TokenVault},
		{"solVault", p.SolVault},
		{"marketProgramId", p.MarketProgramID},
		{"marketId", p.MarketID},
		{"marketBids", p.MarketBids},
		{"marketAsks", p.MarketAsks},
		{"marketEventQueue", p.MarketEventQueue},
		{"marketBaseVault", p.MarketBaseVault},
		{"marketQuoteVault", p.MarketQuoteVault},
		{"marketAuthority", p.MarketAuthority},
	}
}

// PoolAccounts типизированное представление PoolMetadata.
type PoolAccounts struct {
	AmmID            solana.PublicKey
	AmmAuthority     solana.PublicKey
	AmmOpenOrders    solana.PublicKey
	TokenVault       solana.PublicKey
	SolVault         solana.PublicKey
	MarketProgramID  solana.PublicKey
	MarketID         solana.PublicKey
	MarketBids       solana.PublicKey
	MarketAsks       solana.PublicKey
	MarketEventQueue solana.PublicKey
	MarketBaseVault  solana.PublicKey
	MarketQuoteVault solana.PublicKey
	MarketAuthority  solana.PublicKey
}

// Parse проверяет пул и переводит его адреса в solana.PublicKey.
func (p *PoolMetadata) Parse() (*PoolAccounts, error) {
	if err := ValidatePool(p); err != nil {
		return nil, err
	}

	keys := make([]solana.PublicKey, 0, 13)
	for _, f := range p.Fields() {
		keys = append(keys, solana.MustPublicKeyFromBase58(f.Value))
	}

	return &PoolAccounts{
		AmmID:            keys[0],
		AmmAuthority:     keys[1],
		AmmOpenOrders:    keys[2],
		TokenVault:       keys[3],
		SolVault:         keys[4],
		MarketProgramID:  keys[5],
		MarketID:         keys[6],
		MarketBids:       keys[7],
		MarketAsks:       keys[8],
		MarketEventQueue: keys[9],
		MarketBaseVault:  keys[10],
		MarketQuoteVault: keys[11],
		MarketAuthority:  keys[12],
	}, nil
}

// LoadPoolMetadata читает описание пула из JSON-файла.
func LoadPoolMetadata(path string) (*PoolMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool file: %w", err)
	}

	var pool PoolMetadata
	if err := json.Unmarshal(data, &pool); err != nil {
		return nil, fmt.Errorf("failed to parse pool file %s: %w", path, err)
	}
	return &pool, nil
}
