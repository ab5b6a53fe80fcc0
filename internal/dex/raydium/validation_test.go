package raydium

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsValidAddress(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    bool
	}{
		{"raydium program", RaydiumV4ProgramID, true},
		{"system program", "11111111111111111111111111111111", true},
		{"empty", "", false},
		{"not base58", "0OIl0OIl0OIl0OIl0OIl0OIl0OIl0OIl", false},
		{"too short", "abc", false},
		{"too long", RaydiumV4ProgramID + RaydiumV4ProgramID, false},
		{"whitespace", " " + RaydiumV4ProgramID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidAddress(tt.address))
		})
	}
}

func TestValidatePool(t *testing.T) {
	t.Run("valid pool", func(t *testing.T) {
		assert.NoError(t, ValidatePool(newTestPool()))
	})

	t.Run("nil pool", func(t *testing.T) {
		var vErr *ValidationError
		require.True(t, errors.As(ValidatePool(nil), &vErr))
		assert.Equal(t, "pool", vErr.Field)
	})

	t.Run("invalid amm id", func(t *testing.T) {
		pool := newTestPool()
		pool.AmmID = "not-a-key"

		var vErr *ValidationError
		require.True(t, errors.As(ValidatePool(pool), &vErr))
		assert.Equal(t, "ammId", vErr.Field)
		assert.Equal(t, "not-a-key", vErr.Value)
	})

	t.Run("first invalid field wins", func(t *testing.T) {
		pool := newTestPool()
		pool.MarketAsks = ""
		pool.SolVault = "bad"
		pool.MarketAuthority = "bad"

		var vErr *ValidationError
		require.True(t, errors.As(ValidatePool(pool), &vErr))
		assert.Equal(t, "solVault", vErr.Field)
	})

	t.Run("every field is checked", func(t *testing.T) {
		for i, field := range newTestPool().Fields() {
			pool := newTestPool()
			breakField(pool, i)

			var vErr *ValidationError
			require.True(t, errors.As(ValidatePool(pool), &vErr), field.Name)
			assert.Equal(t, field.Name, vErr.Field)
		}
	})
}

// breakField портит i-е поле пула в порядке Fields().
func breakField(p *PoolMetadata, i int) {
	fields := []*string{
		&p.AmmID, &p.AmmAuthority, &p.AmmOpenOrders, &p.TokenVault, &p.SolVault,
		&p.MarketProgramID, &p.MarketID, &p.MarketBids, &p.MarketAsks,
		&p.MarketEventQueue, &p.MarketBaseVault, &p.MarketQuoteVault, &p.MarketAuthority,
	}
	*fields[i] = "invalid"
}

func TestPoolMetadata_Parse(t *testing.T) {
	pool := newTestPool()

	accounts, err := pool.Parse()
	require.NoError(t, err)
	assert.Equal(t, pool.AmmID, accounts.AmmID.String())
	assert.Equal(t, pool.MarketProgramID, accounts.MarketProgramID.String())
	assert.Equal(t, pool.MarketAuthority, accounts.MarketAuthority.String())

	pool.MarketBids = "broken"
	_, err = pool.Parse()
	var vErr *ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "marketBids", vErr.Field)
}

func TestLoadPoolMetadata(t *testing.T) {
	dir := t.TempDir()

	t.Run("camelCase keys", func(t *testing.T) {
		path := filepath.Join(dir, "pool.json")
		content := `{
			"ammId": "` + RaydiumV4ProgramID + `",
			"marketProgramId": "11111111111111111111111111111111"
		}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		pool, err := LoadPoolMetadata(path)
		require.NoError(t, err)
		assert.Equal(t, RaydiumV4ProgramID, pool.AmmID)
		assert.Equal(t, "11111111111111111111111111111111", pool.MarketProgramID)

		var vErr *ValidationError
		require.True(t, errors.As(ValidatePool(pool), &vErr))
		assert.Equal(t, "ammAuthority", vErr.Field)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadPoolMetadata(filepath.Join(dir, "missing.json"))
		assert.Error(t, err)
	})

	t.Run("malformed json", func(t *testing.T) {
		path := filepath.Join(dir, "broken.json")
		require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

		_, err := LoadPoolMetadata(path)
		assert.Error(t, err)
	})
}
