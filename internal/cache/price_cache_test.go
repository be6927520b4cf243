package cache

import (
	"testing"

	"wallet-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	return p
}

func TestPriceCache(t *testing.T) {
	token := pk(9)

	t.Run("lookup picks nearest earlier point", func(t *testing.T) {
		pc := NewPriceCache()
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 100, PriceSol: 1.0}})
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 200, PriceSol: 2.0}})
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 300, PriceSol: 3.0}})

		price, ok := pc.GetPriceAt(token, 250)
		require.True(t, ok)
		assert.Equal(t, 2.0, price)

		// 精准命中
		price, _ = pc.GetPriceAt(token, 200)
		assert.Equal(t, 2.0, price)

		// 晚于最新点取最新
		price, _ = pc.GetPriceAt(token, 999)
		assert.Equal(t, 3.0, price)

		// 早于最老点取最老
		price, _ = pc.GetPriceAt(token, 1)
		assert.Equal(t, 1.0, price)
	})

	t.Run("unknown token misses", func(t *testing.T) {
		pc := NewPriceCache()
		_, ok := pc.GetPriceAt(token, 100)
		assert.False(t, ok)
		_, ok = pc.Latest(token)
		assert.False(t, ok)
	})

	t.Run("same timestamp keeps last write", func(t *testing.T) {
		pc := NewPriceCache()
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 100, PriceSol: 1.0}})
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 100, PriceSol: 1.5}})

		latest, ok := pc.Latest(token)
		require.True(t, ok)
		assert.Equal(t, 1.5, latest.PriceSol)
	})

	t.Run("out of order insert keeps ascending order", func(t *testing.T) {
		pc := NewPriceCache()
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 300, PriceSol: 3.0}})
		pc.Insert(map[types.Pubkey]TokenPricePoint{token: {Timestamp: 100, PriceSol: 1.0}})

		price, ok := pc.GetPriceAt(token, 150)
		require.True(t, ok)
		assert.Equal(t, 1.0, price)
	})

	t.Run("window trims oldest points", func(t *testing.T) {
		pc := NewPriceCache()
		for i := 0; i < 500; i++ {
			pc.Insert(map[types.Pubkey]TokenPricePoint{
				token: {Timestamp: int64(i), PriceSol: float64(i)},
			})
		}

		latest, ok := pc.Latest(token)
		require.True(t, ok)
		assert.Equal(t, int64(499), latest.Timestamp)

		// 最旧的点已被窗口淘汰，早期查询回退到窗口内最老点
		price, ok := pc.GetPriceAt(token, 0)
		require.True(t, ok)
		assert.Greater(t, price, 0.0)
	})
}
