package classify

import (
	"math/big"
	"testing"

	"wallet-indexer-sol/internal/consts"
	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pk 构造测试用 Pubkey（首字节区分即可）
func pk(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	return p
}

func newTestClassifier(watched ...types.Pubkey) *Classifier {
	watch := make(map[types.Pubkey]struct{}, len(watched))
	for _, w := range watched {
		watch[w] = struct{}{}
	}
	return New(Config{WatchList: watch})
}

func nativeEvent(keys []types.Pubkey, pre, post []uint64, fee uint64) *core.TxEvent {
	return &core.TxEvent{
		TxCtx:       &core.TxContext{Slot: 1000, BlockTime: 1700000000},
		Signature:   make([]byte, 64),
		AccountKeys: keys,
		Fee:         fee,
		NativePre:   pre,
		NativePost:  post,
	}
}

func TestDetectShape(t *testing.T) {
	c := newTestClassifier()
	signer := pk(1)

	t.Run("no token balances means native transfer", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{signer, pk(2)}, []uint64{10, 0}, []uint64{5, 5}, 0)
		assert.Equal(t, core.ShapeNativeTransfer, c.detectShape(e))
	})

	t.Run("swap marker with single signer position", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{signer}, []uint64{10}, []uint64{5}, 0)
		e.LogLines = []string{"Program log: something", consts.SwapLogMarker}
		e.TokenPre = []core.TokenBalanceRecord{{Owner: signer, Token: pk(9), Amount: 1, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: signer, Token: pk(9), Amount: 2, Decimals: 6}}
		assert.Equal(t, core.ShapeSwap, c.detectShape(e))
	})

	t.Run("swap marker but signer holds multiple positions", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{signer}, []uint64{10}, []uint64{5}, 0)
		e.LogLines = []string{consts.SwapLogMarker}
		e.TokenPre = []core.TokenBalanceRecord{
			{Owner: signer, Token: pk(9), Amount: 1, Decimals: 6},
			{Owner: signer, Token: pk(8), Amount: 1, Decimals: 6},
		}
		e.TokenPost = []core.TokenBalanceRecord{
			{Owner: signer, Token: pk(9), Amount: 2, Decimals: 6},
		}
		// signer pre 持仓超过 1 条，回落到 token 转账判定（总数 3 > 2）
		assert.Equal(t, core.ShapeTokenTransfer, c.detectShape(e))
	})

	t.Run("more than two records means token transfer", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{signer}, []uint64{10}, []uint64{5}, 0)
		e.TokenPre = []core.TokenBalanceRecord{
			{Owner: pk(2), Token: pk(9), Amount: 1, Decimals: 6},
			{Owner: pk(3), Token: pk(9), Amount: 5, Decimals: 6},
		}
		e.TokenPost = []core.TokenBalanceRecord{
			{Owner: pk(2), Token: pk(9), Amount: 0, Decimals: 6},
		}
		assert.Equal(t, core.ShapeTokenTransfer, c.detectShape(e))
	})

	t.Run("two records without marker stays unclassified", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{signer}, []uint64{10}, []uint64{5}, 0)
		e.TokenPre = []core.TokenBalanceRecord{{Owner: pk(2), Token: pk(9), Amount: 1, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: pk(2), Token: pk(9), Amount: 2, Decimals: 6}}
		assert.Equal(t, core.ShapeUnclassified, c.detectShape(e))
	})
}

func TestProcess_MalformedEvent(t *testing.T) {
	c := newTestClassifier()

	t.Run("empty account keys", func(t *testing.T) {
		e := nativeEvent(nil, nil, nil, 0)
		_, err := c.Process(e)
		require.Error(t, err)
		assert.IsType(t, &MalformedEventError{}, err)
	})

	t.Run("native balance length mismatch", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{pk(1), pk(2)}, []uint64{1}, []uint64{1, 2}, 0)
		_, err := c.Process(e)
		require.Error(t, err)
		assert.IsType(t, &MalformedEventError{}, err)
	})

	// 结构违规只影响当前事件，后续事件照常处理
	t.Run("next event unaffected", func(t *testing.T) {
		bad := nativeEvent([]types.Pubkey{pk(1)}, nil, nil, 0)
		_, err := c.Process(bad)
		require.Error(t, err)

		good := nativeEvent([]types.Pubkey{pk(1), pk(2)},
			[]uint64{10, 0}, []uint64{5, 5}, 0)
		result, err := c.Process(good)
		require.NoError(t, err)
		assert.Equal(t, core.ShapeNativeTransfer, result.Shape)
	})
}

// 场景：纯 SOL 转账 X → Y，fee 5000，校验守恒与 fee 归一
func TestProcess_NativeTransfer_ScenarioA(t *testing.T) {
	x, y := pk(1), pk(2)
	c := newTestClassifier(x)

	e := nativeEvent(
		[]types.Pubkey{x, y},
		[]uint64{1000000000, 500000000},
		[]uint64{899995000, 600000000},
		5000,
	)

	result, err := c.Process(e)
	require.NoError(t, err)
	require.Equal(t, core.ShapeNativeTransfer, result.Shape)

	require.Len(t, result.Deltas, 2)
	assert.Equal(t, int64(-100005000), result.Deltas[0].RawDelta.Int64())
	assert.Equal(t, int64(100000000), result.Deltas[1].RawDelta.Int64())

	// 守恒：全部 delta 之和 = -fee
	sum := new(big.Int)
	for _, d := range result.Deltas {
		sum.Add(sum, d.RawDelta)
	}
	assert.Equal(t, int64(-5000), sum.Int64())

	// fee payer 的转出额加回 fee 后等于经济意义上的转账额
	require.Len(t, result.Senders, 1)
	assert.Equal(t, x, result.Senders[0].Owner)
	assert.Equal(t, int64(100000000), result.Senders[0].Amount.Int64())

	require.Len(t, result.Receivers, 1)
	assert.Equal(t, y, result.Receivers[0].Owner)
	assert.True(t, result.WatchedMatch)
}

// 守恒性质：任意账户数的 SOL 转账，delta 总和恒等于 -fee
func TestNativeDeltas_Conservation(t *testing.T) {
	c := newTestClassifier()
	keys := []types.Pubkey{pk(1), pk(2), pk(3), pk(4)}
	pre := []uint64{5000000000, 12345, 700, 0}
	post := []uint64{4899990000, 100012345, 700, 2700}
	var fee uint64 = 10000

	e := nativeEvent(keys, pre, post, fee)
	result, err := c.Process(e)
	require.NoError(t, err)

	// 零变动账户在 Deltas 阶段保留
	require.Len(t, result.Deltas, len(keys))

	sum := new(big.Int)
	for _, d := range result.Deltas {
		sum.Add(sum, d.RawDelta)
	}
	assert.Equal(t, new(big.Int).Neg(new(big.Int).SetUint64(fee)), sum)

	// 但不会进入任何归属桶
	for _, s := range result.Senders {
		assert.NotEqual(t, pk(3), s.Owner)
	}
	for _, r := range result.Receivers {
		assert.NotEqual(t, pk(3), r.Owner)
	}
}

func TestTokenDeltas(t *testing.T) {
	c := newTestClassifier()
	a, b, m := pk(2), pk(3), pk(9)

	t.Run("closed transfer sums to zero per asset", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{pk(1)}, []uint64{10}, []uint64{5}, 5)
		e.TokenPre = []core.TokenBalanceRecord{
			{Owner: a, Token: m, Amount: 1000, Decimals: 6},
			{Owner: b, Token: m, Amount: 0, Decimals: 6},
		}
		e.TokenPost = []core.TokenBalanceRecord{
			{Owner: a, Token: m, Amount: 400, Decimals: 6},
			{Owner: b, Token: m, Amount: 600, Decimals: 6},
		}

		deltas := c.tokenDeltas(e)
		require.Len(t, deltas, 2)

		sum := new(big.Int)
		for _, d := range deltas {
			sum.Add(sum, d.RawDelta)
		}
		assert.Zero(t, sum.Sign())
	})

	// 场景：owner 只出现在 post 侧（mint 类边界），delta 等于完整 post 金额
	t.Run("one sided post record emits full amount", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{pk(1)}, []uint64{10}, []uint64{5}, 5)
		e.TokenPre = []core.TokenBalanceRecord{
			{Owner: a, Token: m, Amount: 500, Decimals: 6},
		}
		e.TokenPost = []core.TokenBalanceRecord{
			{Owner: a, Token: m, Amount: 200, Decimals: 6},
			{Owner: b, Token: m, Amount: 300, Decimals: 6},
		}

		deltas := c.tokenDeltas(e)
		require.Len(t, deltas, 2)

		byOwner := map[types.Pubkey]*big.Int{}
		for _, d := range deltas {
			byOwner[d.Owner] = d.RawDelta
		}
		assert.Equal(t, int64(-300), byOwner[a].Int64())
		assert.Equal(t, int64(300), byOwner[b].Int64())
	})

	t.Run("unchanged holding emits nothing", func(t *testing.T) {
		e := nativeEvent([]types.Pubkey{pk(1)}, []uint64{10}, []uint64{5}, 5)
		e.TokenPre = []core.TokenBalanceRecord{{Owner: a, Token: m, Amount: 77, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: a, Token: m, Amount: 77, Decimals: 6}}
		assert.Empty(t, c.tokenDeltas(e))
	})

	// 同一 key 的构造顺序不影响输出内容
	t.Run("order independent", func(t *testing.T) {
		mk := func(preFirst bool) map[types.Pubkey]string {
			e := nativeEvent([]types.Pubkey{pk(1)}, []uint64{10}, []uint64{5}, 5)
			r1 := core.TokenBalanceRecord{Owner: a, Token: m, Amount: 100, Decimals: 6}
			r2 := core.TokenBalanceRecord{Owner: b, Token: m, Amount: 50, Decimals: 6}
			if preFirst {
				e.TokenPre = []core.TokenBalanceRecord{r1, r2}
			} else {
				e.TokenPre = []core.TokenBalanceRecord{r2, r1}
			}
			e.TokenPost = []core.TokenBalanceRecord{
				{Owner: a, Token: m, Amount: 70, Decimals: 6},
				{Owner: b, Token: m, Amount: 80, Decimals: 6},
			}
			out := map[types.Pubkey]string{}
			for _, d := range c.tokenDeltas(e) {
				out[d.Owner] = d.RawDelta.String()
			}
			return out
		}
		assert.Equal(t, mk(true), mk(false))
	})
}

// 场景：swap 买入，校验成交量、方向与隐含价格
func TestProcess_Swap_ScenarioB(t *testing.T) {
	s := pk(1)
	mint := pk(9)
	c := newTestClassifier(s)

	e := nativeEvent([]types.Pubkey{s, pk(2)},
		[]uint64{2000000000, 50}, []uint64{1700000000, 50}, 5000)
	e.LogLines = []string{consts.SwapLogMarker}
	e.TokenPre = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 0, Decimals: 6}}
	e.TokenPost = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 500000, Decimals: 6}}

	result, err := c.Process(e)
	require.NoError(t, err)
	require.Equal(t, core.ShapeSwap, result.Shape)
	require.NotNil(t, result.Swap)

	assert.Equal(t, s, result.Swap.Signer)
	assert.Equal(t, mint, result.Swap.Token)
	assert.Equal(t, core.SideBuy, result.Swap.Side)
	assert.InDelta(t, 0.299995, result.Swap.SolTraded, 1e-12)
	assert.InDelta(t, 0.5, result.Swap.TradedUi, 1e-12)
	assert.InDelta(t, 0.59999, result.Swap.ImpliedPrice, 1e-12)
}

func TestProcess_Swap_Degenerate(t *testing.T) {
	s := pk(1)
	mint := pk(9)
	c := newTestClassifier()

	base := func() *core.TxEvent {
		e := nativeEvent([]types.Pubkey{s}, []uint64{2000000000}, []uint64{1700000000}, 5000)
		e.LogLines = []string{consts.SwapLogMarker}
		return e
	}

	// 前置条件不满足时必须整体降级，不允许半填充的 Swap 结果
	t.Run("missing pre record degrades", func(t *testing.T) {
		e := base()
		e.TokenPost = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 100, Decimals: 6}}
		result, err := c.Process(e)
		require.NoError(t, err)
		assert.Equal(t, core.ShapeUnclassified, result.Shape)
		assert.Nil(t, result.Swap)
		assert.Empty(t, result.Deltas)
	})

	t.Run("mismatched mints degrade", func(t *testing.T) {
		e := base()
		e.TokenPre = []core.TokenBalanceRecord{{Owner: s, Token: pk(8), Amount: 100, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 100, Decimals: 6}}
		result, err := c.Process(e)
		require.NoError(t, err)
		assert.Equal(t, core.ShapeUnclassified, result.Shape)
		assert.Nil(t, result.Swap)
	})

	t.Run("zero traded amount degrades", func(t *testing.T) {
		e := base()
		e.TokenPre = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 100, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 100, Decimals: 6}}
		result, err := c.Process(e)
		require.NoError(t, err)
		assert.Equal(t, core.ShapeUnclassified, result.Shape)
		assert.Nil(t, result.Swap)
	})

	t.Run("sell side", func(t *testing.T) {
		e := base()
		e.TokenPre = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 500000, Decimals: 6}}
		e.TokenPost = []core.TokenBalanceRecord{{Owner: s, Token: mint, Amount: 0, Decimals: 6}}
		// signer SOL 增加的卖出方向
		e.NativePre = []uint64{1700000000}
		e.NativePost = []uint64{1999995000}
		result, err := c.Process(e)
		require.NoError(t, err)
		require.Equal(t, core.ShapeSwap, result.Shape)
		assert.Equal(t, core.SideSell, result.Swap.Side)
		assert.InDelta(t, 0.3, result.Swap.SolTraded, 1e-12)
	})
}

func TestAttribute_WatchFilter(t *testing.T) {
	w, x, y, z := pk(1), pk(2), pk(3), pk(4)
	mint := pk(9)

	mkDeltas := func(sender types.Pubkey) []core.BalanceDelta {
		return []core.BalanceDelta{
			{Owner: sender, Token: mint, RawDelta: big.NewInt(-100), Decimals: 6},
			{Owner: y, Token: mint, RawDelta: big.NewInt(60), Decimals: 6},
			{Owner: z, Token: mint, RawDelta: big.NewInt(40), Decimals: 6},
		}
	}

	// sender 命中 watch-list：receiver 全量上报
	t.Run("watched sender reports all receivers", func(t *testing.T) {
		c := newTestClassifier(w)
		senders, receivers, watched := c.attribute(core.ShapeTokenTransfer, mkDeltas(w), w, 0)
		require.Len(t, senders, 1)
		assert.Len(t, receivers, 2)
		assert.True(t, watched)
	})

	// sender 未命中：receiver 过滤到 watch-list 内
	t.Run("unwatched sender filters receivers", func(t *testing.T) {
		c := newTestClassifier(y)
		senders, receivers, watched := c.attribute(core.ShapeTokenTransfer, mkDeltas(x), x, 0)
		require.Len(t, senders, 1)
		require.Len(t, receivers, 1)
		assert.Equal(t, y, receivers[0].Owner)
		assert.True(t, watched)
	})

	t.Run("no watch hit anywhere", func(t *testing.T) {
		c := newTestClassifier(w)
		_, receivers, watched := c.attribute(core.ShapeTokenTransfer, mkDeltas(x), x, 0)
		assert.Empty(t, receivers)
		assert.False(t, watched)
	})

	// sender 幅值为正数
	t.Run("sender amounts are positive magnitudes", func(t *testing.T) {
		c := newTestClassifier()
		senders, _, _ := c.attribute(core.ShapeTokenTransfer, mkDeltas(x), x, 0)
		require.Len(t, senders, 1)
		assert.Equal(t, int64(100), senders[0].Amount.Int64())
	})
}

func TestProcess_Unclassified_NoDeltas(t *testing.T) {
	c := newTestClassifier()
	e := nativeEvent([]types.Pubkey{pk(1)}, []uint64{10}, []uint64{5}, 5)
	e.TokenPre = []core.TokenBalanceRecord{{Owner: pk(2), Token: pk(9), Amount: 1, Decimals: 6}}

	result, err := c.Process(e)
	require.NoError(t, err)
	assert.Equal(t, core.ShapeUnclassified, result.Shape)
	assert.Empty(t, result.Deltas)
	assert.Empty(t, result.Senders)
	assert.Empty(t, result.Receivers)
	assert.False(t, result.WatchedMatch)
}
