package dispatcher

import (
	"encoding/json"
	"math/big"
	"testing"

	"wallet-indexer-sol/internal/cache"
	"wallet-indexer-sol/internal/consts"
	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"
	"wallet-indexer-sol/internal/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pk(b byte) types.Pubkey {
	var p types.Pubkey
	p[0] = b
	return p
}

func testDispatcher(prices *cache.PriceCache) *Dispatcher {
	return New(Config{
		BalanceTopic:      "wallet_balance_event",
		TradeTopic:        "wallet_trade_event",
		BalancePartitions: 8,
		TradePartitions:   4,
	}, prices)
}

func TestBuildJobs_BalanceEvents(t *testing.T) {
	d := testDispatcher(cache.NewPriceCache())
	x, y := pk(1), pk(2)

	r := &core.Classification{
		Shape:     core.ShapeNativeTransfer,
		Slot:      1234,
		BlockTime: 1700000000,
		TxIndex:   7,
		Signature: make([]byte, 64),
		Senders: []core.RoleEntry{
			{Owner: x, Token: consts.WSOLMint, Amount: big.NewInt(100000000), Decimals: 9},
		},
		Receivers: []core.RoleEntry{
			{Owner: y, Token: consts.WSOLMint, Amount: big.NewInt(100000000), Decimals: 9},
		},
		WatchedMatch: true,
	}

	jobs := d.BuildJobs([]*core.Classification{r})
	require.Len(t, jobs, 2)

	for _, job := range jobs {
		assert.Equal(t, "wallet_balance_event", job.Topic)
		assert.GreaterOrEqual(t, job.Partition, int32(0))
		assert.Less(t, job.Partition, int32(8))

		eventType, body, err := utils.DecodeEventType(job.Value)
		require.NoError(t, err)
		assert.Equal(t, core.EventTypeBalanceDelta, eventType)

		var payload BalanceEventPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		assert.Equal(t, uint64(1234), payload.Slot)
		assert.Equal(t, "100000000", payload.Amount)
		assert.InDelta(t, 0.1, payload.UiAmount, 1e-12)
		assert.True(t, payload.WatchedMatch)

		// 原生 SOL 恒定按 1 计价
		assert.Equal(t, 1.0, payload.PriceSol)
		assert.InDelta(t, 0.1, payload.ValueSol, 1e-12)
	}

	// 分区 key 为 owner 字节，同一 owner 必然落在同一分区
	assert.Equal(t, x[:], jobs[0].Key)
	assert.Equal(t, y[:], jobs[1].Key)

	var first, second BalanceEventPayload
	_, body, _ := utils.DecodeEventType(jobs[0].Value)
	require.NoError(t, json.Unmarshal(body, &first))
	assert.Equal(t, "sender", first.Role)

	// (slot, event_id) 去重键：txIndex 高位 + 交易内序号低位
	_, body, _ = utils.DecodeEventType(jobs[1].Value)
	require.NoError(t, json.Unmarshal(body, &second))
	assert.Equal(t, core.BuildEventID(7, 0), first.EventID)
	assert.Equal(t, core.BuildEventID(7, 1), second.EventID)
}

func TestBuildJobs_TradeEvent(t *testing.T) {
	d := testDispatcher(cache.NewPriceCache())
	s, mint := pk(1), pk(9)

	r := &core.Classification{
		Shape:     core.ShapeSwap,
		Slot:      1234,
		BlockTime: 1700000000,
		Signature: make([]byte, 64),
		Swap: &core.SwapDetail{
			Signer:        s,
			Token:         mint,
			Side:          core.SideBuy,
			TradedUi:      0.5,
			SolTraded:     0.299995,
			ImpliedPrice:  0.59999,
			TokenDecimals: 6,
		},
	}

	jobs := d.BuildJobs([]*core.Classification{r})
	require.Len(t, jobs, 1)
	assert.Equal(t, "wallet_trade_event", jobs[0].Topic)

	eventType, body, err := utils.DecodeEventType(jobs[0].Value)
	require.NoError(t, err)
	assert.Equal(t, core.EventTypeSwap, eventType)

	var payload TradeEventPayload
	require.NoError(t, json.Unmarshal(body, &payload))
	assert.Equal(t, "buy", payload.Side)
	assert.Equal(t, mint.String(), payload.Token)
	assert.InDelta(t, 0.59999, payload.ImpliedPrice, 1e-12)
}

func TestBuildJobs_PriceEnrichment(t *testing.T) {
	pc := cache.NewPriceCache()
	d := testDispatcher(pc)
	owner, mint := pk(1), pk(9)

	pc.Insert(map[types.Pubkey]cache.TokenPricePoint{
		mint: {Timestamp: 1700000000, PriceSol: 0.59999},
	})

	build := func(blockTime int64, token types.Pubkey) BalanceEventPayload {
		r := &core.Classification{
			Shape:     core.ShapeTokenTransfer,
			Slot:      1234,
			BlockTime: blockTime,
			Signature: make([]byte, 64),
			Senders: []core.RoleEntry{
				{Owner: owner, Token: token, Amount: big.NewInt(2_000_000), Decimals: 6},
			},
		}
		jobs := d.BuildJobs([]*core.Classification{r})
		require.Len(t, jobs, 1)
		_, body, err := utils.DecodeEventType(jobs[0].Value)
		require.NoError(t, err)
		var payload BalanceEventPayload
		require.NoError(t, json.Unmarshal(body, &payload))
		return payload
	}

	// 命中缓存：取 <= blockTime 的最近成交价
	payload := build(1700000100, mint)
	assert.InDelta(t, 0.59999, payload.PriceSol, 1e-12)
	assert.InDelta(t, 2*0.59999, payload.ValueSol, 1e-9)

	// 无成交样本的 token 价格记 0，不做估值
	payload = build(1700000100, pk(8))
	assert.Zero(t, payload.PriceSol)
	assert.Zero(t, payload.ValueSol)

	// block_time 缺失时退化为最近一笔成交价
	payload = build(0, mint)
	assert.InDelta(t, 0.59999, payload.PriceSol, 1e-12)
}

func TestBuildJobs_Empty(t *testing.T) {
	d := testDispatcher(cache.NewPriceCache())

	// Unclassified 结果没有任何归属记录，不产出消息
	r := &core.Classification{Shape: core.ShapeUnclassified, Signature: make([]byte, 64)}
	assert.Empty(t, d.BuildJobs([]*core.Classification{r}))
	assert.Empty(t, d.BuildJobs(nil))
}
