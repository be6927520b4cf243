package dispatcher

import (
	"wallet-indexer-sol/internal/cache"
	"wallet-indexer-sol/internal/consts"
	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"
	"wallet-indexer-sol/internal/utils"
	"wallet-indexer-sol/pkg/mq"

	"github.com/mr-tron/base58"
)

// BalanceEventPayload 是余额变动事件的 JSON 载荷（下发 balance topic）。
// Amount 为 fee 归一后的幅值（十进制字符串，最小单位），Role 区分转出/转入。
type BalanceEventPayload struct {
	EventID      uint64  `json:"event_id"` // slot 内唯一，(slot, event_id) 去重
	Slot         uint64  `json:"slot"`
	BlockTime    int64   `json:"block_time"`
	TxIndex      uint64  `json:"tx_index"`
	Signature    string  `json:"signature"`
	Shape        string  `json:"shape"`
	Owner        string  `json:"owner"`
	Token        string  `json:"token"`
	Role         string  `json:"role"` // sender / receiver
	Amount       string  `json:"amount"`
	UiAmount     float64 `json:"ui_amount"`
	Decimals     uint8   `json:"decimals"`
	WatchedMatch bool    `json:"watched_match"`
	PriceSol     float64 `json:"price_sol"` // 变动时刻的隐含价格（SOL 计价），无成交样本时为 0
	ValueSol     float64 `json:"value_sol"` // UiAmount × PriceSol，供下游直接按 SOL 口径聚合
}

// TradeEventPayload 是 swap 成交事件的 JSON 载荷（下发 trade topic）
type TradeEventPayload struct {
	EventID       uint64  `json:"event_id"`
	Slot          uint64  `json:"slot"`
	BlockTime     int64   `json:"block_time"`
	TxIndex       uint64  `json:"tx_index"`
	Signature     string  `json:"signature"`
	Signer        string  `json:"signer"`
	Token         string  `json:"token"`
	Side          string  `json:"side"` // buy / sell
	TradedUi      float64 `json:"traded_ui"`
	SolTraded     float64 `json:"sol_traded"`
	ImpliedPrice  float64 `json:"implied_price"`
	TokenDecimals uint8   `json:"token_decimals"`
}

// Dispatcher 将分类结果转换为待发送的 Kafka 消息。
// 分区 key 取 owner pubkey 原始字节，保证同一钱包的事件落在同一分区内有序。
// balance 事件会用价格缓存补上 SOL 计价字段（同块 swap 先写缓存再派发）。
type Dispatcher struct {
	balanceTopic      string
	tradeTopic        string
	balancePartitions uint32
	tradePartitions   uint32
	prices            *cache.PriceCache
}

type Config struct {
	BalanceTopic      string
	TradeTopic        string
	BalancePartitions int
	TradePartitions   int
}

func New(cfg Config, prices *cache.PriceCache) *Dispatcher {
	return &Dispatcher{
		balanceTopic:      cfg.BalanceTopic,
		tradeTopic:        cfg.TradeTopic,
		balancePartitions: uint32(cfg.BalancePartitions),
		tradePartitions:   uint32(cfg.TradePartitions),
		prices:            prices,
	}
}

// priceAt 查询 token 在 blockTime 时刻的 SOL 计价。
// 原生 SOL 恒为 1；无成交样本的 token 返回 0，由下游决定是否估值。
func (d *Dispatcher) priceAt(token types.Pubkey, blockTime int64) float64 {
	if token == consts.WSOLMint {
		return 1.0
	}
	if d.prices == nil {
		return 0
	}
	if blockTime <= 0 {
		// 节点未回填 block_time 时退化为最近一笔成交价
		point, ok := d.prices.Latest(token)
		if !ok {
			return 0
		}
		return point.PriceSol
	}
	price, ok := d.prices.GetPriceAt(token, blockTime)
	if !ok {
		return 0
	}
	return price
}

// BuildJobs 把一批分类结果展开为 Kafka 消息：
//   - Senders / Receivers 的每条归属记录产出一条 balance 事件（过滤已在分类阶段完成）；
//   - 每笔 swap 产出一条 trade 事件（无论是否命中 watch，价格流需要完整成交样本）。
func (d *Dispatcher) BuildJobs(results []*core.Classification) []*mq.KafkaJob {
	jobs := make([]*mq.KafkaJob, 0, len(results)*2)

	for _, r := range results {
		sig := base58.Encode(r.Signature)
		var seq uint16 // 交易内事件序号

		for _, s := range r.Senders {
			if job := d.balanceJob(r, sig, "sender", s, seq); job != nil {
				jobs = append(jobs, job)
				seq++
			}
		}
		for _, recv := range r.Receivers {
			if job := d.balanceJob(r, sig, "receiver", recv, seq); job != nil {
				jobs = append(jobs, job)
				seq++
			}
		}

		if r.Swap != nil {
			if job := d.tradeJob(r, sig, seq); job != nil {
				jobs = append(jobs, job)
			}
		}
	}
	return jobs
}

func (d *Dispatcher) balanceJob(r *core.Classification, sig, role string, entry core.RoleEntry, seq uint16) *mq.KafkaJob {
	priceSol := d.priceAt(entry.Token, r.BlockTime)
	uiAmount := entry.UiAmount()
	payload := BalanceEventPayload{
		EventID:      core.BuildEventID(r.TxIndex, seq),
		Slot:         r.Slot,
		BlockTime:    r.BlockTime,
		TxIndex:      r.TxIndex,
		Signature:    sig,
		Shape:        r.Shape.String(),
		Owner:        entry.Owner.String(),
		Token:        entry.Token.String(),
		Role:         role,
		Amount:       entry.Amount.String(),
		UiAmount:     uiAmount,
		Decimals:     entry.Decimals,
		WatchedMatch: r.WatchedMatch,
		PriceSol:     priceSol,
		ValueSol:     uiAmount * priceSol,
	}

	value, err := utils.EncodeEvent(core.EventTypeBalanceDelta, &payload)
	if err != nil {
		// JSON 编码纯内存结构，失败意味着代码缺陷而非数据问题
		return nil
	}

	return &mq.KafkaJob{
		Topic:     d.balanceTopic,
		Partition: int32(utils.PartitionHashBytes(entry.Owner[:], d.balancePartitions)),
		Key:       entry.Owner[:],
		Value:     value,
	}
}

func (d *Dispatcher) tradeJob(r *core.Classification, sig string, seq uint16) *mq.KafkaJob {
	payload := TradeEventPayload{
		EventID:       core.BuildEventID(r.TxIndex, seq),
		Slot:          r.Slot,
		BlockTime:     r.BlockTime,
		TxIndex:       r.TxIndex,
		Signature:     sig,
		Signer:        r.Swap.Signer.String(),
		Token:         r.Swap.Token.String(),
		Side:          r.Swap.Side.String(),
		TradedUi:      r.Swap.TradedUi,
		SolTraded:     r.Swap.SolTraded,
		ImpliedPrice:  r.Swap.ImpliedPrice,
		TokenDecimals: r.Swap.TokenDecimals,
	}

	value, err := utils.EncodeEvent(core.EventTypeSwap, &payload)
	if err != nil {
		return nil
	}

	return &mq.KafkaJob{
		Topic:     d.tradeTopic,
		Partition: int32(utils.PartitionHashBytes(r.Swap.Signer[:], d.tradePartitions)),
		Key:       r.Swap.Signer[:],
		Value:     value,
	}
}
