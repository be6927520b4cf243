package core

import (
	"math"
	"math/big"

	"wallet-indexer-sol/internal/types"
)

// TxShape 表示一笔交易被识别出的经济形态，四种取值互斥。
type TxShape uint32

const (
	ShapeUnclassified   TxShape = 0 // 无法归类（结果仍产出，但不带余额变动）
	ShapeNativeTransfer TxShape = 1 // 纯 SOL 转账
	ShapeSwap           TxShape = 2 // SOL ↔ token 兑换
	ShapeTokenTransfer  TxShape = 3 // SPL Token 转账
)

func (s TxShape) String() string {
	switch s {
	case ShapeNativeTransfer:
		return "native_transfer"
	case ShapeSwap:
		return "swap"
	case ShapeTokenTransfer:
		return "token_transfer"
	default:
		return "unclassified"
	}
}

// SwapSide 表示 swap 相对于 signer 的方向。
type SwapSide uint8

const (
	SideBuy  SwapSide = 1 // signer 获得 token，支出 SOL
	SideSell SwapSide = 2 // signer 卖出 token，获得 SOL
)

func (s SwapSide) String() string {
	if s == SideBuy {
		return "buy"
	}
	return "sell"
}

// BalanceDelta 表示某 (owner, token) 持仓在一笔交易中的净变动。
// RawDelta = post - pre，使用 big.Int 承载：u64 余额差在极端情况下超出 int64 范围。
// UI 金额永远由 RawDelta + Decimals 按需推导，不作为数据源存储。
type BalanceDelta struct {
	Owner    types.Pubkey
	Token    types.Pubkey
	RawDelta *big.Int
	Decimals uint8
}

// UiAmount 返回按精度缩放后的金额（仅用于展示，内部比较一律走 RawDelta）
func (d *BalanceDelta) UiAmount() float64 {
	f, _ := new(big.Float).SetInt(d.RawDelta).Float64()
	return f / math.Pow10(int(d.Decimals))
}

// Sign 返回 RawDelta 的符号：-1 / 0 / +1
func (d *BalanceDelta) Sign() int {
	return d.RawDelta.Sign()
}

// RoleEntry 表示 sender/receiver 桶中的一条记录，金额为正数幅值。
type RoleEntry struct {
	Owner    types.Pubkey
	Token    types.Pubkey
	Amount   *big.Int // 正数幅值（sender 侧已做 fee 归一）
	Decimals uint8
}

// UiAmount 返回按精度缩放后的幅值
func (r *RoleEntry) UiAmount() float64 {
	f, _ := new(big.Float).SetInt(r.Amount).Float64()
	return f / math.Pow10(int(r.Decimals))
}

// SwapDetail 表示 Swap 形态的补充信息：方向、成交量与隐含价格。
// ImpliedPrice 是 signer 的实际成交价（SOL / token），不是市场中间价。
type SwapDetail struct {
	Signer        types.Pubkey
	Token         types.Pubkey // 被交易的 token mint
	Side          SwapSide
	TradedUi      float64 // |token 变动| 的 UI 金额
	SolTraded     float64 // 扣除 fee 后 signer 的 SOL 变动幅值（UI）
	ImpliedPrice  float64 // SolTraded / TradedUi
	TokenDecimals uint8
}

// Classification 为分类管线对单笔交易的最终产出。
// Shape 为 Unclassified 时其余切片均为空。
type Classification struct {
	Shape     TxShape
	Slot      uint64
	BlockTime int64
	TxIndex   uint64
	Signature []byte

	// Deltas 为归一化后的全部余额变动（native 形态含零变动账户，便于守恒校验）。
	Deltas []BalanceDelta

	// Senders / Receivers 按符号拆分后的归属桶（零变动已剔除）。
	// Receivers 的过滤遵循非对称规则：sender 无 watch 命中时只保留 watch 内的 receiver。
	Senders   []RoleEntry
	Receivers []RoleEntry

	// WatchedMatch 表示任一 sender/receiver 的 owner 命中 watch-list。
	WatchedMatch bool

	// Swap 仅在 Shape == ShapeSwap 时非 nil。
	Swap *SwapDetail
}
