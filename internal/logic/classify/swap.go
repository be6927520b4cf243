package classify

import (
	"math"
	"math/big"

	"wallet-indexer-sol/internal/logic/core"
)

// swapDetail 计算 Swap 形态的成交明细。
//
// 前置条件（任一不满足则整笔降级为 Unclassified，绝不产出半填充的 Swap）：
//   - signer 恰好各有 1 条 pre / post token 快照；
//   - 两条快照为同一 mint；
//   - token 变动不为零（零变动没有价格信息，也避免除零）。
//
// 价格口径：
//
//	solTraded    = |(nativePre[0] - nativePost[0]) - fee| / 1e9
//	impliedPrice = solTraded / |uiTokenDelta|
//
// 即 signer 实际支付（或获得）的 SOL 成本摊到每单位 token 上，是成交价而非盘口价。
func (c *Classifier) swapDetail(e *core.TxEvent) (*core.SwapDetail, []core.BalanceDelta, bool) {
	pre, post := e.SignerTokenRecords()
	if len(pre) != 1 || len(post) != 1 {
		return nil, nil, false
	}
	if pre[0].Token != post[0].Token {
		return nil, nil, false
	}

	tokenDelta := rawDelta(pre[0].Amount, post[0].Amount)
	if tokenDelta.Sign() == 0 {
		return nil, nil, false
	}

	// signer 的 SOL 变动（pre - post：正数表示净支出，含 fee）
	solWithFee := new(big.Int).SetUint64(e.NativePre[0])
	solWithFee.Sub(solWithFee, new(big.Int).SetUint64(e.NativePost[0]))

	// 剔除 fee 后取幅值
	solTradedRaw := solWithFee.Sub(solWithFee, new(big.Int).SetUint64(e.Fee))
	solTradedRaw.Abs(solTradedRaw)
	solTraded := uiValue(solTradedRaw, c.cfg.NativeDecimals)

	decimals := post[0].Decimals
	tradedUi := uiValue(new(big.Int).Abs(tokenDelta), decimals)

	side := core.SideSell
	if tokenDelta.Sign() > 0 {
		side = core.SideBuy
	}

	detail := &core.SwapDetail{
		Signer:        e.FeePayer(),
		Token:         post[0].Token,
		Side:          side,
		TradedUi:      tradedUi,
		SolTraded:     solTraded,
		ImpliedPrice:  solTraded / tradedUi,
		TokenDecimals: decimals,
	}

	// Swap 形态只保留 signer 自身的变动：token 净变动 + SOL 净变动
	deltas := []core.BalanceDelta{
		{
			Owner:    e.FeePayer(),
			Token:    post[0].Token,
			RawDelta: tokenDelta,
			Decimals: decimals,
		},
		{
			Owner:    e.FeePayer(),
			Token:    c.cfg.NativeMint,
			RawDelta: rawDelta(e.NativePre[0], e.NativePost[0]),
			Decimals: c.cfg.NativeDecimals,
		},
	}

	return detail, deltas, true
}

// uiValue 将正数 raw 金额按精度缩放为 float64（仅展示/价格用途）
func uiValue(raw *big.Int, decimals uint8) float64 {
	f, _ := new(big.Float).SetInt(raw).Float64()
	return f / math.Pow10(int(decimals))
}
