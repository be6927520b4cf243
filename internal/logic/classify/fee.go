package classify

import (
	"math/big"

	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"
)

// effectiveAmount 返回某条余额变动在归属桶中的正数幅值。
//
// fee 归一只作用于纯 SOL 转账中 fee payer 的负变动：其 rawDelta 已含手续费扣款，
// 经济意义上的转出额需要加回 fee（|rawDelta + fee|）。
// rawDelta 非负时不做调整——fee payer 同时是净收款方的场景下该口径可能少算 fee，
// 这是源头已知的歧义行为，这里保持原样不做“修正”。
func effectiveAmount(shape core.TxShape, d *core.BalanceDelta, feePayer types.Pubkey, fee uint64) *big.Int {
	amount := new(big.Int).Set(d.RawDelta)

	if shape == core.ShapeNativeTransfer && d.Owner == feePayer && amount.Sign() < 0 {
		amount.Add(amount, new(big.Int).SetUint64(fee))
	}

	return amount.Abs(amount)
}
