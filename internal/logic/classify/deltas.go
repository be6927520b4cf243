package classify

import (
	"math/big"

	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"
)

// nativeDeltas 为每个账户下标产出一条 SOL 余额变动（rawDelta = post - pre）。
// 零变动账户保留：总和必须等于 -fee，过滤交给下游按符号处理。
func (c *Classifier) nativeDeltas(e *core.TxEvent) []core.BalanceDelta {
	deltas := make([]core.BalanceDelta, 0, len(e.AccountKeys))
	for i, key := range e.AccountKeys {
		deltas = append(deltas, core.BalanceDelta{
			Owner:    key,
			Token:    c.cfg.NativeMint,
			RawDelta: rawDelta(e.NativePre[i], e.NativePost[i]),
			Decimals: c.cfg.NativeDecimals,
		})
	}
	return deltas
}

// holdingKey 为 token 持仓的归集维度
type holdingKey struct {
	owner types.Pubkey
	token types.Pubkey
}

type holdingState struct {
	pre      uint64
	post     uint64
	decimals uint8
}

// tokenDeltas 按 (owner, token) 归集前后快照并产出净变动。
// 只出现在单侧的持仓（mint/burn 边界）按缺失侧余额为 0 处理，照常产出，不做抑制。
// 同一 owner 持有同一 mint 的多个 token account 时金额合并。
// 输出顺序为 key 首次出现顺序，与 map 遍历无关，保证结果确定。
func (c *Classifier) tokenDeltas(e *core.TxEvent) []core.BalanceDelta {
	capacity := len(e.TokenPre) + len(e.TokenPost)
	holdings := make(map[holdingKey]*holdingState, capacity)
	ordered := make([]holdingKey, 0, capacity)

	touch := func(r core.TokenBalanceRecord) *holdingState {
		k := holdingKey{owner: r.Owner, token: r.Token}
		st, ok := holdings[k]
		if !ok {
			st = &holdingState{decimals: r.Decimals}
			holdings[k] = st
			ordered = append(ordered, k)
		}
		return st
	}

	for _, r := range e.TokenPre {
		touch(r).pre += r.Amount
	}
	for _, r := range e.TokenPost {
		touch(r).post += r.Amount
	}

	deltas := make([]core.BalanceDelta, 0, len(ordered))
	for _, k := range ordered {
		st := holdings[k]
		if st.pre == st.post {
			continue
		}
		deltas = append(deltas, core.BalanceDelta{
			Owner:    k.owner,
			Token:    k.token,
			RawDelta: rawDelta(st.pre, st.post),
			Decimals: st.decimals,
		})
	}
	return deltas
}

// rawDelta 计算 post - pre，结果可能超出 int64 范围，统一用 big.Int 承载
func rawDelta(pre, post uint64) *big.Int {
	d := new(big.Int).SetUint64(post)
	return d.Sub(d, new(big.Int).SetUint64(pre))
}
