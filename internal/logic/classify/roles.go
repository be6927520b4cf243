package classify

import (
	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/types"
)

// attribute 把余额变动按符号拆进 sender / receiver 桶：
//   - sign < 0 → sender（幅值经 fee 归一，见 effectiveAmount）
//   - sign > 0 → receiver
//   - sign == 0 → 丢弃（无经济效果）
//
// receiver 上报遵循非对称过滤：
//   - sender 桶中无 watch 命中 → receiver 只保留 watch 内的 owner（"我收到钱了吗"）；
//   - sender 桶中有 watch 命中 → receiver 全量上报（"我付给了谁"）。
//
// WatchedMatch 在过滤前基于两个完整桶计算。
func (c *Classifier) attribute(
	shape core.TxShape,
	deltas []core.BalanceDelta,
	feePayer types.Pubkey,
	fee uint64,
) (senders, receivers []core.RoleEntry, watched bool) {
	for i := range deltas {
		d := &deltas[i]
		sign := d.Sign()
		if sign == 0 {
			continue
		}

		entry := core.RoleEntry{
			Owner:    d.Owner,
			Token:    d.Token,
			Amount:   effectiveAmount(shape, d, feePayer, fee),
			Decimals: d.Decimals,
		}
		if sign < 0 {
			senders = append(senders, entry)
		} else {
			receivers = append(receivers, entry)
		}
	}

	senderWatched := false
	for _, s := range senders {
		if c.Watched(s.Owner) {
			senderWatched = true
			break
		}
	}

	watched = senderWatched
	if !watched {
		for _, r := range receivers {
			if c.Watched(r.Owner) {
				watched = true
				break
			}
		}
	}

	if !senderWatched {
		filtered := receivers[:0]
		for _, r := range receivers {
			if c.Watched(r.Owner) {
				filtered = append(filtered, r)
			}
		}
		receivers = filtered
	}

	return senders, receivers, watched
}
