package classify

import (
	"wallet-indexer-sol/internal/logic/core"
)

// Process 对单笔交易事件执行完整分类管线：
// 形态识别 → 余额变动提取 → （swap 价格计算）→ fee 归一 + 归属拆分。
//
// 错误约定：只有结构性契约违规（MalformedEventError）返回 error，该事件应被丢弃；
// 其余一切退化情形（swap 前置条件不满足、零成交量）都安静降级为 Unclassified。
// 无任何跨事件状态，单个事件的失败不会污染后续处理。
func (c *Classifier) Process(e *core.TxEvent) (*core.Classification, error) {
	if err := validate(e); err != nil {
		return nil, err
	}

	result := &core.Classification{
		Shape:     c.detectShape(e),
		TxIndex:   e.TxIndex,
		Signature: e.Signature,
	}
	if e.TxCtx != nil {
		result.Slot = e.TxCtx.Slot
		result.BlockTime = e.TxCtx.BlockTime
	}

	switch result.Shape {
	case core.ShapeNativeTransfer:
		result.Deltas = c.nativeDeltas(e)

	case core.ShapeSwap:
		detail, deltas, ok := c.swapDetail(e)
		if !ok {
			// 前置条件不满足：降级而非报错
			result.Shape = core.ShapeUnclassified
			return result, nil
		}
		result.Swap = detail
		result.Deltas = deltas

	case core.ShapeTokenTransfer:
		result.Deltas = c.tokenDeltas(e)

	default:
		return result, nil
	}

	result.Senders, result.Receivers, result.WatchedMatch =
		c.attribute(result.Shape, result.Deltas, e.FeePayer(), e.Fee)

	return result, nil
}
