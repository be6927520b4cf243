package classify

import (
	"fmt"

	"wallet-indexer-sol/internal/logic/core"
)

// MalformedEventError 表示事件结构违反数据契约（数组长度不匹配、缺失必要字段）。
// 该错误只影响当前事件：调用方丢弃本事件并继续处理后续流。
type MalformedEventError struct {
	Reason string
}

func (e *MalformedEventError) Error() string {
	return fmt.Sprintf("malformed tx event: %s", e.Reason)
}

// validate 校验结构契约：accountKeys 与 native 余额数组必须等长且非空。
// 形态判定之前必须先通过校验。
func validate(e *core.TxEvent) error {
	if len(e.AccountKeys) == 0 {
		return &MalformedEventError{Reason: "empty accountKeys"}
	}
	if len(e.NativePre) != len(e.AccountKeys) || len(e.NativePost) != len(e.AccountKeys) {
		return &MalformedEventError{Reason: fmt.Sprintf(
			"native balance length mismatch: keys=%d pre=%d post=%d",
			len(e.AccountKeys), len(e.NativePre), len(e.NativePost))}
	}
	return nil
}

// detectShape 按固定优先级识别交易形态（首个命中即返回）：
//  1. 前后都没有 token 余额记录 → 纯 SOL 转账
//  2. 日志含 swap 标记且 signer 前后 token 持仓各不超过 1 条 → swap
//  3. token 余额记录总数 > 2 → token 转账
//  4. 其余 → 无法归类
//
// 规则 2 与规则 3 在复杂多指令交易中可能同时成立，这里保持先判 swap 的顺序。
func (c *Classifier) detectShape(e *core.TxEvent) core.TxShape {
	if len(e.TokenPre) == 0 && len(e.TokenPost) == 0 {
		return core.ShapeNativeTransfer
	}

	if containsLine(e.LogLines, c.cfg.SwapMarker) {
		pre, post := e.SignerTokenRecords()
		if len(pre) <= 1 && len(post) <= 1 {
			return core.ShapeSwap
		}
	}

	if len(e.TokenPre)+len(e.TokenPost) > 2 {
		return core.ShapeTokenTransfer
	}

	return core.ShapeUnclassified
}

func containsLine(lines []string, marker string) bool {
	for _, l := range lines {
		if l == marker {
			return true
		}
	}
	return false
}
