package consts

import "runtime"

const (
	ChainIDSolana uint32 = 100000

	// NativeDecimals 表示原生 SOL 的精度（lamports → SOL）
	NativeDecimals uint8 = 9

	// SwapLogMarker 是 swap 指令在交易日志中的标准标记行。
	// 分类器依赖该字面量判断交易是否包含 swap 指令。
	SwapLogMarker = "Program log: Instruction: Swap"
)

// CpuCount 表示逻辑 CPU 核心数，用于控制并发任务调度上限
var CpuCount = runtime.NumCPU()
