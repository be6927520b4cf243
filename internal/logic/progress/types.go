package progress

// SlotStatus 表示 slot 的处理状态（统一 Redis 与 DB 编码）
type SlotStatus int

const (
	SlotUnknown   SlotStatus = 0 // Redis 不存在
	SlotProcessed SlotStatus = 1 // 已处理成功
	SlotInvalid   SlotStatus = 2 // 明确结构错误、跳过
	SlotPending   SlotStatus = 3 // Redis 标记中，暂未完成（仅 Redis 用）
)

// EventType 表示不同类型的进度事件（用于区分 Redis key、表名）。
// 与两条下游 Kafka 流一一对应：余额变动流、swap 成交流。
type EventType int

const (
	EventBalance EventType = 0
	EventTrade   EventType = 1
)

func (et EventType) TableName() string {
	switch et {
	case EventTrade:
		return "progress_trade_slot"
	default:
		return "progress_balance_slot"
	}
}

// Source 表示事件来源模块（grpc、rpc）
const (
	SourceUnknown int16 = 0
	SourceGrpc    int16 = 1
	SourceRpc     int16 = 2
)

// SlotRecord 表示一条待写入 DB 的 slot 记录
type SlotRecord struct {
	Slot      uint64     // Solana slot
	Source    int16      // 来源：1=grpc, 2=rpc
	BlockTime int64      // Unix timestamp（秒）
	Status    SlotStatus // 处理状态：1=已处理，2=无效
}
