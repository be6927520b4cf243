package core

// EventType 表示下发到 Kafka 的事件类别（编码在消息体的 4 字节前缀中）
const (
	EventTypeBalanceDelta uint32 = 1 // 单条 (owner, token) 余额变动
	EventTypeSwap         uint32 = 2 // swap 成交明细
)

// BuildEventID 构造 slot 内唯一事件标识：高 48 位为 txIndex，低 16 位为交易内序号。
// 下游以 (slot, event_id) 去重。
func BuildEventID(txIndex uint64, seq uint16) uint64 {
	return txIndex<<16 | uint64(seq)
}
