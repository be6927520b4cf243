package svc

import "sync/atomic"

// SlotTracker 记录已消费到的最高 slot，供滞后监控对照 RPC 节点。
// 流乱序推送时只保留最大值。
type SlotTracker struct {
	latest atomic.Uint64
}

func NewSlotTracker() *SlotTracker {
	return &SlotTracker{}
}

func (t *SlotTracker) Update(slot uint64) {
	for {
		cur := t.latest.Load()
		if slot <= cur {
			return
		}
		if t.latest.CompareAndSwap(cur, slot) {
			return
		}
	}
}

func (t *SlotTracker) Latest() uint64 {
	return t.latest.Load()
}
