package progress

import (
	"context"
	"time"

	"wallet-indexer-sol/pkg/logger"
)

// ProgressManager 统一封装 Redis + DB + 缓冲，控制进度判重与写入
type ProgressManager struct {
	redis           *RedisProgressStore
	db              *DBProgressStore
	buffer          *slotBuffer
	recentThreshold time.Duration // 新 block 的判断阈值
}

func NewProgressManager(redis *RedisProgressStore, db *DBProgressStore, recentThresholdSec int) *ProgressManager {
	return &ProgressManager{
		redis:           redis,
		db:              db,
		buffer:          newSlotBuffer(),
		recentThreshold: time.Duration(recentThresholdSec) * time.Second,
	}
}

// ShouldProcessSlot 用于判断是否需要处理该 slot：
// - 如果 block 是最近的，直接处理；
// - 否则 Redis 查状态，未命中再 fallback 到 DB。
func (pm *ProgressManager) ShouldProcessSlot(ctx context.Context, slot uint64, eventType EventType, blockTime int64) (bool, error) {
	if time.Since(time.Unix(blockTime, 0)) <= pm.recentThreshold {
		return true, nil // 近期 block，直接处理
	}

	// 旧 block 判重：先查 Redis
	status, err := pm.redis.GetSlotStatus(ctx, slot, eventType)
	if err != nil {
		return false, err
	}
	if status == SlotProcessed || status == SlotInvalid {
		return false, nil
	}

	// fallback 到 DB
	exists, err := pm.db.CheckSlotExists(ctx, slot, eventType)
	if err != nil {
		return false, err
	}
	if exists {
		// 回填 Redis，避免下次再打 DB
		_ = pm.redis.MarkSlotProcessed(ctx, slot, eventType)
		return false, nil
	}
	return true, nil
}

// MarkSlotStatus 标记某 slot 的处理状态（如已处理、结构非法等）。
// 会同时更新 Redis 与 slotBuffer（供后续批量写入 DB）。
func (pm *ProgressManager) MarkSlotStatus(
	ctx context.Context,
	slot uint64,
	eventType EventType,
	source int16,
	blockTime int64,
	status SlotStatus,
) error {
	var err error

	switch status {
	case SlotProcessed:
		err = pm.redis.MarkSlotProcessed(ctx, slot, eventType)
	case SlotInvalid:
		err = pm.redis.MarkSlotInvalid(ctx, slot, eventType)
	default:
		return nil // SlotUnknown / SlotPending 不参与记录
	}
	if err != nil {
		return err
	}

	pm.buffer.Add(eventType, &SlotRecord{
		Slot:      slot,
		Source:    source,
		BlockTime: blockTime,
		Status:    status,
	})
	return nil
}

// StartFlushLoop 启动后台定时 flush（阻塞，调用方决定 goroutine）
func (pm *ProgressManager) StartFlushLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			pm.flushOnce(ctx) // 退出前兜底一次
			return
		case <-ticker.C:
			pm.flushOnce(ctx)
		}
	}
}

func (pm *ProgressManager) flushOnce(ctx context.Context) {
	flushed := pm.buffer.Flush()
	for et, list := range flushed {
		if len(list) == 0 {
			continue
		}
		if err := pm.db.BatchInsertProcessedSlots(ctx, et, list); err != nil {
			// buffer 已清空，丢失的进度可由 Redis / 下次标记补偿
			logger.Errorf("[progress] flush %s failed: %v", et.TableName(), err)
		}
	}
}

// StartGCLoop 启动后台 GC 清理（每 interval 执行一次，对所有事件类型清理历史 slot 记录）
func (pm *ProgressManager) StartGCLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				for _, et := range []EventType{EventTrade, EventBalance} {
					if err := pm.db.DeleteOldSlots(ctx, et); err != nil {
						logger.Errorf("[progress-gc] %s: %v", et.TableName(), err)
					}
				}
			}
		}
	}()
}
