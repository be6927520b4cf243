package progress

import (
	"context"
	"database/sql"
	"fmt"

	"wallet-indexer-sol/pkg/logger"
)

// DBProgressStore 管理 slot 进度的 DB 存储。
// 写入用于持久记录进度，服务恢复后可用；
// 不做高频幂等判重，只作为 Redis 失效后的 fallback。
type DBProgressStore struct {
	db *sql.DB
}

func NewDBProgressStore(db *sql.DB) *DBProgressStore {
	return &DBProgressStore{db: db}
}

// CheckSlotExists 判定某 slot 是否已存在于 DB 中（Redis 未命中时的 fallback）
func (d *DBProgressStore) CheckSlotExists(ctx context.Context, slot uint64, eventType EventType) (bool, error) {
	query := fmt.Sprintf(`SELECT 1 FROM %s WHERE slot = $1`, eventType.TableName())
	var dummy int
	err := d.db.QueryRowContext(ctx, query, slot).Scan(&dummy)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check slot exists error: %w", err)
	}
	return true, nil
}

// BatchInsertProcessedSlots 批量插入 slot 记录，按 batchLimit 分批写入数据库。
// 如果 slot 冲突，交由 insertChunk 中的 ON CONFLICT 策略处理。
func (d *DBProgressStore) BatchInsertProcessedSlots(ctx context.Context, eventType EventType, slots []*SlotRecord) error {
	if len(slots) == 0 {
		return nil
	}

	const batchLimit = 1000
	for i := 0; i < len(slots); i += batchLimit {
		end := i + batchLimit
		if end > len(slots) {
			end = len(slots)
		}
		if err := d.insertChunk(ctx, eventType, slots[i:end]); err != nil {
			return err
		}
	}
	return nil
}

// insertChunk 插入一批 slot 记录（最多 1000 条）。
// 若主键 slot 冲突，仅更新 status 和 updated_at 字段。
func (d *DBProgressStore) insertChunk(ctx context.Context, eventType EventType, slots []*SlotRecord) error {
	query := fmt.Sprintf(`INSERT INTO %s (slot, source, block_time, status, updated_at) VALUES `, eventType.TableName())
	args := make([]interface{}, 0, len(slots)*4)
	placeholders := ""

	for i, s := range slots {
		placeholders += fmt.Sprintf("($%d,$%d,$%d,$%d,CURRENT_TIMESTAMP),", i*4+1, i*4+2, i*4+3, i*4+4)
		args = append(args, s.Slot, s.Source, s.BlockTime, s.Status)
	}

	query += placeholders[:len(placeholders)-1] +
		` ON CONFLICT (slot) DO UPDATE SET
	status = EXCLUDED.status,
	updated_at = CURRENT_TIMESTAMP`

	_, err := d.db.ExecContext(ctx, query, args...)
	return err
}

// gcRetainSlots 是 GC 的保留窗口。
// 估算公式：7天 × 每秒 2.5 slot = ~1,512,000 slots
const gcRetainSlots = uint64(float64(7*24*3600) * 2.5)

// gcSafeSlot 计算删除的安全上界：低于该值的记录可删。
// 最新 slot 还没越过保留窗口时返回 false，避免 uint64 下溢把全表删空。
func gcSafeSlot(latest uint64) (uint64, bool) {
	if latest <= gcRetainSlots {
		return 0, false
	}
	return latest - gcRetainSlots, true
}

// DeleteOldSlots 删除历史 slot 记录（用于进度 GC）。
// 保留最近 7 天的数据，老数据按 slot 值判断。
// 为防止锁表和长事务，采用分批删除（每批最多 1000 条）。
func (d *DBProgressStore) DeleteOldSlots(ctx context.Context, eventType EventType) error {
	table := eventType.TableName()

	// 获取当前最新的 slot，用于计算安全保留下限
	var latestSlot sql.NullInt64
	if err := d.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT MAX(slot) FROM %s`, table)).Scan(&latestSlot); err != nil {
		return fmt.Errorf("fetch latest slot failed: %w", err)
	}
	if !latestSlot.Valid {
		return nil // 空表
	}

	safeSlot, ok := gcSafeSlot(uint64(latestSlot.Int64))
	if !ok {
		return nil // 链高度尚未超过保留窗口，无可删除的历史数据
	}

	const batchSize = 1000
	for {
		res, err := d.db.ExecContext(ctx,
			fmt.Sprintf(`DELETE FROM %s WHERE slot IN (
				SELECT slot FROM %s WHERE slot < $1 ORDER BY slot LIMIT $2
			)`, table, table),
			safeSlot, batchSize,
		)
		if err != nil {
			return fmt.Errorf("delete old slots failed: %w", err)
		}

		n, _ := res.RowsAffected()
		if n == 0 {
			break
		}
		logger.Infof("[progress-gc] table=%s deleted %d old rows", table, n)
	}

	return nil
}
