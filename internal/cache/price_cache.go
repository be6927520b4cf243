package cache

import (
	"sort"
	"sync"

	"wallet-indexer-sol/internal/types"
)

// TokenPricePoint 是某个 token 在某一时刻的隐含成交价（SOL 计价）。
// 价格来源于链上 swap 的实际成交，而非盘口报价。
type TokenPricePoint struct {
	Timestamp int64
	PriceSol  float64
}

// PriceCache 维护各 token 的隐含价格滑动窗口，按时间升序排列，
// 供查询侧按 blockTime 快速定位最近成交价。
type PriceCache struct {
	mu      sync.RWMutex
	history map[types.Pubkey][]TokenPricePoint
}

func NewPriceCache() *PriceCache {
	return &PriceCache{
		history: make(map[types.Pubkey][]TokenPricePoint),
	}
}

// Insert 批量写入新的价格点（通常来自同一区块的 swap 分类结果）。
// 窗口满（maxCapacity）时丢弃最旧数据，保留最近 retainCount 个点。
func (pc *PriceCache) Insert(newPoints map[types.Pubkey]TokenPricePoint) {
	pc.mu.Lock()
	defer pc.mu.Unlock()

	const maxCapacity = 400
	const retainCount = 300

	for token, point := range newPoints {
		pricePoints, ok := pc.history[token]
		if !ok {
			pricePoints = make([]TokenPricePoint, 0, maxCapacity)
			pricePoints = append(pricePoints, point)
			pc.history[token] = pricePoints
			continue
		}

		if len(pricePoints) >= maxCapacity {
			// 将后半段复制到前半段，截断为 retainCount 长度
			copy(pricePoints[:retainCount], pricePoints[len(pricePoints)-retainCount:])
			pricePoints = pricePoints[:retainCount]
			pc.history[token] = pricePoints
		}

		// 顺序插入优化：流式写入几乎总命中该分支
		lastPricePoint := pricePoints[len(pricePoints)-1]
		if point.Timestamp == lastPricePoint.Timestamp {
			// 同一时间戳取后写入的价格（同块多笔 swap 以最后一笔为准）
			pricePoints[len(pricePoints)-1] = point
			continue
		}
		if point.Timestamp > lastPricePoint.Timestamp {
			pricePoints = append(pricePoints, point)
			pc.history[token] = pricePoints
			continue
		}

		// 乱序回填：插入到中间
		insertIdx := sort.Search(len(pricePoints), func(i int) bool {
			return pricePoints[i].Timestamp >= point.Timestamp
		})
		if insertIdx < len(pricePoints) && pricePoints[insertIdx].Timestamp == point.Timestamp {
			continue
		}

		pricePoints = append(pricePoints, TokenPricePoint{})
		copy(pricePoints[insertIdx+1:], pricePoints[insertIdx:])
		pricePoints[insertIdx] = point
		pc.history[token] = pricePoints
	}
}

// GetPriceAt 返回 token 在 blockTime 时刻的隐含价格（取 <= blockTime 的最近成交点）。
func (pc *PriceCache) GetPriceAt(token types.Pubkey, blockTime int64) (float64, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return pc.getPriceAtUnsafe(token, blockTime)
}

// Latest 返回 token 的最新价格点。
func (pc *PriceCache) Latest(token types.Pubkey) (TokenPricePoint, bool) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	points, ok := pc.history[token]
	if !ok || len(points) == 0 {
		return TokenPricePoint{}, false
	}
	return points[len(points)-1], true
}

func (pc *PriceCache) getPriceAtUnsafe(token types.Pubkey, blockTime int64) (float64, bool) {
	points, ok := pc.history[token]
	if !ok || len(points) == 0 {
		return 0, false
	}

	count := len(points)

	// 边界快速判断：比最老还早 or 比最新还晚
	if blockTime >= points[count-1].Timestamp {
		return points[count-1].PriceSol, true
	}
	if blockTime < points[0].Timestamp {
		return points[0].PriceSol, true
	}

	// 二分查找：找到第一个 >= blockTime 的点
	idx := sort.Search(len(points), func(i int) bool {
		return points[i].Timestamp >= blockTime
	})
	if idx < count && points[idx].Timestamp == blockTime {
		return points[idx].PriceSol, true
	}

	// 否则取前一个点（即 < blockTime 的最大点）
	if idx > 0 {
		idx--
	}
	return points[idx].PriceSol, true
}
