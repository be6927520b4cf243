package svc

import (
	"database/sql"
	"fmt"

	"wallet-indexer-sol/internal/cache"
	"wallet-indexer-sol/internal/config"
	"wallet-indexer-sol/internal/logic/classify"
	"wallet-indexer-sol/internal/logic/progress"
	"wallet-indexer-sol/internal/types"
	"wallet-indexer-sol/pkg/logger"
	"wallet-indexer-sol/pkg/mq"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"
)

// GrpcServiceContext 包含 GRPC 服务资源
type GrpcServiceContext struct {
	Config          config.GrpcConfig
	WatchSet        map[types.Pubkey]struct{}
	Classifier      *classify.Classifier
	PriceCache      *cache.PriceCache
	Producer        *kafka.Producer
	ProgressManager *progress.ProgressManager
	SlotTracker     *SlotTracker

	db  *sql.DB
	rdb *redis.Client
}

// NewGrpcServiceContext 创建一个新的 GRPC 服务上下文
func NewGrpcServiceContext(c config.GrpcConfig) (*GrpcServiceContext, error) {
	// 1. 加载监控钱包名单
	watchSet, err := config.LoadWatchlist(c.WatcherConf.WatchlistFile)
	if err != nil {
		logger.Errorf("watchlist 加载失败: %v", err)
		return nil, err
	}
	logger.Infof("watchlist 加载完成, 共 %d 个钱包", len(watchSet))

	// 2. 初始化 Kafka 生产者
	producer, err := mq.NewKafkaProducer(c.KafkaProducerConf.ToKafkaOption())
	if err != nil {
		logger.Errorf("Kafka producer 初始化失败: %v", err)
		return nil, err
	}

	// 3. 初始化 Redis 客户端（用于 slot 状态缓存）
	rdb := redis.NewClient(&redis.Options{
		Addr: c.RedisAddr, // eg: "127.0.0.1:6379"
	})

	// 4. 初始化 PostgreSQL 数据库连接（用于 slot 落库），驱动为 pgx stdlib
	db, err := sql.Open("pgx", c.PostgresDSN)
	if err != nil {
		producer.Close()
		logger.Errorf("PostgreSQL 连接失败: %v", err)
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	// 5. 判定近期 block 的时间阈值（默认 60 秒）
	threshold := c.ProgressConf.RecentThresholdSec
	if threshold <= 0 {
		threshold = 60
	}

	// 6. 初始化进度管理器（Redis + DB + 缓冲）
	pm := progress.NewProgressManager(
		progress.NewRedisProgressStore(rdb),
		progress.NewDBProgressStore(db),
		threshold,
	)

	ctx := &GrpcServiceContext{
		Config:   c,
		WatchSet: watchSet,
		Classifier: classify.New(classify.Config{
			WatchList:  watchSet,
			SwapMarker: c.WatcherConf.SwapMarker,
		}),
		PriceCache:      cache.NewPriceCache(),
		Producer:        producer,
		ProgressManager: pm,
		SlotTracker:     NewSlotTracker(),
		db:              db,
		rdb:             rdb,
	}

	logger.Infof("GRPC 服务上下文初始化完成")
	return ctx, nil
}

// Close 关闭服务上下文中的资源
func (ctx *GrpcServiceContext) Close() {
	if ctx.Producer != nil {
		ctx.Producer.Close()
	}
	if ctx.db != nil {
		_ = ctx.db.Close()
	}
	if ctx.rdb != nil {
		_ = ctx.rdb.Close()
	}
}
