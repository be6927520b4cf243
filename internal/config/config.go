package config

import (
	"wallet-indexer-sol/pkg/logger"
	"wallet-indexer-sol/pkg/mq"
)

type LogConfig struct {
	Format   string `yaml:"format"`   // 日志格式，支持 "console" 或 "json"
	LogDir   string `yaml:"log_dir"`  // 日志目录（可为相对路径或绝对路径）
	Level    string `yaml:"level"`    // 日志级别：debug / info / warn / error
	Compress bool   `yaml:"compress"` // 是否压缩旧日志文件
}

func (c *LogConfig) ToLogOption() logger.LogOption {
	return logger.LogOption{
		Format:   c.Format,
		LogDir:   c.LogDir,
		Level:    c.Level,
		Compress: c.Compress,
	}
}

// WatcherConfig 表示钱包监控配置
type WatcherConfig struct {
	WatchlistFile string `yaml:"watchlist_file"` // watch-list 文件路径（yaml，钱包地址列表）
	Commitment    string `yaml:"commitment"`     // 订阅确认级别：processed / confirmed / finalized
	SwapMarker    string `yaml:"swap_marker"`    // swap 日志标记行，留空用默认值
}

// RpcConfig 表示链上 RPC 对照节点配置（滞后监控用）
type RpcConfig struct {
	Endpoint       string `yaml:"endpoint"`         // Solana RPC 地址
	CheckIntervalS int    `yaml:"check_interval_s"` // 滞后检测间隔（秒）
	MaxLagSlots    uint64 `yaml:"max_lag_slots"`    // 滞后告警阈值（slot 数）
}

// KafkaProducerConfig 表示 Kafka 生产者相关配置
type KafkaProducerConfig struct {
	Brokers   string `yaml:"brokers"`    // Kafka broker 地址，多个用英文逗号分隔
	BatchSize int    `yaml:"batch_size"` // 批处理大小（单位字节）
	LingerMs  int    `yaml:"linger_ms"`  // 批处理最大延迟（毫秒）

	Topics struct {
		Balance string `yaml:"balance"` // 余额变动事件的 Kafka topic
		Trade   string `yaml:"trade"`   // swap 成交事件的 Kafka topic
	} `yaml:"topics"`

	Partitions struct {
		Balance int `yaml:"balance"` // balance topic 的分区数
		Trade   int `yaml:"trade"`   // trade topic 的分区数
	} `yaml:"partitions"`
}

func (c *KafkaProducerConfig) ToKafkaOption() mq.KafkaProducerOption {
	return mq.KafkaProducerOption{
		Brokers:   c.Brokers,
		BatchSize: c.BatchSize,
		LingerMs:  c.LingerMs,
		Topics: []struct {
			Topic      string
			Partitions int
		}{
			{Topic: c.Topics.Balance, Partitions: c.Partitions.Balance},
			{Topic: c.Topics.Trade, Partitions: c.Partitions.Trade},
		},
	}
}

// TimeConfig 表示各种超时配置（单位：毫秒）
type TimeConfig struct {
	SlotDispatchTimeoutMs int `yaml:"slot_dispatch_timeout_ms"` // 每个 slot 的处理最大耗时（Kafka + Redis + DB）
	EventSendTimeoutMs    int `yaml:"event_send_timeout_ms"`    // 单条事件发送到 Kafka 并等待 ack 的超时时间
}

// GrpcConfig 是主配置结构体，用于驱动索引器服务
type GrpcConfig struct {
	LogConf           LogConfig           `yaml:"logger"`         // 日志配置
	WatcherConf       WatcherConfig       `yaml:"watcher"`        // 监控钱包配置
	RpcConf           RpcConfig           `yaml:"rpc"`            // RPC 对照节点配置
	KafkaProducerConf KafkaProducerConfig `yaml:"kafka_producer"` // Kafka 生产者配置
	TimeConf          TimeConfig          `yaml:"time_conf"`      // 时间相关配置

	RedisAddr    string `yaml:"redis_addr"`   // Redis 地址
	PostgresDSN  string `yaml:"postgres_dsn"` // PostgreSQL 数据源
	ProgressConf struct {
		RecentThresholdSec int `yaml:"recent_threshold_sec"` // 判定为近期 block 的时间阈值（秒）
	} `yaml:"progress"` // 进度管理配置

	// gRPC 客户端连接相关配置
	Grpc struct {
		Endpoint string `yaml:"endpoint"` // gRPC 服务端地址
		XToken   string `yaml:"x_token"`  // x-token 认证

		// 应用级逻辑心跳（ping）配置
		StreamPingIntervalSec int `yaml:"stream_ping_interval_sec"` // 应用层 ping 心跳间隔（秒）

		// gRPC Keepalive 底层连接检测配置
		KeepalivePingIntervalSec int `yaml:"keepalive_ping_interval_sec"` // 底层 keepalive 间隔（秒）
		KeepalivePingTimeoutSec  int `yaml:"keepalive_ping_timeout_sec"`  // 底层 keepalive 超时（秒）

		// gRPC 窗口大小调优（用于大数据流推送）
		InitialWindowSize     int `yaml:"initial_window_size"`      // 单流窗口大小（字节）
		InitialConnWindowSize int `yaml:"initial_conn_window_size"` // 整体连接窗口大小（字节）

		// 消息体大小限制
		MaxCallSendMsgSize int `yaml:"max_call_send_msg_size"` // 单条消息最大发送字节数
		MaxCallRecvMsgSize int `yaml:"max_call_recv_msg_size"` // 单条消息最大接收字节数

		// 超时与重连策略
		ReconnectIntervalSec int `yaml:"reconnect_interval_sec"` // 重连最小间隔（秒）
		ConnectTimeoutSec    int `yaml:"connect_timeout_sec"`    // 连接建立超时（秒）
		SendTimeoutSec       int `yaml:"send_timeout_sec"`       // 发送超时（秒）
		RecvTimeoutSec       int `yaml:"recv_timeout_sec"`       // 接收超时（秒）
	} `yaml:"grpc"`
}
