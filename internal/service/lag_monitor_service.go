package service

import (
	"context"
	"errors"
	"time"

	"wallet-indexer-sol/internal/config"
	"wallet-indexer-sol/internal/svc"
	"wallet-indexer-sol/pkg/logger"

	"github.com/blocto/solana-go-sdk/client"
)

// LagMonitorService 周期性对照 RPC 节点的最新 slot 与已消费 slot，
// 滞后超过阈值时告警。订阅流静默卡死（连接未断但不再推送）靠它兜底发现。
type LagMonitorService struct {
	tracker     *svc.SlotTracker
	client      *client.Client // Solana RPC 客户端
	interval    time.Duration
	maxLagSlots uint64
	stopChan    chan struct{}
	ctx         context.Context
	cancel      func(err error)
}

func NewLagMonitorService(cfg *config.RpcConfig, tracker *svc.SlotTracker) (*LagMonitorService, error) {
	rpcClient := client.NewClient(cfg.Endpoint)
	if rpcClient == nil {
		return nil, errors.New("rpc client init failed")
	}

	interval := time.Duration(cfg.CheckIntervalS) * time.Second
	if interval <= 0 {
		interval = 30 * time.Second
	}
	maxLag := cfg.MaxLagSlots
	if maxLag == 0 {
		maxLag = 150 // ~1 分钟的 slot 数
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	return &LagMonitorService{
		tracker:     tracker,
		client:      rpcClient,
		interval:    interval,
		maxLagSlots: maxLag,
		stopChan:    make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}, nil
}

func (s *LagMonitorService) Start() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			close(s.stopChan)
			return
		case <-ticker.C:
			s.checkOnce()
		}
	}
}

func (s *LagMonitorService) Stop() {
	s.cancel(errors.New("service stop"))
	<-s.stopChan
}

func (s *LagMonitorService) checkOnce() {
	streamed := s.tracker.Latest()
	if streamed == 0 {
		// 尚未收到任何区块，建连阶段不告警
		return
	}

	ctx, cancel := context.WithTimeout(s.ctx, 6*time.Second)
	rpcSlot, err := s.client.GetSlot(ctx)
	cancel()
	if err != nil {
		logger.Warnf("[LagMonitor] getSlot 失败: %v", err)
		return
	}

	if rpcSlot > streamed && rpcSlot-streamed > s.maxLagSlots {
		logger.Errorf("[LagMonitor] 消费滞后: rpc_slot=%d, streamed_slot=%d, lag=%d",
			rpcSlot, streamed, rpcSlot-streamed)
	} else {
		logger.Debugf("[LagMonitor] rpc_slot=%d, streamed_slot=%d", rpcSlot, streamed)
	}
}
