package service

import (
	"context"
	"errors"
	"time"

	"wallet-indexer-sol/internal/logic/progress"
)

const (
	progressFlushInterval = 5 * time.Second
	progressGCInterval    = 6 * time.Hour
)

// ProgressService 把进度管理器的后台循环（批量落库 + 历史 GC）挂进服务组
type ProgressService struct {
	pm     *progress.ProgressManager
	ctx    context.Context
	cancel func(err error)
}

func NewProgressService(pm *progress.ProgressManager) *ProgressService {
	ctx, cancel := context.WithCancelCause(context.Background())
	return &ProgressService{pm: pm, ctx: ctx, cancel: cancel}
}

func (s *ProgressService) Start() {
	s.pm.StartGCLoop(s.ctx, progressGCInterval)
	s.pm.StartFlushLoop(s.ctx, progressFlushInterval) // 阻塞直到 Stop
}

func (s *ProgressService) Stop() {
	s.cancel(errors.New("service stop"))
}
