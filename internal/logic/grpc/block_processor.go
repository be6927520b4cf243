package grpc

import (
	"context"
	"errors"
	"time"

	"wallet-indexer-sol/internal/cache"
	"wallet-indexer-sol/internal/consts"
	"wallet-indexer-sol/internal/logic/classify"
	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/logic/dispatcher"
	"wallet-indexer-sol/internal/logic/progress"
	"wallet-indexer-sol/internal/logic/txadapter"
	"wallet-indexer-sol/internal/svc"
	"wallet-indexer-sol/internal/types"
	"wallet-indexer-sol/pkg/mq"
	"wallet-indexer-sol/pkg/utils"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
	"github.com/zeromicro/go-zero/core/logx"
)

// BlockProcessor 串行消费区块，驱动分类管线并下发事件。
// 区块内交易并发分类，下发与进度标记按区块为单位完成。
type BlockProcessor struct {
	sc         *svc.GrpcServiceContext
	dispatcher *dispatcher.Dispatcher
	blockChan  chan *pb.SubscribeUpdateBlock
	ctx        context.Context
	cancel     func(err error)
	logx.Logger
}

func NewBlockProcessor(sc *svc.GrpcServiceContext, blockChan chan *pb.SubscribeUpdateBlock) *BlockProcessor {
	ctx, cancel := context.WithCancelCause(context.Background())
	kafkaConf := sc.Config.KafkaProducerConf
	return &BlockProcessor{
		sc: sc,
		dispatcher: dispatcher.New(dispatcher.Config{
			BalanceTopic:      kafkaConf.Topics.Balance,
			TradeTopic:        kafkaConf.Topics.Trade,
			BalancePartitions: kafkaConf.Partitions.Balance,
			TradePartitions:   kafkaConf.Partitions.Trade,
		}, sc.PriceCache),
		blockChan: blockChan,
		Logger:    logx.WithContext(ctx).WithFields(logx.Field("service", "block_processor")),
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (p *BlockProcessor) Start() {
	for {
		select {
		case <-p.ctx.Done():
			return
		case block := <-p.blockChan:
			p.procBlock(block)
			if len(p.blockChan) > 10 {
				p.Debugf("block chan len:%v", len(p.blockChan))
			}
		}
	}
}

func (p *BlockProcessor) Stop() {
	p.cancel(errors.New("service stop"))
}

func (p *BlockProcessor) procBlock(block *pb.SubscribeUpdateBlock) {
	startTime := time.Now()
	defer func() {
		p.Infof("区块处理总耗时: %v, slot: %d", time.Since(startTime), block.Slot)
	}()

	txCtx := p.buildTxContext(block)
	p.sc.SlotTracker.Update(block.Slot)

	// 1. slot 判重：已处理过的旧区块直接跳过
	shouldProcess, err := p.sc.ProgressManager.ShouldProcessSlot(
		p.ctx, block.Slot, progress.EventBalance, txCtx.BlockTime)
	if err != nil {
		p.Errorf("slot 判重失败, 继续处理: slot=%d, err=%v", block.Slot, err)
	} else if !shouldProcess {
		p.Infof("slot 已处理, 跳过: slot=%d", block.Slot)
		return
	}

	// 2. 过滤合法交易
	validTxs := make([]*pb.SubscribeUpdateTransactionInfo, 0, len(block.Transactions))
	for _, tx := range block.Transactions {
		if txadapter.ValidateGrpcTx(tx) == nil {
			validTxs = append(validTxs, tx)
		}
	}

	// 3. 并发分类
	parseStart := time.Now()
	results := utils.ParallelMap(validTxs, consts.CpuCount+2,
		func(tx *pb.SubscribeUpdateTransactionInfo) *core.Classification {
			return p.classifyTx(txCtx, tx)
		})
	p.Infof("分类耗时: %v", time.Since(parseStart))

	classified := make([]*core.Classification, 0, len(results))
	for _, r := range results {
		if r != nil {
			classified = append(classified, r)
		}
	}
	p.Infof("总tx数量: %v, 有效tx数量: %v, 分类结果: %v",
		len(block.Transactions), len(validTxs), len(classified))

	// 4. 更新价格缓存（所有 swap 成交都是价格样本）
	p.updatePriceCache(txCtx.BlockTime, classified)

	// 5. 下发 Kafka 并标记进度
	p.dispatchAndMark(block.Slot, txCtx.BlockTime, classified)
}

// classifyTx 单笔交易的适配 + 分类，失败返回 nil（只影响该笔交易）
func (p *BlockProcessor) classifyTx(txCtx *core.TxContext, tx *pb.SubscribeUpdateTransactionInfo) *core.Classification {
	event, err := txadapter.AdaptGrpcTx(txCtx, tx)
	if err != nil {
		p.Errorf("交易适配失败: slot=%d, txIndex=%d, err=%v", txCtx.Slot, tx.Index, err)
		return nil
	}

	result, err := p.sc.Classifier.Process(event)
	if err != nil {
		var malformed *classify.MalformedEventError
		if errors.As(err, &malformed) {
			p.Errorf("事件结构违规, 丢弃: slot=%d, txIndex=%d, reason=%s",
				txCtx.Slot, event.TxIndex, malformed.Reason)
		} else {
			p.Errorf("分类失败: slot=%d, txIndex=%d, err=%v", txCtx.Slot, event.TxIndex, err)
		}
		return nil
	}
	return result
}

func (p *BlockProcessor) updatePriceCache(blockTime int64, results []*core.Classification) {
	var points map[types.Pubkey]cache.TokenPricePoint
	for _, r := range results {
		if r.Swap == nil {
			continue
		}
		if points == nil {
			points = make(map[types.Pubkey]cache.TokenPricePoint)
		}
		points[r.Swap.Token] = cache.TokenPricePoint{
			Timestamp: blockTime,
			PriceSol:  r.Swap.ImpliedPrice,
		}
	}
	if points != nil {
		p.sc.PriceCache.Insert(points)
	}
}

// dispatchAndMark 按区块为单位推送 Kafka，并在成功后标记 slot 进度
func (p *BlockProcessor) dispatchAndMark(slot uint64, blockTime int64, results []*core.Classification) {
	jobs := p.dispatcher.BuildJobs(results)

	status := progress.SlotProcessed
	if len(jobs) > 0 {
		timeConf := p.sc.Config.TimeConf
		sendCtx, cancel := context.WithTimeout(p.ctx,
			time.Duration(timeConf.SlotDispatchTimeoutMs)*time.Millisecond)
		defer cancel()

		ok, failed := mq.SendKafkaJobs(sendCtx, p.sc.Producer, jobs,
			time.Duration(timeConf.EventSendTimeoutMs)*time.Millisecond)
		if len(failed) > 0 {
			// 部分失败不回滚已发送消息，slot 不标记 processed，等待补偿
			p.Errorf("Kafka 下发部分失败: slot=%d, ok=%d, failed=%d, first_err=%v",
				slot, len(ok), len(failed), failed[0].Err)
			return
		}
		p.Infof("Kafka 下发完成: slot=%d, events=%d", slot, len(ok))
	}

	for _, et := range []progress.EventType{progress.EventBalance, progress.EventTrade} {
		if err := p.sc.ProgressManager.MarkSlotStatus(
			p.ctx, slot, et, progress.SourceGrpc, blockTime, status); err != nil {
			p.Errorf("slot 进度标记失败: slot=%d, type=%s, err=%v", slot, et.TableName(), err)
		}
	}
}

func (p *BlockProcessor) buildTxContext(block *pb.SubscribeUpdateBlock) *core.TxContext {
	// blockHash 解析失败只打日志, 使用零值继续
	blockHash, err := types.HashFromBase58(block.Blockhash)
	if err != nil {
		p.Errorf("blockHash 无法解析, 使用零值: slot=%d, blockhash=%s, err=%v",
			block.Slot, block.Blockhash, err)
	}

	var blockTime int64
	if block.BlockTime != nil {
		blockTime = block.BlockTime.Timestamp
	}
	var blockHeight uint64
	if block.BlockHeight != nil {
		blockHeight = block.BlockHeight.BlockHeight
	}

	return &core.TxContext{
		BlockTime:   blockTime,
		Slot:        block.Slot,
		BlockHeight: blockHeight,
		BlockHash:   blockHash,
	}
}
