package txadapter

import (
	"fmt"

	"wallet-indexer-sol/internal/logic/core"
	"wallet-indexer-sol/internal/tools"
	"wallet-indexer-sol/internal/types"
	"wallet-indexer-sol/internal/utils"

	pb "github.com/rpcpool/yellowstone-grpc/examples/golang/proto"
)

// ValidateGrpcTx 校验 gRPC 推送的交易结构完整性，任一字段缺失即整笔丢弃。
// vote 交易与执行失败的交易在订阅过滤器层面已排除，这里兜底再查一次。
func ValidateGrpcTx(tx *pb.SubscribeUpdateTransactionInfo) error {
	if tx == nil {
		return fmt.Errorf("nil transaction info")
	}
	if tx.Transaction == nil {
		return fmt.Errorf("missing Transaction field")
	}
	if tx.Transaction.Message == nil {
		return fmt.Errorf("missing Message field in transaction")
	}
	if len(tx.Transaction.Signatures) == 0 {
		return fmt.Errorf("missing transaction signature")
	}
	if len(tx.Transaction.Signatures[0]) != 64 {
		return fmt.Errorf("invalid transaction signature length: %d", len(tx.Transaction.Signatures[0]))
	}
	if tx.IsVote {
		return fmt.Errorf("vote transaction skipped")
	}
	if tx.Meta == nil {
		return fmt.Errorf("missing transaction meta data")
	}
	if tx.Meta.Err != nil {
		return fmt.Errorf("transaction execution failed: %v", tx.Meta.Err)
	}
	return nil
}

// buildFullAccountKeys 构造交易中完整的账户 Pubkey 列表。
// 将 message.accountKeys 和 Address Lookup Table 中的 writable / readonly 地址
// 顺序拼接为一个 []Pubkey 切片，供后续通过 accountIndex 高效索引。
//
// 性能设计说明：
//   - 预计算总长度，一次性分配目标切片，避免 append 扩容；
//   - 使用单一索引顺序写入，避免 slice 操作带来的额外开销。
func buildFullAccountKeys(
	accountKeys, loadedWritable, loadedReadonly [][]byte,
) ([]types.Pubkey, error) {
	total := len(accountKeys) + len(loadedWritable) + len(loadedReadonly)
	pubkeys := make([]types.Pubkey, total)

	i := 0 // 写入索引

	for _, b := range accountKeys {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in accountKeys at index %d", i)
		}
		copy(pubkeys[i][:], b)
		i++
	}
	for _, b := range loadedWritable {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in loadedWritable at index %d", i)
		}
		copy(pubkeys[i][:], b)
		i++
	}
	for _, b := range loadedReadonly {
		if len(b) != 32 {
			return nil, fmt.Errorf("invalid pubkey in loadedReadonly at index %d", i)
		}
		copy(pubkeys[i][:], b)
		i++
	}
	return pubkeys, nil
}

// buildTokenRecords 从 Pre/PostTokenBalances 中提取标准 SPL Token
// （TokenProgram / Token-2022）账户的余额快照，非标准程序的模拟账户直接跳过。
// geyser 的 amount 字段为十进制字符串，经 ParseUint64 统一转换。
func buildTokenRecords(
	list []*pb.TokenBalance,
	accountKeys []types.Pubkey,
) ([]core.TokenBalanceRecord, error) {
	if len(list) == 0 {
		return nil, nil
	}

	records := make([]core.TokenBalanceRecord, 0, len(list))
	for _, tb := range list {
		if !tools.IsSPLToken(tb.ProgramId) {
			continue
		}
		if int(tb.AccountIndex) >= len(accountKeys) {
			return nil, fmt.Errorf("token balance accountIndex %d out of range", tb.AccountIndex)
		}
		if tb.UiTokenAmount == nil {
			return nil, fmt.Errorf("token balance missing uiTokenAmount at index %d", tb.AccountIndex)
		}

		owner, err := types.TryPubkeyFromBase58(tb.Owner)
		if err != nil {
			return nil, fmt.Errorf("invalid token balance owner %q: %w", tb.Owner, err)
		}
		mint, err := types.TryPubkeyFromBase58(tb.Mint)
		if err != nil {
			return nil, fmt.Errorf("invalid token balance mint %q: %w", tb.Mint, err)
		}

		records = append(records, core.TokenBalanceRecord{
			Owner:    owner,
			Token:    mint,
			Amount:   utils.ParseUint64(tb.UiTokenAmount.Amount),
			Decimals: uint8(tb.UiTokenAmount.Decimals),
		})
	}
	return records, nil
}

// AdaptGrpcTx 将 gRPC 推送的交易数据转换为内部结构 core.TxEvent。
// 包含以下处理流程：
//  1. 构建完整的 accountKeys（含 Address Lookup）
//  2. 提取 SOL 余额快照（与 accountKeys 按下标对齐）
//  3. 提取 SPL Token 余额快照（仅标准 Token 程序）
//  4. 若发生 panic，将被捕获并转为错误返回，避免程序崩溃
func AdaptGrpcTx(txCtx *core.TxContext, tx *pb.SubscribeUpdateTransactionInfo) (_ *core.TxEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("AdaptGrpcTx panic: %v", r)
		}
	}()

	if err = ValidateGrpcTx(tx); err != nil {
		return nil, err
	}

	accountKeys, err := buildFullAccountKeys(
		tx.Transaction.Message.AccountKeys,
		tx.Meta.LoadedWritableAddresses,
		tx.Meta.LoadedReadonlyAddresses,
	)
	if err != nil {
		return nil, fmt.Errorf("buildFullAccountKeys error: %w", err)
	}
	if len(accountKeys) == 0 {
		return nil, fmt.Errorf("invalid transaction: empty accountKeys")
	}

	// signer 数量校验（前 N 个 accountKeys 视为 signer）
	signerCount := int(tx.Transaction.Message.Header.NumRequiredSignatures)
	if signerCount == 0 || len(accountKeys) < signerCount {
		return nil, fmt.Errorf("invalid signer count: %d", signerCount)
	}

	// SOL 余额快照必须与账户列表严格对齐，否则 delta 计算无从谈起
	if len(tx.Meta.PreBalances) != len(accountKeys) || len(tx.Meta.PostBalances) != len(accountKeys) {
		return nil, fmt.Errorf("native balance count mismatch: pre=%d post=%d keys=%d",
			len(tx.Meta.PreBalances), len(tx.Meta.PostBalances), len(accountKeys))
	}

	tokenPre, err := buildTokenRecords(tx.Meta.PreTokenBalances, accountKeys)
	if err != nil {
		return nil, fmt.Errorf("pre token balances: %w", err)
	}
	tokenPost, err := buildTokenRecords(tx.Meta.PostTokenBalances, accountKeys)
	if err != nil {
		return nil, fmt.Errorf("post token balances: %w", err)
	}

	return &core.TxEvent{
		TxCtx:       txCtx,
		TxIndex:     tx.Index,
		Signature:   tx.Transaction.Signatures[0],
		AccountKeys: accountKeys,
		Fee:         tx.Meta.Fee,
		NativePre:   tx.Meta.PreBalances,
		NativePost:  tx.Meta.PostBalances,
		TokenPre:    tokenPre,
		TokenPost:   tokenPost,
		LogLines:    tx.Meta.LogMessages,
	}, nil
}
