package core

import (
	"wallet-indexer-sol/internal/types"
)

// TxContext 表示交易所属区块的上下文信息，包含时间、高度等元数据。
type TxContext struct {
	BlockTime   int64      // 区块时间戳（Unix 秒）
	Slot        uint64     // 当前 Slot（Solana 高度单位）
	BlockHeight uint64     // 区块高度（辅助比对）
	BlockHash   types.Hash // 区块哈希（辅助去重与 fork 检测）
}

// TokenBalanceRecord 表示某个 SPL Token 持仓在交易前或交易后的一条余额快照。
// Owner 为 token account 的所有者钱包（而非 token account 本身），
// 分类阶段的归集均以 (Owner, Token) 为 key。
type TokenBalanceRecord struct {
	Owner    types.Pubkey // 持仓所有者钱包
	Token    types.Pubkey // token mint
	Amount   uint64       // 余额（最小单位）
	Decimals uint8        // mint 精度
}

// TxEvent 表示一笔已解码的交易更新事件，是分类管线的唯一输入。
// 每条 geyser 推送构造一个新实例，同步消费后即丢弃，事件之间不共享状态。
type TxEvent struct {
	TxCtx     *TxContext // 所属区块上下文
	TxIndex   uint64     // 当前交易在区块中的序号
	Signature []byte     // 交易签名（64 字节原始数据）

	// AccountKeys 为完整账户列表（含 Address Lookup 地址），首位为 fee payer / signer。
	AccountKeys []types.Pubkey

	Fee uint64 // 交易手续费（lamports），由 fee payer 承担

	// NativePre / NativePost 与 AccountKeys 按下标对齐，表示各账户交易前后的 SOL 余额。
	NativePre  []uint64
	NativePost []uint64

	// TokenPre / TokenPost 为交易前后的 SPL Token 余额快照（仅标准 Token 程序账户）。
	TokenPre  []TokenBalanceRecord
	TokenPost []TokenBalanceRecord

	// LogLines 为交易执行产生的 Program 日志，分类器用于识别 swap 指令标记。
	LogLines []string
}

// FeePayer 返回 accountKeys[0]，约定为手续费支付者（也是交易 signer）。
func (e *TxEvent) FeePayer() types.Pubkey {
	return e.AccountKeys[0]
}

// SignerTokenRecords 返回属于 signer 的 pre/post token 快照。
// swap 形态判定与价格计算只关心 signer 自身的持仓变化。
func (e *TxEvent) SignerTokenRecords() (pre, post []TokenBalanceRecord) {
	signer := e.FeePayer()
	for _, r := range e.TokenPre {
		if r.Owner == signer {
			pre = append(pre, r)
		}
	}
	for _, r := range e.TokenPost {
		if r.Owner == signer {
			post = append(post, r)
		}
	}
	return pre, post
}
