package classify

import (
	"wallet-indexer-sol/internal/consts"
	"wallet-indexer-sol/internal/types"
)

// Config 为分类器的全部可配置项。
// WatchList 为调用方传入的只读集合，分类器不修改、也不持有其它状态。
type Config struct {
	WatchList      map[types.Pubkey]struct{} // 关注的钱包集合
	NativeMint     types.Pubkey              // 原生 SOL 的 AssetId（默认 WSOL mint）
	NativeDecimals uint8                     // 固定为 9
	SwapMarker     string                    // swap 指令的日志标记行
}

// Classifier 对单笔交易事件做形态识别与余额变动归一。
// 纯函数式：同一输入必得同一输出，事件之间无共享可变状态，可在紧循环中反复调用。
type Classifier struct {
	cfg Config
}

func New(cfg Config) *Classifier {
	if cfg.NativeMint == (types.Pubkey{}) {
		cfg.NativeMint = consts.WSOLMint
	}
	if cfg.NativeDecimals == 0 {
		cfg.NativeDecimals = consts.NativeDecimals
	}
	if cfg.SwapMarker == "" {
		cfg.SwapMarker = consts.SwapLogMarker
	}
	if cfg.WatchList == nil {
		cfg.WatchList = map[types.Pubkey]struct{}{}
	}
	return &Classifier{cfg: cfg}
}

// Watched 判断某 owner 是否在 watch-list 内
func (c *Classifier) Watched(owner types.Pubkey) bool {
	_, ok := c.cfg.WatchList[owner]
	return ok
}
