package consts

import "wallet-indexer-sol/internal/types"

// Base58 地址常量（可读性高，适合配置与日志使用）
const (
	//  Programs
	TokenProgramStr     = "TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA"
	TokenProgram2022Str = "TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb"

	// WSOLMintStr 是原生 SOL 的展示 mint（分类结果中原生余额变动统一挂在该 mint 下）
	WSOLMintStr = "So11111111111111111111111111111111111111112"
)

var (
	// Programs
	TokenProgram     = types.PubkeyFromBase58(TokenProgramStr)
	TokenProgram2022 = types.PubkeyFromBase58(TokenProgram2022Str)

	// WSOLMint 作为原生 SOL 的 AssetId 使用（与任何 SPL token mint 均不同）
	WSOLMint = types.PubkeyFromBase58(WSOLMintStr)
)
