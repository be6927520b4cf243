package config

import (
	"fmt"
	"os"

	"wallet-indexer-sol/internal/types"

	"gopkg.in/yaml.v3"
)

// watchlistFile 是 watch-list 配置文件的结构（yaml）
type watchlistFile struct {
	Wallets []string `yaml:"wallets"`
}

// LoadWatchlist 读取并解析 watch-list 文件，返回钱包地址集合。
// 地址非法直接报错而非跳过：监控名单写错通常意味着整份配置不可信。
func LoadWatchlist(path string) (map[types.Pubkey]struct{}, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read watchlist %s: %w", path, err)
	}

	var f watchlistFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse watchlist %s: %w", path, err)
	}
	if len(f.Wallets) == 0 {
		return nil, fmt.Errorf("watchlist %s: no wallets configured", path)
	}

	watch := make(map[types.Pubkey]struct{}, len(f.Wallets))
	for _, s := range f.Wallets {
		pubkey, err := types.TryPubkeyFromBase58(s)
		if err != nil {
			return nil, fmt.Errorf("watchlist %s: invalid wallet %q: %w", path, s, err)
		}
		watch[pubkey] = struct{}{}
	}
	return watch, nil
}
