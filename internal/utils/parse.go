package utils

import "strconv"

// ParseUint64 解析十进制字符串为 uint64，非法输入返回 0。
// geyser 推送的 token 余额 amount 字段为字符串，统一经此转换。
func ParseUint64(s string) uint64 {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
